package emails

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrijs2005/userkeeper/internal/server/models"
)

func TestIsValidFormat(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"ana@example.com", true},
		{"  ana@example.com  ", true},
		{"a.b+c@sub.example.co", true},
		{"ana@example", false},
		{"ana example@x.com", false},
		{"@example.com", false},
		{"ana@@example.com", false},
		{"", false},
		{"a\u00a0b@x.io", false},
		{"ana@exa\u2028mple.com", false},
		{"ana@example.com\u3000x", false},
		{"ana\vb@x.io", false},
		{"ana@ex\ufeffample.com", false},
		{"\u00a0ana@example.com\ufeff", true},
		{"jos\u00e9@exemplo.com.br", true},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidFormat(tt.email))
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "ana@example.com", Normalize("  Ana@Example.COM "))
	assert.Equal(t, "ana@example.com", Normalize("\u00a0Ana@Example.COM\ufeff"))
}

func TestExists(t *testing.T) {
	users := []models.User{
		{ID: "01", Email: "ana@example.com"},
		{ID: "02", Email: "Bob@Example.com"},
	}

	assert.True(t, Exists(users, "ANA@example.com", ""))
	assert.True(t, Exists(users, " bob@example.com", "01"))
	assert.False(t, Exists(users, "ana@example.com", "01"))
	assert.False(t, Exists(users, "carol@example.com", ""))
	assert.False(t, Exists(nil, "ana@example.com", ""))
}
