// Package emails holds email address checks shared by validation and the
// repositories.
package emails

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/dmitrijs2005/userkeeper/internal/server/models"
)

// notSpace excludes Unicode whitespace, not only RE2's ASCII \s: \p{Z}
// covers NBSP, the U+2000 block and the line/paragraph separators; \v and
// the BOM are listed explicitly.
const notSpace = `[^\s\x{0B}\x{FEFF}\p{Z}@]`

var formatRe = regexp.MustCompile(`^` + notSpace + `+@` + notSpace + `+\.` + notSpace + `+$`)

// isSpace matches the whitespace trimmed around addresses: Unicode spaces
// plus the BOM, but not NEL.
func isSpace(r rune) bool {
	if r == '\uFEFF' {
		return true
	}
	return r != '\u0085' && unicode.IsSpace(r)
}

func trim(email string) string {
	return strings.TrimFunc(email, isSpace)
}

// IsValidFormat reports whether email, once trimmed, looks like
// local@domain.tld. It is a shape check only.
func IsValidFormat(email string) bool {
	return formatRe.MatchString(trim(email))
}

// Normalize lowercases and trims email.
func Normalize(email string) string {
	return strings.ToLower(trim(email))
}

// Equal compares two addresses the way uniqueness is enforced.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// Exists reports whether any user other than excludeID has email.
// An empty excludeID excludes nothing.
func Exists(users []models.User, email, excludeID string) bool {
	for _, u := range users {
		if excludeID != "" && u.ID == excludeID {
			continue
		}
		if Equal(u.Email, email) {
			return true
		}
	}
	return false
}
