// Package users stores user records. FileRepository keeps them in a JSON
// array on disk; PostgresRepository keeps them in the users table. Both
// satisfy Repository with the same semantics.
package users

import (
	"context"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/userkeeper/internal/server/models"
)

const DefaultIDWidth = 2

// Repository is the storage contract used by the user service.
//
// Lookups of absent records return common.ErrUserNotFound. Create and Update
// return common.ErrEmailTaken when another record already uses the email;
// the check and the write are atomic.
type Repository interface {
	GetAll(ctx context.Context) ([]models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	EmailExists(ctx context.Context, email, excludeID string) (bool, error)
	Create(ctx context.Context, user models.User) (models.User, error)
	Update(ctx context.Context, id string, in models.UserInput) (models.User, error)
	Delete(ctx context.Context, id string) (models.User, error)
	Count(ctx context.Context) (int, error)
	FindPaginated(ctx context.Context, page, limit int) (models.Page, error)
}

// Stamper renders the createdAt/updatedAt value. *timex.Stamper
// implements it.
type Stamper interface {
	Stamp() string
}

// ParseID reads the leading decimal integer of id, ignoring leading
// whitespace and allowing a sign. Ids without one, or too large for int64,
// read as 0.
func ParseID(id string) int64 {
	s := strings.TrimLeft(id, " \t\n\r")
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// FormatID renders n left-padded with zeros to width. Wider numbers are
// never truncated.
func FormatID(n int64, width int) string {
	s := strconv.FormatInt(n, 10)
	if len(s) < width {
		s = strings.Repeat("0", width-len(s)) + s
	}
	return s
}

// NextID returns one more than the largest numeric id in users (0 when
// there are none or all are non-positive), formatted with FormatID.
func NextID(users []models.User, width int) string {
	var last int64
	for _, u := range users {
		if n := ParseID(u.ID); n > last {
			last = n
		}
	}
	return FormatID(last+1, width)
}

// TotalPages is ceil(total/limit) without risking overflow on large limits.
func TotalPages(total, limit int) int {
	if limit < 1 || total < 1 {
		return 0
	}
	n := total / limit
	if total%limit != 0 {
		n++
	}
	return n
}

// Paginate slices users for the 1-based page. Pages past the end are empty.
// Callers are expected to pass page >= 1 and limit >= 1.
func Paginate(users []models.User, page, limit int) models.Page {
	total := len(users)
	p := models.Page{Users: []models.User{}, Total: total, Page: page, Limit: limit}
	if limit < 1 || page < 1 {
		return p
	}
	p.TotalPages = TotalPages(total, limit)

	// Checked before multiplying so huge pages cannot overflow the offset.
	if page > p.TotalPages {
		return p
	}
	start := (page - 1) * limit
	end := min(start+limit, total)
	p.Users = append(p.Users, users[start:end]...)
	return p
}

// ApplyUpdate shallow-merges the supplied fields of in onto u and sets
// UpdatedAt. in is expected to be sanitized, with Password already hashed.
func ApplyUpdate(u models.User, in models.UserInput, stamp string) models.User {
	if in.Name != nil {
		u.Name = *in.Name
	}
	if in.Email != nil {
		u.Email = *in.Email
	}
	if in.Password != nil {
		u.Password = *in.Password
	}
	u.UpdatedAt = stamp
	return u
}
