// Package passwords implements the password policy and bcrypt hashing.
package passwords

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf16"

	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultCost = 10

	MinLength = 8
	// MaxBytes is the longest input bcrypt accepts.
	MaxBytes = 72
)

var (
	lowerRe   = regexp.MustCompile(`[a-z]`)
	upperRe   = regexp.MustCompile(`[A-Z]`)
	digitRe   = regexp.MustCompile(`\d`)
	specialRe = regexp.MustCompile(`[\W_]`)
)

// Hasher hashes and verifies passwords with a fixed bcrypt cost.
type Hasher struct {
	Cost int
}

// NewHasher returns a Hasher; a cost outside bcrypt's range falls back to
// DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &Hasher{Cost: cost}
}

// Hash returns the bcrypt hash of password.
func (h *Hasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

// Compare reports whether password matches hash. A mismatch is not an
// error; a malformed hash is.
func (h *Hasher) Compare(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("compare password: %w", err)
	}
}

// HashContext is Hash that gives up when ctx is done. The bcrypt work
// itself still runs to completion in the background.
func (h *Hasher) HashContext(ctx context.Context, password string) (string, error) {
	type result struct {
		hash string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		hash, err := h.Hash(password)
		ch <- result{hash, err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		return r.hash, r.err
	}
}

// CompareContext is Compare that gives up when ctx is done.
func (h *Hasher) CompareContext(ctx context.Context, password, hash string) (bool, error) {
	type result struct {
		ok  bool
		err error
	}
	ch := make(chan result, 1)
	go func() {
		ok, err := h.Compare(password, hash)
		ch <- result{ok, err}
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case r := <-ch:
		return r.ok, r.err
	}
}

// Checks is the per-criterion outcome of the policy.
type Checks struct {
	MinLength  bool `json:"minLength"`
	MaxLength  bool `json:"maxLength"`
	Lowercase  bool `json:"hasLowercase"`
	Uppercase  bool `json:"hasUppercase"`
	Number     bool `json:"hasNumber"`
	SpecialChr bool `json:"hasSpecialChar"`
}

func (c Checks) ok() bool {
	return c.MinLength && c.MaxLength && c.Lowercase && c.Uppercase && c.Number && c.SpecialChr
}

// Details explains a policy evaluation.
type Details struct {
	Valid    bool     `json:"isValid"`
	Checks   Checks   `json:"checks"`
	Failures []string `json:"failures"`
	Message  string   `json:"message"`
}

// length counts UTF-16 code units, so a character outside the BMP
// counts twice toward MinLength.
func length(password string) int {
	n := 0
	for _, r := range password {
		n += utf16.RuneLen(r)
	}
	return n
}

// Check evaluates password against every criterion.
func Check(password string) Details {
	c := Checks{
		MinLength:  length(password) >= MinLength,
		MaxLength:  len(password) <= MaxBytes,
		Lowercase:  lowerRe.MatchString(password),
		Uppercase:  upperRe.MatchString(password),
		Number:     digitRe.MatchString(password),
		SpecialChr: specialRe.MatchString(password),
	}

	failures := []string{}
	if !c.MinLength {
		failures = append(failures, fmt.Sprintf("at least %d characters", MinLength))
	}
	if !c.MaxLength {
		failures = append(failures, fmt.Sprintf("at most %d bytes", MaxBytes))
	}
	if !c.Lowercase {
		failures = append(failures, "1 lowercase letter")
	}
	if !c.Uppercase {
		failures = append(failures, "1 uppercase letter")
	}
	if !c.Number {
		failures = append(failures, "1 number")
	}
	if !c.SpecialChr {
		failures = append(failures, "1 special character")
	}

	msg := "password is valid"
	if len(failures) > 0 {
		msg = "password must contain: " + strings.Join(failures, ", ")
	}

	return Details{Valid: c.ok(), Checks: c, Failures: failures, Message: msg}
}

// Validate reports whether password satisfies the policy.
func Validate(password string) bool {
	return Check(password).Valid
}

// Policy describes the password rules for clients.
type Policy struct {
	MinLength          int    `json:"minLength"`
	MaxBytes           int    `json:"maxBytes"`
	RequireLowercase   bool   `json:"requireLowercase"`
	RequireUppercase   bool   `json:"requireUppercase"`
	RequireNumber      bool   `json:"requireNumber"`
	RequireSpecialChar bool   `json:"requireSpecialChar"`
	Message            string `json:"message"`
}

// Requirements returns the active policy.
func Requirements() Policy {
	return Policy{
		MinLength:          MinLength,
		MaxBytes:           MaxBytes,
		RequireLowercase:   true,
		RequireUppercase:   true,
		RequireNumber:      true,
		RequireSpecialChar: true,
		Message:            "password must be at least 8 characters and include 1 lowercase letter, 1 uppercase letter, 1 number and 1 special character",
	}
}
