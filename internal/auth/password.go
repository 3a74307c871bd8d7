package auth

import (
	_ "embed"
	"errors"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// maxSimilarity is the character-overlap ratio at which a password counts as too close to a user attribute.
const maxSimilarity = 0.7

// Password policy violations returned by ValidatePassword.
var (
	ErrPasswordTooShort   = errors.New("password must contain at least 8 characters")
	ErrPasswordTooSimilar = errors.New("password is too similar to the other personal information")
	ErrPasswordTooCommon  = errors.New("password is a commonly used password")
	ErrPasswordNumeric    = errors.New("password is entirely numeric")
)

//go:embed common_passwords.txt
var commonPasswordList string

var commonPasswords = func() map[string]struct{} {
	set := make(map[string]struct{})
	for _, line := range strings.Split(commonPasswordList, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			set[strings.ToLower(line)] = struct{}{}
		}
	}
	return set
}()

var attributeSeparator = regexp.MustCompile(`[^\p{L}\p{N}_]+`)

// ValidatePassword applies the password policy. attributes are the owner's username, email and similar values.
func ValidatePassword(password string, attributes ...string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if tooSimilar(password, attributes) {
		return ErrPasswordTooSimilar
	}
	if _, ok := commonPasswords[strings.ToLower(strings.TrimSpace(password))]; ok {
		return ErrPasswordTooCommon
	}
	if isNumeric(password) {
		return ErrPasswordNumeric
	}
	return nil
}

// IsPolicyViolation reports whether err came from ValidatePassword.
func IsPolicyViolation(err error) bool {
	return errors.Is(err, ErrPasswordTooShort) ||
		errors.Is(err, ErrPasswordTooSimilar) ||
		errors.Is(err, ErrPasswordTooCommon) ||
		errors.Is(err, ErrPasswordNumeric)
}

// HashPassword validates and hashes a plaintext password. Out-of-range costs fall back to bcrypt.DefaultCost.
func HashPassword(password string, cost int, attributes ...string) (string, error) {
	if err := ValidatePassword(password, attributes...); err != nil {
		return "", err
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// PasswordMatches verifies a password against its hash.
func PasswordMatches(hashed, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}

// tooSimilar compares the password with each attribute and each of its word parts.
func tooSimilar(password string, attributes []string) bool {
	lowered := strings.ToLower(password)
	pwdLen := utf8.RuneCountInString(lowered)
	for _, attr := range attributes {
		attr = strings.ToLower(strings.TrimSpace(attr))
		if attr == "" {
			continue
		}
		parts := append(attributeSeparator.Split(attr, -1), attr)
		for _, part := range parts {
			partLen := utf8.RuneCountInString(part)
			if partLen == 0 {
				continue
			}
			// a short part inside a much longer password cannot reach the ratio
			if pwdLen >= 10*partLen && float64(partLen) < maxSimilarity/2*float64(pwdLen) {
				continue
			}
			if overlapRatio(lowered, part) >= maxSimilarity {
				return true
			}
		}
	}
	return false
}

// overlapRatio is 2*M/T where M counts characters shared by both strings regardless of order.
func overlapRatio(a, b string) float64 {
	counts := make(map[rune]int)
	for _, r := range b {
		counts[r]++
	}
	matches := 0
	for _, r := range a {
		if counts[r] > 0 {
			counts[r]--
			matches++
		}
	}
	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	if total == 0 {
		return 0
	}
	return 2 * float64(matches) / float64(total)
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}
