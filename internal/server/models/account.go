package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/todokeeper/internal/common"
)

const (
	UsernameMinLen = 3
	UsernameMaxLen = 50
	PasswordMinLen = 4
	PasswordMaxLen = 100
)

// Account is a registered identity. Username never changes after creation.
type Account struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// NormalizeUsername trims surrounding whitespace.
func NormalizeUsername(username string) string {
	return strings.TrimSpace(username)
}

// ValidateCredentials checks registration input. The username is expected
// to be normalized already.
func ValidateCredentials(username, password string) error {
	if n := utf8.RuneCountInString(username); n < UsernameMinLen || n > UsernameMaxLen {
		return fmt.Errorf("%w: username must be between %d and %d characters", common.ErrorValidation, UsernameMinLen, UsernameMaxLen)
	}
	if n := utf8.RuneCountInString(password); n < PasswordMinLen || n > PasswordMaxLen {
		return fmt.Errorf("%w: password must be between %d and %d characters", common.ErrorValidation, PasswordMinLen, PasswordMaxLen)
	}
	return nil
}
