package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"farmportal/pkg/apperr"
)

const MinLength = 8

// Cost is the bcrypt work factor; tests lower it.
var Cost = bcrypt.DefaultCost

func Validate(pw string) error {
	if len(pw) < MinLength {
		return apperr.Invalid("password must be at least %d characters", MinLength)
	}
	if len(pw) > 72 {
		return apperr.Invalid("password must be at most 72 characters")
	}
	return nil
}

func Hash(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Check reports whether pw matches hash. A malformed hash is an error, a
// wrong password is not.
func Check(hash, pw string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, err
}
