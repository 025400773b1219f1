package auth

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"
)

// Credentials is the single operator login of the dashboard.
type Credentials struct {
	Username     string
	PasswordHash string
}

// Verify reports whether username and password match. The bcrypt comparison
// runs even for an unknown username.
func (c Credentials) Verify(username, password string) bool {
	nameOK := subtle.ConstantTimeCompare([]byte(username), []byte(c.Username)) == 1
	passErr := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password))
	return nameOK && passErr == nil
}
