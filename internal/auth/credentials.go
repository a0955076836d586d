package auth

import "golang.org/x/crypto/bcrypt"

// bcryptCost is fixed for the whole process; it is not caller-tunable.
const bcryptCost = 10

// Credentials hashes and verifies diner passwords. Plaintext is never stored
// or returned.
type Credentials struct{}

// Hash produces a salted one-way hash of the plaintext.
func (Credentials) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Compare reports whether the plaintext matches the stored hash.
func (Credentials) Compare(hashed, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plaintext)) == nil
}
