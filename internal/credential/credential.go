// Package credential hashes account secrets and checks presented
// secrets against stored hashes.
package credential

import "golang.org/x/crypto/bcrypt"

// Cost is the bcrypt work factor used for new hashes. Existing hashes
// keep whatever cost they were created with.
const Cost = 10

// Hash returns a one-way salted hash of secret.
func Hash(secret string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(secret), Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify reports whether secret matches the stored hash. Every failure
// mode, including a malformed hash, is reported as false so callers
// cannot distinguish them.
func Verify(secret, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}
