// Package password wraps the commodity hashing primitive the login policy
// delegates to. The policy itself never compares passwords.
package password

import "golang.org/x/crypto/bcrypt"

// Hash derives a bcrypt hash from a plaintext password.
func Hash(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// BcryptVerifier satisfies the auth service's PasswordVerifier port.
type BcryptVerifier struct{}

// Verify returns nil when plain matches the stored hash.
func (BcryptVerifier) Verify(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}
