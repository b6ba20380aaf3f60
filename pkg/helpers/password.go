package helpers

import "golang.org/x/crypto/bcrypt"

// bcryptCost is the fixed work factor for credential hashes. Raising it
// slows offline brute force at the price of login latency.
const bcryptCost = 12

// HashPassword hashes a plaintext password with bcrypt. The plaintext must
// never be logged or stored by callers.
func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword reports whether plain matches the bcrypt hash. bcrypt's own
// comparison runs in constant time relative to the mismatch position.
func CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
