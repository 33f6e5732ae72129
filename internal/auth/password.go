package auth

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a plaintext password with configured cost.
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePassword verifies a password against its hashed value in constant time.
func ComparePassword(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}

var (
	dummyOnce sync.Once
	dummyHash string
)

// compareDummy burns the same bcrypt work as a real comparison so unknown subjects
// are not distinguishable by response time.
func compareDummy(plain string, cost int) {
	dummyOnce.Do(func() {
		dummyHash, _ = HashPassword("dummy-password-for-timing", cost)
	})
	_ = ComparePassword(dummyHash, plain)
}
