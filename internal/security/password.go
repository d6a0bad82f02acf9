package security

import (
	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes and checks passwords with bcrypt at a fixed cost.
type Hasher struct {
	cost  int
	dummy []byte
}

func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}

	// a real hash at the same cost so lookups that miss still pay for a comparison
	dummy, err := bcrypt.GenerateFromPassword([]byte("taskhub-dummy-password"), cost)
	if err != nil {
		panic(err)
	}

	return &Hasher{cost: cost, dummy: dummy}
}

// Hash password hashes a plain text password with bcrypt (salted per call).
func (h *Hasher) Hash(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)

	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// Check compares a bcrypt hash with a plaintext password.
func (h *Hasher) Check(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// CheckDummy burns the same time as Check for callers with no stored hash.
func (h *Hasher) CheckDummy(plain string) {
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(plain))
}
