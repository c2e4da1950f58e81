package hasher

import "golang.org/x/crypto/bcrypt"

// Bcrypt hashes and verifies passwords. The cost is configurable so tests can
// run at bcrypt.MinCost.
type Bcrypt struct {
	cost int
}

// NewBcrypt returns a hasher with the given work factor. Costs outside the
// bcrypt range fall back to the library default.
func NewBcrypt(cost int) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{cost: cost}
}

// Hash derives a salted one-way hash from plain. The returned string encodes
// the algorithm parameters and salt, so Verify needs no external state.
func (b *Bcrypt) Hash(plain string) (string, error) {
	out, err := bcrypt.GenerateFromPassword([]byte(plain), b.cost)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Verify reports whether plain matches hashed. Malformed hashes verify as
// false rather than erroring.
func (b *Bcrypt) Verify(plain, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}
