package security

import "golang.org/x/crypto/bcrypt"

// HashPassword hashes a plain text password with bcrypt at the given cost.
// A cost outside bcrypt's supported range falls back to the library default,
// so a misconfigured BCRYPT_COST cannot weaken hashing below it.
func HashPassword(plain string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plain), cost)

	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// helper that compares a bcrypt hash with a plaintext password.

func CheckPassword(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}
