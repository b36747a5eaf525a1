package security_test

import (
	"testing"

	"github.com/geocoder89/accounthub/internal/security"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	// MinCost keeps the test fast; production cost comes from config
	hash, err := security.HashPassword("secret1", bcrypt.MinCost)

	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}

	if hash == "secret1" {
		t.Fatalf("hash must not equal the plaintext")
	}

	if err := security.CheckPassword(hash, "secret1"); err != nil {
		t.Fatalf("expected verify to succeed: %v", err)
	}

	if err := security.CheckPassword(hash, "wrong"); err == nil {
		t.Fatalf("expected verify to fail for a wrong password")
	}
}

func TestHashPasswordCostFallback(t *testing.T) {
	// out-of-range costs fall back to the bcrypt default instead of failing
	hash, err := security.HashPassword("secret1", 99)

	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}

	cost, err := bcrypt.Cost([]byte(hash))

	if err != nil {
		t.Fatalf("cost extraction failed: %v", err)
	}

	if cost != bcrypt.DefaultCost {
		t.Fatalf("got cost %d, want default %d", cost, bcrypt.DefaultCost)
	}
}

func TestHashPasswordHonorsCost(t *testing.T) {
	hash, err := security.HashPassword("secret1", bcrypt.MinCost)

	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}

	cost, err := bcrypt.Cost([]byte(hash))

	if err != nil {
		t.Fatalf("cost extraction failed: %v", err)
	}

	if cost != bcrypt.MinCost {
		t.Fatalf("got cost %d, want %d", cost, bcrypt.MinCost)
	}
}
