package auth

import (
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/polkiloo/storefront/internal/config"
)

func TestNewPasswordHasher(t *testing.T) {
	cases := []struct {
		cost int
		want int
	}{
		{cost: 0, want: bcrypt.DefaultCost},
		{cost: 12, want: 12},
	}
	for _, tc := range cases {
		hasher := newPasswordHasher(strategyParams{Config: &config.Config{BcryptCost: tc.cost}})
		bcryptHasher, ok := hasher.(*BcryptHasher)
		if !ok {
			t.Fatalf("expected *BcryptHasher, got %T", hasher)
		}
		if bcryptHasher.cost != tc.want {
			t.Fatalf("expected cost %d, got %d", tc.want, bcryptHasher.cost)
		}
	}
}

func TestNewTokenStrategy(t *testing.T) {
	strategy := newTokenStrategy(strategyParams{Config: &config.Config{JWTSecret: "top-secret", TokenTTL: 3 * time.Hour}})
	hmacStrategy, ok := strategy.(*HMACStrategy)
	if !ok {
		t.Fatalf("expected *HMACStrategy, got %T", strategy)
	}
	if string(hmacStrategy.secret) != "top-secret" {
		t.Fatalf("unexpected secret: %q", string(hmacStrategy.secret))
	}
	if hmacStrategy.ttl != 3*time.Hour {
		t.Fatalf("unexpected ttl: %s", hmacStrategy.ttl)
	}
}

func TestNewTokenStrategyDefaultsTTL(t *testing.T) {
	strategy := newTokenStrategy(strategyParams{Config: &config.Config{JWTSecret: "top-secret"}})
	if ttl := strategy.(*HMACStrategy).ttl; ttl != defaultTokenTTL {
		t.Fatalf("expected default ttl, got %s", ttl)
	}
}
