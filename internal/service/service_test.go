package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/carissacho3/pet-adoption-backend/internal/auth"
	"github.com/carissacho3/pet-adoption-backend/internal/domain"
	"github.com/carissacho3/pet-adoption-backend/internal/repository/sqlite"
)

const testPicture = "https://example.com/default-profile-pic.jpg"

type fixture struct {
	pets   PetService
	users  UserService
	tokens *auth.TokenService
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "service.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	petRepo := sqlite.NewPetRepository(db)
	userRepo := sqlite.NewUserRepository(db)
	if err := petRepo.Init(ctx); err != nil {
		t.Fatalf("init pets: %v", err)
	}
	if err := userRepo.Init(ctx); err != nil {
		t.Fatalf("init users: %v", err)
	}

	tokens := auth.NewTokenService("service-test-secret", time.Hour)
	hasher := auth.NewPasswordHasher(bcrypt.MinCost)
	return fixture{
		pets:   NewPetService(petRepo, userRepo),
		users:  NewUserService(userRepo, petRepo, tokens, hasher, testPicture),
		tokens: tokens,
	}
}

func ptr[T any](v T) *T { return &v }

func rexInput() domain.PetInput {
	return domain.PetInput{
		Name:             ptr("Rex"),
		Sex:              ptr("Male"),
		Breed:            ptr("Lab"),
		Color:            ptr("Black"),
		Weight:           ptr(30.0),
		Age:              ptr(3.0),
		Summary:          ptr("friendly"),
		Type:             ptr("Dog"),
		SpayedOrNeutered: ptr(true),
		Location:         ptr("City"),
		PhoneNumber:      ptr("555-0100"),
	}
}

func registration(username, email string) domain.Registration {
	return domain.Registration{
		Username:  username,
		Email:     email,
		Password:  "secret123",
		FirstName: "Ada",
		LastName:  "Lovelace",
	}
}

func expectKind(t *testing.T, err error, want Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	if got := KindOf(err); got != want {
		t.Fatalf("expected kind %s, got %s (%v)", want, got, err)
	}
}
