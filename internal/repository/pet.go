package repository

import (
	"context"

	"github.com/carissacho3/pet-adoption-backend/internal/domain"
)

// PetRepository exposes persistence operations for Pet listings.
type PetRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, pet *domain.Pet) error
	Update(ctx context.Context, pet *domain.Pet) error
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*domain.Pet, error)
	// GetMany returns the pets among ids that exist, in no particular order.
	GetMany(ctx context.Context, ids []string) ([]domain.Pet, error)
	List(ctx context.Context) ([]domain.Pet, error)
	ListByType(ctx context.Context, animal domain.AnimalType) ([]domain.Pet, error)
}
