package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/carissacho3/pet-adoption-backend/internal/domain"
	"github.com/carissacho3/pet-adoption-backend/internal/repository"
)

// PetService manages adoption listings.
type PetService interface {
	List(ctx context.Context) ([]domain.Pet, error)
	ListByType(ctx context.Context, animal string) ([]domain.Pet, error)
	Get(ctx context.Context, id string) (*domain.Pet, error)
	Create(ctx context.Context, input domain.PetInput) (*domain.Pet, error)
	Update(ctx context.Context, id string, patch domain.PetPatch) (*domain.Pet, error)
	Delete(ctx context.Context, id string) (*PetDeletion, error)
	AttachImage(ctx context.Context, id, ref string) (*domain.Pet, error)
}

// PetDeletion describes a completed delete. Warnings list follow-up steps that failed
// after the pet itself was removed.
type PetDeletion struct {
	Pet      *domain.Pet
	Warnings []string
}

type petService struct {
	pets  repository.PetRepository
	users repository.UserRepository
}

func NewPetService(pets repository.PetRepository, users repository.UserRepository) PetService {
	return &petService{
		pets:  pets,
		users: users,
	}
}

func (s *petService) List(ctx context.Context) ([]domain.Pet, error) {
	pets, err := s.pets.List(ctx)
	if err != nil {
		return nil, internalError("list pets", err)
	}
	if pets == nil {
		pets = []domain.Pet{}
	}
	return pets, nil
}

func (s *petService) ListByType(ctx context.Context, animal string) ([]domain.Pet, error) {
	notFound := newError(KindNotFound, fmt.Sprintf("no pets of type '%s' found", animal))

	t := domain.AnimalType(animal)
	if !t.Valid() {
		return nil, notFound
	}
	pets, err := s.pets.ListByType(ctx, t)
	if err != nil {
		return nil, internalError("list pets by type", err)
	}
	if len(pets) == 0 {
		return nil, notFound
	}
	return pets, nil
}

func (s *petService) Get(ctx context.Context, id string) (*domain.Pet, error) {
	pet, err := s.pets.Get(ctx, id)
	if err != nil {
		return nil, lookupError("pet", err)
	}
	return pet, nil
}

func (s *petService) Create(ctx context.Context, input domain.PetInput) (*domain.Pet, error) {
	if missing := missingPetFields(input); len(missing) > 0 {
		return nil, newError(KindBadRequest, "missing required fields: "+strings.Join(missing, ", "))
	}

	pet := &domain.Pet{}
	if err := applyPetFields(pet, domain.PetPatch(input)); err != nil {
		return nil, err
	}
	if err := s.pets.Create(ctx, pet); err != nil {
		return nil, internalError("create pet", err)
	}
	return pet, nil
}

func (s *petService) Update(ctx context.Context, id string, patch domain.PetPatch) (*domain.Pet, error) {
	pet, err := s.pets.Get(ctx, id)
	if err != nil {
		return nil, lookupError("pet", err)
	}

	if err := applyPetFields(pet, patch); err != nil {
		return nil, err
	}
	if err := s.pets.Update(ctx, pet); err != nil {
		return nil, lookupError("pet", err)
	}
	return pet, nil
}

func (s *petService) Delete(ctx context.Context, id string) (*PetDeletion, error) {
	pet, err := s.pets.Get(ctx, id)
	if err != nil {
		return nil, lookupError("pet", err)
	}
	if err := s.pets.Delete(ctx, pet.ID); err != nil {
		return nil, lookupError("pet", err)
	}

	result := &PetDeletion{Pet: pet}
	if err := s.users.PurgeBookmark(ctx, pet.ID); err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("remove bookmarks: %v", err))
	}
	return result, nil
}

func (s *petService) AttachImage(ctx context.Context, id, ref string) (*domain.Pet, error) {
	pet, err := s.pets.Get(ctx, id)
	if err != nil {
		return nil, lookupError("pet", err)
	}
	pet.Image = ref
	if err := s.pets.Update(ctx, pet); err != nil {
		return nil, lookupError("pet", err)
	}
	return pet, nil
}

func missingPetFields(in domain.PetInput) []string {
	var missing []string
	blank := func(s *string) bool { return s == nil || strings.TrimSpace(*s) == "" }

	if blank(in.Name) {
		missing = append(missing, "name")
	}
	if blank(in.Sex) {
		missing = append(missing, "sex")
	}
	if blank(in.Breed) {
		missing = append(missing, "breed")
	}
	if blank(in.Color) {
		missing = append(missing, "color")
	}
	if in.Weight == nil {
		missing = append(missing, "weight")
	}
	if in.Age == nil {
		missing = append(missing, "age")
	}
	if blank(in.Summary) {
		missing = append(missing, "summary")
	}
	if blank(in.Type) {
		missing = append(missing, "typeofAnimal")
	}
	if in.SpayedOrNeutered == nil {
		missing = append(missing, "spayedOrNeutered")
	}
	if blank(in.Location) {
		missing = append(missing, "location")
	}
	if blank(in.PhoneNumber) {
		missing = append(missing, "phoneNumber")
	}
	return missing
}

// applyPetFields copies every non-nil field of patch onto pet after validating it.
// Free text is stored as given; enum values are matched after trimming.
// pet is left untouched when any field is rejected.
func applyPetFields(pet *domain.Pet, patch domain.PetPatch) error {
	next := *pet

	text := func(field string, src *string, dst *string) error {
		if src == nil {
			return nil
		}
		if strings.TrimSpace(*src) == "" {
			return newError(KindBadRequest, field+" must not be empty")
		}
		*dst = *src
		return nil
	}

	for _, f := range []struct {
		name string
		src  *string
		dst  *string
	}{
		{"name", patch.Name, &next.Name},
		{"breed", patch.Breed, &next.Breed},
		{"color", patch.Color, &next.Color},
		{"summary", patch.Summary, &next.Summary},
		{"location", patch.Location, &next.Location},
		{"phoneNumber", patch.PhoneNumber, &next.PhoneNumber},
	} {
		if err := text(f.name, f.src, f.dst); err != nil {
			return err
		}
	}

	if patch.Sex != nil {
		sex := domain.Sex(strings.TrimSpace(*patch.Sex))
		if !sex.Valid() {
			return newError(KindBadRequest, "sex must be one of Male, Female")
		}
		next.Sex = sex
	}
	if patch.Type != nil {
		t := domain.AnimalType(strings.TrimSpace(*patch.Type))
		if !t.Valid() {
			return newError(KindBadRequest, "typeofAnimal must be one of Dog, Cat, Bird, Rabbit")
		}
		next.Type = t
	}
	if patch.Weight != nil {
		if *patch.Weight <= 0 {
			return newError(KindBadRequest, "weight must be greater than zero")
		}
		next.Weight = *patch.Weight
	}
	if patch.Age != nil {
		if *patch.Age < 0 {
			return newError(KindBadRequest, "age must not be negative")
		}
		next.Age = *patch.Age
	}
	if patch.SpayedOrNeutered != nil {
		next.SpayedOrNeutered = *patch.SpayedOrNeutered
	}
	if patch.Image != nil {
		next.Image = *patch.Image
	}

	*pet = next
	return nil
}
