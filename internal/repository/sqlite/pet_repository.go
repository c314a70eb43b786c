package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/carissacho3/pet-adoption-backend/internal/domain"
	"github.com/carissacho3/pet-adoption-backend/internal/repository"
)

const createPetsTable = `
CREATE TABLE IF NOT EXISTS pets (
	id TEXT PRIMARY KEY,
	seq INTEGER NOT NULL,
	name TEXT NOT NULL,
	sex TEXT NOT NULL CHECK (sex IN ('Male', 'Female')),
	breed TEXT NOT NULL,
	color TEXT NOT NULL,
	weight REAL NOT NULL,
	age REAL NOT NULL,
	summary TEXT NOT NULL,
	type_of_animal TEXT NOT NULL CHECK (type_of_animal IN ('Dog', 'Cat', 'Bird', 'Rabbit')),
	spayed_or_neutered INTEGER NOT NULL,
	image TEXT NOT NULL DEFAULT '',
	location TEXT NOT NULL,
	phone_number TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_pets_type ON pets(type_of_animal);
`

const selectPetColumns = `
SELECT id, name, sex, breed, color, weight, age, summary, type_of_animal, spayed_or_neutered, image, location, phone_number, created_at, updated_at
FROM pets`

type PetRepository struct {
	db *sql.DB
}

func NewPetRepository(db *sql.DB) repository.PetRepository {
	return &PetRepository{db: db}
}

func (r *PetRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createPetsTable); err != nil {
		return fmt.Errorf("create pets table: %w", err)
	}
	return nil
}

func (r *PetRepository) Create(ctx context.Context, pet *domain.Pet) error {
	now := time.Now().UTC()
	pet.ID = newID()
	pet.CreatedAt = now
	pet.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
INSERT INTO pets (id, seq, name, sex, breed, color, weight, age, summary, type_of_animal, spayed_or_neutered, image, location, phone_number, created_at, updated_at)
VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM pets), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		pet.ID,
		pet.Name,
		string(pet.Sex),
		pet.Breed,
		pet.Color,
		pet.Weight,
		pet.Age,
		pet.Summary,
		string(pet.Type),
		pet.SpayedOrNeutered,
		pet.Image,
		pet.Location,
		pet.PhoneNumber,
		pet.CreatedAt,
		pet.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert pet: %w", err)
	}
	return nil
}

func (r *PetRepository) Update(ctx context.Context, pet *domain.Pet) error {
	id, err := parseID(pet.ID)
	if err != nil {
		return err
	}
	pet.UpdatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
UPDATE pets
SET name=?, sex=?, breed=?, color=?, weight=?, age=?, summary=?, type_of_animal=?, spayed_or_neutered=?, image=?, location=?, phone_number=?, updated_at=?
WHERE id=?`,
		pet.Name,
		string(pet.Sex),
		pet.Breed,
		pet.Color,
		pet.Weight,
		pet.Age,
		pet.Summary,
		string(pet.Type),
		pet.SpayedOrNeutered,
		pet.Image,
		pet.Location,
		pet.PhoneNumber,
		pet.UpdatedAt,
		id,
	)
	if err != nil {
		return fmt.Errorf("update pet: %w", err)
	}
	return requireAffected(res, "pet update")
}

func (r *PetRepository) Delete(ctx context.Context, id string) error {
	id, err := parseID(id)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM pets WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete pet: %w", err)
	}
	return requireAffected(res, "pet delete")
}

func (r *PetRepository) Get(ctx context.Context, id string) (*domain.Pet, error) {
	id, err := parseID(id)
	if err != nil {
		return nil, err
	}

	row := r.db.QueryRowContext(ctx, selectPetColumns+`
WHERE id=?`,
		id,
	)
	return scanPet(row)
}

func (r *PetRepository) GetMany(ctx context.Context, ids []string) ([]domain.Pet, error) {
	args := make([]any, 0, len(ids))
	for _, raw := range ids {
		id, err := parseID(raw)
		if err != nil {
			continue
		}
		args = append(args, id)
	}
	if len(args) == 0 {
		return []domain.Pet{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(args)), ",")
	query := fmt.Sprintf(selectPetColumns+`
WHERE id IN (%s)`, placeholders)
	return r.queryPets(ctx, query, args...)
}

func (r *PetRepository) List(ctx context.Context) ([]domain.Pet, error) {
	return r.queryPets(ctx, selectPetColumns+`
ORDER BY seq ASC`)
}

func (r *PetRepository) ListByType(ctx context.Context, animal domain.AnimalType) ([]domain.Pet, error) {
	return r.queryPets(ctx, selectPetColumns+`
WHERE type_of_animal=?
ORDER BY seq ASC`, string(animal))
}

func (r *PetRepository) queryPets(ctx context.Context, query string, args ...any) ([]domain.Pet, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query pets: %w", err)
	}
	defer rows.Close()

	pets := []domain.Pet{}
	for rows.Next() {
		pet, err := scanPet(rows)
		if err != nil {
			return nil, err
		}
		pets = append(pets, *pet)
	}

	return pets, rows.Err()
}

func scanPet(scanner interface {
	Scan(dest ...any) error
}) (*domain.Pet, error) {
	var (
		pet       domain.Pet
		sex       string
		animal    string
		createdAt time.Time
		updatedAt time.Time
	)
	if err := scanner.Scan(
		&pet.ID,
		&pet.Name,
		&sex,
		&pet.Breed,
		&pet.Color,
		&pet.Weight,
		&pet.Age,
		&pet.Summary,
		&animal,
		&pet.SpayedOrNeutered,
		&pet.Image,
		&pet.Location,
		&pet.PhoneNumber,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan pet: %w", err)
	}

	pet.Sex = domain.Sex(sex)
	pet.Type = domain.AnimalType(animal)
	pet.CreatedAt = createdAt.UTC()
	pet.UpdatedAt = updatedAt.UTC()
	return &pet, nil
}

func requireAffected(res sql.Result, op string) error {
	aff, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if aff == 0 {
		return repository.ErrNotFound
	}
	return nil
}
