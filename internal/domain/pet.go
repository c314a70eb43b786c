package domain

import "time"

type Sex string

const (
	SexMale   Sex = "Male"
	SexFemale Sex = "Female"
)

func (s Sex) Valid() bool {
	return s == SexMale || s == SexFemale
}

type AnimalType string

const (
	AnimalDog    AnimalType = "Dog"
	AnimalCat    AnimalType = "Cat"
	AnimalBird   AnimalType = "Bird"
	AnimalRabbit AnimalType = "Rabbit"
)

func (t AnimalType) Valid() bool {
	switch t {
	case AnimalDog, AnimalCat, AnimalBird, AnimalRabbit:
		return true
	}
	return false
}

// Pet represents an adoption listing.
type Pet struct {
	ID               string
	Name             string
	Sex              Sex
	Breed            string
	Color            string
	Weight           float64
	Age              float64
	Summary          string
	Type             AnimalType
	SpayedOrNeutered bool
	Image            string
	Location         string
	PhoneNumber      string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// PetInput carries the fields of a new listing. Nil means the caller omitted the field.
type PetInput struct {
	Name             *string
	Sex              *string
	Breed            *string
	Color            *string
	Weight           *float64
	Age              *float64
	Summary          *string
	Type             *string
	SpayedOrNeutered *bool
	Image            *string
	Location         *string
	PhoneNumber      *string
}

// PetPatch is a partial update; nil fields keep their stored value.
type PetPatch PetInput
