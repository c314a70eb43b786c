package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/carissacho3/pet-adoption-backend/internal/domain"
	"github.com/carissacho3/pet-adoption-backend/internal/repository"
)

type petDocument struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	Name             string             `bson:"name"`
	Sex              string             `bson:"sex"`
	Breed            string             `bson:"breed"`
	Color            string             `bson:"color"`
	Weight           float64            `bson:"weight"`
	Age              float64            `bson:"age"`
	Summary          string             `bson:"summary"`
	TypeOfAnimal     string             `bson:"typeofAnimal"`
	SpayedOrNeutered bool               `bson:"spayedOrNeutered"`
	Image            string             `bson:"image,omitempty"`
	Location         string             `bson:"location"`
	PhoneNumber      string             `bson:"phoneNumber"`
	CreatedAt        time.Time          `bson:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt"`
}

func petToDocument(pet *domain.Pet) petDocument {
	return petDocument{
		Name:             pet.Name,
		Sex:              string(pet.Sex),
		Breed:            pet.Breed,
		Color:            pet.Color,
		Weight:           pet.Weight,
		Age:              pet.Age,
		Summary:          pet.Summary,
		TypeOfAnimal:     string(pet.Type),
		SpayedOrNeutered: pet.SpayedOrNeutered,
		Image:            pet.Image,
		Location:         pet.Location,
		PhoneNumber:      pet.PhoneNumber,
		CreatedAt:        pet.CreatedAt,
		UpdatedAt:        pet.UpdatedAt,
	}
}

func (d petDocument) toDomain() domain.Pet {
	return domain.Pet{
		ID:               d.ID.Hex(),
		Name:             d.Name,
		Sex:              domain.Sex(d.Sex),
		Breed:            d.Breed,
		Color:            d.Color,
		Weight:           d.Weight,
		Age:              d.Age,
		Summary:          d.Summary,
		Type:             domain.AnimalType(d.TypeOfAnimal),
		SpayedOrNeutered: d.SpayedOrNeutered,
		Image:            d.Image,
		Location:         d.Location,
		PhoneNumber:      d.PhoneNumber,
		CreatedAt:        d.CreatedAt.UTC(),
		UpdatedAt:        d.UpdatedAt.UTC(),
	}
}

type PetRepository struct {
	coll *mongo.Collection
}

func NewPetRepository(db *mongo.Database) repository.PetRepository {
	return &PetRepository{coll: db.Collection(petsCollection)}
}

func (r *PetRepository) Init(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "typeofAnimal", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create pets index: %w", err)
	}
	return nil
}

func (r *PetRepository) Create(ctx context.Context, pet *domain.Pet) error {
	now := time.Now().UTC().Truncate(time.Millisecond)
	pet.CreatedAt = now
	pet.UpdatedAt = now

	doc := petToDocument(pet)
	doc.ID = primitive.NewObjectID()
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return wrapErr("insert pet", err)
	}
	pet.ID = doc.ID.Hex()
	return nil
}

func (r *PetRepository) Update(ctx context.Context, pet *domain.Pet) error {
	oid, err := parseID(pet.ID)
	if err != nil {
		return err
	}
	pet.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)

	doc := petToDocument(pet)
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"name":             doc.Name,
		"sex":              doc.Sex,
		"breed":            doc.Breed,
		"color":            doc.Color,
		"weight":           doc.Weight,
		"age":              doc.Age,
		"summary":          doc.Summary,
		"typeofAnimal":     doc.TypeOfAnimal,
		"spayedOrNeutered": doc.SpayedOrNeutered,
		"image":            doc.Image,
		"location":         doc.Location,
		"phoneNumber":      doc.PhoneNumber,
		"updatedAt":        doc.UpdatedAt,
	}})
	if err != nil {
		return wrapErr("update pet", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *PetRepository) Delete(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return wrapErr("delete pet", err)
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *PetRepository) Get(ctx context.Context, id string) (*domain.Pet, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var doc petDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, wrapErr("find pet", err)
	}
	pet := doc.toDomain()
	return &pet, nil
}

func (r *PetRepository) GetMany(ctx context.Context, ids []string) ([]domain.Pet, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := parseID(id); err == nil {
			oids = append(oids, oid)
		}
	}
	if len(oids) == 0 {
		return []domain.Pet{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": oids}})
}

func (r *PetRepository) List(ctx context.Context) ([]domain.Pet, error) {
	return r.find(ctx, bson.M{})
}

func (r *PetRepository) ListByType(ctx context.Context, animal domain.AnimalType) ([]domain.Pet, error) {
	return r.find(ctx, bson.M{"typeofAnimal": string(animal)})
}

func (r *PetRepository) find(ctx context.Context, filter bson.M) ([]domain.Pet, error) {
	cursor, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, wrapErr("find pets", err)
	}
	defer cursor.Close(ctx)

	var docs []petDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode pets: %w", err)
	}

	pets := make([]domain.Pet, 0, len(docs))
	for _, doc := range docs {
		pets = append(pets, doc.toDomain())
	}
	return pets, nil
}
