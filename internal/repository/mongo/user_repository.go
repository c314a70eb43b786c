package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/carissacho3/pet-adoption-backend/internal/domain"
	"github.com/carissacho3/pet-adoption-backend/internal/repository"
)

type userDocument struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty"`
	Username       string               `bson:"username"`
	Email          string               `bson:"email"`
	Password       string               `bson:"password"`
	FirstName      string               `bson:"firstName"`
	LastName       string               `bson:"lastName"`
	ProfilePicture string               `bson:"profilePicture"`
	Role           string               `bson:"role"`
	Bookmarks      []primitive.ObjectID `bson:"bookmarks"`
	CreatedAt      time.Time            `bson:"createdAt"`
	UpdatedAt      time.Time            `bson:"updatedAt"`
}

func (d userDocument) toDomain() *domain.User {
	return &domain.User{
		ID:             d.ID.Hex(),
		Username:       d.Username,
		Email:          d.Email,
		PasswordHash:   d.Password,
		FirstName:      d.FirstName,
		LastName:       d.LastName,
		ProfilePicture: d.ProfilePicture,
		Role:           domain.ParseRole(d.Role),
		Bookmarks:      hexIDs(d.Bookmarks),
		CreatedAt:      d.CreatedAt.UTC(),
		UpdatedAt:      d.UpdatedAt.UTC(),
	}
}

func hexIDs(oids []primitive.ObjectID) []string {
	out := make([]string, 0, len(oids))
	for _, oid := range oids {
		out = append(out, oid.Hex())
	}
	return out
}

type UserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) repository.UserRepository {
	return &UserRepository{coll: db.Collection(usersCollection)}
}

func (r *UserRepository) Init(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "bookmarks", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create users indexes: %w", err)
	}
	return nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	now := time.Now().UTC().Truncate(time.Millisecond)
	user.CreatedAt = now
	user.UpdatedAt = now
	user.Bookmarks = []string{}

	doc := userDocument{
		ID:             primitive.NewObjectID(),
		Username:       user.Username,
		Email:          user.Email,
		Password:       user.PasswordHash,
		FirstName:      user.FirstName,
		LastName:       user.LastName,
		ProfilePicture: user.ProfilePicture,
		Role:           string(user.Role),
		Bookmarks:      []primitive.ObjectID{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return wrapErr("insert user", err)
	}
	user.ID = doc.ID.Hex()
	return nil
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	oid, err := parseID(user.ID)
	if err != nil {
		return err
	}
	user.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"username":       user.Username,
		"email":          user.Email,
		"password":       user.PasswordHash,
		"firstName":      user.FirstName,
		"lastName":       user.LastName,
		"profilePicture": user.ProfilePicture,
		"role":           string(user.Role),
		"updatedAt":      user.UpdatedAt,
	}})
	if err != nil {
		return wrapErr("update user", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return wrapErr("delete user", err)
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var doc userDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, wrapErr("find user", err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) AddBookmark(ctx context.Context, userID, petID string) ([]string, error) {
	uid, err := parseID(userID)
	if err != nil {
		return nil, err
	}
	pid, err := parseID(petID)
	if err != nil {
		return nil, err
	}

	// the $ne guard makes check-and-append a single atomic document update
	var doc userDocument
	err = r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": uid, "bookmarks": bson.M{"$ne": pid}},
		bson.M{"$push": bson.M{"bookmarks": pid}, "$currentDate": bson.M{"updatedAt": true}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err == nil {
		return hexIDs(doc.Bookmarks), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, wrapErr("add bookmark", err)
	}

	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": uid})
	if err != nil {
		return nil, wrapErr("count user", err)
	}
	if n == 0 {
		return nil, repository.ErrNotFound
	}
	return nil, fmt.Errorf("add bookmark: %w", repository.ErrDuplicate)
}

func (r *UserRepository) RemoveBookmark(ctx context.Context, userID, petID string) ([]string, error) {
	uid, err := parseID(userID)
	if err != nil {
		return nil, err
	}

	pid, err := parseID(petID)
	if err != nil {
		user, err := r.findOne(ctx, bson.M{"_id": uid})
		if err != nil {
			return nil, err
		}
		return user.Bookmarks, nil
	}

	var doc userDocument
	err = r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": uid},
		bson.M{"$pull": bson.M{"bookmarks": pid}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return nil, wrapErr("remove bookmark", err)
	}
	return hexIDs(doc.Bookmarks), nil
}

func (r *UserRepository) PurgeBookmark(ctx context.Context, petID string) error {
	pid, err := parseID(petID)
	if err != nil {
		return err
	}
	if _, err := r.coll.UpdateMany(ctx,
		bson.M{"bookmarks": pid},
		bson.M{"$pull": bson.M{"bookmarks": pid}},
	); err != nil {
		return wrapErr("purge bookmark", err)
	}
	return nil
}
