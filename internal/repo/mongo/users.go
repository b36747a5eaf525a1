package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/accounthub/internal/domain/user"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type UsersRepo struct {
	users *mongodriver.Collection
}

func NewUsersRepo(users *mongodriver.Collection) *UsersRepo {
	return &UsersRepo{users: users}
}

// userDoc keeps the bson shape out of the domain type.
type userDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	FirstName    string             `bson:"first_name"`
	LastName     string             `bson:"last_name"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password_hash"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

func (d userDoc) toDomain() user.User {
	return user.User{
		ID:           d.ID.Hex(),
		FirstName:    d.FirstName,
		LastName:     d.LastName,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func (r *UsersRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	// Mongo DateTime keeps millisecond precision.
	now := time.Now().UTC().Truncate(time.Millisecond)

	doc := userDoc{
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	res, err := r.users.InsertOne(ctx, doc)

	if err != nil {
		// the unique email index is the only one on this collection
		if mongodriver.IsDuplicateKeyError(err) {
			return user.User{}, user.ErrEmailTaken
		}

		return user.User{}, err
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)

	if !ok {
		return user.User{}, errors.New("unexpected inserted id type")
	}

	doc.ID = oid

	return doc.toDomain(), nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var doc userDoc

	err := r.users.FindOne(ctx, bson.D{{Key: "email", Value: email}}).Decode(&doc)

	if err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}

	return doc.toDomain(), nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)

	if err != nil {
		// not a valid object id, so it cannot resolve to a record
		return user.User{}, user.ErrNotFound
	}

	var doc userDoc

	err = r.users.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc)

	if err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}

	return doc.toDomain(), nil
}

func (r *UsersRepo) List(ctx context.Context) ([]user.User, error) {
	cur, err := r.users.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))

	if err != nil {
		return nil, err
	}

	var docs []userDoc

	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]user.User, 0, len(docs))

	for _, d := range docs {
		out = append(out, d.toDomain())
	}

	return out, nil
}

func (r *UsersRepo) Update(ctx context.Context, id string, patch user.Patch) (user.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)

	if err != nil {
		return user.User{}, user.ErrNotFound
	}

	set := bson.D{{Key: "updated_at", Value: time.Now().UTC().Truncate(time.Millisecond)}}

	if patch.FirstName != nil {
		set = append(set, bson.E{Key: "first_name", Value: *patch.FirstName})
	}
	if patch.LastName != nil {
		set = append(set, bson.E{Key: "last_name", Value: *patch.LastName})
	}
	if patch.Email != nil {
		set = append(set, bson.E{Key: "email", Value: *patch.Email})
	}
	if patch.PasswordHash != nil {
		set = append(set, bson.E{Key: "password_hash", Value: *patch.PasswordHash})
	}

	var doc userDoc

	err = r.users.FindOneAndUpdate(
		ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$set", Value: set}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)

	if err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return user.User{}, user.ErrNotFound
		}

		if mongodriver.IsDuplicateKeyError(err) {
			return user.User{}, user.ErrEmailTaken
		}

		return user.User{}, err
	}

	return doc.toDomain(), nil
}

func (r *UsersRepo) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)

	if err != nil {
		return user.ErrNotFound
	}

	res, err := r.users.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})

	if err != nil {
		return err
	}

	if res.DeletedCount == 0 {
		return user.ErrNotFound
	}

	return nil
}
