package db

import (
	"context"
	"net/url"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	usersCollection = "users"
	defaultDBName   = "accounthub"
)

// NewMongo connects, pings the primary and makes sure the users collection
// carries its unique email index before anything reads or writes it.
func NewMongo(ctx context.Context, mongoURL string) (*mongodriver.Client, *mongodriver.Collection, error) {
	cli, err := mongodriver.Connect(ctx, options.Client().ApplyURI(mongoURL))

	if err != nil {
		return nil, nil, err
	}

	if err := cli.Ping(ctx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, nil, err
	}

	users := cli.Database(databaseFromURI(mongoURL)).Collection(usersCollection)

	if err := ensureUserIndexes(ctx, users); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, nil, err
	}

	return cli, users, nil
}

// The original schema also declared first_name, last_name and password_hash
// unique. That makes the service unusable once two people share a first name,
// so only the email index is created here.
func ensureUserIndexes(ctx context.Context, users *mongodriver.Collection) error {
	_, err := users.Indexes().CreateOne(ctx, mongodriver.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetName("uniq_email").SetUnique(true),
	})

	return err
}

// databaseFromURI pulls the database name out of the mongodb URI path,
// falling back to a sane default when it is absent.
func databaseFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err == nil {
		if name := strings.Trim(u.Path, "/"); name != "" {
			return name
		}
	}
	return defaultDBName
}
