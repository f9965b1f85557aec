package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/furkansenharputlu/f-keyfile/config"
)

const checksCollection = "checks"

type mongoHandler struct {
	col *mongo.Collection
}

func ConnectMongo(m config.Mongo) (Handler, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	uri := fmt.Sprintf("%s://%s:%d", m.Type, m.Host, m.Port)
	opt := options.Client().ApplyURI(uri)

	if m.Auth {
		opt.SetAuth(options.Credential{
			Username: m.Username,
			Password: m.Password,
		})
	}

	client, err := mongo.Connect(ctx, opt)
	if err != nil {
		return nil, errors.Wrap(err, "problem while connecting to Mongo")
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "problem while pinging Mongo")
	}

	return mongoHandler{col: client.Database(m.DBName).Collection(checksCollection)}, nil
}

func (h mongoHandler) Add(r *CheckRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := h.col.InsertOne(ctx, r); err != nil {
		return errors.Wrap(err, "error while inserting check")
	}

	return nil
}

func (h mongoHandler) Get(id string) (*CheckRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var r CheckRecord
	err := h.col.FindOne(ctx, bson.M{"_id": id}).Decode(&r)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "error while getting check")
	}

	return &r, nil
}

func (h mongoHandler) GetAll(limit int) ([]*CheckRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cur, err := h.col.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	records := make([]*CheckRecord, 0)
	for cur.Next(ctx) {
		var r CheckRecord
		if err := cur.Decode(&r); err != nil {
			return nil, err
		}
		records = append(records, &r)
	}

	return records, cur.Err()
}

func (h mongoHandler) DeleteByID(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := h.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrap(err, "check cannot be deleted")
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}

	logrus.WithField("id", id).Info("Check successfully deleted")

	return nil
}

func (h mongoHandler) DropDatabase() error {
	return h.col.Database().Drop(context.Background())
}

func (h mongoHandler) Close() error {
	return h.col.Database().Client().Disconnect(context.Background())
}
