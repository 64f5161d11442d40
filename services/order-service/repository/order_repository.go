package repository

import (
	"context"
	"errors"

	"github.com/yashrajoria/storefront/services/order-service/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const ordersCollection = "orders"

type MongoOrderRepository struct {
	collection *mongo.Collection
}

func NewMongoOrderRepository(db *mongo.Database) OrderRepository {
	return &MongoOrderRepository{collection: db.Collection(ordersCollection)}
}

func parseObjectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return oid, nil
}

// Create inserts the order and assigns its ID.
func (r *MongoOrderRepository) Create(ctx context.Context, order *models.Order) error {
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, order)
	return err
}

func (r *MongoOrderRepository) FindByID(ctx context.Context, id string) (*models.Order, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	var order models.Order
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&order); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindAll returns every order, newest first.
func (r *MongoOrderRepository) FindAll(ctx context.Context) ([]models.Order, error) {
	return r.find(ctx, bson.M{})
}

// FindByUserID returns the user's orders, newest first.
func (r *MongoOrderRepository) FindByUserID(ctx context.Context, userID string) ([]models.Order, error) {
	return r.find(ctx, bson.M{"userId": userID})
}

func (r *MongoOrderRepository) find(ctx context.Context, filter bson.M) ([]models.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// MarkPaid flips the payment flag in a single-document update guarded on
// payment=false, so concurrent settlements mark the order paid once.
func (r *MongoOrderRepository) MarkPaid(ctx context.Context, id string) error {
	oid, err := parseObjectID(id)
	if err != nil {
		return err
	}

	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": oid, "payment": false},
		bson.M{"$set": bson.M{"payment": true}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return r.missOnUnpaid(ctx, oid)
	}
	return nil
}

func (r *MongoOrderRepository) UpdateStatus(ctx context.Context, id, status string) error {
	return r.set(ctx, id, bson.M{"status": status})
}

func (r *MongoOrderRepository) SetCheckoutSession(ctx context.Context, id, sessionID string) error {
	return r.set(ctx, id, bson.M{"checkoutSessionId": sessionID})
}

func (r *MongoOrderRepository) set(ctx context.Context, id string, fields bson.M) error {
	oid, err := parseObjectID(id)
	if err != nil {
		return err
	}

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUnpaid removes the order unless it has been paid in the meantime.
func (r *MongoOrderRepository) DeleteUnpaid(ctx context.Context, id string) error {
	oid, err := parseObjectID(id)
	if err != nil {
		return err
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid, "payment": false})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return r.missOnUnpaid(ctx, oid)
	}
	return nil
}

// missOnUnpaid tells apart a missing order from a paid one after a write
// filtered on payment=false matched nothing.
func (r *MongoOrderRepository) missOnUnpaid(ctx context.Context, oid primitive.ObjectID) error {
	opts := options.FindOne().SetProjection(bson.M{"_id": 1})
	err := r.collection.FindOne(ctx, bson.M{"_id": oid}, opts).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrAlreadyPaid
}

func (r *MongoOrderRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "date", Value: -1}}},
		{Keys: bson.D{{Key: "checkoutSessionId", Value: 1}}, Options: options.Index().SetSparse(true)},
	})
	return err
}
