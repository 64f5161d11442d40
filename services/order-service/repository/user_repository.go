package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/yashrajoria/storefront/services/order-service/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const usersCollection = "users"

// ErrInvalidCartKey is returned for product IDs or colours that cannot be
// used as a document field name.
var ErrInvalidCartKey = errors.New("invalid cart key")

type MongoUserRepository struct {
	collection *mongo.Collection
}

func NewMongoUserRepository(db *mongo.Database) UserRepository {
	return &MongoUserRepository{collection: db.Collection(usersCollection)}
}

func (r *MongoUserRepository) GetCart(ctx context.Context, userID string) (models.CartData, error) {
	oid, err := parseObjectID(userID)
	if err != nil {
		return nil, err
	}

	var user models.User
	opts := options.FindOne().SetProjection(bson.M{"cartData": 1})
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}, opts).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if user.CartData == nil {
		return models.CartData{}, nil
	}
	return user.CartData, nil
}

func (r *MongoUserRepository) SaveCart(ctx context.Context, userID string, cart models.CartData) error {
	if cart == nil {
		cart = models.CartData{}
	}
	return r.update(ctx, userID, bson.M{"$set": bson.M{"cartData": cart}})
}

// IncrementCartItem adds one unit with $inc so concurrent adds are not lost.
func (r *MongoUserRepository) IncrementCartItem(ctx context.Context, userID, itemID, color string) error {
	field, err := cartField(itemID, color)
	if err != nil {
		return err
	}
	return r.update(ctx, userID, bson.M{"$inc": bson.M{field: 1}})
}

// SetCartItem sets a quantity; zero removes the entry.
func (r *MongoUserRepository) SetCartItem(ctx context.Context, userID, itemID, color string, quantity int64) error {
	field, err := cartField(itemID, color)
	if err != nil {
		return err
	}
	if quantity <= 0 {
		return r.update(ctx, userID, bson.M{"$unset": bson.M{field: ""}})
	}
	return r.update(ctx, userID, bson.M{"$set": bson.M{field: quantity}})
}

func (r *MongoUserRepository) ClearCart(ctx context.Context, userID string) error {
	return r.SaveCart(ctx, userID, models.CartData{})
}

func (r *MongoUserRepository) update(ctx context.Context, userID string, update bson.M) error {
	oid, err := parseObjectID(userID)
	if err != nil {
		return err
	}

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func cartField(itemID, color string) (string, error) {
	for _, k := range []string{itemID, color} {
		if k == "" || strings.ContainsAny(k, ".$") {
			return "", ErrInvalidCartKey
		}
	}
	return "cartData." + itemID + "." + color, nil
}
