package services

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// CustomerStore implements ObjectStore on a Mongo collection that holds
// one raw JSON document per customer.
type CustomerStore struct {
	collection *mongo.Collection
}

func NewCustomerStore(collection *mongo.Collection) *CustomerStore {
	return &CustomerStore{collection: collection}
}

type customerDocument struct {
	CustomerID string `bson:"customer_id"`
	Data       bson.M `bson:"data"`
}

// GetJSON fetches the customer's structured data. A missing customer is
// ErrCustomerDataNotFound, not an upstream failure.
func (cs *CustomerStore) GetJSON(ctx context.Context, customerID string) (map[string]interface{}, error) {
	var doc customerDocument
	err := cs.collection.FindOne(ctx, bson.M{"customer_id": customerID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrCustomerDataNotFound
	}
	if err != nil {
		return nil, &UpstreamError{Provider: "object-store", Err: err}
	}
	return normalizeBSON(doc.Data), nil
}

// normalizeBSON converts bson decode shapes into plain JSON shapes so the
// flattener sees one input type.
func normalizeBSON(value bson.M) map[string]interface{} {
	out := make(map[string]interface{}, len(value))
	for k, v := range value {
		out[k] = normalizeBSONValue(v)
	}
	return out
}

func normalizeBSONValue(value interface{}) interface{} {
	switch v := value.(type) {
	case bson.M:
		return normalizeBSON(v)
	case bson.D:
		m := make(map[string]interface{}, len(v))
		for _, e := range v {
			m[e.Key] = normalizeBSONValue(e.Value)
		}
		return m
	case bson.A:
		arr := make([]interface{}, len(v))
		for i, item := range v {
			arr[i] = normalizeBSONValue(item)
		}
		return arr
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case int:
		return float64(v)
	default:
		return v
	}
}
