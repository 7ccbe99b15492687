package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/example/shopbot/pkg/config"
	"github.com/example/shopbot/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	productsCollection  = "products"
	cartsCollection     = "carts"
	historiesCollection = "chat_histories"
)

type MongoRepository struct {
	client   *mongo.Client
	database *mongo.Database
	config   *config.MongoDBConfig
}

func NewMongoRepository(cfg *config.MongoDBConfig) (*MongoRepository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, err
	}

	return &MongoRepository{
		client:   client,
		database: client.Database(cfg.Database),
		config:   cfg,
	}, nil
}

func (m *MongoRepository) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

func (m *MongoRepository) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// EnsureIndexes creates the secondary indexes the stores query by.
func (m *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := m.database.Collection(productsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "category", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("products index: %w", err)
	}
	_, err = m.database.Collection(m.config.Collection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "entity_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("audit index: %w", err)
	}
	return nil
}

// AuditLog represents an audit log entry
type AuditLog struct {
	ID        string    `bson:"_id,omitempty" json:"id,omitempty"`
	Service   string    `bson:"service" json:"service"`
	Action    string    `bson:"action" json:"action"`
	EntityID  string    `bson:"entity_id" json:"entityId"`
	Data      bson.M    `bson:"data" json:"data"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}

func (m *MongoRepository) CreateAuditLog(ctx context.Context, log *AuditLog) error {
	collection := m.database.Collection(m.config.Collection)
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}
	_, err := collection.InsertOne(ctx, log)
	return err
}

func (m *MongoRepository) GetAuditLogs(ctx context.Context, entityID string, limit int64) ([]*AuditLog, error) {
	collection := m.database.Collection(m.config.Collection)

	filter := bson.M{"entity_id": entityID}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var logs []*AuditLog
	if err = cursor.All(ctx, &logs); err != nil {
		return nil, err
	}

	return logs, nil
}

// MongoCatalog reads the products collection.
type MongoCatalog struct {
	coll *mongo.Collection
}

func (m *MongoRepository) Catalog() *MongoCatalog {
	return &MongoCatalog{coll: m.database.Collection(productsCollection)}
}

func (c *MongoCatalog) ListAll(ctx context.Context) ([]models.Product, error) {
	return c.find(ctx, bson.M{})
}

// Search filters by exact category (case-insensitive) and by a substring of
// the name. Empty arguments do not filter.
func (c *MongoCatalog) Search(ctx context.Context, category, query string) ([]models.Product, error) {
	filter := bson.M{}
	if category != "" {
		filter["category"] = bson.M{"$regex": "^" + regexp.QuoteMeta(category) + "$", "$options": "i"}
	}
	if query != "" {
		filter["name"] = bson.M{"$regex": regexp.QuoteMeta(query), "$options": "i"}
	}
	return c.find(ctx, filter)
}

func (c *MongoCatalog) FindByID(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product
	err := c.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ReplaceAll swaps the whole catalog. It is only used for seeding.
func (c *MongoCatalog) ReplaceAll(ctx context.Context, products []models.Product) error {
	docs := make([]interface{}, len(products))
	for i := range products {
		if err := products[i].Validate(); err != nil {
			return fmt.Errorf("product %q: %w", products[i].Name, err)
		}
		docs[i] = products[i]
	}
	if _, err := c.coll.DeleteMany(ctx, bson.M{}); err != nil {
		return err
	}
	if len(docs) == 0 {
		return nil
	}
	_, err := c.coll.InsertMany(ctx, docs)
	return err
}

func (c *MongoCatalog) find(ctx context.Context, filter bson.M) ([]models.Product, error) {
	cursor, err := c.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	if err = cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// MongoCarts stores one document per user, keyed by user id. Every method is a
// single atomic update on that document.
type MongoCarts struct {
	coll *mongo.Collection
}

func (m *MongoRepository) Carts() *MongoCarts {
	return &MongoCarts{coll: m.database.Collection(cartsCollection)}
}

func (s *MongoCarts) Get(ctx context.Context, userID string) (*models.Cart, error) {
	var c models.Cart
	err := s.coll.FindOne(ctx, bson.M{"_id": userID}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func lineMatch(productID string, size models.Size) bson.M {
	return bson.M{"product_id": productID, "size": float64(size)}
}

var afterUpdate = options.FindOneAndUpdate().SetReturnDocument(options.After)

func (s *MongoCarts) IncrementOrAppend(ctx context.Context, userID string, line models.CartItem) (*models.Cart, bool, error) {
	match := lineMatch(line.ProductID, line.Size)
	// The push runs with upsert, so two racing first adds can collide on _id.
	// The loser retries and then finds the line to increment.
	for attempt := 0; attempt < 3; attempt++ {
		now := time.Now()
		var c models.Cart
		err := s.coll.FindOneAndUpdate(ctx,
			bson.M{"_id": userID, "items": bson.M{"$elemMatch": match}},
			bson.M{
				"$inc": bson.M{"items.$.quantity": line.Quantity},
				"$set": bson.M{"updated_at": now},
			},
			afterUpdate,
		).Decode(&c)
		if err == nil {
			return &c, true, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, false, err
		}

		err = s.coll.FindOneAndUpdate(ctx,
			bson.M{"_id": userID, "items": bson.M{"$not": bson.M{"$elemMatch": match}}},
			bson.M{
				"$push":        bson.M{"items": line},
				"$set":         bson.M{"updated_at": now},
				"$setOnInsert": bson.M{"created_at": now},
			},
			options.FindOneAndUpdate().SetReturnDocument(options.After).SetUpsert(true),
		).Decode(&c)
		if err == nil {
			return &c, false, nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return nil, false, err
		}
	}
	return nil, false, fmt.Errorf("cart %s: too much contention", userID)
}

func (s *MongoCarts) AdjustQuantity(ctx context.Context, userID, productID string, size models.Size, delta int) (*models.Cart, error) {
	match := lineMatch(productID, size)
	if delta < 0 {
		match["quantity"] = bson.M{"$gte": 1 - delta}
	}
	var c models.Cart
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": userID, "items": bson.M{"$elemMatch": match}},
		bson.M{
			"$inc": bson.M{"items.$.quantity": delta},
			"$set": bson.M{"updated_at": time.Now()},
		},
		afterUpdate,
	).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *MongoCarts) PullLine(ctx context.Context, userID, productID string, size models.Size) (*models.Cart, error) {
	match := lineMatch(productID, size)
	var c models.Cart
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": userID, "items": bson.M{"$elemMatch": match}},
		bson.M{
			"$pull": bson.M{"items": match},
			"$set":  bson.M{"updated_at": time.Now()},
		},
		afterUpdate,
	).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *MongoCarts) DeleteIfEmpty(ctx context.Context, userID string) (bool, error) {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": userID, "items.0": bson.M{"$exists": false}})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (s *MongoCarts) Delete(ctx context.Context, userID string) (bool, error) {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": userID})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

// Take removes and returns a non-empty cart in one step, so two concurrent
// checkouts cannot both see the same lines.
func (s *MongoCarts) Take(ctx context.Context, userID string) (*models.Cart, error) {
	var c models.Cart
	err := s.coll.FindOneAndDelete(ctx, bson.M{"_id": userID, "items.0": bson.M{"$exists": true}}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *MongoCarts) Restore(ctx context.Context, cart *models.Cart) error {
	for _, line := range cart.Items {
		if _, _, err := s.IncrementOrAppend(ctx, cart.UserID, line); err != nil {
			return err
		}
	}
	return nil
}

// MongoHistory keeps one transcript document per user.
type MongoHistory struct {
	coll  *mongo.Collection
	limit int
}

// History returns the transcript store. limit caps stored messages per user;
// 0 keeps everything.
func (m *MongoRepository) History(limit int) *MongoHistory {
	return &MongoHistory{coll: m.database.Collection(historiesCollection), limit: limit}
}

func (s *MongoHistory) Get(ctx context.Context, userID string) (*models.ChatHistory, error) {
	var h models.ChatHistory
	err := s.coll.FindOne(ctx, bson.M{"_id": userID}).Decode(&h)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (s *MongoHistory) Append(ctx context.Context, userID string, awaiting models.Awaiting, msgs ...models.ChatMessage) error {
	push := bson.M{"$each": msgs}
	if s.limit > 0 {
		push["$slice"] = -s.limit
	}
	now := time.Now()
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{
			"$push":        bson.M{"messages": push},
			"$set":         bson.M{"awaiting": awaiting, "updated_at": now},
			"$setOnInsert": bson.M{"created_at": now},
		},
		options.Update().SetUpsert(true),
	)
	return err
}
