package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/product-api/internal/model"
)

// DefaultQueryTimeout bounds a single database operation when the
// configuration does not set one.
const DefaultQueryTimeout = 10 * time.Second

// MongoConfig holds the settings of the MongoDB connector.
type MongoConfig struct {
	URI          string
	Database     string
	Collection   string
	QueryTimeout time.Duration
}

// MongoStore implements Store on a MongoDB collection. The underlying
// client pools connections and is safe for concurrent use.
type MongoStore struct {
	client  *mongo.Client
	coll    *mongo.Collection
	timeout time.Duration
	logger  *zap.Logger
}

// productDocument is the BSON shape of a product.
type productDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Description string             `bson:"description"`
	Price       float64            `bson:"price"`
	Category    string             `bson:"category"`
	InStock     bool               `bson:"inStock"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

// categoryDocument is one row of the category aggregation.
type categoryDocument struct {
	Category     string  `bson:"_id"`
	Count        int64   `bson:"count"`
	TotalValue   float64 `bson:"totalValue"`
	AveragePrice float64 `bson:"averagePrice"`
	MinPrice     float64 `bson:"minPrice"`
	MaxPrice     float64 `bson:"maxPrice"`
}

// NewMongoStore connects to MongoDB, verifies the connection and ensures
// the collection indexes exist.
func NewMongoStore(ctx context.Context, cfg MongoConfig, logger *zap.Logger) (*MongoStore, error) {
	timeout := cfg.QueryTimeout
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}

	s := &MongoStore{
		client:  client,
		coll:    client.Database(cfg.Database).Collection(cfg.Collection),
		timeout: timeout,
		logger:  logger,
	}

	if err := s.Ping(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	logger.Info("mongodb connected",
		zap.String("database", cfg.Database),
		zap.String("collection", cfg.Collection),
	)

	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "category", Value: 1}}},
	}

	if _, err := s.coll.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("creating indexes: %w", err)
	}

	return nil
}

// Find returns the products matching filter, newest first, limited to page.
func (s *MongoStore) Find(
	ctx context.Context,
	filter model.ProductFilter,
	page model.Page,
) ([]model.Product, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	opts := options.Find().
		SetSort(newestFirst()).
		SetSkip(page.Skip()).
		SetLimit(int64(page.Limit))

	return s.findAll(ctx, "find products", filterDocument(filter), opts)
}

// Count returns the number of products matching filter.
func (s *MongoStore) Count(ctx context.Context, filter model.ProductFilter) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	n, err := s.coll.CountDocuments(ctx, filterDocument(filter))
	if err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}

	return n, nil
}

// Search returns products whose name contains query, ignoring case. The
// query is matched literally, not as a pattern.
func (s *MongoStore) Search(ctx context.Context, query string) ([]model.Product, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	opts := options.Find().SetSort(newestFirst())

	return s.findAll(ctx, "search products", searchDocument(query), opts)
}

// FindByID retrieves a product by its ID.
func (s *MongoStore) FindByID(ctx context.Context, id string) (*model.Product, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var doc productDocument
	if err := s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, translateMongoError("find product", err)
	}

	return doc.toProduct(), nil
}

// Create inserts a new product document.
func (s *MongoStore) Create(ctx context.Context, input *model.ProductInput) (*model.Product, error) {
	if input == nil {
		return nil, fmt.Errorf("create product: %w", ErrNilInput)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	doc := newProductDocument(input, mongoNow())

	res, err := s.coll.InsertOne(ctx, doc)
	if err != nil {
		return nil, translateMongoError("create product", err)
	}

	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		doc.ID = oid
	}

	return doc.toProduct(), nil
}

// Update sets the supplied fields on an existing product and returns the
// updated document.
func (s *MongoStore) Update(ctx context.Context, id string, input *model.ProductInput) (*model.Product, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	if input == nil {
		return nil, fmt.Errorf("update product: %w", ErrNilInput)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc productDocument
	err = s.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, updateDocument(input, mongoNow()), opts).Decode(&doc)
	if err != nil {
		return nil, translateMongoError("update product", err)
	}

	return doc.toProduct(), nil
}

// Delete removes a product and returns the removed document.
func (s *MongoStore) Delete(ctx context.Context, id string) (*model.Product, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var doc productDocument
	if err := s.coll.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, translateMongoError("delete product", err)
	}

	return doc.toProduct(), nil
}

// AggregateByCategory groups products by category server-side.
func (s *MongoStore) AggregateByCategory(ctx context.Context) ([]model.CategoryStats, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	cursor, err := s.coll.Aggregate(ctx, categoryPipeline())
	if err != nil {
		return nil, fmt.Errorf("aggregate products: %w", err)
	}
	defer closeCursor(ctx, cursor, s.logger)

	var rows []categoryDocument
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode aggregation: %w", err)
	}

	stats := make([]model.CategoryStats, len(rows))
	for i, row := range rows {
		stats[i] = model.CategoryStats{
			Category:     row.Category,
			Count:        row.Count,
			TotalValue:   row.TotalValue,
			AveragePrice: model.RoundPrice(row.AveragePrice),
			MinPrice:     row.MinPrice,
			MaxPrice:     row.MaxPrice,
		}
	}

	return stats, nil
}

// Ping checks connectivity to the primary.
func (s *MongoStore) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("pinging mongodb: %w", err)
	}

	return nil
}

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnecting mongodb: %w", err)
	}
	return nil
}

func (s *MongoStore) findAll(
	ctx context.Context,
	operation string,
	filter bson.M,
	opts *options.FindOptions,
) ([]model.Product, error) {
	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	defer closeCursor(ctx, cursor, s.logger)

	var docs []productDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", operation, err)
	}

	products := make([]model.Product, len(docs))
	for i := range docs {
		products[i] = *docs[i].toProduct()
	}

	return products, nil
}

func (s *MongoStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

func closeCursor(ctx context.Context, cursor *mongo.Cursor, logger *zap.Logger) {
	if err := cursor.Close(ctx); err != nil {
		logger.Warn("failed to close cursor", zap.Error(err))
	}
}

// mongoNow returns the current time at the millisecond precision BSON
// dates are stored with.
func mongoNow() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func newestFirst() bson.D {
	return bson.D{
		{Key: "createdAt", Value: -1},
		{Key: "_id", Value: -1},
	}
}

func parseObjectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return oid, nil
}

func filterDocument(f model.ProductFilter) bson.M {
	filter := bson.M{}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.InStock != nil {
		filter["inStock"] = *f.InStock
	}
	return filter
}

func searchDocument(query string) bson.M {
	return bson.M{
		"name": primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"},
	}
}

func newProductDocument(input *model.ProductInput, now time.Time) productDocument {
	p := model.Product{InStock: input.InStockOrDefault()}
	input.Apply(&p)

	return productDocument{
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Category:    p.Category,
		InStock:     p.InStock,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// updateDocument builds a $set of the supplied fields plus updatedAt.
func updateDocument(input *model.ProductInput, now time.Time) bson.M {
	set := bson.M{"updatedAt": now}
	if input.Name != nil {
		set["name"] = *input.Name
	}
	if input.Description != nil {
		set["description"] = *input.Description
	}
	if input.Price != nil {
		set["price"] = *input.Price
	}
	if input.Category != nil {
		set["category"] = *input.Category
	}
	if input.InStock != nil {
		set["inStock"] = *input.InStock
	}
	return bson.M{"$set": set}
}

func categoryPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":          "$category",
			"count":        bson.M{"$sum": 1},
			"totalValue":   bson.M{"$sum": "$price"},
			"averagePrice": bson.M{"$avg": "$price"},
			"minPrice":     bson.M{"$min": "$price"},
			"maxPrice":     bson.M{"$max": "$price"},
		}}},
		{{Key: "$sort", Value: bson.D{
			{Key: "count", Value: -1},
			{Key: "_id", Value: 1},
		}}},
	}
}

func translateMongoError(operation string, err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%s: %w: %v", operation, ErrDuplicate, err)
	default:
		return fmt.Errorf("%s: %w", operation, err)
	}
}

func (d *productDocument) toProduct() *model.Product {
	return &model.Product{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Description: d.Description,
		Price:       d.Price,
		Category:    d.Category,
		InStock:     d.InStock,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
}
