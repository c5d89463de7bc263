// Package mongo stores users and transactions as MongoDB documents.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tracker/internal/core"
	"tracker/internal/storage"
)

const (
	usersCollection        = "users"
	transactionsCollection = "transactions"
)

type userDoc struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Email          string             `bson:"email"`
	HashedPassword string             `bson:"hashed_password"`
	Name           string             `bson:"name"`
	CreatedAt      time.Time          `bson:"created_at"`
}

type transactionDoc struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty"`
	UserID      string               `bson:"user_id"`
	Type        string               `bson:"type"`
	Amount      primitive.Decimal128 `bson:"amount"`
	Currency    string               `bson:"currency"`
	Category    string               `bson:"category"`
	Description string               `bson:"description"`
	Date        time.Time            `bson:"date"`
	CreatedAt   time.Time            `bson:"created_at"`
	UpdatedAt   time.Time            `bson:"updated_at"`
}

type Repository struct {
	client       *mongo.Client
	users        *mongo.Collection
	transactions *mongo.Collection
}

// Connect dials uri, pings the server and ensures the indexes on database.
func Connect(ctx context.Context, uri, database string) (*Repository, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	r, err := NewRepository(ctx, client, database)
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return r, nil
}

// NewRepository uses database on an existing client and ensures indexes.
func NewRepository(ctx context.Context, client *mongo.Client, database string) (*Repository, error) {
	db := client.Database(database)
	r := &Repository{
		client:       client,
		users:        db.Collection(usersCollection),
		transactions: db.Collection(transactionsCollection),
	}
	if _, err := r.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return nil, fmt.Errorf("create users index: %w", err)
	}
	if _, err := r.transactions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "date", Value: -1}},
	}); err != nil {
		return nil, fmt.Errorf("create transactions index: %w", err)
	}
	return r, nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, nil)
}

func (r *Repository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.client.Disconnect(ctx)
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("encode amount %s: %w", d, err)
	}
	return v, nil
}

func (u userDoc) toCore() *core.User {
	return &core.User{
		ID:             u.ID.Hex(),
		Email:          u.Email,
		HashedPassword: u.HashedPassword,
		Name:           u.Name,
		CreatedAt:      u.CreatedAt.UTC(),
	}
}

func (d transactionDoc) toCore() (*core.Transaction, error) {
	amount, err := decimal.NewFromString(d.Amount.String())
	if err != nil {
		return nil, fmt.Errorf("decode amount %s: %w", d.Amount, err)
	}
	return &core.Transaction{
		ID:          d.ID.Hex(),
		UserID:      d.UserID,
		Type:        core.Kind(d.Type),
		Amount:      amount,
		Currency:    d.Currency,
		Category:    d.Category,
		Description: d.Description,
		Date:        d.Date.UTC(),
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}, nil
}

func (r *Repository) findUser(ctx context.Context, filter bson.D) (*core.User, error) {
	var doc userDoc
	err := r.users.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toCore(), nil
}

func (r *Repository) FindUserByID(ctx context.Context, id string) (*core.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, storage.ErrNotFound
	}
	return r.findUser(ctx, bson.D{{Key: "_id", Value: oid}})
}

func (r *Repository) FindUserByEmail(ctx context.Context, email string) (*core.User, error) {
	return r.findUser(ctx, bson.D{{Key: "email", Value: email}})
}

func (r *Repository) InsertUser(ctx context.Context, u core.User) (*core.User, error) {
	doc := userDoc{
		ID:             primitive.NewObjectID(),
		Email:          u.Email,
		HashedPassword: u.HashedPassword,
		Name:           u.Name,
		CreatedAt:      u.CreatedAt,
	}
	_, err := r.users.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return nil, storage.ErrDuplicate
	}
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	u.ID = doc.ID.Hex()
	return &u, nil
}

// ownedFilter selects id within owner's partition. ok is false for ids
// that cannot exist.
func ownedFilter(ownerID, id string) (bson.D, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, false
	}
	return bson.D{{Key: "_id", Value: oid}, {Key: "user_id", Value: ownerID}}, true
}

func (r *Repository) FindTransaction(ctx context.Context, ownerID, id string) (*core.Transaction, error) {
	filter, ok := ownedFilter(ownerID, id)
	if !ok {
		return nil, storage.ErrNotFound
	}
	var doc transactionDoc
	err := r.transactions.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find transaction: %w", err)
	}
	return doc.toCore()
}

func (r *Repository) FindTransactions(ctx context.Context, f storage.TransactionFilter, order storage.Sort) ([]core.Transaction, error) {
	filter := bson.D{{Key: "user_id", Value: f.OwnerID}}
	if f.From != nil || f.To != nil {
		window := bson.D{}
		if f.From != nil {
			window = append(window, bson.E{Key: "$gte", Value: *f.From})
		}
		if f.To != nil {
			window = append(window, bson.E{Key: "$lt", Value: *f.To})
		}
		filter = append(filter, bson.E{Key: "date", Value: window})
	}
	opts := options.Find()
	if order == storage.DateDesc {
		opts.SetSort(bson.D{{Key: "date", Value: -1}, {Key: "created_at", Value: -1}})
	}

	cur, err := r.transactions.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find transactions: %w", err)
	}
	defer cur.Close(ctx)

	out := make([]core.Transaction, 0)
	for cur.Next(ctx) {
		var doc transactionDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode transaction: %w", err)
		}
		t, err := doc.toCore()
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func (r *Repository) InsertTransaction(ctx context.Context, t core.Transaction) (*core.Transaction, error) {
	amount, err := toDecimal128(t.Amount)
	if err != nil {
		return nil, err
	}
	doc := transactionDoc{
		ID:          primitive.NewObjectID(),
		UserID:      t.UserID,
		Type:        string(t.Type),
		Amount:      amount,
		Currency:    t.Currency,
		Category:    t.Category,
		Description: t.Description,
		Date:        t.Date,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if _, err := r.transactions.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert transaction: %w", err)
	}
	t.ID = doc.ID.Hex()
	return &t, nil
}

func (r *Repository) UpdateTransactionFields(ctx context.Context, ownerID, id string, p core.TransactionPatch, updatedAt time.Time) (*core.Transaction, error) {
	filter, ok := ownedFilter(ownerID, id)
	if !ok {
		return nil, storage.ErrNotFound
	}

	set := bson.D{}
	if p.Type != nil {
		set = append(set, bson.E{Key: "type", Value: string(*p.Type)})
	}
	if p.Amount != nil {
		amount, err := toDecimal128(*p.Amount)
		if err != nil {
			return nil, err
		}
		set = append(set, bson.E{Key: "amount", Value: amount})
	}
	if p.Currency != nil {
		set = append(set, bson.E{Key: "currency", Value: *p.Currency})
	}
	if p.Category != nil {
		set = append(set, bson.E{Key: "category", Value: *p.Category})
	}
	if p.Description != nil {
		set = append(set, bson.E{Key: "description", Value: *p.Description})
	}
	if p.Date != nil {
		set = append(set, bson.E{Key: "date", Value: *p.Date})
	}
	set = append(set, bson.E{Key: "updated_at", Value: updatedAt})

	var doc transactionDoc
	err := r.transactions.FindOneAndUpdate(ctx, filter,
		bson.D{{Key: "$set", Value: set}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update transaction: %w", err)
	}
	return doc.toCore()
}

func (r *Repository) DeleteTransaction(ctx context.Context, ownerID, id string) error {
	filter, ok := ownedFilter(ownerID, id)
	if !ok {
		return storage.ErrNotFound
	}
	res, err := r.transactions.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if res.DeletedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

var _ storage.Store = (*Repository)(nil)
