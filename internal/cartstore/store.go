package cartstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	d "github.com/fjod/go_cart/checkout/domain"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrOutOfStock      = errors.New("product is out of stock")
)

type cartDoc struct {
	UserID    string    `bson:"user_id"`
	Items     []lineDoc `bson:"items"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// lineDoc keeps the price the product had when it was added. Money is stored
// as a decimal string.
type lineDoc struct {
	ProductID   string    `bson:"product_id"`
	ProductName string    `bson:"product_name"`
	UnitPrice   string    `bson:"unit_price"`
	Quantity    int32     `bson:"quantity"`
	AddedAt     time.Time `bson:"added_at"`
}

type Product struct {
	ID     string `bson:"_id"`
	Name   string `bson:"name"`
	Price  string `bson:"price"`
	Stock  int32  `bson:"stock"`
	Active bool   `bson:"active"`
}

// MongoStore keeps carts and the product stock they are checked against.
type MongoStore struct {
	carts    *mongo.Collection
	products *mongo.Collection
	now      func() time.Time
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		carts:    db.Collection("carts"),
		products: db.Collection("products"),
		now:      time.Now,
	}
}

// CartLines returns the user's cart lines without stock. A missing cart is empty.
func (m *MongoStore) CartLines(ctx context.Context, userID string) ([]d.CartItem, error) {
	var cart cartDoc
	err := m.carts.FindOne(ctx, bson.M{"user_id": userID}).Decode(&cart)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	items := make([]d.CartItem, 0, len(cart.Items))
	for _, l := range cart.Items {
		price, err := decimal.NewFromString(l.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("invalid price for product %s: %w", l.ProductID, err)
		}
		items = append(items, d.CartItem{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			UnitPrice:   price,
			Quantity:    l.Quantity,
		})
	}
	return items, nil
}

// Stock returns live stock per product. Unknown or inactive products have none.
func (m *MongoStore) Stock(ctx context.Context, productIDs []string) (map[string]int32, error) {
	stock := make(map[string]int32, len(productIDs))
	if len(productIDs) == 0 {
		return stock, nil
	}
	cur, err := m.products.Find(ctx, bson.M{"_id": bson.M{"$in": productIDs}})
	if err != nil {
		return nil, fmt.Errorf("failed to query stock: %w", err)
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var p Product
		if err := cur.Decode(&p); err != nil {
			return nil, fmt.Errorf("failed to decode product: %w", err)
		}
		if p.Active {
			stock[p.ID] = p.Stock
		}
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("stock cursor error: %w", err)
	}
	return stock, nil
}

// AddItem adds quantity units of a product, capping the line at the stock on hand.
func (m *MongoStore) AddItem(ctx context.Context, userID, productID string, quantity int32) error {
	var p Product
	err := m.products.FindOne(ctx, bson.M{"_id": productID, "active": true}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrProductNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load product: %w", err)
	}
	if p.Stock <= 0 {
		return ErrOutOfStock
	}

	now := m.now()
	filter := bson.M{"user_id": userID}

	var cart cartDoc
	err = m.carts.FindOne(ctx, filter).Decode(&cart)
	if errors.Is(err, mongo.ErrNoDocuments) {
		cart = cartDoc{
			UserID:    userID,
			Items:     []lineDoc{},
			CreatedAt: now,
			UpdatedAt: now,
		}
		if _, err := m.carts.InsertOne(ctx, cart); err != nil {
			return fmt.Errorf("failed to create cart: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("failed to check existing cart: %w", err)
	}

	var current int32
	exists := false
	for _, l := range cart.Items {
		if l.ProductID == productID {
			current = l.Quantity
			exists = true
			break
		}
	}
	qty := d.ClampQuantity(current, quantity, p.Stock)

	if exists {
		update := bson.M{
			"$set": bson.M{
				"items.$[elem].quantity": qty,
				"items.$[elem].added_at": now,
				"updated_at":             now,
			},
		}
		arrayFilters := options.Update().SetArrayFilters(options.ArrayFilters{
			Filters: []interface{}{
				bson.M{"elem.product_id": productID},
			},
		})
		if _, err := m.carts.UpdateOne(ctx, filter, update, arrayFilters); err != nil {
			return fmt.Errorf("failed to update existing item: %w", err)
		}
		return nil
	}

	line := lineDoc{
		ProductID:   p.ID,
		ProductName: p.Name,
		UnitPrice:   p.Price,
		Quantity:    qty,
		AddedAt:     now,
	}
	update := bson.M{
		"$push": bson.M{"items": line},
		"$set":  bson.M{"updated_at": now},
	}
	if _, err := m.carts.UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("failed to add new item: %w", err)
	}
	return nil
}

// DeleteCart removes the user's cart. A missing cart is not an error.
func (m *MongoStore) DeleteCart(ctx context.Context, userID string) error {
	if _, err := m.carts.DeleteOne(ctx, bson.M{"user_id": userID}); err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}

// UpsertProduct stores a catalog product; the catalog itself is owned elsewhere.
func (m *MongoStore) UpsertProduct(ctx context.Context, p Product) error {
	if _, err := decimal.NewFromString(p.Price); err != nil {
		return fmt.Errorf("invalid price %q: %w", p.Price, err)
	}
	_, err := m.products.ReplaceOne(ctx, bson.M{"_id": p.ID}, p, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert product: %w", err)
	}
	return nil
}

func (m *MongoStore) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "updated_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(90 * 24 * 60 * 60),
		},
	}

	if _, err := m.carts.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}
