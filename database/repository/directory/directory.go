package directoryRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookme/models"
	"bookme/services/ledger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDirectoryRepo resolves the employees that bookings reference.
// Employees, companies and users are owned by the account side of the product;
// this repo only reads them and keeps their lookup indexes in place.
type MongoDirectoryRepo struct {
	employees *mongo.Collection
	companies *mongo.Collection
	users     *mongo.Collection
}

func NewMongoDirectoryRepo(db *mongo.Database) *MongoDirectoryRepo {
	return &MongoDirectoryRepo{
		employees: db.Collection("employees"),
		companies: db.Collection("companies"),
		users:     db.Collection("users"),
	}
}

// EnsureIndexes creates lookup indexes on the referenced collections.
func (r *MongoDirectoryRepo) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	byID := mongo.IndexModel{
		Keys:    bson.D{{Key: "id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("unique_id"),
	}
	if _, err := r.employees.Indexes().CreateMany(ctx, []mongo.IndexModel{
		byID,
		{Keys: bson.D{{Key: "companyId", Value: 1}}, Options: options.Index().SetName("company_idx")},
	}); err != nil {
		return fmt.Errorf("failed to create employee indexes: %w", err)
	}
	for _, coll := range []*mongo.Collection{r.companies, r.users} {
		if _, err := coll.Indexes().CreateOne(ctx, byID); err != nil {
			return fmt.Errorf("failed to create %s indexes: %w", coll.Name(), err)
		}
	}
	return nil
}

func (r *MongoDirectoryRepo) EmployeeByID(ctx context.Context, id string) (*models.Employee, error) {
	var e models.Employee
	if err := findByID(ctx, r.employees, "employee", id, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func findByID(ctx context.Context, coll *mongo.Collection, what, id string, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := coll.FindOne(ctx, bson.M{"id": id}).Decode(out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ledger.NotFound(what, id)
		}
		return fmt.Errorf("failed to fetch %s with id %s: %w", what, id, unavailable(err))
	}
	return nil
}

func unavailable(err error) error {
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ledger.ErrUpstreamUnavailable, err)
	}
	return err
}
