package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/brownie/internal/domain/models"
)

const (
	reportsCollection   = "daily_reports"
	workflowsCollection = "sale_workflows"
)

// ReportRepository stores daily report snapshots.
type ReportRepository interface {
	SaveDailyReport(ctx context.Context, report models.DailyReport) error
}

// MongoDBRepository stores daily reports and the sale workflow journal.
type MongoDBRepository struct {
	client *mongo.Client
	dbName string
}

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	repo := &MongoDBRepository{client: client, dbName: dbName}
	if err := repo.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *MongoDBRepository) collection(name string) *mongo.Collection {
	return r.client.Database(r.dbName).Collection(name)
}

func (r *MongoDBRepository) ensureIndexes(ctx context.Context) error {
	_, err := r.collection(workflowsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "state", Value: 1}, {Key: "updated_at", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create workflow index: %w", err)
	}
	_, err = r.collection(reportsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "date", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create report index: %w", err)
	}
	return nil
}

// SaveDailyReport saves a daily report, replacing any earlier snapshot of the same date.
func (r *MongoDBRepository) SaveDailyReport(ctx context.Context, report models.DailyReport) error {
	_, err := r.collection(reportsCollection).ReplaceOne(ctx,
		bson.M{"date": report.Date},
		report,
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save daily report: %w", err)
	}
	return nil
}

// Get returns the workflow stored under key, or nil when there is none.
func (r *MongoDBRepository) Get(ctx context.Context, key string) (*models.SaleWorkflow, error) {
	var workflow models.SaleWorkflow
	err := r.collection(workflowsCollection).FindOne(ctx, bson.M{"_id": key}).Decode(&workflow)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load sale workflow %s: %w", key, err)
	}
	return &workflow, nil
}

// Create inserts a new workflow record; false when the key already exists.
func (r *MongoDBRepository) Create(ctx context.Context, workflow models.SaleWorkflow) (bool, error) {
	_, err := r.collection(workflowsCollection).InsertOne(ctx, workflow)
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to create sale workflow %s: %w", workflow.Key, err)
	}
	return true, nil
}

// Claim takes the lease of a workflow only if it is still in the observed
// state and version and no live lease is held at now.
func (r *MongoDBRepository) Claim(ctx context.Context, observed models.SaleWorkflow, now, until time.Time) (bool, error) {
	res, err := r.collection(workflowsCollection).UpdateOne(ctx,
		ClaimFilter(observed, now),
		bson.M{"$set": bson.M{"updated_at": now, "lease_until": until}})
	if err != nil {
		return false, fmt.Errorf("failed to claim sale workflow %s: %w", observed.Key, err)
	}
	return res.MatchedCount == 1, nil
}

// ClaimFilter matches the observed record while its lease is free.
func ClaimFilter(observed models.SaleWorkflow, now time.Time) bson.M {
	return bson.M{
		"_id":        observed.Key,
		"state":      observed.State,
		"updated_at": observed.UpdatedAt,
		"$or": bson.A{
			bson.M{"lease_until": nil},
			bson.M{"lease_until": bson.M{"$lte": now}},
		},
	}
}

// Save upserts a workflow record by key.
func (r *MongoDBRepository) Save(ctx context.Context, workflow models.SaleWorkflow) error {
	_, err := r.collection(workflowsCollection).ReplaceOne(ctx,
		bson.M{"_id": workflow.Key},
		workflow,
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save sale workflow %s: %w", workflow.Key, err)
	}
	return nil
}

// ListStalled returns non-terminal workflows last updated before the cutoff, oldest first.
func (r *MongoDBRepository) ListStalled(ctx context.Context, before time.Time) ([]models.SaleWorkflow, error) {
	filter := StalledFilter(before)
	cursor, err := r.collection(workflowsCollection).Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "updated_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list stalled workflows: %w", err)
	}
	defer cursor.Close(ctx)

	workflows := []models.SaleWorkflow{}
	if err := cursor.All(ctx, &workflows); err != nil {
		return nil, fmt.Errorf("failed to decode stalled workflows: %w", err)
	}
	return workflows, nil
}

// StalledFilter selects journal records that still have steps to run.
func StalledFilter(before time.Time) bson.M {
	return bson.M{
		"state": bson.M{"$nin": []models.WorkflowState{
			models.WorkflowComplete,
			models.WorkflowFailed,
		}},
		"updated_at": bson.M{"$lt": before},
	}
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
