package services

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/markjakearzadon/eduplus-gobackend/internal/db"
	"github.com/markjakearzadon/eduplus-gobackend/internal/models"
	"github.com/markjakearzadon/eduplus-gobackend/internal/query"
)

type TuitionService struct {
	collection *mongo.Collection
	log        *zap.Logger
}

func NewTuitionService(database *mongo.Database, log *zap.Logger) *TuitionService {
	return &TuitionService{collection: database.Collection(db.Tuitions), log: log}
}

// CreateTuition inserts a new pending request. The owner and timestamps are
// set here, whatever the caller sent.
func (s *TuitionService) CreateTuition(ctx context.Context, owner string, tuition *models.Tuition) (string, error) {
	if strings.TrimSpace(tuition.Subject) == "" {
		return "", fmt.Errorf("%w: subject is required", ErrInvalidInput)
	}

	tuition.ID = primitive.NewObjectID()
	tuition.StudentEmail = owner
	tuition.Status = models.StatusPending
	tuition.CreatedAt = now()

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	result, err := s.collection.InsertOne(ctx, tuition)
	if err != nil {
		return "", fmt.Errorf("insert tuition: %w", err)
	}
	return result.InsertedID.(primitive.ObjectID).Hex(), nil
}

// ListTuitions returns one page matching l together with the total count.
func (s *TuitionService) ListTuitions(ctx context.Context, l query.List) (query.Page[models.Tuition], error) {
	ctx, cancel := context.WithTimeout(ctx, 2*opTimeout)
	defer cancel()

	filter := l.Filter()
	total, err := s.collection.CountDocuments(ctx, filter)
	if err != nil {
		return query.Page[models.Tuition]{}, fmt.Errorf("count tuitions: %w", err)
	}
	items, err := findAll[models.Tuition](ctx, s.collection, filter, l.FindOptions())
	if err != nil {
		return query.Page[models.Tuition]{}, err
	}
	return query.NewPage(items, total, l), nil
}

// FindTuitions returns every tuition matching l's filter, newest first,
// ignoring its paging. limit > 0 caps the result.
func (s *TuitionService) FindTuitions(ctx context.Context, l query.List, limit int64) ([]models.Tuition, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	opts := newestFirst("created_at")
	if limit > 0 {
		opts.SetLimit(limit)
	}
	return findAll[models.Tuition](ctx, s.collection, l.Filter(), opts)
}

// OwnTuitions returns every tuition posted by owner regardless of status.
func (s *TuitionService) OwnTuitions(ctx context.Context, owner string) ([]models.Tuition, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return findAll[models.Tuition](ctx, s.collection, bson.M{"studentEmail": owner}, newestFirst("created_at"))
}

// GetTuition returns an approved tuition, or any tuition when admin is set.
func (s *TuitionService) GetTuition(ctx context.Context, id string, admin bool) (*models.Tuition, error) {
	objID, err := objectID(id)
	if err != nil {
		return nil, err
	}
	filter := bson.M{"_id": objID}
	if !admin {
		filter["status"] = models.StatusApproved
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return findOne[models.Tuition](ctx, s.collection, filter)
}

// UpdateTuition edits a tuition. A non-empty owner restricts the update to
// that owner's document.
func (s *TuitionService) UpdateTuition(ctx context.Context, id, owner string, update models.TuitionUpdate) (*mongo.UpdateResult, error) {
	filter, err := s.ownedBy(id, owner)
	if err != nil {
		return nil, err
	}

	set := bson.M{}
	if update.Subject != nil {
		set["subject"] = *update.Subject
	}
	if update.Class != nil {
		set["class"] = *update.Class
	}
	if update.Location != nil {
		set["location"] = *update.Location
	}
	if update.Budget != nil {
		set["budget"] = *update.Budget
	}
	if update.Schedule != nil {
		set["schedule"] = *update.Schedule
	}
	if update.Description != nil {
		set["description"] = *update.Description
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := s.collection.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return nil, fmt.Errorf("update tuition: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, ErrNotFound
	}
	return res, nil
}

// DeleteTuition removes a tuition. A non-empty owner restricts the delete
// to that owner's document.
func (s *TuitionService) DeleteTuition(ctx context.Context, id, owner string) (*mongo.DeleteResult, error) {
	filter, err := s.ownedBy(id, owner)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := s.collection.DeleteOne(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("delete tuition: %w", err)
	}
	if res.DeletedCount == 0 {
		return nil, ErrNotFound
	}
	return res, nil
}

// SetTuitionStatus moves a pending tuition to approved or rejected.
func (s *TuitionService) SetTuitionStatus(ctx context.Context, id string, status models.Status) (*mongo.UpdateResult, error) {
	objID, err := objectID(id)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := transition(ctx, s.collection, bson.M{"_id": objID}, status)
	if err != nil {
		return nil, err
	}
	s.log.Info("tuition status changed", zap.String("id", id), zap.String("status", string(status)))
	return res, nil
}

func (s *TuitionService) ownedBy(id, owner string) (bson.M, error) {
	objID, err := objectID(id)
	if err != nil {
		return nil, err
	}
	filter := bson.M{"_id": objID}
	if owner != "" {
		filter["studentEmail"] = owner
	}
	return filter, nil
}
