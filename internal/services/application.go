package services

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/markjakearzadon/eduplus-gobackend/internal/db"
	"github.com/markjakearzadon/eduplus-gobackend/internal/models"
)

type ApplicationService struct {
	collection *mongo.Collection
	tuitions   *mongo.Collection
	log        *zap.Logger
}

func NewApplicationService(database *mongo.Database, log *zap.Logger) *ApplicationService {
	return &ApplicationService{
		collection: database.Collection(db.Applications),
		tuitions:   database.Collection(db.Tuitions),
		log:        log,
	}
}

// CreateApplication files tutor's application to an approved tuition. The
// student email and subject are copied from the tuition; status and
// appliedAt are fixed here. A second application by the same tutor to the
// same tuition is ErrConflict.
func (s *ApplicationService) CreateApplication(ctx context.Context, tutor string, app *models.Application) (string, error) {
	tuitionID, err := objectID(app.TuitionID)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, 2*opTimeout)
	defer cancel()

	tuition, err := findOne[models.Tuition](ctx, s.tuitions, bson.M{"_id": tuitionID, "status": models.StatusApproved})
	if err != nil {
		return "", err
	}

	n, err := s.collection.CountDocuments(ctx,
		bson.M{"tuitionId": app.TuitionID, "tutorEmail": tutor},
		options.Count().SetLimit(1),
	)
	if err != nil {
		return "", fmt.Errorf("count applications: %w", err)
	}
	if n > 0 {
		return "", fmt.Errorf("%w: already applied to this tuition", ErrConflict)
	}

	app.ID = primitive.NewObjectID()
	app.TutorEmail = tutor
	app.StudentEmail = tuition.StudentEmail
	app.Subject = tuition.Subject
	app.Status = models.StatusPending
	app.AppliedAt = now()

	result, err := s.collection.InsertOne(ctx, app)
	if err != nil {
		return "", fmt.Errorf("insert application: %w", err)
	}
	s.log.Info("application created",
		zap.String("tuition_id", app.TuitionID),
		zap.String("tutor", tutor),
	)
	return result.InsertedID.(primitive.ObjectID).Hex(), nil
}

// TutorApplications lists tutor's applications, optionally limited to one status.
func (s *ApplicationService) TutorApplications(ctx context.Context, tutor string, status models.Status) ([]models.Application, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	filter := bson.M{"tutorEmail": tutor}
	if status != "" {
		filter["status"] = status
	}
	return findAll[models.Application](ctx, s.collection, filter, newestFirst("appliedAt"))
}

// StudentApplications lists applications to the student's tuitions.
func (s *ApplicationService) StudentApplications(ctx context.Context, student string) ([]models.Application, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return findAll[models.Application](ctx, s.collection, bson.M{"studentEmail": student}, newestFirst("appliedAt"))
}

// GetApplication returns an application the given email takes part in,
// as either student or tutor.
func (s *ApplicationService) GetApplication(ctx context.Context, id, participant string) (*models.Application, error) {
	objID, err := objectID(id)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return findOne[models.Application](ctx, s.collection, bson.M{
		"_id": objID,
		"$or": bson.A{
			bson.M{"studentEmail": participant},
			bson.M{"tutorEmail": participant},
		},
	})
}

// SetApplicationStatus lets the owning student approve or reject a
// pending application.
func (s *ApplicationService) SetApplicationStatus(ctx context.Context, id, student string, status models.Status) (*mongo.UpdateResult, error) {
	objID, err := objectID(id)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := transition(ctx, s.collection, bson.M{"_id": objID, "studentEmail": student}, status)
	if err != nil {
		return nil, err
	}
	s.log.Info("application status changed", zap.String("id", id), zap.String("status", string(status)))
	return res, nil
}

// ApproveApplication marks a paid application approved. Approving an
// application that is already approved is not an error; a rejected one
// stays rejected and reports ErrConflict.
func (s *ApplicationService) ApproveApplication(ctx context.Context, id string) error {
	objID, err := objectID(id)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := s.collection.UpdateOne(ctx,
		bson.M{
			"_id":    objID,
			"status": bson.M{"$in": bson.A{models.StatusPending, models.StatusApproved}},
		},
		bson.M{"$set": bson.M{"status": models.StatusApproved}},
	)
	if err != nil {
		return fmt.Errorf("approve application: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	n, err := s.collection.CountDocuments(ctx, bson.M{"_id": objID}, options.Count().SetLimit(1))
	if err != nil {
		return fmt.Errorf("count applications: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return fmt.Errorf("%w: application was rejected", ErrConflict)
}
