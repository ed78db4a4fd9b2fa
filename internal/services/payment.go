package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/markjakearzadon/eduplus-gobackend/internal/db"
	"github.com/markjakearzadon/eduplus-gobackend/internal/models"
)

type PaymentService struct {
	collection *mongo.Collection
	log        *zap.Logger
}

func NewPaymentService(database *mongo.Database, log *zap.Logger) *PaymentService {
	return &PaymentService{collection: database.Collection(db.Payments), log: log}
}

func (s *PaymentService) ListPayments(ctx context.Context) ([]models.Payment, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return findAll[models.Payment](ctx, s.collection, bson.M{}, newestFirst("created_at"))
}

func (s *PaymentService) TutorPayments(ctx context.Context, tutor string) ([]models.Payment, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return findAll[models.Payment](ctx, s.collection, bson.M{"tutorEmail": tutor}, newestFirst("created_at"))
}

// RecordPayment stores a confirmed payment once per transaction id. A
// repeat confirmation returns the stored payment and false.
func (s *PaymentService) RecordPayment(ctx context.Context, payment *models.Payment) (*models.Payment, bool, error) {
	if strings.TrimSpace(payment.TransactionID) == "" {
		return nil, false, fmt.Errorf("%w: transaction id is required", ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	existing, err := findOne[models.Payment](ctx, s.collection, bson.M{"transactionId": payment.TransactionID})
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	payment.ID = primitive.NewObjectID()
	payment.CreatedAt = now()
	if _, err := s.collection.InsertOne(ctx, payment); err != nil {
		// lost a race with a concurrent confirmation; the unique index kept one copy
		if mongo.IsDuplicateKeyError(err) {
			existing, err := findOne[models.Payment](ctx, s.collection, bson.M{"transactionId": payment.TransactionID})
			if err != nil {
				return nil, false, err
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("insert payment: %w", err)
	}

	s.log.Info("payment recorded",
		zap.String("transaction_id", payment.TransactionID),
		zap.String("tutor", payment.TutorEmail),
		zap.Float64("amount", payment.Amount),
	)
	return payment, true, nil
}
