package handlers

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/markjakearzadon/eduplus-gobackend/internal/models"
	"github.com/markjakearzadon/eduplus-gobackend/internal/query"
	"github.com/markjakearzadon/eduplus-gobackend/internal/services"
)

// UserStore is implemented by services.UserService.
type UserStore interface {
	UpsertUser(ctx context.Context, user *models.User) (*models.User, bool, error)
	RoleByEmail(ctx context.Context, email string) (models.Role, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	ListTutors(ctx context.Context, limit int64) ([]models.User, error)
	GetTutor(ctx context.Context, id string) (*models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	UpdateUser(ctx context.Context, id string, update models.UserUpdate) (*mongo.UpdateResult, error)
	DeleteUser(ctx context.Context, id string) (*mongo.DeleteResult, error)
}

// TuitionStore is implemented by services.TuitionService.
type TuitionStore interface {
	CreateTuition(ctx context.Context, owner string, tuition *models.Tuition) (string, error)
	ListTuitions(ctx context.Context, l query.List) (query.Page[models.Tuition], error)
	FindTuitions(ctx context.Context, l query.List, limit int64) ([]models.Tuition, error)
	OwnTuitions(ctx context.Context, owner string) ([]models.Tuition, error)
	GetTuition(ctx context.Context, id string, admin bool) (*models.Tuition, error)
	UpdateTuition(ctx context.Context, id, owner string, update models.TuitionUpdate) (*mongo.UpdateResult, error)
	DeleteTuition(ctx context.Context, id, owner string) (*mongo.DeleteResult, error)
	SetTuitionStatus(ctx context.Context, id string, status models.Status) (*mongo.UpdateResult, error)
}

// ApplicationStore is implemented by services.ApplicationService.
type ApplicationStore interface {
	CreateApplication(ctx context.Context, tutor string, app *models.Application) (string, error)
	TutorApplications(ctx context.Context, tutor string, status models.Status) ([]models.Application, error)
	StudentApplications(ctx context.Context, student string) ([]models.Application, error)
	GetApplication(ctx context.Context, id, participant string) (*models.Application, error)
	SetApplicationStatus(ctx context.Context, id, student string, status models.Status) (*mongo.UpdateResult, error)
	ApproveApplication(ctx context.Context, id string) error
}

// PaymentStore is implemented by services.PaymentService.
type PaymentStore interface {
	ListPayments(ctx context.Context) ([]models.Payment, error)
	TutorPayments(ctx context.Context, tutor string) ([]models.Payment, error)
	RecordPayment(ctx context.Context, payment *models.Payment) (*models.Payment, bool, error)
}

// CheckoutProvider is implemented by services.StripeService.
type CheckoutProvider interface {
	CreateCheckoutSession(ctx context.Context, req services.CheckoutRequest) (*services.CheckoutSession, error)
	RetrieveCheckoutSession(ctx context.Context, id string) (*services.CheckoutSession, error)
}

var (
	_ UserStore        = (*services.UserService)(nil)
	_ TuitionStore     = (*services.TuitionService)(nil)
	_ ApplicationStore = (*services.ApplicationService)(nil)
	_ PaymentStore     = (*services.PaymentService)(nil)
	_ CheckoutProvider = (*services.StripeService)(nil)
)
