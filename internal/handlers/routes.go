package handlers

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/markjakearzadon/eduplus-gobackend/internal/middleware"
	"github.com/markjakearzadon/eduplus-gobackend/internal/models"
)

// Deps is everything the router needs. Metrics and Gatherer may be nil.
type Deps struct {
	Users        UserStore
	Tuitions     TuitionStore
	Applications ApplicationStore
	Payments     PaymentStore
	Checkout     CheckoutProvider
	Auth         *middleware.Authenticator
	Metrics      *middleware.Metrics
	Gatherer     prometheus.Gatherer
	Ping         func(ctx context.Context) error
	ClientURL    string
	MaxPageLimit int64
	Log          *zap.Logger
}

func NewRouter(d Deps) *mux.Router {
	users := NewUserHandler(d.Users, d.Log)
	tuitions := NewTuitionHandler(d.Tuitions, d.MaxPageLimit, d.Log)
	applications := NewApplicationHandler(d.Applications, d.Log)
	payments := NewPaymentHandler(d.Payments, d.Applications, d.Checkout, d.ClientURL, d.Log)
	health := NewHealthHandler(d.Ping, d.Log)

	router := mux.NewRouter()
	router.Use(middleware.Recovery(d.Log), middleware.Logging(d.Log))
	if d.Metrics != nil {
		router.Use(d.Metrics.Middleware)
	}

	authed := func(h http.HandlerFunc) http.Handler {
		return d.Auth.Authenticate(h)
	}
	withRole := func(h http.HandlerFunc) http.Handler {
		return d.Auth.Authenticate(d.Auth.ResolveRole(h))
	}
	gated := func(role models.Role, h http.HandlerFunc) http.Handler {
		return d.Auth.Authenticate(d.Auth.Require(role)(h))
	}
	student := func(h http.HandlerFunc) http.Handler { return gated(models.RoleStudent, h) }
	tutor := func(h http.HandlerFunc) http.Handler { return gated(models.RoleTutor, h) }
	admin := func(h http.HandlerFunc) http.Handler { return gated(models.RoleAdmin, h) }

	router.HandleFunc("/", health.Root).Methods(http.MethodGet, http.MethodHead)
	router.HandleFunc("/health", health.Health).Methods(http.MethodGet)
	if d.Gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	// public
	router.HandleFunc("/users", users.UpsertUser).Methods(http.MethodPost)
	router.HandleFunc("/tutors", users.Tutors).Methods(http.MethodGet)
	router.HandleFunc("/latest-tutors", users.LatestTutors).Methods(http.MethodGet)
	router.HandleFunc("/tutors/{id}", users.Tutor).Methods(http.MethodGet)
	router.HandleFunc("/all-tuitions", tuitions.List).Methods(http.MethodGet)
	router.HandleFunc("/all-tuition", tuitions.All).Methods(http.MethodGet)
	router.HandleFunc("/latest-tuitions", tuitions.Latest).Methods(http.MethodGet)
	router.HandleFunc("/tuitions-details/{id}", tuitions.Details).Methods(http.MethodGet)

	// any signed-in user
	router.Handle("/user/role", authed(users.Role)).Methods(http.MethodGet)
	router.Handle("/applications", authed(applications.Create)).Methods(http.MethodPost)
	router.Handle("/my-applications", authed(applications.Student)).Methods(http.MethodGet)
	router.Handle("/my-applications/{id}", authed(applications.Get)).Methods(http.MethodGet)
	router.Handle("/applications/status/{id}", authed(applications.SetStatus)).Methods(http.MethodPatch)
	router.Handle("/tuitions/{id}", withRole(tuitions.Update)).Methods(http.MethodPatch)
	router.Handle("/tuitions/{id}", withRole(tuitions.Delete)).Methods(http.MethodDelete)

	router.Handle("/tuitions", student(tuitions.Create)).Methods(http.MethodPost)
	router.Handle("/tuitions", student(tuitions.Own)).Methods(http.MethodGet)
	router.Handle("/create-checkout-session", student(payments.CreateCheckout)).Methods(http.MethodPost)
	router.Handle("/payment-success", student(payments.PaymentSuccess)).Methods(http.MethodPost)

	router.Handle("/applications", tutor(applications.Tutor)).Methods(http.MethodGet)
	router.Handle("/tutor-ongoing-tuitions", tutor(applications.Ongoing)).Methods(http.MethodGet)
	router.Handle("/payment-tutor", tutor(payments.Tutor)).Methods(http.MethodGet)

	router.Handle("/all-users", admin(users.Users)).Methods(http.MethodGet)
	router.Handle("/users-details/{id}", admin(users.User)).Methods(http.MethodGet)
	router.Handle("/users/{id}", admin(users.UpdateUser)).Methods(http.MethodPatch)
	router.Handle("/users/{id}", admin(users.DeleteUser)).Methods(http.MethodDelete)
	router.Handle("/all-payment", admin(payments.All)).Methods(http.MethodGet)
	router.Handle("/all-tuitions-admin", admin(tuitions.AdminList)).Methods(http.MethodGet)
	router.Handle("/tuition-status/{id}", admin(tuitions.SetStatus)).Methods(http.MethodPatch)

	return router
}
