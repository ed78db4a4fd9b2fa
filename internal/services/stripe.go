package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"go.uber.org/zap"
)

// StripeAPIURL is the production Stripe endpoint.
const StripeAPIURL = stripe.APIURL

type StripeService struct {
	sessions *session.Client
	breaker  *gobreaker.CircuitBreaker
}

// CheckoutRequest describes the tuition fee a student pays to hire a tutor.
type CheckoutRequest struct {
	ApplicationID string
	TuitionID     string
	Subject       string
	TutorEmail    string
	StudentEmail  string
	Amount        float64
	Currency      string
	SuccessURL    string
	CancelURL     string
}

// CheckoutSession is the subset of a Stripe Checkout Session we use.
type CheckoutSession struct {
	ID            string
	URL           string
	PaymentStatus string
	PaymentIntent string
	AmountTotal   int64
	Currency      string
	CustomerEmail string
	Metadata      map[string]string
}

// NewStripeService creates a Checkout client for baseURL. Stripe's own
// retries are off; the breaker decides when to stop calling.
func NewStripeService(secretKey, baseURL string, breaker *gobreaker.CircuitBreaker, log *zap.Logger) *StripeService {
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(baseURL),
		HTTPClient:        &http.Client{Timeout: 10 * time.Second},
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     log.Named("stripe").WithOptions(zap.IncreaseLevel(zap.WarnLevel)).Sugar(),
	})
	return &StripeService{
		sessions: &session.Client{B: backend, Key: secretKey},
		breaker:  breaker,
	}
}

// CreateCheckoutSession opens a one-off payment session and returns it;
// the caller redirects the student to session.URL.
func (s *StripeService) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	currency := req.Currency
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}
	name := "Tuition fee"
	if req.Subject != "" {
		name = "Tuition fee: " + req.Subject
	}

	params := &stripe.CheckoutSessionParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:    stripe.String(req.SuccessURL),
		CancelURL:     stripe.String(req.CancelURL),
		CustomerEmail: stripe.String(req.StudentEmail),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(currency),
				UnitAmount: stripe.Int64(int64(math.Round(req.Amount * 100))),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(name),
				},
			},
		}},
	}
	params.Context = ctx
	params.AddMetadata("applicationId", req.ApplicationID)
	params.AddMetadata("tuitionId", req.TuitionID)
	params.AddMetadata("tutorEmail", req.TutorEmail)
	params.AddMetadata("studentEmail", req.StudentEmail)

	return s.call(func() (*stripe.CheckoutSession, error) {
		return s.sessions.New(params)
	})
}

// RetrieveCheckoutSession fetches a session by id.
func (s *StripeService) RetrieveCheckoutSession(ctx context.Context, id string) (*CheckoutSession, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: session id is required", ErrInvalidInput)
	}
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	return s.call(func() (*stripe.CheckoutSession, error) {
		return s.sessions.Get(id, params)
	})
}

func (s *StripeService) call(fn func() (*stripe.CheckoutSession, error)) (*CheckoutSession, error) {
	run := func() (interface{}, error) { return fn() }

	var (
		result interface{}
		err    error
	)
	if s.breaker != nil {
		result, err = s.breaker.Execute(run)
	} else {
		result, err = run()
	}
	if err != nil {
		var stripeErr *stripe.Error
		switch {
		case errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests):
			return nil, fmt.Errorf("stripe unavailable: %w", err)
		case errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode == http.StatusNotFound:
			return nil, fmt.Errorf("%w: %s", ErrNotFound, stripeErr.Msg)
		case errors.As(err, &stripeErr):
			return nil, fmt.Errorf("stripe error (%d): %s", stripeErr.HTTPStatusCode, stripeErr.Msg)
		}
		return nil, err
	}
	return fromStripe(result.(*stripe.CheckoutSession)), nil
}

func fromStripe(cs *stripe.CheckoutSession) *CheckoutSession {
	out := &CheckoutSession{
		ID:            cs.ID,
		URL:           cs.URL,
		PaymentStatus: string(cs.PaymentStatus),
		AmountTotal:   cs.AmountTotal,
		Currency:      string(cs.Currency),
		CustomerEmail: cs.CustomerEmail,
		Metadata:      cs.Metadata,
	}
	if cs.PaymentIntent != nil {
		out.PaymentIntent = cs.PaymentIntent.ID
	}
	return out
}
