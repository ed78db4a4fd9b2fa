package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/markjakearzadon/eduplus-gobackend/internal/middleware"
	"github.com/markjakearzadon/eduplus-gobackend/internal/models"
	"github.com/markjakearzadon/eduplus-gobackend/internal/respond"
	"github.com/markjakearzadon/eduplus-gobackend/internal/services"
)

const sessionPaid = "paid"

type PaymentHandler struct {
	payments     PaymentStore
	applications ApplicationStore
	checkout     CheckoutProvider
	clientURL    string
	log          *zap.Logger
}

func NewPaymentHandler(payments PaymentStore, applications ApplicationStore, checkout CheckoutProvider, clientURL string, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		payments:     payments,
		applications: applications,
		checkout:     checkout,
		clientURL:    strings.TrimRight(clientURL, "/"),
		log:          log,
	}
}

type checkoutRequest struct {
	ApplicationID string `json:"applicationId"`
}

type checkoutResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CreateCheckout opens a payment session for a pending application to one
// of the caller's tuitions. The fee is the tutor's expected salary.
func (h *PaymentHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	var body checkoutRequest
	if err := decode(r, &body); err != nil {
		writeError(w, h.log, err)
		return
	}
	student := middleware.EmailFrom(r.Context())

	app, err := h.applications.GetApplication(r.Context(), body.ApplicationID, student)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	if app.StudentEmail != student {
		writeError(w, h.log, services.ErrNotFound)
		return
	}
	if app.Status != models.StatusPending {
		writeError(w, h.log, fmt.Errorf("%w: application is %s", services.ErrConflict, app.Status))
		return
	}

	session, err := h.checkout.CreateCheckoutSession(r.Context(), services.CheckoutRequest{
		ApplicationID: app.ID.Hex(),
		TuitionID:     app.TuitionID,
		Subject:       app.Subject,
		TutorEmail:    app.TutorEmail,
		StudentEmail:  student,
		Amount:        app.ExpectedSalary,
		SuccessURL:    h.clientURL + "/payment-success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     h.clientURL + "/dashboard/my-applications",
	})
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, checkoutResponse{ID: session.ID, URL: session.URL})
}

type paymentSuccessRequest struct {
	SessionID string `json:"sessionId"`
}

type paymentSuccessResponse struct {
	TransactionID string `json:"transactionId"`
	PaymentID     string `json:"paymentId"`
}

// PaymentSuccess confirms a paid session: the payment is stored once per
// transaction and the application is approved. Confirming twice answers
// 200 with the stored payment. A rejected application is never paid for.
func (h *PaymentHandler) PaymentSuccess(w http.ResponseWriter, r *http.Request) {
	var body paymentSuccessRequest
	if err := decode(r, &body); err != nil {
		writeError(w, h.log, err)
		return
	}
	student := middleware.EmailFrom(r.Context())

	session, err := h.checkout.RetrieveCheckoutSession(r.Context(), body.SessionID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	if session.PaymentStatus != sessionPaid {
		writeError(w, h.log, fmt.Errorf("%w: session is %s", services.ErrPaymentIncomplete, session.PaymentStatus))
		return
	}
	meta := session.Metadata
	if meta["applicationId"] == "" || meta["studentEmail"] != student {
		writeError(w, h.log, services.ErrNotFound)
		return
	}

	app, err := h.applications.GetApplication(r.Context(), meta["applicationId"], student)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	if app.Status == models.StatusRejected {
		writeError(w, h.log, fmt.Errorf("%w: application was rejected", services.ErrConflict))
		return
	}

	transactionID := session.PaymentIntent
	if transactionID == "" {
		transactionID = session.ID
	}
	payment, created, err := h.payments.RecordPayment(r.Context(), &models.Payment{
		TransactionID: transactionID,
		SessionID:     session.ID,
		ApplicationID: meta["applicationId"],
		TuitionID:     meta["tuitionId"],
		TutorEmail:    meta["tutorEmail"],
		StudentEmail:  student,
		Amount:        float64(session.AmountTotal) / 100,
		Currency:      session.Currency,
		Status:        session.PaymentStatus,
	})
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	if err := h.applications.ApproveApplication(r.Context(), payment.ApplicationID); err != nil {
		writeError(w, h.log, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respond.JSON(w, status, paymentSuccessResponse{
		TransactionID: payment.TransactionID,
		PaymentID:     payment.ID.Hex(),
	})
}

func (h *PaymentHandler) All(w http.ResponseWriter, r *http.Request) {
	payments, err := h.payments.ListPayments(r.Context())
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, payments)
}

func (h *PaymentHandler) Tutor(w http.ResponseWriter, r *http.Request) {
	payments, err := h.payments.TutorPayments(r.Context(), middleware.EmailFrom(r.Context()))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, payments)
}
