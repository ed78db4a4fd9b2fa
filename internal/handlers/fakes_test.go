package handlers

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/markjakearzadon/eduplus-gobackend/internal/auth"
	"github.com/markjakearzadon/eduplus-gobackend/internal/models"
	"github.com/markjakearzadon/eduplus-gobackend/internal/query"
	"github.com/markjakearzadon/eduplus-gobackend/internal/services"
)

// tokenVerifier treats the bearer token as the caller's email.
type tokenVerifier struct{}

func (tokenVerifier) Verify(_ context.Context, token string) (string, error) {
	if !strings.Contains(token, "@") {
		return "", fmt.Errorf("%w: not an email", auth.ErrUnauthenticated)
	}
	return token, nil
}

func parseID(id string) (primitive.ObjectID, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", services.ErrInvalidID, id)
	}
	return objID, nil
}

func transitionFake(current *models.Status, to models.Status) (*mongo.UpdateResult, error) {
	if !to.Terminal() {
		return nil, services.ErrInvalidStatus
	}
	if *current != models.StatusPending {
		return nil, fmt.Errorf("%w: status is no longer pending", services.ErrConflict)
	}
	*current = to
	return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

type fakeUsers struct {
	mu    sync.Mutex
	users []*models.User
}

func (f *fakeUsers) add(email string, role models.Role) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := &models.User{ID: primitive.NewObjectID(), Email: email, Role: role, CreatedAt: time.Now()}
	f.users = append(f.users, u)
	return u
}

func (f *fakeUsers) UpsertUser(_ context.Context, user *models.User) (*models.User, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user.Email == "" {
		return nil, false, services.ErrInvalidInput
	}
	for _, u := range f.users {
		if u.Email == user.Email {
			u.LastLoggedIn = time.Now()
			return u, false, nil
		}
	}
	if user.Role != models.RoleTutor {
		user.Role = models.RoleStudent
	}
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now()
	user.LastLoggedIn = user.CreatedAt
	f.users = append(f.users, user)
	return user, true, nil
}

func (f *fakeUsers) RoleByEmail(_ context.Context, email string) (models.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return u.Role, nil
		}
	}
	return "", nil
}

func (f *fakeUsers) ListUsers(context.Context) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.User{}
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeUsers) ListTutors(_ context.Context, limit int64) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.User{}
	for i := len(f.users) - 1; i >= 0; i-- {
		if f.users[i].Role == models.RoleTutor {
			out = append(out, *f.users[i])
		}
		if limit > 0 && int64(len(out)) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeUsers) find(id string, match func(*models.User) bool) (*models.User, error) {
	objID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == objID && match(u) {
			return u, nil
		}
	}
	return nil, services.ErrNotFound
}

func (f *fakeUsers) GetTutor(_ context.Context, id string) (*models.User, error) {
	return f.find(id, func(u *models.User) bool { return u.Role == models.RoleTutor })
}

func (f *fakeUsers) GetUser(_ context.Context, id string) (*models.User, error) {
	return f.find(id, func(*models.User) bool { return true })
}

func (f *fakeUsers) UpdateUser(_ context.Context, id string, update models.UserUpdate) (*mongo.UpdateResult, error) {
	u, err := f.find(id, func(*models.User) bool { return true })
	if err != nil {
		return nil, err
	}
	if update.Role != nil {
		if !update.Role.Valid() {
			return nil, services.ErrInvalidInput
		}
		u.Role = *update.Role
	}
	if update.Name != nil {
		u.Name = *update.Name
	}
	return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

func (f *fakeUsers) DeleteUser(_ context.Context, id string) (*mongo.DeleteResult, error) {
	u, err := f.find(id, func(*models.User) bool { return true })
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.users {
		if f.users[i] == u {
			f.users = append(f.users[:i], f.users[i+1:]...)
			break
		}
	}
	return &mongo.DeleteResult{DeletedCount: 1}, nil
}

type fakeTuitions struct {
	mu       sync.Mutex
	tuitions []*models.Tuition
}

func (f *fakeTuitions) add(owner string, status models.Status) *models.Tuition {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &models.Tuition{
		ID:           primitive.NewObjectID(),
		StudentEmail: owner,
		Subject:      "Math",
		Class:        "8",
		Location:     "Dhaka",
		Status:       status,
		CreatedAt:    time.Now().Add(time.Duration(len(f.tuitions)) * time.Second),
	}
	f.tuitions = append(f.tuitions, t)
	return t
}

func matches(t *models.Tuition, filter map[string]any) bool {
	for k, v := range filter {
		want := fmt.Sprint(v)
		var got string
		switch k {
		case "status":
			got = string(t.Status)
		case "class":
			got = t.Class
		case "subject":
			got = t.Subject
		case "location":
			got = t.Location
		}
		if got != want {
			return false
		}
	}
	return true
}

func (f *fakeTuitions) filtered(l query.List) []models.Tuition {
	out := []models.Tuition{}
	for _, t := range f.tuitions {
		if matches(t, l.Filter()) {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (f *fakeTuitions) CreateTuition(_ context.Context, owner string, tuition *models.Tuition) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if tuition.Subject == "" {
		return "", services.ErrInvalidInput
	}
	tuition.ID = primitive.NewObjectID()
	tuition.StudentEmail = owner
	tuition.Status = models.StatusPending
	tuition.CreatedAt = time.Now()
	f.tuitions = append(f.tuitions, tuition)
	return tuition.ID.Hex(), nil
}

func (f *fakeTuitions) ListTuitions(_ context.Context, l query.List) (query.Page[models.Tuition], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := f.filtered(l)
	start := l.Skip()
	if start > int64(len(all)) {
		start = int64(len(all))
	}
	end := start + l.Limit
	if end > int64(len(all)) {
		end = int64(len(all))
	}
	return query.NewPage(all[start:end], int64(len(all)), l), nil
}

func (f *fakeTuitions) FindTuitions(_ context.Context, l query.List, limit int64) ([]models.Tuition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := f.filtered(l)
	if limit > 0 && int64(len(all)) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (f *fakeTuitions) OwnTuitions(_ context.Context, owner string) ([]models.Tuition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Tuition{}
	for _, t := range f.tuitions {
		if t.StudentEmail == owner {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeTuitions) get(id, owner string) (*models.Tuition, error) {
	objID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	for _, t := range f.tuitions {
		if t.ID == objID && (owner == "" || t.StudentEmail == owner) {
			return t, nil
		}
	}
	return nil, services.ErrNotFound
}

func (f *fakeTuitions) GetTuition(_ context.Context, id string, admin bool) (*models.Tuition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, err := f.get(id, "")
	if err != nil {
		return nil, err
	}
	if !admin && t.Status != models.StatusApproved {
		return nil, services.ErrNotFound
	}
	return t, nil
}

func (f *fakeTuitions) UpdateTuition(_ context.Context, id, owner string, update models.TuitionUpdate) (*mongo.UpdateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, err := f.get(id, owner)
	if err != nil {
		return nil, err
	}
	if update.Location != nil {
		t.Location = *update.Location
	}
	return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

func (f *fakeTuitions) DeleteTuition(_ context.Context, id, owner string) (*mongo.DeleteResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, err := f.get(id, owner)
	if err != nil {
		return nil, err
	}
	for i := range f.tuitions {
		if f.tuitions[i] == t {
			f.tuitions = append(f.tuitions[:i], f.tuitions[i+1:]...)
			break
		}
	}
	return &mongo.DeleteResult{DeletedCount: 1}, nil
}

func (f *fakeTuitions) SetTuitionStatus(_ context.Context, id string, status models.Status) (*mongo.UpdateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !status.Terminal() {
		return nil, services.ErrInvalidStatus
	}
	t, err := f.get(id, "")
	if err != nil {
		return nil, err
	}
	return transitionFake(&t.Status, status)
}

type fakeApplications struct {
	mu   sync.Mutex
	apps []*models.Application
}

func (f *fakeApplications) add(student, tutor string, salary float64) *models.Application {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := &models.Application{
		ID:             primitive.NewObjectID(),
		TuitionID:      primitive.NewObjectID().Hex(),
		Subject:        "Math",
		StudentEmail:   student,
		TutorEmail:     tutor,
		ExpectedSalary: salary,
		Status:         models.StatusPending,
		AppliedAt:      time.Now(),
	}
	f.apps = append(f.apps, a)
	return a
}

func (f *fakeApplications) CreateApplication(_ context.Context, tutor string, app *models.Application) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.apps {
		if a.TuitionID == app.TuitionID && a.TutorEmail == tutor {
			return "", services.ErrConflict
		}
	}
	app.ID = primitive.NewObjectID()
	app.TutorEmail = tutor
	app.Status = models.StatusPending
	app.AppliedAt = time.Now()
	f.apps = append(f.apps, app)
	return app.ID.Hex(), nil
}

func (f *fakeApplications) list(match func(*models.Application) bool) []models.Application {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Application{}
	for _, a := range f.apps {
		if match(a) {
			out = append(out, *a)
		}
	}
	return out
}

func (f *fakeApplications) TutorApplications(_ context.Context, tutor string, status models.Status) ([]models.Application, error) {
	return f.list(func(a *models.Application) bool {
		return a.TutorEmail == tutor && (status == "" || a.Status == status)
	}), nil
}

func (f *fakeApplications) StudentApplications(_ context.Context, student string) ([]models.Application, error) {
	return f.list(func(a *models.Application) bool { return a.StudentEmail == student }), nil
}

func (f *fakeApplications) get(id string, match func(*models.Application) bool) (*models.Application, error) {
	objID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	for _, a := range f.apps {
		if a.ID == objID && match(a) {
			return a, nil
		}
	}
	return nil, services.ErrNotFound
}

func (f *fakeApplications) GetApplication(_ context.Context, id, participant string) (*models.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, err := f.get(id, func(a *models.Application) bool {
		return a.StudentEmail == participant || a.TutorEmail == participant
	})
	if err != nil {
		return nil, err
	}
	cp := *a
	return &cp, nil
}

func (f *fakeApplications) SetApplicationStatus(_ context.Context, id, student string, status models.Status) (*mongo.UpdateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !status.Terminal() {
		return nil, services.ErrInvalidStatus
	}
	a, err := f.get(id, func(a *models.Application) bool { return a.StudentEmail == student })
	if err != nil {
		return nil, err
	}
	return transitionFake(&a.Status, status)
}

func (f *fakeApplications) ApproveApplication(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, err := f.get(id, func(*models.Application) bool { return true })
	if err != nil {
		return err
	}
	if a.Status == models.StatusRejected {
		return services.ErrConflict
	}
	a.Status = models.StatusApproved
	return nil
}

type fakePayments struct {
	mu       sync.Mutex
	payments []*models.Payment
}

func (f *fakePayments) ListPayments(context.Context) ([]models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Payment{}
	for _, p := range f.payments {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakePayments) TutorPayments(_ context.Context, tutor string) ([]models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Payment{}
	for _, p := range f.payments {
		if p.TutorEmail == tutor {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakePayments) RecordPayment(_ context.Context, payment *models.Payment) (*models.Payment, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.payments {
		if p.TransactionID == payment.TransactionID {
			return p, false, nil
		}
	}
	payment.ID = primitive.NewObjectID()
	payment.CreatedAt = time.Now()
	f.payments = append(f.payments, payment)
	return payment, true, nil
}

// fakeCheckout hands out sessions that become paid once marked.
type fakeCheckout struct {
	mu       sync.Mutex
	sessions map[string]*services.CheckoutSession
	last     services.CheckoutRequest
}

func (f *fakeCheckout) CreateCheckoutSession(_ context.Context, req services.CheckoutRequest) (*services.CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if req.Amount <= 0 {
		return nil, services.ErrInvalidInput
	}
	if f.sessions == nil {
		f.sessions = map[string]*services.CheckoutSession{}
	}
	f.last = req
	id := fmt.Sprintf("cs_test_%d", len(f.sessions)+1)
	s := &services.CheckoutSession{
		ID:            id,
		URL:           "https://checkout.example/" + id,
		PaymentStatus: "unpaid",
		AmountTotal:   int64(req.Amount * 100),
		Currency:      "usd",
		Metadata: map[string]string{
			"applicationId": req.ApplicationID,
			"tuitionId":     req.TuitionID,
			"tutorEmail":    req.TutorEmail,
			"studentEmail":  req.StudentEmail,
		},
	}
	f.sessions[id] = s
	return s, nil
}

func (f *fakeCheckout) pay(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[id].PaymentStatus = "paid"
	f.sessions[id].PaymentIntent = "pi_" + id
}

func (f *fakeCheckout) RetrieveCheckoutSession(_ context.Context, id string) (*services.CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, errors.New("stripe error (404): no such session")
	}
	cp := *s
	return &cp, nil
}
