package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/markjakearzadon/eduplus-gobackend/internal/middleware"
	"github.com/markjakearzadon/eduplus-gobackend/internal/models"
	"github.com/markjakearzadon/eduplus-gobackend/internal/query"
	"github.com/markjakearzadon/eduplus-gobackend/internal/respond"
)

const latestTuitions = 6

var (
	tuitionFilters      = []string{"class", "subject", "location"}
	adminTuitionFilters = []string{"class", "subject", "location", "status"}
)

type TuitionHandler struct {
	tuitions TuitionStore
	maxLimit int64
	log      *zap.Logger
}

func NewTuitionHandler(tuitions TuitionStore, maxLimit int64, log *zap.Logger) *TuitionHandler {
	return &TuitionHandler{tuitions: tuitions, maxLimit: maxLimit, log: log}
}

func (h *TuitionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var tuition models.Tuition
	if err := decode(r, &tuition); err != nil {
		writeError(w, h.log, err)
		return
	}

	id, err := h.tuitions.CreateTuition(r.Context(), middleware.EmailFrom(r.Context()), &tuition)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, insertResult{InsertedID: id})
}

// List serves the paginated public listing. ?admin=true drops the
// approved-only default.
func (h *TuitionHandler) List(w http.ResponseWriter, r *http.Request) {
	h.page(w, r, query.Parse(r.URL.Query(), h.maxLimit, tuitionFilters...))
}

// AdminList is the moderation queue: every status, optionally one.
func (h *TuitionHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	l := query.Parse(r.URL.Query(), h.maxLimit, adminTuitionFilters...)
	l.Admin = true
	h.page(w, r, l)
}

func (h *TuitionHandler) page(w http.ResponseWriter, r *http.Request, l query.List) {
	page, err := h.tuitions.ListTuitions(r.Context(), l)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, page)
}

func (h *TuitionHandler) All(w http.ResponseWriter, r *http.Request) {
	h.find(w, r, 0)
}

func (h *TuitionHandler) Latest(w http.ResponseWriter, r *http.Request) {
	h.find(w, r, latestTuitions)
}

func (h *TuitionHandler) find(w http.ResponseWriter, r *http.Request, limit int64) {
	l := query.Parse(r.URL.Query(), h.maxLimit, tuitionFilters...)
	tuitions, err := h.tuitions.FindTuitions(r.Context(), l, limit)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, tuitions)
}

func (h *TuitionHandler) Own(w http.ResponseWriter, r *http.Request) {
	tuitions, err := h.tuitions.OwnTuitions(r.Context(), middleware.EmailFrom(r.Context()))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, tuitions)
}

func (h *TuitionHandler) Details(w http.ResponseWriter, r *http.Request) {
	admin := query.Parse(r.URL.Query(), h.maxLimit).Admin
	tuition, err := h.tuitions.GetTuition(r.Context(), mux.Vars(r)["id"], admin)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, tuition)
}

func (h *TuitionHandler) Update(w http.ResponseWriter, r *http.Request) {
	var update models.TuitionUpdate
	if err := decode(r, &update); err != nil {
		writeError(w, h.log, err)
		return
	}

	res, err := h.tuitions.UpdateTuition(r.Context(), mux.Vars(r)["id"], owner(r), update)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, updated(res))
}

func (h *TuitionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	res, err := h.tuitions.DeleteTuition(r.Context(), mux.Vars(r)["id"], owner(r))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, deleted(res))
}

func (h *TuitionHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var body statusRequest
	if err := decode(r, &body); err != nil {
		writeError(w, h.log, err)
		return
	}

	res, err := h.tuitions.SetTuitionStatus(r.Context(), mux.Vars(r)["id"], models.Status(body.Status))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, updated(res))
}

// owner scopes a mutation to the caller's documents; admins are unscoped.
// The route must run ResolveRole.
func owner(r *http.Request) string {
	if role, _ := middleware.RoleFrom(r.Context()); role == models.RoleAdmin {
		return ""
	}
	return middleware.EmailFrom(r.Context())
}
