package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/markjakearzadon/eduplus-gobackend/internal/middleware"
	"github.com/markjakearzadon/eduplus-gobackend/internal/models"
	"github.com/markjakearzadon/eduplus-gobackend/internal/respond"
)

type ApplicationHandler struct {
	applications ApplicationStore
	log          *zap.Logger
}

func NewApplicationHandler(applications ApplicationStore, log *zap.Logger) *ApplicationHandler {
	return &ApplicationHandler{applications: applications, log: log}
}

func (h *ApplicationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var app models.Application
	if err := decode(r, &app); err != nil {
		writeError(w, h.log, err)
		return
	}

	id, err := h.applications.CreateApplication(r.Context(), middleware.EmailFrom(r.Context()), &app)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, insertResult{InsertedID: id})
}

// Tutor lists the caller's applications; ?status= narrows them.
func (h *ApplicationHandler) Tutor(w http.ResponseWriter, r *http.Request) {
	h.tutor(w, r, models.Status(r.URL.Query().Get("status")))
}

// Ongoing lists the caller's hired (approved) applications.
func (h *ApplicationHandler) Ongoing(w http.ResponseWriter, r *http.Request) {
	h.tutor(w, r, models.StatusApproved)
}

func (h *ApplicationHandler) tutor(w http.ResponseWriter, r *http.Request, status models.Status) {
	apps, err := h.applications.TutorApplications(r.Context(), middleware.EmailFrom(r.Context()), status)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, apps)
}

func (h *ApplicationHandler) Student(w http.ResponseWriter, r *http.Request) {
	apps, err := h.applications.StudentApplications(r.Context(), middleware.EmailFrom(r.Context()))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, apps)
}

func (h *ApplicationHandler) Get(w http.ResponseWriter, r *http.Request) {
	app, err := h.applications.GetApplication(r.Context(), mux.Vars(r)["id"], middleware.EmailFrom(r.Context()))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, app)
}

func (h *ApplicationHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var body statusRequest
	if err := decode(r, &body); err != nil {
		writeError(w, h.log, err)
		return
	}

	res, err := h.applications.SetApplicationStatus(r.Context(), mux.Vars(r)["id"],
		middleware.EmailFrom(r.Context()), models.Status(body.Status))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, updated(res))
}
