package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/markjakearzadon/eduplus-gobackend/internal/middleware"
	"github.com/markjakearzadon/eduplus-gobackend/internal/models"
	"github.com/markjakearzadon/eduplus-gobackend/internal/respond"
)

const latestTutors = 6

type UserHandler struct {
	users UserStore
	log   *zap.Logger
}

func NewUserHandler(users UserStore, log *zap.Logger) *UserHandler {
	return &UserHandler{users: users, log: log}
}

// UpsertUser records a sign-in: 201 with the new user the first time, 200
// with the stored user afterwards.
func (h *UserHandler) UpsertUser(w http.ResponseWriter, r *http.Request) {
	var user models.User
	if err := decode(r, &user); err != nil {
		writeError(w, h.log, err)
		return
	}

	stored, created, err := h.users.UpsertUser(r.Context(), &user)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respond.JSON(w, status, stored)
}

func (h *UserHandler) Role(w http.ResponseWriter, r *http.Request) {
	role, err := h.users.RoleByEmail(r.Context(), middleware.EmailFrom(r.Context()))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]models.Role{"role": role})
}

func (h *UserHandler) Tutors(w http.ResponseWriter, r *http.Request) {
	h.tutors(w, r, 0)
}

func (h *UserHandler) LatestTutors(w http.ResponseWriter, r *http.Request) {
	h.tutors(w, r, latestTutors)
}

func (h *UserHandler) tutors(w http.ResponseWriter, r *http.Request, limit int64) {
	tutors, err := h.users.ListTutors(r.Context(), limit)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, tutors)
}

func (h *UserHandler) Tutor(w http.ResponseWriter, r *http.Request) {
	tutor, err := h.users.GetTutor(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, tutor)
}

func (h *UserHandler) Users(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, users)
}

func (h *UserHandler) User(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetUser(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, user)
}

func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var update models.UserUpdate
	if err := decode(r, &update); err != nil {
		writeError(w, h.log, err)
		return
	}

	res, err := h.users.UpdateUser(r.Context(), mux.Vars(r)["id"], update)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, updated(res))
}

func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	res, err := h.users.DeleteUser(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, deleted(res))
}
