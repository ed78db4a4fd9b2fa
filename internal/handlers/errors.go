package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/markjakearzadon/eduplus-gobackend/internal/respond"
	"github.com/markjakearzadon/eduplus-gobackend/internal/services"
)

// writeError maps service errors onto status codes. Anything unrecognised
// is a 500 carrying the underlying message.
func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		respond.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrInvalidID),
		errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrPaymentIncomplete):
		respond.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrConflict):
		respond.Error(w, http.StatusConflict, err.Error())
	default:
		log.Error("request failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, err.Error())
	}
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", services.ErrInvalidInput, err)
	}
	return nil
}

type insertResult struct {
	InsertedID string `json:"insertedId"`
}

type updateResult struct {
	MatchedCount  int64 `json:"matchedCount"`
	ModifiedCount int64 `json:"modifiedCount"`
}

type deleteResult struct {
	DeletedCount int64 `json:"deletedCount"`
}

func updated(res *mongo.UpdateResult) updateResult {
	return updateResult{MatchedCount: res.MatchedCount, ModifiedCount: res.ModifiedCount}
}

func deleted(res *mongo.DeleteResult) deleteResult {
	return deleteResult{DeletedCount: res.DeletedCount}
}

type statusRequest struct {
	Status string `json:"status"`
}
