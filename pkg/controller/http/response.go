package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/caseflow/pkg/domain/model"
	"github.com/secmon-lab/caseflow/pkg/domain/query"
	"github.com/secmon-lab/caseflow/pkg/usecase"
	"github.com/secmon-lab/caseflow/pkg/utils/errutil"
	"github.com/secmon-lab/caseflow/pkg/utils/logging"
	"github.com/secmon-lab/caseflow/pkg/utils/safe"
)

const (
	statusSuccess = "success"
	statusError   = "error"

	msgFilteringError = "Filtering error"
)

// envelope is the body of every JSON response
type envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	safe.Write(ctx, w, data)
}

func respondSuccess(w http.ResponseWriter, r *http.Request, status int, msg string, data any) {
	writeJSON(r.Context(), w, status, envelope{Status: statusSuccess, Message: msg, Data: data})
}

func respondFailure(w http.ResponseWriter, r *http.Request, status int, msg string, data any) {
	writeJSON(r.Context(), w, status, envelope{Status: statusError, Message: msg, Data: data})
}

// legacySuccess answers a deprecated route: always 200
func legacySuccess(w http.ResponseWriter, r *http.Request, msg string, data any) {
	respondSuccess(w, r, http.StatusOK, msg, data)
}

// legacyError answers a deprecated route with 400 whatever the error kind
func legacyError(w http.ResponseWriter, r *http.Request, err error) {
	msg, data, _ := describeError(r.Context(), err)
	respondFailure(w, r, http.StatusBadRequest, msg, data)
}

// apiError answers a v2 route with a status derived from the error kind
func apiError(w http.ResponseWriter, r *http.Request, err error) {
	msg, data, status := describeError(r.Context(), err)
	respondFailure(w, r, status, msg, data)
}

// describeError turns an error into the message, detail and v2 status of the response.
// Errors that are not business errors are reported as internal.
func describeError(ctx context.Context, err error) (string, any, int) {
	if errors.Is(err, query.ErrFiltering) {
		logging.From(ctx).Info("rejected listing request", "error", err)
		return msgFilteringError, nil, http.StatusBadRequest
	}

	be, ok := model.AsBusinessError(err)
	if !ok {
		_ = errutil.Handle(ctx, err, "unexpected error in handler")
		return usecase.MsgInternal, nil, http.StatusInternalServerError
	}

	switch be.Kind() {
	case model.ErrKindValidation, model.ErrKindLookup:
		return be.Message(), be.Data(), http.StatusBadRequest
	case model.ErrKindNotFound:
		return be.Message(), be.Data(), http.StatusNotFound
	case model.ErrKindConflict:
		return be.Message(), viewOf(be.Data()), http.StatusConflict
	default:
		_ = errutil.Handle(ctx, err, "internal error in handler")
		return be.Message(), nil, http.StatusInternalServerError
	}
}
