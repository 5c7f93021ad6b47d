package errutil

import (
	"context"
	"errors"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/caseflow/pkg/utils/logging"
)

// SentryContextKey is the Sentry event context holding the goerr values of a reported error
const SentryContextKey = "error_values"

// Handle logs the error with a message and forwards it to Sentry when a client is configured.
// The error is returned as-is so callers can keep propagating it.
func Handle(ctx context.Context, err error, msg string) error {
	if err == nil {
		return nil
	}

	logger := logging.From(ctx)

	var ge *goerr.Error
	if errors.As(err, &ge) {
		logger.Error(msg,
			"error", err.Error(),
			"values", ge.Values(),
			"stack", ge.Stacks(),
		)
	} else {
		logger.Error(msg, "error", err.Error())
	}

	report(ge, err)
	return err
}

// HandleHTTP logs the error and writes a plain HTTP error response.
func HandleHTTP(ctx context.Context, w http.ResponseWriter, err error, statusCode int) {
	if err == nil {
		return
	}

	logger := logging.From(ctx)

	var ge *goerr.Error
	if errors.As(err, &ge) {
		logger.Error("HTTP error",
			"status", statusCode,
			"error", err.Error(),
			"values", ge.Values(),
			"stack", ge.Stacks(),
		)
	} else {
		logger.Error("HTTP error",
			"status", statusCode,
			"error", err.Error(),
		)
	}

	if statusCode >= http.StatusInternalServerError {
		report(ge, err)
	}

	http.Error(w, err.Error(), statusCode)
}

func report(ge *goerr.Error, err error) {
	hub := sentry.CurrentHub()
	if hub.Client() == nil {
		return
	}

	hub = hub.Clone()
	if ge != nil {
		hub.ConfigureScope(func(scope *sentry.Scope) {
			scope.SetContext(SentryContextKey, sentry.Context(ge.Values()))
		})
	}
	hub.CaptureException(err)
}
