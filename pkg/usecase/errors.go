package usecase

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for use case layer
var (
	ErrUnknownHookPoint = goerr.New("unknown hook point")

	// Authentication errors
	ErrMissingToken = goerr.New("missing bearer token")
	ErrInvalidToken = goerr.New("invalid bearer token")
)

// Messages surfaced to API clients
const (
	MsgDataError        = "Data error"
	MsgInvalidIOCType   = "Not a valid IOC type"
	MsgIOCNotFound      = "Invalid IOC ID for this case"
	MsgIOCLinked        = "IOC already exists and linked to this case"
	MsgIOCStateNotFound = "No IOC state for this case."
	MsgInvalidIOCID     = "Invalid ioc ID"
	MsgCommentNotFound  = "Invalid comment ID"
	MsgCaseNotFound     = "Invalid case ID"
	MsgAlertNotFound    = "Invalid alert ID"
	MsgInvalidStatus    = "Invalid alert status ID"
	MsgInvalidSeverity  = "Invalid alert severity ID"
	MsgInternal         = "Unexpected error server-side"
)

// Context keys for error values
const (
	CaseIDKey    = "case_id"
	IOCIDKey     = "ioc_id"
	CommentIDKey = "comment_id"
	AlertIDKey   = "alert_id"
	HookKey      = "hook"
)
