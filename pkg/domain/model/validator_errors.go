package model

import "github.com/m-mizutani/goerr/v2"

// Field conversion errors. Their messages are returned to API clients.
var (
	ErrNotString  = goerr.New("Not a valid string.")
	ErrNotInteger = goerr.New("Not a valid integer.")
	ErrNotTime    = goerr.New("Not a valid datetime.")
	ErrNotObject  = goerr.New("Not a valid mapping type.")
)

// Context keys for error values
const (
	CaseIDKey    = "case_id"
	IOCIDKey     = "ioc_id"
	AlertIDKey   = "alert_id"
	CommentIDKey = "comment_id"
	FieldIDKey   = "field_id"
	RowIndexKey  = "row_index"
)
