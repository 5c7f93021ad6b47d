package model

import (
	"maps"
	"time"

	"github.com/secmon-lab/caseflow/pkg/domain/query"
	"github.com/secmon-lab/caseflow/pkg/domain/types"
)

// Record field names of Alert used by predicates and sorting
const (
	AlertFieldID           = "id"
	AlertFieldTitle        = "title"
	AlertFieldDescription  = "description"
	AlertFieldSource       = "source"
	AlertFieldStatusID     = "status_id"
	AlertFieldSeverityID   = "severity_id"
	AlertFieldOwnerID      = "owner_id"
	AlertFieldCreationTime = "creation_time"
)

// AlertSortFields maps accepted order_by keys to record fields
var AlertSortFields = map[string]string{
	"alert_id":            AlertFieldID,
	"alert_title":         AlertFieldTitle,
	"alert_source":        AlertFieldSource,
	"alert_status_id":     AlertFieldStatusID,
	"alert_severity_id":   AlertFieldSeverityID,
	"alert_owner_id":      AlertFieldOwnerID,
	"alert_creation_time": AlertFieldCreationTime,
}

type Alert struct {
	ID               int64
	Title            string
	Description      string
	Source           string
	StatusID         int64
	SeverityID       int64
	OwnerID          *int64
	CreationTime     time.Time
	CustomAttributes map[string]any
}

// FieldValue implements query.Record. OwnerID is absent when the alert has no owner.
func (x *Alert) FieldValue(name string) (any, bool) {
	switch name {
	case AlertFieldID:
		return x.ID, true
	case AlertFieldTitle:
		return x.Title, true
	case AlertFieldDescription:
		return x.Description, true
	case AlertFieldSource:
		return x.Source, true
	case AlertFieldStatusID:
		return x.StatusID, true
	case AlertFieldSeverityID:
		return x.SeverityID, true
	case AlertFieldOwnerID:
		if x.OwnerID == nil {
			return nil, false
		}
		return *x.OwnerID, true
	case AlertFieldCreationTime:
		return x.CreationTime, true
	default:
		return nil, false
	}
}

// Copy returns a deep copy of the alert
func (x *Alert) Copy() *Alert {
	copied := *x
	if x.OwnerID != nil {
		owner := *x.OwnerID
		copied.OwnerID = &owner
	}
	if x.CustomAttributes != nil {
		copied.CustomAttributes = maps.Clone(x.CustomAttributes)
	}
	return &copied
}

// NewAlertFromValues builds an alert from decoded schema values
func NewAlertFromValues(v Values) *Alert {
	alert := &Alert{
		Title:            v.String("alert_title"),
		Description:      v.String("alert_description"),
		Source:           v.String("alert_source"),
		StatusID:         v.Int("alert_status_id"),
		SeverityID:       v.Int("alert_severity_id"),
		CreationTime:     v.Time("alert_creation_time"),
		CustomAttributes: v.Object("custom_attributes"),
	}
	if v.Has("alert_owner_id") {
		owner := v.Int("alert_owner_id")
		alert.OwnerID = &owner
	}
	return alert
}

// AlertSchema describes the alert creation payload
var AlertSchema = &Schema{
	Name: "alert",
	Fields: []FieldSpec{
		{Name: "alert_title", Type: types.FieldTypeText, Required: true, Rules: "min=1,max=512"},
		{Name: "alert_description", Type: types.FieldTypeText, Default: ""},
		{Name: "alert_source", Type: types.FieldTypeText, Default: "", Rules: "max=256"},
		{Name: "alert_status_id", Type: types.FieldTypeInteger, Required: true, Rules: "gt=0"},
		{Name: "alert_severity_id", Type: types.FieldTypeInteger, Required: true, Rules: "gt=0"},
		{Name: "alert_owner_id", Type: types.FieldTypeInteger, Rules: "gt=0"},
		{Name: "alert_creation_time", Type: types.FieldTypeTime},
		{Name: "custom_attributes", Type: types.FieldTypeObject},
	},
}

// AlertFilter holds the optional criteria of an alert listing. A nil field is absent.
type AlertFilter struct {
	StartDate   *time.Time
	EndDate     *time.Time
	Title       *string
	Description *string
	Source      *string
	StatusID    *int64
	SeverityID  *int64
	OwnerID     *int64
}

// Predicate composes the present criteria. The creation time range only applies when both
// bounds are present.
func (f AlertFilter) Predicate() query.Predicate {
	var terms []query.Predicate

	if f.StartDate != nil && f.EndDate != nil {
		terms = append(terms, query.Between(AlertFieldCreationTime, *f.StartDate, *f.EndDate))
	}
	if f.Title != nil {
		terms = append(terms, query.Contains(AlertFieldTitle, *f.Title))
	}
	if f.Description != nil {
		terms = append(terms, query.Contains(AlertFieldDescription, *f.Description))
	}
	if f.Source != nil {
		terms = append(terms, query.Contains(AlertFieldSource, *f.Source))
	}
	if f.StatusID != nil {
		terms = append(terms, query.Eq(AlertFieldStatusID, *f.StatusID))
	}
	if f.SeverityID != nil {
		terms = append(terms, query.Eq(AlertFieldSeverityID, *f.SeverityID))
	}
	if f.OwnerID != nil {
		terms = append(terms, query.Eq(AlertFieldOwnerID, *f.OwnerID))
	}

	return query.And(terms...)
}
