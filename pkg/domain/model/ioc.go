package model

import (
	"maps"
	"strings"
	"time"

	"github.com/secmon-lab/caseflow/pkg/domain/query"
)

// Record field names of IOC used by predicates and sorting
const (
	IOCFieldID          = "id"
	IOCFieldValue       = "value"
	IOCFieldTypeID      = "type_id"
	IOCFieldTLPID       = "tlp_id"
	IOCFieldDescription = "description"
	IOCFieldTags        = "tags"
	IOCFieldUserID      = "user_id"
	IOCFieldCreatedAt   = "created_at"
)

// IOCSortFields maps accepted order_by keys to record fields
var IOCSortFields = map[string]string{
	"ioc_id":          IOCFieldID,
	"ioc_value":       IOCFieldValue,
	"ioc_type_id":     IOCFieldTypeID,
	"ioc_tlp_id":      IOCFieldTLPID,
	"ioc_description": IOCFieldDescription,
	"ioc_tags":        IOCFieldTags,
	"user_id":         IOCFieldUserID,
	"created_at":      IOCFieldCreatedAt,
}

// IOC is an indicator of compromise. IOCs are global and unique per value and type; cases
// reference them through links.
type IOC struct {
	ID               int64
	Value            string
	TypeID           int64
	TLPID            int64
	Description      string
	Tags             string // comma separated
	CustomAttributes map[string]any
	UserID           int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// FieldValue implements query.Record
func (x *IOC) FieldValue(name string) (any, bool) {
	switch name {
	case IOCFieldID:
		return x.ID, true
	case IOCFieldValue:
		return x.Value, true
	case IOCFieldTypeID:
		return x.TypeID, true
	case IOCFieldTLPID:
		return x.TLPID, true
	case IOCFieldDescription:
		return x.Description, true
	case IOCFieldTags:
		return x.Tags, true
	case IOCFieldUserID:
		return x.UserID, true
	case IOCFieldCreatedAt:
		return x.CreatedAt, true
	default:
		return nil, false
	}
}

// Copy returns a deep copy of the IOC
func (x *IOC) Copy() *IOC {
	copied := *x
	if x.CustomAttributes != nil {
		copied.CustomAttributes = maps.Clone(x.CustomAttributes)
	}
	return &copied
}

// NewIOCFromValues builds an IOC from decoded schema values
func NewIOCFromValues(v Values) *IOC {
	ioc := &IOC{}
	ioc.Apply(v)
	return ioc
}

// Apply overwrites the fields present in v
func (x *IOC) Apply(v Values) {
	if v.Has("ioc_value") {
		x.Value = v.String("ioc_value")
	}
	if v.Has("ioc_type_id") {
		x.TypeID = v.Int("ioc_type_id")
	}
	if v.Has("ioc_tlp_id") {
		x.TLPID = v.Int("ioc_tlp_id")
	}
	if v.Has("ioc_description") {
		x.Description = v.String("ioc_description")
	}
	if v.Has("ioc_tags") {
		x.Tags = v.String("ioc_tags")
	}
	if v.Has("custom_attributes") {
		x.CustomAttributes = v.Object("custom_attributes")
	}
}

// NormalizeTags converts the pipe separated tag form used in CSV uploads into the comma
// separated form. Applying it more than once has no further effect.
func NormalizeTags(tags string) string {
	return strings.ReplaceAll(tags, "|", ",")
}

// LinkedCase is another case an IOC is linked to
type LinkedCase struct {
	CaseID   int64
	CaseName string
}

// DetailedIOC is an IOC listed within a case, with its lookup names and the other cases
// sharing it
type DetailedIOC struct {
	*IOC
	TypeName string
	TLPName  string
	Links    []LinkedCase
}

// IOCFilter holds the optional criteria of an IOC listing. A nil field is absent.
type IOCFilter struct {
	TypeID      *int64
	TypeName    *string
	TLPID       *int64
	Value       *string
	Description *string
	Tags        *string
}

// Predicate composes the present criteria. TypeName is resolved through the catalog; a name
// that does not resolve matches nothing.
func (f IOCFilter) Predicate(catalog *Catalog) query.Predicate {
	var terms []query.Predicate

	if f.TypeID != nil {
		terms = append(terms, query.Eq(IOCFieldTypeID, *f.TypeID))
	}
	if f.TypeName != nil {
		if t, ok := catalog.IOCTypeByName(*f.TypeName); ok {
			terms = append(terms, query.Eq(IOCFieldTypeID, t.ID))
		} else {
			terms = append(terms, query.Nothing())
		}
	}
	if f.TLPID != nil {
		terms = append(terms, query.Eq(IOCFieldTLPID, *f.TLPID))
	}
	if f.Value != nil {
		terms = append(terms, query.Contains(IOCFieldValue, *f.Value))
	}
	if f.Description != nil {
		terms = append(terms, query.Contains(IOCFieldDescription, *f.Description))
	}
	if f.Tags != nil {
		terms = append(terms, query.Contains(IOCFieldTags, *f.Tags))
	}

	return query.And(terms...)
}
