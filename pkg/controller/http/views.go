package http

import (
	"time"

	"github.com/secmon-lab/caseflow/pkg/domain/model"
	"github.com/secmon-lab/caseflow/pkg/domain/query"
)

type iocView struct {
	ID               int64          `json:"ioc_id"`
	Value            string         `json:"ioc_value"`
	TypeID           int64          `json:"ioc_type_id"`
	TLPID            int64          `json:"ioc_tlp_id"`
	Description      string         `json:"ioc_description"`
	Tags             string         `json:"ioc_tags"`
	CustomAttributes map[string]any `json:"custom_attributes"`
	UserID           int64          `json:"user_id"`
	CreatedAt        time.Time      `json:"ioc_date"`
	UpdatedAt        time.Time      `json:"ioc_update_date"`
}

func newIOCView(x *model.IOC) *iocView {
	attrs := x.CustomAttributes
	if attrs == nil {
		attrs = map[string]any{}
	}
	return &iocView{
		ID:               x.ID,
		Value:            x.Value,
		TypeID:           x.TypeID,
		TLPID:            x.TLPID,
		Description:      x.Description,
		Tags:             x.Tags,
		CustomAttributes: attrs,
		UserID:           x.UserID,
		CreatedAt:        x.CreatedAt,
		UpdatedAt:        x.UpdatedAt,
	}
}

type linkView struct {
	CaseID   int64  `json:"case_id"`
	CaseName string `json:"name"`
}

// detailedIOCView is an IOC of the legacy case listing
type detailedIOCView struct {
	*iocView
	TypeName string     `json:"ioc_type"`
	TLPName  string     `json:"tlp_name"`
	Link     []linkView `json:"link"`
	MISPLink any        `json:"misp_link"`
}

func newDetailedIOCView(x *model.DetailedIOC) *detailedIOCView {
	links := make([]linkView, len(x.Links))
	for i, l := range x.Links {
		links[i] = linkView{CaseID: l.CaseID, CaseName: l.CaseName}
	}
	return &detailedIOCView{
		iocView:  newIOCView(x.IOC),
		TypeName: x.TypeName,
		TLPName:  x.TLPName,
		Link:     links,
	}
}

type stateView struct {
	Revision   int64     `json:"object_state"`
	LastUpdate time.Time `json:"object_last_update"`
}

func newStateView(s *model.ObjectState) *stateView {
	if s == nil {
		return nil
	}
	return &stateView{Revision: s.Revision, LastUpdate: s.UpdatedAt}
}

type iocPageView struct {
	Total       int        `json:"total"`
	IOCs        []*iocView `json:"iocs"`
	LastPage    int        `json:"last_page"`
	CurrentPage int        `json:"current_page"`
	PerPage     int        `json:"per_page"`
	NextPage    *int       `json:"next_page"`
}

func newIOCPageView(p *query.Page[*model.IOC]) *iocPageView {
	items := make([]*iocView, len(p.Items))
	for i, x := range p.Items {
		items[i] = newIOCView(x)
	}
	return &iocPageView{
		Total:       p.Total,
		IOCs:        items,
		LastPage:    p.LastPage,
		CurrentPage: p.CurrentPage,
		PerPage:     p.PerPage,
		NextPage:    p.NextPage,
	}
}

type commentView struct {
	ID         int64     `json:"comment_id"`
	Text       string    `json:"comment_text"`
	UserID     int64     `json:"comment_user_id"`
	CaseID     int64     `json:"comment_case_id"`
	Date       time.Time `json:"comment_date"`
	UpdateDate time.Time `json:"comment_update_date"`
}

func newCommentView(c *model.Comment) *commentView {
	return &commentView{
		ID:         c.ID,
		Text:       c.Text,
		UserID:     c.UserID,
		CaseID:     c.CaseID,
		Date:       c.CreatedAt,
		UpdateDate: c.UpdatedAt,
	}
}

type alertView struct {
	ID               int64          `json:"alert_id"`
	Title            string         `json:"alert_title"`
	Description      string         `json:"alert_description"`
	Source           string         `json:"alert_source"`
	StatusID         int64          `json:"alert_status_id"`
	SeverityID       int64          `json:"alert_severity_id"`
	OwnerID          *int64         `json:"alert_owner_id"`
	CreationTime     time.Time      `json:"alert_creation_time"`
	CustomAttributes map[string]any `json:"custom_attributes"`
}

func newAlertView(a *model.Alert) *alertView {
	attrs := a.CustomAttributes
	if attrs == nil {
		attrs = map[string]any{}
	}
	return &alertView{
		ID:               a.ID,
		Title:            a.Title,
		Description:      a.Description,
		Source:           a.Source,
		StatusID:         a.StatusID,
		SeverityID:       a.SeverityID,
		OwnerID:          a.OwnerID,
		CreationTime:     a.CreationTime,
		CustomAttributes: attrs,
	}
}

type alertPageView struct {
	Total       int          `json:"total"`
	Alerts      []*alertView `json:"alerts"`
	LastPage    int          `json:"last_page"`
	CurrentPage int          `json:"current_page"`
	PerPage     int          `json:"per_page"`
	NextPage    *int         `json:"next_page"`
}

func newAlertPageView(p *query.Page[*model.Alert]) *alertPageView {
	items := make([]*alertView, len(p.Items))
	for i, a := range p.Items {
		items[i] = newAlertView(a)
	}
	return &alertPageView{
		Total:       p.Total,
		Alerts:      items,
		LastPage:    p.LastPage,
		CurrentPage: p.CurrentPage,
		PerPage:     p.PerPage,
		NextPage:    p.NextPage,
	}
}

// legacyAlertView is an alert of the deprecated filter route, with lookups resolved to names
type legacyAlertView struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Source      string `json:"source"`
	Status      string `json:"status"`
	Severity    string `json:"severity"`
	Owner       *int64 `json:"owner"`
}

func newLegacyAlertView(a *model.Alert, catalog *model.Catalog) *legacyAlertView {
	v := &legacyAlertView{
		ID:          a.ID,
		Title:       a.Title,
		Description: a.Description,
		Source:      a.Source,
		Owner:       a.OwnerID,
	}
	if s, ok := catalog.AlertStatusByID(a.StatusID); ok {
		v.Status = s.Name
	}
	if s, ok := catalog.AlertSeverityByID(a.SeverityID); ok {
		v.Severity = s.Name
	}
	return v
}

type caseView struct {
	ID          int64     `json:"case_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	UserID      int64     `json:"user_id"`
	CreatedAt   time.Time `json:"open_date"`
}

func newCaseView(c *model.Case) *caseView {
	return &caseView{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		UserID:      c.UserID,
		CreatedAt:   c.CreatedAt,
	}
}

// viewOf renders error detail that carries a domain object
func viewOf(data any) any {
	switch x := data.(type) {
	case *model.IOC:
		return newIOCView(x)
	case *model.Alert:
		return newAlertView(x)
	default:
		return data
	}
}
