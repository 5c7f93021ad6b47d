package http

import (
	"net/http"

	"github.com/secmon-lab/caseflow/pkg/domain/model"
	"github.com/secmon-lab/caseflow/pkg/usecase"
)

type alertHandler struct {
	alert   *usecase.AlertUseCase
	catalog *model.Catalog
}

func (h *alertHandler) create(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(r)
	if err != nil {
		apiError(w, r, err)
		return
	}

	alert, _, err := h.alert.Create(r.Context(), body)
	if err != nil {
		apiError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusCreated, "", newAlertView(alert))
}

func (h *alertHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", usecase.MsgAlertNotFound)
	if err != nil {
		apiError(w, r, err)
		return
	}

	alert, err := h.alert.Get(r.Context(), id)
	if err != nil {
		apiError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, "", newAlertView(alert))
}

func (h *alertHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter, err := alertFilter(q)
	if err != nil {
		apiError(w, r, err)
		return
	}
	req, err := listRequest(q)
	if err != nil {
		apiError(w, r, err)
		return
	}

	page, err := h.alert.List(r.Context(), filter, req)
	if err != nil {
		apiError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, "", newAlertPageView(page))
}

func (h *alertHandler) legacyCreate(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(r)
	if err != nil {
		legacyError(w, r, err)
		return
	}

	alert, msg, err := h.alert.Create(r.Context(), body)
	if err != nil {
		legacyError(w, r, err)
		return
	}
	legacySuccess(w, r, msg, newAlertView(alert))
}

// legacyFilter returns every matching alert on one page, with lookups resolved to names
func (h *alertHandler) legacyFilter(w http.ResponseWriter, r *http.Request) {
	filter, err := alertFilter(r.URL.Query())
	if err != nil {
		legacyError(w, r, err)
		return
	}

	views := []*legacyAlertView{}
	req := usecase.DefaultListRequest()
	req.PerPage = legacyFilterPageSize
	for {
		page, err := h.alert.List(r.Context(), filter, req)
		if err != nil {
			legacyError(w, r, err)
			return
		}
		for _, a := range page.Items {
			views = append(views, newLegacyAlertView(a, h.catalog))
		}
		if page.NextPage == nil {
			break
		}
		req.Page = *page.NextPage
	}

	legacySuccess(w, r, "", views)
}

const legacyFilterPageSize = 500
