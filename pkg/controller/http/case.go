package http

import (
	"net/http"

	"github.com/secmon-lab/caseflow/pkg/usecase"
)

type caseHandler struct {
	cases *usecase.CaseUseCase
}

func (h *caseHandler) list(w http.ResponseWriter, r *http.Request) {
	cases, err := h.cases.List(r.Context())
	if err != nil {
		apiError(w, r, err)
		return
	}

	views := make([]*caseView, len(cases))
	for i, c := range cases {
		views[i] = newCaseView(c)
	}
	respondSuccess(w, r, http.StatusOK, "", views)
}

func (h *caseHandler) create(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(r)
	if err != nil {
		apiError(w, r, err)
		return
	}

	c, err := h.cases.Create(r.Context(), body)
	if err != nil {
		apiError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusCreated, "", newCaseView(c))
}

func (h *caseHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "caseid", usecase.MsgCaseNotFound)
	if err != nil {
		apiError(w, r, err)
		return
	}

	c, err := h.cases.Get(r.Context(), id)
	if err != nil {
		apiError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, "", newCaseView(c))
}

func (h *caseHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "caseid", usecase.MsgCaseNotFound)
	if err != nil {
		apiError(w, r, err)
		return
	}

	if err := h.cases.Delete(r.Context(), id); err != nil {
		apiError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
