package http

import (
	"net/http"

	"github.com/secmon-lab/caseflow/pkg/domain/model"
	"github.com/secmon-lab/caseflow/pkg/usecase"
)

type iocHandler struct {
	ioc    *usecase.IOCUseCase
	upload *usecase.ImportUseCase
}

func (h *iocHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter, err := iocFilter(q)
	if err != nil {
		apiError(w, r, err)
		return
	}
	req, err := listRequest(q)
	if err != nil {
		apiError(w, r, err)
		return
	}

	page, err := h.ioc.List(r.Context(), caseIDFromContext(r.Context()), filter, req)
	if err != nil {
		apiError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, "", newIOCPageView(page))
}

func (h *iocHandler) create(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(r)
	if err != nil {
		apiError(w, r, err)
		return
	}

	ioc, _, err := h.ioc.Create(r.Context(), caseIDFromContext(r.Context()), body)
	if err != nil {
		apiError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusCreated, "", newIOCView(ioc))
}

func (h *iocHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", usecase.MsgIOCNotFound)
	if err != nil {
		apiError(w, r, err)
		return
	}

	ioc, err := h.ioc.Get(r.Context(), caseIDFromContext(r.Context()), id)
	if err != nil {
		apiError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, "", newIOCView(ioc))
}

func (h *iocHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", usecase.MsgIOCNotFound)
	if err != nil {
		apiError(w, r, err)
		return
	}
	body, err := decodeBody(r)
	if err != nil {
		apiError(w, r, err)
		return
	}

	ioc, msg, err := h.ioc.Update(r.Context(), caseIDFromContext(r.Context()), id, body)
	if err != nil {
		apiError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, msg, newIOCView(ioc))
}

func (h *iocHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", usecase.MsgIOCNotFound)
	if err != nil {
		apiError(w, r, err)
		return
	}

	if _, err := h.ioc.Delete(r.Context(), caseIDFromContext(r.Context()), id); err != nil {
		apiError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Deprecated routes. They answer 200 with the envelope, or 400 on any error.

func (h *iocHandler) legacyList(w http.ResponseWriter, r *http.Request) {
	caseID := caseIDFromContext(r.Context())
	iocs, err := h.ioc.ListDetailed(r.Context(), caseID)
	if err != nil {
		legacyError(w, r, err)
		return
	}

	views := make([]*detailedIOCView, len(iocs))
	for i, x := range iocs {
		views[i] = newDetailedIOCView(x)
	}

	// a case without IOC mutation has no state yet
	var state *stateView
	if s, err := h.ioc.State(r.Context(), caseID); err == nil {
		state = newStateView(s)
	} else if be, ok := model.AsBusinessError(err); !ok || be.Kind() != model.ErrKindNotFound {
		legacyError(w, r, err)
		return
	}

	legacySuccess(w, r, "", map[string]any{
		"ioc":   views,
		"state": state,
	})
}

func (h *iocHandler) legacyState(w http.ResponseWriter, r *http.Request) {
	state, err := h.ioc.State(r.Context(), caseIDFromContext(r.Context()))
	if err != nil {
		legacyError(w, r, err)
		return
	}
	legacySuccess(w, r, "", newStateView(state))
}

func (h *iocHandler) legacyCreate(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(r)
	if err != nil {
		legacyError(w, r, err)
		return
	}

	ioc, msg, err := h.ioc.Create(r.Context(), caseIDFromContext(r.Context()), body)
	if err != nil {
		legacyError(w, r, err)
		return
	}
	legacySuccess(w, r, msg, newIOCView(ioc))
}

func (h *iocHandler) legacyGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", usecase.MsgIOCNotFound)
	if err != nil {
		legacyError(w, r, err)
		return
	}

	ioc, err := h.ioc.Get(r.Context(), caseIDFromContext(r.Context()), id)
	if err != nil {
		legacyError(w, r, err)
		return
	}
	legacySuccess(w, r, "", newIOCView(ioc))
}

func (h *iocHandler) legacyUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", usecase.MsgIOCNotFound)
	if err != nil {
		legacyError(w, r, err)
		return
	}
	body, err := decodeBody(r)
	if err != nil {
		legacyError(w, r, err)
		return
	}

	ioc, msg, err := h.ioc.Update(r.Context(), caseIDFromContext(r.Context()), id, body)
	if err != nil {
		legacyError(w, r, err)
		return
	}
	legacySuccess(w, r, msg, newIOCView(ioc))
}

func (h *iocHandler) legacyDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", usecase.MsgIOCNotFound)
	if err != nil {
		legacyError(w, r, err)
		return
	}

	msg, err := h.ioc.Delete(r.Context(), caseIDFromContext(r.Context()), id)
	if err != nil {
		legacyError(w, r, err)
		return
	}
	legacySuccess(w, r, msg, nil)
}

// legacyUpload bulk imports IOCs. Row errors do not fail the request: the message lists them and
// the data echoes every created row.
func (h *iocHandler) legacyUpload(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(r)
	if err != nil {
		legacyError(w, r, err)
		return
	}

	csvData, ok := body["CSVData"].(string)
	if !ok {
		legacyError(w, r, model.ValidationError(usecase.MsgDataError, model.FieldErrors{
			{Field: "CSVData", Message: "Missing data for required field."},
		}))
		return
	}

	report, err := h.upload.Upload(r.Context(), caseIDFromContext(r.Context()), csvData)
	if err != nil {
		legacyError(w, r, err)
		return
	}
	legacySuccess(w, r, report.Message(), report.Created())
}
