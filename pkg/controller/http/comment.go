package http

import (
	"net/http"

	"github.com/secmon-lab/caseflow/pkg/usecase"
)

// commentHandler serves the comments of IOCs. Every route is a deprecated form.
type commentHandler struct {
	comment *usecase.CommentUseCase
}

func (h *commentHandler) ids(r *http.Request, withComment bool) (int64, int64, error) {
	iocID, err := pathID(r, "id", usecase.MsgInvalidIOCID)
	if err != nil {
		return 0, 0, err
	}
	if !withComment {
		return iocID, 0, nil
	}
	commentID, err := pathID(r, "commentID", usecase.MsgCommentNotFound)
	if err != nil {
		return 0, 0, err
	}
	return iocID, commentID, nil
}

func (h *commentHandler) list(w http.ResponseWriter, r *http.Request) {
	iocID, _, err := h.ids(r, false)
	if err != nil {
		legacyError(w, r, err)
		return
	}

	comments, err := h.comment.List(r.Context(), caseIDFromContext(r.Context()), iocID)
	if err != nil {
		legacyError(w, r, err)
		return
	}

	views := make([]*commentView, len(comments))
	for i, c := range comments {
		views[i] = newCommentView(c)
	}
	legacySuccess(w, r, "", views)
}

func (h *commentHandler) add(w http.ResponseWriter, r *http.Request) {
	iocID, _, err := h.ids(r, false)
	if err != nil {
		legacyError(w, r, err)
		return
	}
	body, err := decodeBody(r)
	if err != nil {
		legacyError(w, r, err)
		return
	}

	c, msg, err := h.comment.Add(r.Context(), caseIDFromContext(r.Context()), iocID, body)
	if err != nil {
		legacyError(w, r, err)
		return
	}
	legacySuccess(w, r, msg, newCommentView(c))
}

func (h *commentHandler) get(w http.ResponseWriter, r *http.Request) {
	iocID, commentID, err := h.ids(r, true)
	if err != nil {
		legacyError(w, r, err)
		return
	}

	c, err := h.comment.Get(r.Context(), caseIDFromContext(r.Context()), iocID, commentID)
	if err != nil {
		legacyError(w, r, err)
		return
	}
	legacySuccess(w, r, "", newCommentView(c))
}

func (h *commentHandler) edit(w http.ResponseWriter, r *http.Request) {
	iocID, commentID, err := h.ids(r, true)
	if err != nil {
		legacyError(w, r, err)
		return
	}
	body, err := decodeBody(r)
	if err != nil {
		legacyError(w, r, err)
		return
	}

	c, msg, err := h.comment.Update(r.Context(), caseIDFromContext(r.Context()), iocID, commentID, body)
	if err != nil {
		legacyError(w, r, err)
		return
	}
	legacySuccess(w, r, msg, newCommentView(c))
}

func (h *commentHandler) delete(w http.ResponseWriter, r *http.Request) {
	iocID, commentID, err := h.ids(r, true)
	if err != nil {
		legacyError(w, r, err)
		return
	}

	msg, err := h.comment.Delete(r.Context(), caseIDFromContext(r.Context()), iocID, commentID)
	if err != nil {
		legacyError(w, r, err)
		return
	}
	legacySuccess(w, r, msg, nil)
}
