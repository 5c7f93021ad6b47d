package http

import (
	"net/http"

	"github.com/secmon-lab/caseflow/pkg/domain/model/auth"
	"github.com/secmon-lab/caseflow/pkg/usecase"
)

type AuthUseCase = usecase.AuthUseCaseInterface

type userView struct {
	ID   int64  `json:"user_id"`
	Name string `json:"user_name"`
}

// meHandler returns the authenticated user of the request
func meHandler(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	respondSuccess(w, r, http.StatusOK, "", &userView{ID: user.ID, Name: user.Name})
}
