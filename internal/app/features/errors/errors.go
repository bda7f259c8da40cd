// internal/app/features/errors/errors.go
package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	closurestore "github.com/dalemusser/uplinehub/internal/app/store/closures"
	levelstore "github.com/dalemusser/uplinehub/internal/app/store/levels"
	userlevelstore "github.com/dalemusser/uplinehub/internal/app/store/userlevels"
	userstore "github.com/dalemusser/uplinehub/internal/app/store/users"
	walletstore "github.com/dalemusser/uplinehub/internal/app/store/wallets"
	"github.com/dalemusser/uplinehub/internal/app/system/inputval"
	"github.com/dalemusser/uplinehub/internal/app/system/network"
	"go.uber.org/zap"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error  string                `json:"error"`
	Fields []inputval.FieldError `json:"fields,omitempty"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Write sends {"error": msg}.
func Write(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, errorBody{Error: msg})
}

// Invalid sends a 400 listing the failed fields.
func Invalid(w http.ResponseWriter, res *inputval.Result) {
	JSON(w, http.StatusBadRequest, errorBody{Error: res.First(), Fields: res.Errors})
}

// Status maps a domain error onto an HTTP status.
func Status(err error) int {
	switch {
	case stderrors.Is(err, userstore.ErrNotFound),
		stderrors.Is(err, levelstore.ErrNotFound),
		stderrors.Is(err, walletstore.ErrWalletNotFound):
		return http.StatusNotFound
	case stderrors.Is(err, closurestore.ErrDuplicateClosure),
		stderrors.Is(err, userlevelstore.ErrActiveLevelConflict),
		stderrors.Is(err, levelstore.ErrDuplicateHierarchy),
		stderrors.Is(err, walletstore.ErrWalletExists):
		return http.StatusConflict
	case stderrors.Is(err, walletstore.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity
	case stderrors.Is(err, network.ErrInvalidAmount):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Respond writes err with its mapped status. Server errors are logged and
// their detail is not sent to the client.
func Respond(w http.ResponseWriter, log *zap.Logger, msg string, err error) {
	status := Status(err)
	if status >= http.StatusInternalServerError {
		log.Error(msg, zap.Error(err))
		Write(w, status, http.StatusText(status))
		return
	}
	Write(w, status, err.Error())
}

// Handler serves the router-level fallbacks.
type Handler struct{}

// NewHandler constructs an errors Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// NotFound answers unknown routes.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	Write(w, http.StatusNotFound, "not found")
}

// MethodNotAllowed answers known routes called with the wrong method.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	Write(w, http.StatusMethodNotAllowed, "method not allowed")
}
