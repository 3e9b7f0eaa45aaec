// Package respond writes JSON bodies and maps service errors to status codes.
package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/corray333/backend-labs/storefront/internal/service/errs"
	"github.com/corray333/backend-labs/storefront/internal/service/models/principal"
	"github.com/corray333/backend-labs/storefront/internal/transport/http/middleware/auth"
	"github.com/corray333/backend-labs/storefront/pkg/logger"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error     string `json:"error"`
	Field     string `json:"field,omitempty"`
	Available *int   `json:"available,omitempty"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.FromContext(r.Context()).Error("Error sending response", zap.Error(err))
	}
}

// Error maps err onto a status code and writes it as an ErrorBody.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	status, body := classify(err)

	log := logger.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error("Request failed", zap.Int("status", status), zap.Error(err))
	} else {
		log.Info("Request rejected", zap.Int("status", status), zap.Error(err))
	}

	JSON(w, r, status, body)
}

func classify(err error) (int, ErrorBody) {
	body := ErrorBody{Error: err.Error()}

	var oos *errs.OutOfStockError
	var invalid *errs.InvalidStatusError
	var illegal *errs.IllegalTransitionError
	var verr validator.ValidationErrors

	switch {
	case errors.As(err, &oos):
		body.Available = &oos.Available

		return http.StatusConflict, body
	case errors.As(err, &invalid):
		body.Field = invalid.Field

		return http.StatusBadRequest, body
	case errors.As(err, &illegal):
		body.Field = illegal.Field

		return http.StatusConflict, body
	case errors.As(err, &verr):
		if len(verr) > 0 {
			body.Field = verr[0].Field()
		}

		return http.StatusBadRequest, body
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound, body
	case errors.Is(err, errs.ErrForbidden):
		return http.StatusForbidden, body
	case errors.Is(err, errs.ErrUnauthorized):
		return http.StatusUnauthorized, body
	case errors.Is(err, errs.ErrInvalidInput), errors.Is(err, errs.ErrInvalidStatus):
		return http.StatusBadRequest, body
	case errors.Is(err, errs.ErrAlreadyPaid), errors.Is(err, errs.ErrConflict),
		errors.Is(err, errs.ErrIllegalTransition), errors.Is(err, errs.ErrOutOfStock):
		return http.StatusConflict, body
	case errors.Is(err, errs.ErrGatewayFailure):
		return http.StatusBadGateway, body
	default:
		return http.StatusInternalServerError, ErrorBody{Error: "internal server error"}
	}
}

// DecodeJSON reads the body into v and validates it.
func DecodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errs.InvalidInputf("malformed request body: %v", err)
	}

	return Validate(v)
}

// Validate runs the struct validation tags of v.
func Validate(v any) error {
	return validate.Struct(v)
}

// Principal returns the caller stored by the auth middleware.
func Principal(r *http.Request) (principal.Principal, error) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		return principal.Principal{}, errs.ErrUnauthorized
	}

	return p, nil
}
