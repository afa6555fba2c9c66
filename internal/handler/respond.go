// Package handler contains the JSON HTTP handlers and their shared
// request/response plumbing.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/ahir-gaurav/Ecommerce-backend/internal/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields,omitempty"`
	} `json:"error"`
}

// ErrorCodeToHTTPStatus maps domain error codes to HTTP status codes.
func ErrorCodeToHTTPStatus(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusBadRequest
	case domain.EUNAUTHORIZED:
		return http.StatusUnauthorized
	case domain.EFORBIDDEN:
		return http.StatusForbidden
	case domain.ENOTFOUND:
		return http.StatusNotFound
	case domain.ECONFLICT:
		return http.StatusConflict
	case domain.EPAYMENT:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// RespondJSON writes a JSON response with the given status.
func RespondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		if err := json.NewEncoder(w).Encode(body); err != nil {
			slog.Default().Error("failed to encode response", "error", err)
		}
	}
}

// RespondError writes the JSON error envelope for a domain error. Internal
// errors are logged with their cause and masked in the response.
func RespondError(w http.ResponseWriter, r *http.Request, err error) {
	code := domain.ErrorCode(err)
	message := domain.ErrorMessage(err)

	if code == domain.EINTERNAL {
		slog.Default().Error("internal error",
			"path", r.URL.Path, "method", r.Method, "error", err)
		message = "An internal error has occurred."
	}

	var resp ErrorResponse
	resp.Error.Code = code
	resp.Error.Message = message
	if domain.IsValidationError(err) {
		resp.Error.Fields = domain.GetValidationFields(err)
	}

	RespondJSON(w, ErrorCodeToHTTPStatus(code), resp)
}

// DecodeValid decodes a JSON request body into dst and validates it with
// the struct tags.
func DecodeValid(r *http.Request, dst any) error {
	const op = "handler.decode"

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return domain.Invalid(op, "invalid JSON request body")
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[fe.Field()] = fmt.Sprintf("failed %q validation", fe.Tag())
			}
			return &domain.ValidationError{Fields: fields, Op: op}
		}
		return domain.Invalid(op, "invalid request")
	}
	return nil
}

// pathUUID parses a UUID path value, e.g. r.PathValue("id").
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, domain.Invalid("handler.path", fmt.Sprintf("invalid %s", name))
	}
	return id, nil
}
