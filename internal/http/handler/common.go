package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/buildflow/subcontractor-api/internal/boq"
	"github.com/buildflow/subcontractor-api/internal/domain"
	"github.com/buildflow/subcontractor-api/internal/service"
	"github.com/buildflow/subcontractor-api/internal/wizard"
)

var validate = validator.New()

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// respondPaginated wraps list results in the standard paginated envelope.
func respondPaginated(w http.ResponseWriter, data interface{}, total int64, page, pageSize int) {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	respondJSON(w, http.StatusOK, domain.PaginatedResponse{
		Data:       data,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	})
}

// respondValidationError sends a standardized validation error response with specific field messages
func respondValidationError(w http.ResponseWriter, err error) {
	errs := make(map[string]string)
	if ve, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range ve {
			fieldName := toJSONFieldName(fe.Field())
			errs[fieldName] = formatValidationError(fe)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(domain.APIError{
		Type:   domain.ErrorTypeValidation,
		Title:  "Validation Error",
		Status: http.StatusBadRequest,
		Detail: "One or more fields failed validation",
		Errors: errs,
	})
}

// formatValidationError creates a human-readable validation error message
func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", toJSONFieldName(fe.Field()))
	case "max":
		return fmt.Sprintf("Must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("Must be at least %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("Must be greater than or equal to %s", fe.Param())
	case "gt":
		return fmt.Sprintf("Must be greater than %s", fe.Param())
	case "lte":
		return fmt.Sprintf("Must be less than or equal to %s", fe.Param())
	case "lt":
		return fmt.Sprintf("Must be less than %s", fe.Param())
	case "uuid":
		return "Must be a valid UUID"
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", fe.Param())
	default:
		return domain.GetValidationMessage(fe.Tag())
	}
}

// toJSONFieldName converts a Go struct field name to its JSON equivalent (camelCase)
func toJSONFieldName(field string) string {
	if len(field) == 0 {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

// respondWithError sends a standardized JSON error response
func respondWithError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(domain.APIError{
		Type:   getErrorType(status),
		Title:  http.StatusText(status),
		Status: status,
		Detail: message,
	})
}

// getErrorType returns the appropriate error type for an HTTP status code
func getErrorType(status int) string {
	switch status {
	case http.StatusBadRequest:
		return domain.ErrorTypeBadRequest
	case http.StatusUnauthorized:
		return domain.ErrorTypeUnauthorized
	case http.StatusForbidden:
		return domain.ErrorTypeForbidden
	case http.StatusNotFound:
		return domain.ErrorTypeNotFound
	case http.StatusConflict:
		return domain.ErrorTypeConflict
	default:
		return domain.ErrorTypeInternal
	}
}

// handleServiceError maps known service and domain errors to HTTP responses.
// Unknown errors fall through to a generic 500 without leaking internals.
func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound),
		errors.Is(err, boq.ErrSheetNotFound),
		errors.Is(err, boq.ErrItemNotFound):
		respondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, boq.ErrUnknownField),
		errors.Is(err, boq.ErrInvalidValue),
		errors.Is(err, wizard.ErrUnknownStep):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrConflict),
		errors.Is(err, service.ErrSubcontractorBlacklisted),
		errors.Is(err, boq.ErrFieldReadonly),
		errors.Is(err, wizard.ErrStepIncomplete),
		errors.Is(err, wizard.ErrStepNotReachable),
		errors.Is(err, wizard.ErrNotAtFinalStep):
		respondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		respondWithError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrBudgetSourceUnavailable):
		respondWithError(w, http.StatusServiceUnavailable, err.Error())
	default:
		respondWithError(w, http.StatusInternalServerError, "An unexpected error occurred")
	}
}
