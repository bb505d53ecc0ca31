package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildflow/subcontractor-api/internal/boq"
	"github.com/buildflow/subcontractor-api/internal/domain"
	"github.com/buildflow/subcontractor-api/internal/service"
	"github.com/buildflow/subcontractor-api/internal/wizard"
)

// ============================================================================
// Error mapping
// ============================================================================

func TestHandleServiceError_StatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", service.ErrNotFound, http.StatusNotFound},
		{"sheet not found", boq.ErrSheetNotFound, http.StatusNotFound},
		{"item not found", boq.ErrItemNotFound, http.StatusNotFound},
		{"invalid input", service.ErrInvalidInput, http.StatusBadRequest},
		{"unknown field", boq.ErrUnknownField, http.StatusBadRequest},
		{"invalid value", boq.ErrInvalidValue, http.StatusBadRequest},
		{"unknown step", wizard.ErrUnknownStep, http.StatusBadRequest},
		{"conflict", service.ErrConflict, http.StatusConflict},
		{"blacklisted", service.ErrSubcontractorBlacklisted, http.StatusConflict},
		{"readonly field", boq.ErrFieldReadonly, http.StatusConflict},
		{"step incomplete", wizard.ErrStepIncomplete, http.StatusConflict},
		{"step not reachable", wizard.ErrStepNotReachable, http.StatusConflict},
		{"not at final step", wizard.ErrNotAtFinalStep, http.StatusConflict},
		{"budget source down", service.ErrBudgetSourceUnavailable, http.StatusServiceUnavailable},
		{"unknown error", assert.AnError, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handleServiceError(rec, tc.err)

			assert.Equal(t, tc.status, rec.Code)

			var apiErr domain.APIError
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
			assert.Equal(t, tc.status, apiErr.Status)
			assert.NotEmpty(t, apiErr.Detail)
		})
	}
}

func TestHandleServiceError_WrappedErrorsStillMap(t *testing.T) {
	rec := httptest.NewRecorder()
	handleServiceError(rec, wrapped{service.ErrNotFound})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type wrapped struct{ inner error }

func (w wrapped) Error() string { return "outer: " + w.inner.Error() }
func (w wrapped) Unwrap() error { return w.inner }

// ============================================================================
// Validation responses
// ============================================================================

func TestRespondValidationError_UsesJSONFieldNames(t *testing.T) {
	req := domain.CreateUnitRequest{}
	err := validate.Struct(req)
	require.Error(t, err)

	rec := httptest.NewRecorder()
	respondValidationError(rec, err)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var apiErr domain.APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	assert.Equal(t, domain.ErrorTypeValidation, apiErr.Type)
	assert.Contains(t, apiErr.Errors, "name")
}

func TestRespondPaginated_ComputesTotalPages(t *testing.T) {
	rec := httptest.NewRecorder()
	respondPaginated(rec, []string{"a", "b"}, 41, 1, 20)

	var resp domain.PaginatedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(41), resp.Total)
	assert.Equal(t, 3, resp.TotalPages)
}
