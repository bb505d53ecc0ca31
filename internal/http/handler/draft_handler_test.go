package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/buildflow/subcontractor-api/internal/domain"
	"github.com/buildflow/subcontractor-api/internal/repository"
	"github.com/buildflow/subcontractor-api/internal/service"
)

// newDraftRouter wires the draft and BOQ handlers onto a bare chi mux
// backed by an in-memory database, bypassing auth.
func newDraftRouter(t *testing.T) (*chi.Mux, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&domain.Project{},
		&domain.Building{},
		&domain.Subcontractor{},
		&domain.Unit{},
		&domain.Currency{},
		&domain.WizardDraft{},
		&domain.Contract{},
		&domain.ContractBOQItem{},
		&domain.VariationOrder{},
		&domain.VariationOrderBOQItem{},
		&domain.BudgetBOQLine{},
		&domain.Attachment{},
		&domain.NumberSequence{},
	))

	log := zap.NewNop()
	draftRepo := repository.NewDraftRepository(db)
	contractRepo := repository.NewContractRepository(db)
	voRepo := repository.NewVariationOrderRepository(db)
	subRepo := repository.NewSubcontractorRepository(db)
	attachmentRepo := repository.NewAttachmentRepository(db)
	seqRepo := repository.NewNumberSequenceRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	budgetRepo := repository.NewBudgetBOQRepository(db)
	unitRepo := repository.NewUnitRepository(db)

	draftService := service.NewDraftService(draftRepo, contractRepo, voRepo, subRepo, attachmentRepo, seqRepo, log)
	boqService := service.NewBOQService(draftRepo, projectRepo, budgetRepo, unitRepo, nil, log)

	draftHandler := NewDraftHandler(draftService, log)
	boqHandler := NewBOQHandler(boqService, service.NewImportService(log), log)

	r := chi.NewRouter()
	r.Route("/contracts/drafts", func(r chi.Router) {
		r.Post("/", draftHandler.Create)
		r.Get("/{id}", draftHandler.GetByID)
		r.Patch("/{id}", draftHandler.Update)
		r.Delete("/{id}", draftHandler.Delete)
		r.Post("/{id}/steps/next", draftHandler.Next)
		r.Post("/{id}/boq/items", boqHandler.AddItem)
	})
	return r, db
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestDraftEndpoints_CreateGetPatchDelete(t *testing.T) {
	r, _ := newDraftRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/contracts/drafts", domain.CreateDraftRequest{Kind: domain.DraftKindContract})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created domain.DraftDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "project", created.CurrentStep)
	assert.NotEmpty(t, rec.Header().Get("Location"))

	rec = doJSON(t, r, http.MethodGet, "/contracts/drafts/"+created.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	desc := "Electrical second fix"
	rec = doJSON(t, r, http.MethodPatch, "/contracts/drafts/"+created.ID.String(), domain.UpdateDraftRequest{Description: &desc})
	require.Equal(t, http.StatusOK, rec.Code)

	var patched domain.DraftDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &patched))
	assert.Equal(t, desc, patched.Description)

	rec = doJSON(t, r, http.MethodDelete, "/contracts/drafts/"+created.ID.String(), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/contracts/drafts/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDraftEndpoints_CreateRejectsUnknownKind(t *testing.T) {
	r, _ := newDraftRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/contracts/drafts", map[string]string{"kind": "purchase_order"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var apiErr domain.APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	assert.Equal(t, domain.ErrorTypeValidation, apiErr.Type)
	assert.Contains(t, apiErr.Errors, "kind")
}

func TestDraftEndpoints_InvalidUUIDIs400(t *testing.T) {
	r, _ := newDraftRouter(t)

	rec := doJSON(t, r, http.MethodGet, "/contracts/drafts/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDraftEndpoints_NextBlockedOnEmptyStep(t *testing.T) {
	r, _ := newDraftRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/contracts/drafts", domain.CreateDraftRequest{Kind: domain.DraftKindContract})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created domain.DraftDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	// The project step validator fails while no project is selected.
	rec = doJSON(t, r, http.MethodPost, "/contracts/drafts/"+created.ID.String()+"/steps/next", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestBOQEndpoints_ReadonlyEditIsConflict(t *testing.T) {
	r, db := newDraftRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/contracts/drafts", domain.CreateDraftRequest{Kind: domain.DraftKindContract})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created domain.DraftDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = doJSON(t, r, http.MethodPost, "/contracts/drafts/"+created.ID.String()+"/boq/items", domain.AddBOQItemRequest{
		BuildingID:   1,
		BuildingName: "Block A",
		SheetName:    "Electrical",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// Routing sanity: the row landed in the stored grid.
	var draft domain.WizardDraft
	require.NoError(t, db.First(&draft, "id = ?", created.ID).Error)
	assert.Contains(t, draft.BOQData, "Electrical")
}
