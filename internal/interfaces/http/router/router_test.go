package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	appfiscal "github.com/fiscalhub/backend/internal/application/fiscal"
	"github.com/fiscalhub/backend/internal/domain/fiscal"
	"github.com/fiscalhub/backend/internal/infrastructure/authority"
	"github.com/fiscalhub/backend/internal/infrastructure/config"
	"github.com/fiscalhub/backend/internal/infrastructure/persistence"
	"github.com/fiscalhub/backend/internal/infrastructure/rendering"
	"github.com/fiscalhub/backend/internal/interfaces/http/handler"
	"github.com/fiscalhub/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Meta *struct {
		Total int64 `json:"total"`
		Page  int   `json:"page"`
	} `json:"meta"`
}

func setupTestServer(t *testing.T) *gin.Engine {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&fiscal.FiscalDocument{}, &fiscal.DocumentItem{}))

	repo := persistence.NewGormDocumentRepository(db)
	gateway := authority.NewSimulator(config.AuthorityConfig{
		Seed:          42,
		RejectionRate: 0,
	}, zap.NewNop())

	registry, err := rendering.NewRegistry(nil)
	require.NoError(t, err)

	docSvc := appfiscal.NewDocumentService(repo)
	txSvc := appfiscal.NewTransmissionService(repo, gateway, zap.NewNop())
	renderSvc := appfiscal.NewRenderingService(repo, registry, zap.NewNop())

	engine := NewEngine(EngineConfig{
		Mode: gin.TestMode,
		CORS: middleware.DefaultCORSConfig(),
	})
	NewRouter(engine).
		Register(handler.NewHealthHandler()).
		Register(handler.NewDocumentHandler(docSvc, renderSvc)).
		Register(handler.NewTransmissionHandler(txSvc)).
		Setup()
	return engine
}

func doRequest(t *testing.T, engine *gin.Engine, method, path string, tenantID, branchID uuid.UUID, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if tenantID != uuid.Nil {
		req.Header.Set("X-Tenant-ID", tenantID.String())
		req.Header.Set("X-Branch-ID", branchID.String())
	}

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	var env envelope
	if strings.Contains(rec.Header().Get("Content-Type"), "application/json") {
		_ = json.Unmarshal(rec.Body.Bytes(), &env)
	}
	return rec, env
}

func createDraftWithItem(t *testing.T, engine *gin.Engine, tenantID, branchID uuid.UUID) string {
	t.Helper()

	rec, env := doRequest(t, engine, http.MethodPost, "/api/v1/documents", tenantID, branchID, gin.H{
		"type":          "NFE",
		"series":        "001",
		"issuer_id":     uuid.New().String(),
		"issuer_tax_id": "12345678000195",
		"issuer_name":   "Emitente Ltda",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var doc struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &doc))

	rec, _ = doRequest(t, engine, http.MethodPost, "/api/v1/documents/"+doc.ID+"/items", tenantID, branchID, gin.H{
		"description":         "Widget model A",
		"classification_code": "84713012",
		"operation_code":      "5102",
		"quantity":            "2",
		"unit_price":          "150.00",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return doc.ID
}

func TestRouter_HealthEndpoint(t *testing.T) {
	engine := setupTestServer(t)
	rec, _ := doRequest(t, engine, http.MethodGet, "/api/v1/health", uuid.Nil, uuid.Nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_RequiresIssuerScope(t *testing.T) {
	engine := setupTestServer(t)
	rec, env := doRequest(t, engine, http.MethodGet, "/api/v1/documents", uuid.Nil, uuid.Nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "ERR_BAD_REQUEST", env.Error.Code)
}

func TestRouter_DocumentLifecycle(t *testing.T) {
	engine := setupTestServer(t)
	tenantID, branchID := uuid.New(), uuid.New()

	docID := createDraftWithItem(t, engine, tenantID, branchID)

	// Submit the draft
	rec, env := doRequest(t, engine, http.MethodPost, "/api/v1/documents/"+docID+"/submit", tenantID, branchID, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var submitted struct {
		Status string `json:"status"`
		Number string `json:"number"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &submitted))
	assert.Equal(t, "PENDING", submitted.Status)
	assert.Equal(t, "000000001", submitted.Number)

	// Transmit to the authority simulator
	rec, env = doRequest(t, engine, http.MethodPost, "/api/v1/documents/"+docID+"/transmit", tenantID, branchID, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var transmitted struct {
		Status        string `json:"status"`
		ReceiptNumber string `json:"receipt_number"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &transmitted))
	assert.Equal(t, "PROCESSING", transmitted.Status)
	require.NotEmpty(t, transmitted.ReceiptNumber)

	// Poll authorization; rejection rate is zero so the outcome is approval
	rec, env = doRequest(t, engine, http.MethodPost, "/api/v1/documents/"+docID+"/check-authorization", tenantID, branchID, gin.H{
		"receipt_number": transmitted.ReceiptNumber,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var authorized struct {
		Status     string `json:"status"`
		StatusCode string `json:"status_code"`
		Document   struct {
			AccessKey string `json:"access_key"`
		} `json:"document"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &authorized))
	assert.Equal(t, "AUTHORIZED", authorized.Status)
	assert.Equal(t, "100", authorized.StatusCode)
	assert.Len(t, authorized.Document.AccessKey, 44)

	// The authorized document renders its auxiliary document
	rec, _ = doRequest(t, engine, http.MethodGet, "/api/v1/documents/"+docID+"/auxiliary", tenantID, branchID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Emitente Ltda")

	// Cancel within the deadline
	rec, env = doRequest(t, engine, http.MethodPost, "/api/v1/documents/"+docID+"/cancel", tenantID, branchID, gin.H{
		"reason": "Pedido cancelado pelo cliente apos emissao",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var cancelled struct {
		Status     string `json:"status"`
		StatusCode string `json:"status_code"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &cancelled))
	assert.Equal(t, "CANCELLED", cancelled.Status)
	assert.Equal(t, "101", cancelled.StatusCode)

	// Status query by access key reflects the cancellation
	rec, env = doRequest(t, engine, http.MethodGet, "/api/v1/documents/status/"+authorized.Document.AccessKey, tenantID, branchID, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestRouter_ListDocuments(t *testing.T) {
	engine := setupTestServer(t)
	tenantID, branchID := uuid.New(), uuid.New()

	createDraftWithItem(t, engine, tenantID, branchID)
	createDraftWithItem(t, engine, tenantID, branchID)

	rec, env := doRequest(t, engine, http.MethodGet, "/api/v1/documents?page=1&page_size=10", tenantID, branchID, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, env.Meta)
	assert.Equal(t, int64(2), env.Meta.Total)

	// Another branch sees nothing
	rec, env = doRequest(t, engine, http.MethodGet, "/api/v1/documents", tenantID, uuid.New(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, env.Meta)
	assert.Equal(t, int64(0), env.Meta.Total)
}

func TestRouter_ValidationErrors(t *testing.T) {
	engine := setupTestServer(t)
	tenantID, branchID := uuid.New(), uuid.New()
	docID := createDraftWithItem(t, engine, tenantID, branchID)

	t.Run("invalid CFOP is rejected by the validator", func(t *testing.T) {
		rec, env := doRequest(t, engine, http.MethodPost, "/api/v1/documents/"+docID+"/items", tenantID, branchID, gin.H{
			"description":         "Widget",
			"classification_code": "84713012",
			"operation_code":      "4102",
			"quantity":            "1",
			"unit_price":          "10.00",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "ERR_VALIDATION", env.Error.Code)
	})

	t.Run("short cancellation reason is rejected", func(t *testing.T) {
		rec, env := doRequest(t, engine, http.MethodPost, "/api/v1/documents/"+docID+"/cancel", tenantID, branchID, gin.H{
			"reason": "too short",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "ERR_VALIDATION", env.Error.Code)
	})

	t.Run("unknown document returns 404", func(t *testing.T) {
		rec, env := doRequest(t, engine, http.MethodGet, "/api/v1/documents/"+uuid.NewString(), tenantID, branchID, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "ERR_NOT_FOUND", env.Error.Code)
	})

	t.Run("submitting an empty draft violates a fiscal rule", func(t *testing.T) {
		rec, env := doRequest(t, engine, http.MethodPost, "/api/v1/documents", tenantID, branchID, gin.H{
			"type":          "NFE",
			"series":        "002",
			"issuer_id":     uuid.New().String(),
			"issuer_tax_id": "12345678000195",
		})
		require.Equal(t, http.StatusCreated, rec.Code)
		var doc struct {
			ID string `json:"id"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &doc))

		rec, env = doRequest(t, engine, http.MethodPost, "/api/v1/documents/"+doc.ID+"/submit", tenantID, branchID, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "ERR_BUSINESS_RULE", env.Error.Code)
	})
}

func TestRouter_ValidateEndpoint(t *testing.T) {
	engine := setupTestServer(t)
	tenantID, branchID := uuid.New(), uuid.New()

	// draft with an item and a recipient passes
	rec, env := doRequest(t, engine, http.MethodPost, "/api/v1/documents", tenantID, branchID, gin.H{
		"type":             "NFE",
		"series":           "001",
		"issuer_id":        uuid.New().String(),
		"issuer_tax_id":    "12345678000195",
		"issuer_name":      "Emitente Ltda",
		"recipient_tax_id": "98765432000188",
		"recipient_name":   "Destinatario SA",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var draft struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &draft))
	docID := draft.ID

	rec, _ = doRequest(t, engine, http.MethodPost, "/api/v1/documents/"+docID+"/items", tenantID, branchID, gin.H{
		"description":         "Widget model A",
		"classification_code": "84713012",
		"operation_code":      "5102",
		"quantity":            "1",
		"unit_price":          "50.00",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = doRequest(t, engine, http.MethodGet, "/api/v1/documents/"+docID+"/validate", tenantID, branchID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var result struct {
		Valid  bool `json:"valid"`
		Issues []struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"issues"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.True(t, result.Valid)
	assert.Empty(t, result.Issues)

	// empty goods invoice without a recipient reports every issue
	rec, env = doRequest(t, engine, http.MethodPost, "/api/v1/documents", tenantID, branchID, gin.H{
		"type":          "NFE",
		"series":        "001",
		"issuer_id":     uuid.New().String(),
		"issuer_tax_id": "12345678000195",
		"issuer_name":   "Emitente Ltda",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))

	rec, env = doRequest(t, engine, http.MethodGet, "/api/v1/documents/"+created.ID+"/validate", tenantID, branchID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.False(t, result.Valid)
	assert.Len(t, result.Issues, 2)
}

func TestRouter_ManualAuthorization(t *testing.T) {
	engine := setupTestServer(t)
	tenantID, branchID := uuid.New(), uuid.New()

	docID := createDraftWithItem(t, engine, tenantID, branchID)
	rec, _ := doRequest(t, engine, http.MethodPost, "/api/v1/documents/"+docID+"/submit", tenantID, branchID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = doRequest(t, engine, http.MethodPost, "/api/v1/documents/"+docID+"/transmit", tenantID, branchID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// protocol received out of band while the receipt poll is unavailable
	rec, env := doRequest(t, engine, http.MethodPost, "/api/v1/documents/"+docID+"/authorize", tenantID, branchID, gin.H{
		"protocol_number": "135269999000001234",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var result struct {
		StatusCode string `json:"status_code"`
		Document   *struct {
			Status    string `json:"status"`
			AccessKey string `json:"access_key"`
		} `json:"document"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, "100", result.StatusCode)
	require.NotNil(t, result.Document)
	assert.Equal(t, "AUTHORIZED", result.Document.Status)
	assert.Len(t, result.Document.AccessKey, 44)

	// missing protocol number fails binding
	rec, env = doRequest(t, engine, http.MethodPost, "/api/v1/documents/"+docID+"/authorize", tenantID, branchID, gin.H{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "ERR_VALIDATION", env.Error.Code)
}
