package httpapi

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"qualtrack/internal/infrastructure/blob"
	rdbrepo "qualtrack/internal/infrastructure/persistence/rdb/repository"
	rdbuow "qualtrack/internal/infrastructure/persistence/rdb/uow"
	"qualtrack/internal/infrastructure/persistence/schema"
	"qualtrack/internal/usecase/qualification"
)

type envelope struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func setupRouter(t *testing.T, opts Options) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(gormsqlite.Open(filepath.Join(t.TempDir(), "api.sqlite")), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	_, err = schema.Migrate(db)
	require.NoError(t, err)

	svc := qualification.NewService(
		rdbrepo.NewQualificationRepository(db),
		rdbuow.NewUnitOfWork(db),
		qualification.WithBlobStore(blob.NewDBStore(db)),
		qualification.WithMaxAttachmentBytes(opts.MaxAttachmentBytes),
	)
	return NewRouter(context.Background(), svc, opts)
}

func doJSON(t *testing.T, router http.Handler, method string, path string, body any, headers map[string]string) (*httptest.ResponseRecorder, envelope) {
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
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func createEquipment(t *testing.T, router http.Handler, headers map[string]string) uint64 {
	t.Helper()

	w, env := doJSON(t, router, http.MethodPost, "/api/v1/equipment", map[string]any{
		"name":       "HPLC-1",
		"type":       "Laboratory",
		"department": "QC",
		"location":   "Lab A",
	}, headers)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var out struct {
		EquipmentID uint64 `json:"equipment_id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	require.NotZero(t, out.EquipmentID)
	return out.EquipmentID
}

func equipmentPath(id uint64, suffix string) string {
	return "/api/v1/equipment/" + strconv.FormatUint(id, 10) + suffix
}

func TestHealthz(t *testing.T) {
	router := setupRouter(t, Options{})

	w, _ := doJSON(t, router, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestMetricsCountServedRoutes(t *testing.T) {
	router := setupRouter(t, Options{})

	doJSON(t, router, http.MethodGet, "/healthz", nil, nil)
	doJSON(t, router, http.MethodGet, "/api/v1/equipment/999", nil, nil)

	w, _ := doJSON(t, router, http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `qualtrack_http_requests_total{code="200",method="GET",route="/healthz"} 1`)
	assert.Contains(t, body, `qualtrack_http_requests_total{code="404",method="GET",route="/api/v1/equipment/:id"} 1`)
	assert.Contains(t, body, "qualtrack_http_request_duration_seconds_bucket")
}

func TestEquipmentQualificationFlow(t *testing.T) {
	router := setupRouter(t, Options{})
	actor := map[string]string{actorHeader: "qa.lead"}
	id := createEquipment(t, router, actor)

	w, env := doJSON(t, router, http.MethodGet, equipmentPath(id, "/status"), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var status qualification.EquipmentStatusView
	require.NoError(t, json.Unmarshal(env.Data, &status))
	assert.Equal(t, "Not Started", status.Status)
	assert.False(t, status.TagAssigned)
	require.Len(t, status.Phases, 7)
	assert.True(t, status.Phases[0].Unlocked)
	assert.False(t, status.Phases[1].Unlocked)

	w, env = doJSON(t, router, http.MethodPatch, equipmentPath(id, ""), map[string]any{
		"phases": []map[string]any{
			{"phase": "URS", "status": "Passed"},
			{"phase": "DQ", "status": "Passed"},
		},
	}, actor)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var view qualification.EquipmentView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, "In Progress", view.Status)
	assert.Equal(t, "QC-0001", view.Tag)

	w, env = doJSON(t, router, http.MethodGet, equipmentPath(id, "/audit"), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var audit []qualification.AuditItem
	require.NoError(t, json.Unmarshal(env.Data, &audit))
	require.Len(t, audit, 2)
	assert.Equal(t, "Equipment Updated", audit[0].Action)
	assert.Equal(t, "qa.lead", audit[0].ChangedBy)

	w, env = doJSON(t, router, http.MethodGet, "/api/v1/equipment?status=In%20Progress", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var items []qualification.EquipmentView
	require.NoError(t, json.Unmarshal(env.Data, &items))
	require.Len(t, items, 1)
	assert.Equal(t, id, items[0].EquipmentID)
}

func TestLockedPhaseIsRejected(t *testing.T) {
	router := setupRouter(t, Options{})
	id := createEquipment(t, router, nil)

	w, env := doJSON(t, router, http.MethodPatch, equipmentPath(id, ""), map[string]any{
		"phases": []map[string]any{{"phase": "IQ", "status": "Passed"}},
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, codeValidation, env.Code)
}

func TestErrorKindsMapToStatus(t *testing.T) {
	router := setupRouter(t, Options{})

	w, env := doJSON(t, router, http.MethodPost, "/api/v1/equipment", map[string]any{"name": "only a name"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, codeValidation, env.Code)

	w, env = doJSON(t, router, http.MethodGet, equipmentPath(999, ""), nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, codeNotFound, env.Code)

	w, _ = doJSON(t, router, http.MethodGet, "/api/v1/equipment/abc", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/equipment", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOversizedAttachmentIsRejected(t *testing.T) {
	router := setupRouter(t, Options{MaxAttachmentBytes: 16})
	id := createEquipment(t, router, nil)

	w, env := doJSON(t, router, http.MethodGet, equipmentPath(id, ""), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var view qualification.EquipmentView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	phaseID := view.Phases[0].PhaseID

	w, env = doJSON(t, router, http.MethodPost, "/api/v1/attachments", map[string]any{
		"parent_type": "qualification_phase",
		"parent_id":   phaseID,
		"file_name":   "urs.txt",
		"mime_type":   "text/plain",
		"file_data":   base64.StdEncoding.EncodeToString(bytes.Repeat([]byte("x"), 17)),
	}, nil)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, codePayloadTooLarge, env.Code)

	w, env = doJSON(t, router, http.MethodPost, "/api/v1/attachments", map[string]any{
		"parent_type": "qualification_phase",
		"parent_id":   phaseID,
		"file_name":   "urs.txt",
		"mime_type":   "text/plain",
		"file_data":   base64.StdEncoding.EncodeToString([]byte("signed URS")),
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var item qualification.AttachmentItem
	require.NoError(t, json.Unmarshal(env.Data, &item))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/attachments/"+strconv.FormatUint(item.AttachmentID, 10), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "signed URS", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "urs.txt")
}

func TestBearerTokenNamesTheActor(t *testing.T) {
	const secret = "test-secret"
	router := setupRouter(t, Options{JWTSecret: secret, JWTIssuer: "qualtrack"})

	w, env := doJSON(t, router, http.MethodGet, "/api/v1/summary", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, codeUnauthorized, env.Code)

	expired, err := IssueToken(secret, Claims{
		Name: "qa.lead",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "qualtrack",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	require.NoError(t, err)
	w, env = doJSON(t, router, http.MethodGet, "/api/v1/summary", nil, map[string]string{"Authorization": "Bearer " + expired})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "token expired", env.Message)

	token, err := IssueToken(secret, Claims{
		Name: "Jane Roe",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "jroe",
			Issuer:    "qualtrack",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	require.NoError(t, err)
	auth := map[string]string{"Authorization": "Bearer " + token}

	id := createEquipment(t, router, auth)
	w, env = doJSON(t, router, http.MethodGet, equipmentPath(id, "/audit"), nil, auth)
	require.Equal(t, http.StatusOK, w.Code)
	var audit []qualification.AuditItem
	require.NoError(t, json.Unmarshal(env.Data, &audit))
	require.Len(t, audit, 1)
	assert.Equal(t, "Jane Roe", audit[0].ChangedBy)
}

func TestClaimsActorFallsBackToSubject(t *testing.T) {
	assert.Equal(t, "jroe", Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "jroe"}}.actor())
	assert.Equal(t, "Jane", Claims{Name: " Jane ", RegisteredClaims: jwt.RegisteredClaims{Subject: "jroe"}}.actor())
}
