package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"urbandept/backend/internal/api"
	"urbandept/backend/internal/api/handler"
	"urbandept/backend/internal/auth"
	"urbandept/backend/internal/complaint"
	"urbandept/backend/internal/metrics"
	"urbandept/backend/internal/models"
	"urbandept/backend/internal/storage"
	"urbandept/backend/internal/storage/storagetest"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "service-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router *gin.Engine
	store  *storage.Service
	token  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := storagetest.NewSQLite(t)
	m := metrics.NewCollector()
	svc := complaint.NewService(store, complaint.WithMetrics(m))
	h := handler.NewHandler(svc, store, m, "URBAN", nil)

	token, err := auth.NewIssuer(secret).Issue("URBAN", time.Hour)
	require.NoError(t, err)

	return &testServer{
		router: api.NewRouter(h, auth.NewVerifier(secret, "URBAN"), m, nil),
		store:  store,
		token:  token,
	}
}

type envelope struct {
	Success      bool            `json:"success"`
	Status       string          `json:"status"`
	Message      string          `json:"message"`
	Remarks      string          `json:"remarks"`
	Data         json.RawMessage `json:"data"`
	ResponseData struct {
		ComplaintID string `json:"complaintId"`
		Status      string `json:"status"`
	} `json:"responseData"`
}

func (s *testServer) call(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	return rec.Code, env
}

func ingestPayload(requestID, citizenID string) map[string]any {
	return map[string]any{
		"requestId":   requestID,
		"citizenId":   citizenID,
		"citizenName": "Asha",
		"data": map[string]any{
			"state":     "KA",
			"city":      "Bengaluru",
			"area":      "Indiranagar",
			"address":   "12 MG Rd",
			"complaint": "Pothole",
		},
	}
}

func TestPotholeLifecycle(t *testing.T) {
	s := newTestServer(t)

	code, env := s.call(t, http.MethodPost, "/complaints", s.token, ingestPayload("R1", "C1"))
	require.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)
	assert.Equal(t, "PENDING", env.Status)
	id := env.ResponseData.ComplaintID
	require.NotEmpty(t, id)

	code, env = s.call(t, http.MethodGet, "/complaints/"+id, s.token, nil)
	require.Equal(t, http.StatusOK, code)
	var created models.Complaint
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "KA", created.State)
	assert.Equal(t, "Bengaluru", created.City)
	assert.Equal(t, "Indiranagar", created.Area)
	assert.Equal(t, "12 MG Rd", created.Address)
	assert.Equal(t, "Pothole", created.Complaint)
	assert.Equal(t, models.StatusPending, created.Status)
	assert.Nil(t, created.ProcessedAt)

	code, env = s.call(t, http.MethodPost, "/update-status", s.token, map[string]any{
		"requestId":   "R1",
		"status":      "COMPLETED",
		"remarks":     "Fixed",
		"processedBy": "officer1",
	})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Complaint status updated.", env.Message)

	code, env = s.call(t, http.MethodGet, "/complaints/"+id, s.token, nil)
	require.Equal(t, http.StatusOK, code)
	var updated models.Complaint
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, models.StatusCompleted, updated.Status)
	assert.Equal(t, "Fixed", updated.Remarks)
	require.NotNil(t, updated.ProcessedBy)
	assert.Equal(t, "officer1", *updated.ProcessedBy)
	assert.NotNil(t, updated.ProcessedAt)
	assert.Equal(t, "R1", updated.NexusRequestID)
}

func TestIngest_AlwaysCreatesOnePendingRow(t *testing.T) {
	s := newTestServer(t)

	payload := ingestPayload("R1", "C1")
	payload["status"] = "COMPLETED"
	for i := 0; i < 2; i++ {
		code, env := s.call(t, http.MethodPost, "/complaints", s.token, payload)
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, "PENDING", env.ResponseData.Status)
	}

	all, err := s.store.ListComplaints(context.Background(), storage.ComplaintFilter{}, 10)
	require.NoError(t, err)
	require.Len(t, all, 2, "duplicate request IDs are stored as separate complaints")
	for _, c := range all {
		assert.Equal(t, models.StatusPending, c.Status)
		assert.Nil(t, c.ProcessedAt)
	}
}

func TestUpdateStatus_UnknownRequest(t *testing.T) {
	s := newTestServer(t)

	code, env := s.call(t, http.MethodPost, "/update-status", s.token, map[string]any{
		"requestId": "nope", "status": "COMPLETED",
	})

	assert.Equal(t, http.StatusNotFound, code)
	assert.False(t, env.Success)
}

func TestUpdateStatus_OutOfEnumRejectedByStore(t *testing.T) {
	s := newTestServer(t)
	code, _ := s.call(t, http.MethodPost, "/complaints", s.token, ingestPayload("R1", "C1"))
	require.Equal(t, http.StatusOK, code)

	code, env := s.call(t, http.MethodPost, "/update-status", s.token, map[string]any{
		"requestId": "R1", "status": "ARCHIVED",
	})

	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "Failed to update complaint status.", env.Message)

	c, err := s.store.GetComplaintByRequestID(context.Background(), "R1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, c.Status)
}

func TestQueryByCitizen_AtMostTwentyNewestFirst(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 23; i++ {
		require.NoError(t, s.store.CreateComplaint(ctx, &models.Complaint{
			NexusRequestID: fmt.Sprintf("R%d", i), CitizenID: "C1", CitizenName: "Asha",
			State: "KA", City: "Bengaluru", Area: "Indiranagar", Address: "12 MG Rd", Complaint: "Pothole",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	code, env := s.call(t, http.MethodGet, "/complaints/citizen?citizenId=C1", s.token, nil)
	require.Equal(t, http.StatusOK, code)

	var got []models.Complaint
	require.NoError(t, json.Unmarshal(env.Data, &got))
	require.Len(t, got, 20)
	assert.Equal(t, "R22", got[0].NexusRequestID)
	for i := 1; i < len(got); i++ {
		assert.True(t, got[i-1].CreatedAt.After(got[i].CreatedAt))
	}

	code, env = s.call(t, http.MethodGet, "/complaints/citizen?citizenId=unknown", s.token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, "[]", string(env.Data))
}

func TestQueryAll_StatusAndLimit(t *testing.T) {
	s := newTestServer(t)
	for i := 0; i < 3; i++ {
		code, _ := s.call(t, http.MethodPost, "/complaints", s.token, ingestPayload(fmt.Sprintf("R%d", i), "C1"))
		require.Equal(t, http.StatusOK, code)
	}
	code, _ := s.call(t, http.MethodPost, "/update-status", s.token, map[string]any{"requestId": "R0", "status": "IN_PROGRESS"})
	require.Equal(t, http.StatusOK, code)

	var got []models.Complaint
	code, env := s.call(t, http.MethodGet, "/complaints?status=IN_PROGRESS", s.token, nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &got))
	require.Len(t, got, 1)
	assert.Equal(t, "R0", got[0].NexusRequestID)

	code, env = s.call(t, http.MethodGet, "/complaints?limit=2", s.token, nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Len(t, got, 2)
}

func TestQueryByID_Missing(t *testing.T) {
	s := newTestServer(t)

	code, env := s.call(t, http.MethodGet, "/complaints/does-not-exist", s.token, nil)

	assert.Equal(t, http.StatusNotFound, code)
	assert.False(t, env.Success)
	assert.Equal(t, "Complaint not found.", env.Message)
}

func TestEveryRouteIsGated(t *testing.T) {
	s := newTestServer(t)
	issuer := auth.NewIssuer(secret)
	water, err := issuer.Issue("WATER", time.Hour)
	require.NoError(t, err)
	forged, err := auth.NewIssuer("forged").Issue("URBAN", time.Hour)
	require.NoError(t, err)

	routes := []struct {
		method string
		path   string
		body   any
	}{
		{http.MethodPost, "/complaints", ingestPayload("R1", "C1")},
		{http.MethodPost, "/update-status", map[string]any{"requestId": "R1", "status": "COMPLETED"}},
		{http.MethodGet, "/complaints/citizen?citizenId=C1", nil},
		{http.MethodGet, "/complaints", nil},
		{http.MethodGet, "/complaints/some-id", nil},
	}

	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			code, env := s.call(t, rt.method, rt.path, "", rt.body)
			assert.Equal(t, http.StatusUnauthorized, code)
			assert.False(t, env.Success)

			code, _ = s.call(t, rt.method, rt.path, forged, rt.body)
			assert.Equal(t, http.StatusUnauthorized, code)

			code, _ = s.call(t, rt.method, rt.path, water, rt.body)
			assert.Equal(t, http.StatusForbidden, code)
		})
	}

	all, err := s.store.ListComplaints(context.Background(), storage.ComplaintFilter{}, 10)
	require.NoError(t, err)
	assert.Empty(t, all, "rejected requests must not reach the store")
}

func TestOperationalEndpointsAreOpen(t *testing.T) {
	s := newTestServer(t)

	code, _ := s.call(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = s.call(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "civic_department_complaints_ingested_total")
}
