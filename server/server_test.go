package server

import (
	// Go Internal Packages
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	// Local Packages
	errors "coinnet/errors"
	models "coinnet/models"
	memory "coinnet/repositories/memory"
	directory "coinnet/services/directory"
	fees "coinnet/services/fees"
	geo "coinnet/services/geo"
	lifecycle "coinnet/services/lifecycle"
	queries "coinnet/services/queries"

	// External Packages
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var (
	requester = models.Actor{ID: "user-1", Role: models.RoleRequester}
	business  = models.Actor{ID: "biz-1", Role: models.RoleProvider}
	admin     = models.Actor{ID: "admin-1", Role: models.RoleAdmin}
)

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	logger := zap.NewNop()
	calc := fees.MustCalculator(fees.DefaultRate)
	providers := memory.NewProviderStore()
	transactions := memory.NewTransactionStore()

	dir := directory.NewDirectory(logger, providers, geo.NewMemoryIndex(), calc, directory.Options{MaxRadiusKm: 50})
	machine := lifecycle.NewMachine(logger, transactions, dir, calc, nil, lifecycle.Options{})
	q := queries.NewService(logger, transactions, providers, 0)
	return NewServer(logger, dir, machine, q, opts)
}

func do(t *testing.T, s *Server, actor *models.Actor, method, path string, body any) *httptest.ResponseRecorder {
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
	if actor != nil {
		req.Header.Set(HeaderActorID, actor.ID)
		req.Header.Set(HeaderActorRole, string(actor.Role))
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// onboard registers, verifies and switches on the business' provider.
func onboard(t *testing.T, s *Server, minAmount, maxAmount int64) models.Provider {
	t.Helper()
	rec := do(t, s, &business, http.MethodPost, "/providers", models.ProviderRegistration{
		BusinessName: "Pulperia La Central",
		Payout:       models.PayoutDestination{AccountNumber: "88881111", HolderName: "Ana Mora"},
		Location:     models.Coordinate{Lat: 9.9281, Lng: -84.0907},
		MinAmount:    minAmount,
		MaxAmount:    maxAmount,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	p := decode[models.Provider](t, rec)

	rec = do(t, s, &admin, http.MethodPatch, "/admin/providers/"+p.ID+"/verify", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, s, &business, http.MethodPost, "/providers/"+p.ID+"/availability", gin.H{"is_available": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[models.Provider](t, rec)
}

type txResponse struct {
	models.Transaction
	AvailableActions []lifecycle.Action `json:"available_actions"`
}

func TestRequiresIdentity(t *testing.T) {
	s := newTestServer(t, Options{})

	rec := do(t, s, nil, http.MethodGet, "/transactions/mine", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, s, &models.Actor{ID: "x", Role: "root"}, http.MethodGet, "/transactions/mine", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSearchAndTransactionFlow(t *testing.T) {
	s := newTestServer(t, Options{})
	p := onboard(t, s, 1000, 50000)

	rec := do(t, s, &requester, http.MethodGet, "/providers/nearby?lat=9.93&lng=-84.09&amount=10000", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	search := decode[struct {
		Results []models.SearchResult `json:"results"`
	}](t, rec)
	require.Len(t, search.Results, 1)
	assert.Equal(t, p.ID, search.Results[0].Provider.ID)
	assert.Equal(t, int64(500), search.Results[0].Fees.Commission)
	assert.Equal(t, int64(10500), search.Results[0].Fees.Total)

	rec = do(t, s, &requester, http.MethodPost, "/transactions", gin.H{"provider_id": p.ID, "amount": 10000})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	tx := decode[txResponse](t, rec)
	assert.Equal(t, models.StatusRequested, tx.Status)
	assert.Equal(t, []lifecycle.Action{lifecycle.ActionCancel}, tx.AvailableActions)

	rec = do(t, s, &business, http.MethodGet, "/transactions/queue", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	queue := decode[struct {
		Transactions []txResponse `json:"transactions"`
	}](t, rec)
	require.Len(t, queue.Transactions, 1)
	assert.Equal(t, []lifecycle.Action{lifecycle.ActionAccept, lifecycle.ActionReject, lifecycle.ActionCancel}, queue.Transactions[0].AvailableActions)

	rec = do(t, s, &business, http.MethodPost, "/transactions/"+tx.ID+"/accept", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// A second accept reports the current state with the conflict.
	rec = do(t, s, &business, http.MethodPost, "/transactions/"+tx.ID+"/accept", nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	body := decode[errorBody](t, rec)
	assert.Equal(t, "invalid_transition", body.Error)
	require.NotNil(t, body.Transaction)
	assert.Equal(t, models.StatusAccepted, body.Transaction.Status)

	rec = do(t, s, &requester, http.MethodPost, "/transactions/"+tx.ID+"/mark-sent", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, s, &requester, http.MethodPost, "/transactions/"+tx.ID+"/dispute", gin.H{"reason": ""})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", decode[errorBody](t, rec).Error)

	rec = do(t, s, &requester, http.MethodPost, "/transactions/"+tx.ID+"/dispute", gin.H{"reason": "cash never handed over"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, s, &admin, http.MethodGet, "/admin/disputes", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, &admin, http.MethodPatch, "/admin/disputes/"+tx.ID+"/resolve", gin.H{"outcome": "cancelled", "resolution": "refunded"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, models.StatusCancelled, decode[models.Transaction](t, rec).Status)

	rec = do(t, s, &admin, http.MethodGet, "/admin/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	metrics := decode[models.AdminMetrics](t, rec)
	assert.Equal(t, int64(1), metrics.Transactions.Total)
	assert.Equal(t, int64(1), metrics.Transactions.ByStatus[models.StatusCancelled])

	rec = do(t, s, &requester, http.MethodGet, "/transactions/code/"+tx.Code, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestErrorStatusCodes(t *testing.T) {
	s := newTestServer(t, Options{})
	p := onboard(t, s, 1000, 5000)

	cases := []struct {
		name   string
		actor  models.Actor
		method string
		path   string
		body   any
		status int
	}{
		{"below floor", requester, http.MethodGet, "/providers/nearby?lat=9.93&lng=-84.09&amount=500", nil, http.StatusBadRequest},
		{"bad query", requester, http.MethodGet, "/providers/nearby?lat=north&lng=-84.09&amount=5000", nil, http.StatusBadRequest},
		{"out of bounds", requester, http.MethodPost, "/transactions", gin.H{"provider_id": p.ID, "amount": 10000}, http.StatusUnprocessableEntity},
		{"unknown provider", requester, http.MethodPost, "/transactions", gin.H{"provider_id": "missing", "amount": 2000}, http.StatusNotFound},
		{"metrics need admin", requester, http.MethodGet, "/admin/metrics", nil, http.StatusForbidden},
		{"unknown transaction", requester, http.MethodGet, "/transactions/missing", nil, http.StatusNotFound},
		{"unknown action", business, http.MethodPost, "/transactions/missing/teleport", nil, http.StatusNotFound},
		{"availability body", business, http.MethodPost, "/providers/" + p.ID + "/availability", gin.H{}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			actor := tc.actor
			rec := do(t, s, &actor, tc.method, tc.path, tc.body)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
		})
	}
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusOf(errors.InvalidAmount))
	assert.Equal(t, http.StatusUnprocessableEntity, StatusOf(errors.LimitExceeded))
	assert.Equal(t, http.StatusConflict, StatusOf(errors.InvalidTransition))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(errors.Other))
}

func TestProviderVisibility(t *testing.T) {
	s := newTestServer(t, Options{})
	p := onboard(t, s, 1000, 5000)

	rec := do(t, s, &requester, http.MethodGet, "/providers/"+p.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "88881111")

	rec = do(t, s, &business, http.MethodGet, "/providers/me", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "88881111")
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, Options{Probes: map[string]Probe{
		"mongo": func(context.Context) error { return nil },
	}})
	rec := do(t, s, nil, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	s = newTestServer(t, Options{Probes: map[string]Probe{
		"redis": func(context.Context) error { return fmt.Errorf("connection refused") },
	}})
	rec = do(t, s, nil, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, Options{Metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("kafka_produce_bytes_total 0\n"))
	})})
	rec := do(t, s, nil, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "kafka_produce_bytes_total")
}
