package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DevNDanger/MyPinballStats/internal/domain"
	"github.com/DevNDanger/MyPinballStats/internal/identity"
	"github.com/DevNDanger/MyPinballStats/internal/store"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	res identity.Resolution
	err error
}

func (f *fakeResolver) Resolve(context.Context, string, string) (identity.Resolution, error) {
	return f.res, f.err
}

type fakeDashboards struct {
	dash      *domain.UnifiedDashboard
	gotBypass bool
	callCount int
}

func (f *fakeDashboards) Get(_ context.Context, _ identity.Resolution, bypassCache bool) *domain.UnifiedDashboard {
	f.callCount++
	f.gotBypass = bypassCache
	return f.dash
}

func intPtr(v int) *int { return &v }

func newTestServer(resolver idResolver, dashboards dashboardSource) http.Handler {
	s := &Server{resolver: resolver, dashboards: dashboards, logger: zerolog.Nop()}
	return s.Router(store.New())
}

func TestHandleDashboard_OK(t *testing.T) {
	t.Parallel()

	dashboards := &fakeDashboards{
		dash: &domain.UnifiedDashboard{
			FetchID:  "abc123",
			Identity: domain.PlayerIdentity{Name: "Alice Example", IFPAID: intPtr(5)},
			IFPA:     &domain.IFPAStats{CurrentRank: intPtr(120)},
		},
	}
	handler := newTestServer(
		&fakeResolver{res: identity.Resolution{IFPAID: intPtr(5)}},
		dashboards,
	)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard?ifpa=5", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body domain.UnifiedDashboard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "Alice Example", body.Identity.Name)
	require.NotNil(t, body.IFPA)
	require.False(t, dashboards.gotBypass)
}

func TestHandleDashboard_RefreshBypassesCache(t *testing.T) {
	t.Parallel()

	dashboards := &fakeDashboards{dash: &domain.UnifiedDashboard{}}
	handler := newTestServer(&fakeResolver{}, dashboards)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard?ifpa=5&refresh=1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, dashboards.gotBypass)
}

func TestHandleDashboard_ValidationErrorIs400(t *testing.T) {
	t.Parallel()

	handler := newTestServer(
		&fakeResolver{err: domain.NewValidationError("at least one of ifpa or matchplay id is required")},
		&fakeDashboards{},
	)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "INVALID_REQUEST", body.Error.Code)
	require.NotEmpty(t, body.Error.Message)
}

func TestRateLimit_BudgetEnforcedBeforeFetch(t *testing.T) {
	t.Parallel()

	dashboards := &fakeDashboards{dash: &domain.UnifiedDashboard{}}
	handler := newTestServer(&fakeResolver{}, dashboards)

	var lastCode int
	for i := 0; i < 11; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard?ifpa=5", nil)
		req.RemoteAddr = "198.51.100.7:4242"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		lastCode = rec.Code
	}

	require.Equal(t, http.StatusTooManyRequests, lastCode)
	require.Equal(t, 10, dashboards.callCount, "the rejected request must not reach the service")

	// A different client is unaffected.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard?ifpa=5", nil)
	req.RemoteAddr = "203.0.113.9:4242"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	handler := newTestServer(&fakeResolver{}, &fakeDashboards{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}
