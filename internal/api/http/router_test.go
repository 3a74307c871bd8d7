package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/it-helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/it-helpdesk/internal/auth"
	"github.com/spec-kit/it-helpdesk/internal/classifier"
	"github.com/spec-kit/it-helpdesk/internal/domain"
	"github.com/spec-kit/it-helpdesk/internal/events"
	"github.com/spec-kit/it-helpdesk/internal/observability"
	"github.com/spec-kit/it-helpdesk/internal/persistence"
	"github.com/spec-kit/it-helpdesk/internal/repository/memory"
	"github.com/spec-kit/it-helpdesk/internal/service"
)

const testSecret = "hook-secret"

type testServer struct {
	t     *testing.T
	app   *fiber.App
	store *memory.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	store := memory.New()
	sessions := memory.NewSessionRegistry(nil)
	dispatcher := events.NewInMemoryDispatcher()
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	cls := classifier.NewDefault()

	incidents := service.NewIncidentService(service.IncidentDependencies{
		IncidentRepo:   store.Incidents(),
		UserRepo:       store.Users(),
		ProfileRepo:    store.Profiles(),
		CommentRepo:    store.Comments(),
		AttachmentRepo: store.Attachments(),
		HistoryRepo:    store.History(),
		Classifier:     cls,
		Dispatcher:     dispatcher,
		Metrics:        metrics,
		Logger:         logger,
	})
	comments := service.NewCommentService(service.CommentDependencies{
		IncidentRepo: store.Incidents(),
		CommentRepo:  store.Comments(),
	})
	acks := service.NewAcknowledgmentService(service.AcknowledgmentDependencies{
		IncidentRepo: store.Incidents(),
		UserRepo:     store.Users(),
		HistoryRepo:  store.History(),
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	dashboard := service.NewDashboardService(service.DashboardDependencies{IncidentRepo: store.Incidents()})
	quarantine := service.NewQuarantineService(service.QuarantineDependencies{
		UserRepo:   store.Users(),
		Sessions:   sessions,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})
	authService := service.NewAuthService(service.AuthDependencies{
		UserRepo:     store.Users(),
		ProfileRepo:  store.Profiles(),
		Sessions:     sessions,
		TokenManager: tokens,
		BcryptCost:   bcrypt.MinCost,
		Logger:       logger,
	})

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, 5*time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("it-helpdesk", "test", &persistence.Postgres{}, &persistence.Redis{}),
		Auth:           handlers.NewAuthHandler(authService),
		Profile:        handlers.NewProfileHandler(service.NewProfileService(store.Profiles())),
		Incidents:      handlers.NewIncidentsHandler(incidents, comments),
		StaffIncidents: handlers.NewStaffIncidentsHandler(incidents, acks, dashboard),
		Automation: handlers.NewAutomationHandler(handlers.AutomationDependencies{
			Incidents:  incidents,
			Acks:       acks,
			Quarantine: quarantine,
			Classifier: cls,
			Logger:     logger,
		}),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, sessions, store.Users()),
		WebhookGuard:   auth.WebhookGuard(testSecret, nil, logger),
		Metrics:        metrics,
	})
	return &testServer{t: t, app: app, store: store}
}

func (s *testServer) do(method, path string, body any, headers map[string]string) (int, map[string]any) {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(s.t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(s.t, err)
	var decoded map[string]any
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &decoded)
	}
	return resp.StatusCode, decoded
}

func (s *testServer) hook(path string, body any) (int, map[string]any) {
	return s.do(http.MethodPost, path, body, map[string]string{auth.WebhookSecretHeader: testSecret})
}

func (s *testServer) bearer(token string) map[string]string {
	return map[string]string{fiber.HeaderAuthorization: "Bearer " + token}
}

// register signs a user up and returns its id and bearer token.
func (s *testServer) register(username string) (int64, string) {
	s.t.Helper()
	status, body := s.do(http.MethodPost, "/auth/register", map[string]string{
		"username": username, "email": username + "@example.com", "password": "password-123",
	}, nil)
	require.Equal(s.t, http.StatusCreated, status, body)
	data := body["data"].(map[string]any)
	user := data["user"].(map[string]any)
	return int64(user["id"].(float64)), data["token"].(string)
}

func TestQuarantineUnknownUser(t *testing.T) {
	s := newTestServer(t)

	status, body := s.hook("/api/quarantine-user", map[string]any{"user_id": 999999})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "error", body["status"])
}

func TestQuarantineRejectsMalformedID(t *testing.T) {
	s := newTestServer(t)

	for _, raw := range []any{"abc", -4, 2.5, nil} {
		status, body := s.hook("/api/quarantine-user", map[string]any{"user_id": raw})
		assert.Equal(t, http.StatusBadRequest, status, raw)
		assert.Equal(t, "user_id", body["field"], raw)
	}
}

func TestWebhookRequiresSecret(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(http.MethodPost, "/api/quarantine-user", map[string]any{"user_id": 1},
		map[string]string{auth.WebhookSecretHeader: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, false, body["success"])

	status, _ = s.do(http.MethodPost, "/api/classify", map[string]any{"title": "x"}, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestQuarantineRevokesTokenAndIsIdempotent(t *testing.T) {
	s := newTestServer(t)
	userID, token := s.register("victim")

	status, _ := s.do(http.MethodGet, "/v1/incidents", nil, s.bearer(token))
	require.Equal(t, http.StatusOK, status)

	status, body := s.hook("/api/quarantine-user", map[string]any{"user_id": strconv.FormatInt(userID, 10)})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, true, body["account_was_active"])
	assert.Equal(t, false, body["account_now_active"])
	assert.Equal(t, float64(1), body["sessions_deleted"])

	status, body = s.do(http.MethodGet, "/v1/incidents", nil, s.bearer(token))
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", body["error"].(map[string]any)["code"])

	status, body = s.hook("/api/quarantine-user", map[string]any{"user_id": userID})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(0), body["sessions_deleted"])
	assert.Equal(t, false, body["account_now_active"])
}

func TestCreateIncidentTitleTooLong(t *testing.T) {
	s := newTestServer(t)
	_, token := s.register("reporter")

	status, body := s.do(http.MethodPost, "/v1/incidents", map[string]any{
		"title": "one two three four five six seven eight nine ten eleven",
	}, s.bearer(token))
	require.Equal(t, http.StatusBadRequest, status)
	errBody := body["error"].(map[string]any)
	assert.Equal(t, "VALIDATION_FAILED", errBody["code"])
	assert.Equal(t, "title", errBody["details"].(map[string]any)["field"])

	status, body = s.do(http.MethodGet, "/v1/incidents", nil, s.bearer(token))
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, body["data"])
}

func TestIncidentWorkflowOverHTTP(t *testing.T) {
	s := newTestServer(t)
	_, token := s.register("reporter")

	status, body := s.do(http.MethodPost, "/v1/incidents", map[string]any{"title": "wifi keeps dropping"}, s.bearer(token))
	require.Equal(t, http.StatusCreated, status, body)
	incident := body["data"].(map[string]any)
	id := int64(incident["id"].(float64))
	assert.Equal(t, "Open", incident["status"])

	status, _ = s.do(http.MethodGet, "/v1/staff/dashboard", nil, s.bearer(token))
	assert.Equal(t, http.StatusForbidden, status)

	status, body = s.hook("/api/acknowledge-ticket", map[string]any{"ticket_id": id})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "In Progress", body["ticket_status"])
	assert.Equal(t, false, body["already_acknowledged"])

	status, body = s.hook("/api/acknowledge-ticket", map[string]any{"ticket_id": id})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["already_acknowledged"])

	status, body = s.hook("/api/update-acknowledgment", map[string]any{"ticket_id": id, "scan_result": "clean"})
	require.Equal(t, http.StatusOK, status, body)
	assert.Contains(t, body["line"], "IT Automation: Scan result: clean")

	status, body = s.hook("/api/acknowledge-ticket", map[string]any{"ticket_id": 424242})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, false, body["success"])

	status, body = s.do(http.MethodGet, "/v1/incidents/open-count", nil, s.bearer(token))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(0), body["data"].(map[string]any)["open"])
}

func TestStaffDashboardCounts(t *testing.T) {
	s := newTestServer(t)
	_, reporterToken := s.register("reporter")
	staffID, staffToken := s.register("tech")

	staff, err := s.store.Users().GetByID(context.Background(), staffID)
	require.NoError(t, err)
	staff.Role = domain.RoleITStaff
	require.NoError(t, s.store.Users().Update(context.Background(), staff))

	for _, title := range []string{"printer jam", "vpn down"} {
		status, _ := s.do(http.MethodPost, "/v1/incidents", map[string]any{"title": title}, s.bearer(reporterToken))
		require.Equal(t, http.StatusCreated, status)
	}

	status, body := s.do(http.MethodGet, "/v1/staff/dashboard?status=Closed", nil, s.bearer(staffToken))
	require.Equal(t, http.StatusOK, status, body)
	data := body["data"].(map[string]any)
	assert.Empty(t, data["incidents"])
	counts := data["counts"].(map[string]any)
	assert.Equal(t, float64(2), counts["total"])
	assert.Equal(t, float64(2), counts["open"])
}

func TestExternalIncidentAndClassify(t *testing.T) {
	s := newTestServer(t)
	s.register("field.user")

	status, body := s.hook("/api/incidents", map[string]any{
		"username":  "field.user",
		"title":     "laptop screen flickering",
		"file_hash": "abc123",
	})
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Open", body["ticket_status"])

	status, body = s.hook("/api/incidents", map[string]any{"username": "ghost", "title": "x"})
	assert.Equal(t, http.StatusNotFound, status)

	status, body = s.hook("/api/incidents", map[string]any{
		"username": "field.user",
		"title":    "vpn " + strings.Repeat("a", domain.MaxTitleLength),
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "title", body["field"])

	status, body = s.hook("/api/classify", map[string]any{"title": "forgot my password", "description": "account locked"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Account", body["category"])
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(http.MethodGet, "/health/ready", nil, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "memory", body["dependencies"].(map[string]any)["postgres"])

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "helpdesk_http_requests_total")
}
