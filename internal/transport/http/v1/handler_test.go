package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ahoque32/mission-control-dashboard-sub001/internal/config"
	"github.com/ahoque32/mission-control-dashboard-sub001/internal/domain"
	"github.com/ahoque32/mission-control-dashboard-sub001/internal/policy"
	"github.com/ahoque32/mission-control-dashboard-sub001/internal/repository"
	"github.com/ahoque32/mission-control-dashboard-sub001/internal/service"
	"github.com/ahoque32/mission-control-dashboard-sub001/tests/helpers"
)

func newTestHandler(t *testing.T) (*Handler, *repository.SQLiteStore) {
	t.Helper()
	db := helpers.NewTestSQLiteStore(t)
	engine, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	require.NoError(t, err)
	svc := service.New(db, engine, nil, config.Default(), zaptest.NewLogger(t))
	return NewHandler(svc, nil), db
}

type call struct {
	method string
	path   string
	body   string
	params map[string]string
	query  string
}

func serve(t *testing.T, fn echo.HandlerFunc, in call) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	target := in.path
	if in.query != "" {
		target += "?" + in.query
	}
	var body *bytes.Buffer
	if in.body != "" {
		body = bytes.NewBufferString(in.body)
	} else {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(in.method, target, body)
	if in.body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if len(in.params) > 0 {
		var names, values []string
		for name, value := range in.params {
			names = append(names, name)
			values = append(values, value)
		}
		c.SetParamNames(names...)
		c.SetParamValues(values...)
	}
	require.NoError(t, fn(c))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func createSession(t *testing.T, h *Handler, owner, mode string) domain.Session {
	t.Helper()
	rec := serve(t, h.CreateSession, call{
		method: http.MethodPost,
		path:   "/v1/sessions",
		body:   `{"owner":"` + owner + `","mode":"` + mode + `"}`,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[domain.Session](t, rec)
}

func TestHealth(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := serve(t, h.Health, call{method: http.MethodGet, path: "/health"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode[map[string]string](t, rec)["status"])
}

func TestCreateDelegationInvalidBody(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := serve(t, h.CreateDelegation, call{method: http.MethodPost, path: "/v1/delegations", body: `{"sessionId":`})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid request body", decode[map[string]string](t, rec)["error"])
}

func TestCreateDelegationValidation(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := serve(t, h.CreateDelegation, call{
		method: http.MethodPost,
		path:   "/v1/delegations",
		body:   `{"sessionId":"s1","callerAgent":"kimi"}`,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateDelegationLifecycle(t *testing.T) {
	h, db := newTestHandler(t)
	session := createSession(t, h, "kimi", "operator")

	rec := serve(t, h.CreateDelegation, call{
		method: http.MethodPost,
		path:   "/v1/delegations",
		body:   `{"sessionId":"` + session.SessionID + `","callerAgent":"kimi","targetAgent":"ralph","taskDescription":"fix the login bug","modelOverrideScope":"session"}`,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[domain.CreateDelegationResponse](t, rec)
	assert.Equal(t, "ralph", created.TargetAgent)
	assert.Equal(t, domain.OverrideScopeTask, created.ModelOverrideScope)
	assert.True(t, strings.HasPrefix(created.DelegationID, "dlg_"))

	params := map[string]string{"delegation_id": created.DelegationID}

	rec = serve(t, h.ClaimDelegation, call{method: http.MethodPost, path: "/v1/delegations/x/claim", body: `{"agent":"scout"}`, params: params})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.True(t, strings.HasPrefix(decode[map[string]string](t, rec)["error"], service.DeniedPrefix))

	rec = serve(t, h.ClaimDelegation, call{method: http.MethodPost, path: "/v1/delegations/x/claim", body: `{"agent":"ralph"}`, params: params})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, domain.DelegationStatusInProgress, decode[domain.Delegation](t, rec).Status)

	rec = serve(t, h.ClaimDelegation, call{method: http.MethodPost, path: "/v1/delegations/x/claim", params: params})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = serve(t, h.CompleteDelegation, call{method: http.MethodPost, path: "/v1/delegations/x/complete", body: `{"agent":"ralph","result":"patched"}`, params: params})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	done := decode[domain.Delegation](t, rec)
	assert.Equal(t, domain.DelegationStatusCompleted, done.Status)
	assert.Equal(t, "patched", done.Result)

	rec = serve(t, h.FailDelegation, call{method: http.MethodPost, path: "/v1/delegations/x/fail", params: params})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = serve(t, h.GetDelegation, call{method: http.MethodGet, path: "/v1/delegations/x", params: params})
	require.Equal(t, http.StatusOK, rec.Code)

	stored, err := db.GetDelegation(context.Background(), created.DelegationID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, domain.DelegationStatusCompleted, stored.Status)

	rec = serve(t, h.ListDelegations, call{method: http.MethodGet, path: "/v1/sessions/x/delegations", params: map[string]string{"session_id": session.SessionID}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[map[string][]domain.Delegation](t, rec)["delegations"], 1)
}

func TestCreateDelegationDenied(t *testing.T) {
	h, db := newTestHandler(t)

	rec := serve(t, h.CreateDelegation, call{
		method: http.MethodPost,
		path:   "/v1/delegations",
		body:   `{"sessionId":"s1","callerAgent":"ralph","targetAgent":"scout","taskDescription":"research competitors"}`,
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	denied, err := db.ListPermissionLogs(context.Background(), repository.PermissionLogFilter{DeniedOnly: true})
	require.NoError(t, err)
	assert.NotEmpty(t, denied)
}

func TestGetDelegationNotFound(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := serve(t, h.GetDelegation, call{method: http.MethodGet, path: "/v1/delegations/x", params: map[string]string{"delegation_id": "dlg_missing"}})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSuggestTarget(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := serve(t, h.SuggestTarget, call{method: http.MethodPost, path: "/v1/delegations/suggest", body: `{"taskDescription":"research market trends"}`})
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[domain.SuggestTargetResponse](t, rec)
	assert.True(t, got.Matched)
	assert.Equal(t, "scout", got.TargetAgent)
}

func TestListPendingForAgent(t *testing.T) {
	h, _ := newTestHandler(t)
	session := createSession(t, h, "kimi", "operator")
	rec := serve(t, h.CreateDelegation, call{
		method: http.MethodPost,
		path:   "/v1/delegations",
		body:   `{"sessionId":"` + session.SessionID + `","callerAgent":"kimi","taskDescription":"refactor the parser module"}`,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = serve(t, h.ListPendingForAgent, call{method: http.MethodGet, path: "/v1/agents/x/delegations/pending", params: map[string]string{"agent": "ralph"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[map[string][]domain.Delegation](t, rec)["delegations"], 1)
}

func TestListAgents(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := serve(t, h.ListAgents, call{method: http.MethodGet, path: "/v1/agents"})
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Agents         []map[string]interface{} `json:"agents"`
		SessionOwners  []string                 `json:"sessionOwners"`
		TopOnlyActions []string                 `json:"topOnlyActions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Agents, 5)
	assert.Contains(t, body.SessionOwners, "kimi")
	assert.Contains(t, body.TopOnlyActions, "modify_permissions")
}

func TestPermissionEndpoints(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := serve(t, h.CheckPermission, call{method: http.MethodPost, path: "/v1/permissions/check", body: `{"callerAgent":"kimi","action":"modify_permissions"}`})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[domain.PermissionDecision](t, rec).Allowed)

	rec = serve(t, h.CheckPermission, call{method: http.MethodPost, path: "/v1/permissions/check", body: `{"action":"delete_agent"}`})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(t, h.LogPermission, call{method: http.MethodPost, path: "/v1/permissions/log", body: `{"callerAgent":"scout","action":"web_search","resource":"news","allowed":true,"reason":"ok"}`})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = serve(t, h.ListDenied, call{method: http.MethodGet, path: "/v1/permissions/denied"})
	require.Equal(t, http.StatusOK, rec.Code)
	denied := decode[map[string][]domain.PermissionLogEntry](t, rec)["logs"]
	require.Len(t, denied, 1)
	assert.Equal(t, "kimi", denied[0].CallerAgent)

	rec = serve(t, h.ListRecent, call{method: http.MethodGet, path: "/v1/permissions/recent", query: "limit=1"})
	require.Equal(t, http.StatusOK, rec.Code)
	recent := decode[map[string][]domain.PermissionLogEntry](t, rec)["logs"]
	require.Len(t, recent, 1)
	assert.Equal(t, "scout", recent[0].CallerAgent)

	rec = serve(t, h.ListByAgent, call{method: http.MethodGet, path: "/v1/permissions/agents/x", params: map[string]string{"agent": "scout"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[map[string][]domain.PermissionLogEntry](t, rec)["logs"], 1)

	rec = serve(t, h.ListRecent, call{method: http.MethodGet, path: "/v1/permissions/recent", query: "limit=abc"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionAndMessages(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := serve(t, h.CreateSession, call{method: http.MethodPost, path: "/v1/sessions", body: `{"owner":"ralph","mode":"operator"}`})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	session := createSession(t, h, "kimi", "operator")
	params := map[string]string{"session_id": session.SessionID}

	rec = serve(t, h.PostMessage, call{method: http.MethodPost, path: "/v1/sessions/x/messages", body: `{"role":"user","content":"hello there"}`, params: params})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	first := decode[domain.PostMessageResponse](t, rec)
	assert.Equal(t, 1, first.MessageCount)
	assert.False(t, first.Escalated)

	rec = serve(t, h.PostMessage, call{method: http.MethodPost, path: "/v1/sessions/x/messages", body: `{"role":"user","content":"please rotate the api key"}`, params: params})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	second := decode[domain.PostMessageResponse](t, rec)
	assert.Equal(t, 2, second.MessageCount)
	assert.True(t, second.Escalated)
	assert.Equal(t, domain.TriggerSecuritySensitive, second.Trigger)

	rec = serve(t, h.ListMessages, call{method: http.MethodGet, path: "/v1/sessions/x/messages", params: params})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[map[string][]domain.Message](t, rec)["messages"], 2)

	rec = serve(t, h.ListSessions, call{method: http.MethodGet, path: "/v1/sessions", query: "owner=kimi&status=active"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[map[string][]domain.Session](t, rec)["sessions"], 1)

	rec = serve(t, h.CloseSession, call{method: http.MethodPost, path: "/v1/sessions/x/close", params: params})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.SessionStatusClosed, decode[domain.Session](t, rec).Status)

	rec = serve(t, h.PostMessage, call{method: http.MethodPost, path: "/v1/sessions/x/messages", body: `{"role":"user","content":"still there?"}`, params: params})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = serve(t, h.GetSession, call{method: http.MethodGet, path: "/v1/sessions/x", params: map[string]string{"session_id": "sess_missing"}})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(t, h.ListActivity, call{method: http.MethodGet, path: "/v1/activity", query: "session_id=" + session.SessionID})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode[map[string][]domain.Event](t, rec)["events"])
}

func TestEscalationEndpoints(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := serve(t, h.CheckEscalation, call{method: http.MethodPost, path: "/v1/escalations/check", body: `{"message":"can you approve a $60 payment for hosting"}`})
	require.Equal(t, http.StatusOK, rec.Code)
	check := decode[domain.CheckEscalationResponse](t, rec)
	assert.True(t, check.Escalate)
	assert.Equal(t, domain.TriggerFinancialThreshold, check.Trigger)

	rec = serve(t, h.CreateEscalation, call{method: http.MethodPost, path: "/v1/escalations", body: `{"conversationId":"conv-1","trigger":"bogus","summary":"x"}`})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(t, h.CreateEscalation, call{
		method: http.MethodPost,
		path:   "/v1/escalations",
		body:   `{"conversationId":"conv-1","trigger":"user_requested","summary":"user asked for a human"}`,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[domain.CreateEscalationResponse](t, rec)
	assert.Equal(t, domain.EscalationStatusPending, created.Status)
	assert.False(t, created.Notified)

	rec = serve(t, h.ListPendingEscalations, call{method: http.MethodGet, path: "/v1/escalations/pending"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[map[string][]domain.Escalation](t, rec)["escalations"], 1)

	params := map[string]string{"escalation_id": created.EscalationID}
	rec = serve(t, h.GetEscalation, call{method: http.MethodGet, path: "/v1/escalations/x", params: params})
	require.Equal(t, http.StatusOK, rec.Code)
	esc := decode[domain.Escalation](t, rec)
	assert.Equal(t, "kimi", esc.FromAgent)
	assert.Equal(t, "anton", esc.ToAgent)

	rec = serve(t, h.ResolveEscalation, call{method: http.MethodPost, path: "/v1/escalations/x/resolve", body: `{"resolvedBy":"anton","resolution":"handled"}`, params: params})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, domain.EscalationStatusResolved, decode[domain.Escalation](t, rec).Status)

	rec = serve(t, h.ResolveEscalation, call{method: http.MethodPost, path: "/v1/escalations/x/resolve", body: `{"resolvedBy":"anton"}`, params: params})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegisterRoutes(t *testing.T) {
	h, _ := newTestHandler(t)
	e := echo.New()
	h.RegisterRoutes(e)

	req := httptest.NewRequest(http.MethodGet, "/v1/escalations/pending", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/feed", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
