package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ahoque32/mission-control-dashboard-sub001/internal/config"
	"github.com/ahoque32/mission-control-dashboard-sub001/internal/domain"
	"github.com/ahoque32/mission-control-dashboard-sub001/internal/feed"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestVersion(t *testing.T) {
	out, err := runCLI(t, "--version")
	require.NoError(t, err)
	assert.Equal(t, "missionctl "+version+"\n", out)
}

func TestCheckPermission(t *testing.T) {
	out, err := runCLI(t, "check", "permission", "kimi", "modify_permissions")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "denied: "), out)

	out, err = runCLI(t, "check", "permission", "anton", "modify_permissions")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "allowed: "), out)
}

func TestCheckDelegate(t *testing.T) {
	out, err := runCLI(t, "check", "delegate", "kimi", "ralph")
	require.NoError(t, err)
	assert.Contains(t, out, "allowed")

	out, err = runCLI(t, "check", "delegate", "ralph", "scout")
	require.NoError(t, err)
	assert.Contains(t, out, "denied")

	_, err = runCLI(t, "check", "delegate", "kimi")
	assert.Error(t, err)
}

func TestCheckRoute(t *testing.T) {
	out, err := runCLI(t, "check", "route", "fix", "the", "login", "bug")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "ralph "), out)

	out, err = runCLI(t, "check", "route", "water", "the", "plants")
	require.NoError(t, err)
	assert.Equal(t, "no match\n", out)
}

func TestCheckEscalation(t *testing.T) {
	out, err := runCLI(t, "check", "escalation", "deploy", "to", "production")
	require.NoError(t, err)
	assert.Equal(t, "escalate infrastructure_change (high)\n", out)

	out, err = runCLI(t, "check", "escalation", "--mode", "advisor", "deploy", "to", "production")
	require.NoError(t, err)
	assert.Equal(t, "no escalation\n", out)

	_, err = runCLI(t, "check", "escalation", "--mode", "pilot", "hello")
	assert.Error(t, err)
}

func TestWatchStreamsEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := zaptest.NewLogger(t)
	hub := feed.NewHub(logger)
	go hub.Run(ctx)

	e := echo.New()
	e.GET("/v1/feed", feed.NewServer(config.Default().Feed, hub, logger).HandleWebSocket)
	srv := httptest.NewServer(e)
	defer srv.Close()

	addr := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/feed"
	client, err := dialFeed(ctx, addr, "sess_1")
	require.NoError(t, err)
	defer client.Close()
	assert.Equal(t, "sess_1", client.sessionID)

	require.Eventually(t, func() bool { return hub.HasSubscribers("sess_1") }, time.Second, 10*time.Millisecond)
	hub.Notify("sess_2", &domain.Event{EventID: "evt_0", SessionID: "sess_2", Type: domain.EventTypeSessionCreated})
	hub.Notify("sess_1", &domain.Event{EventID: "evt_1", AggregateID: "dlg_1", SessionID: "sess_1", Type: domain.EventTypeDelegationCreated})

	var out bytes.Buffer
	require.NoError(t, client.Stream(&out, 1, false))
	assert.Equal(t, "[delegation_created] session=sess_1 aggregate=dlg_1 \n", out.String())
}
