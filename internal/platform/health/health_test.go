package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SlpAus/aurora-feed-backend/internal/platform/config"
	"github.com/SlpAus/aurora-feed-backend/pkg/lifecycle"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakePinger struct {
	err   atomic.Value
	calls atomic.Int32
}

func (p *fakePinger) Ping(ctx context.Context) error {
	p.calls.Add(1)
	if err, ok := p.err.Load().(error); ok {
		return err
	}
	return nil
}

func (p *fakePinger) fail(err error) { p.err.Store(err) }

// blockingPinger never answers before its context ends.
type blockingPinger struct{}

func (blockingPinger) Ping(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

var testHealthConfig = config.HealthConfig{Interval: 5 * time.Millisecond, Timeout: 50 * time.Millisecond}

func TestStatus_Transitions(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s := NewStatus(zap.New(core))
	assert.Equal(t, StateHealthy, s.State())

	assert.Equal(t, StateDegraded, s.Assess(map[string]error{"table": errors.New("down"), "blob": nil}))
	assert.Equal(t, []string{"table"}, s.Failing())

	// staying degraded is not logged again
	s.Assess(map[string]error{"table": errors.New("down")})

	assert.Equal(t, StateHealthy, s.Assess(map[string]error{"table": nil, "blob": nil}))
	assert.Empty(t, s.Failing())

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "health: system degraded", logs.All()[0].Message)
	assert.Equal(t, "health: system recovered", logs.All()[1].Message)
}

func TestChecker_Check(t *testing.T) {
	table, blob := &fakePinger{}, &fakePinger{}
	status := NewStatus(nil)
	c := NewChecker(status, map[string]Pinger{"table": table, "blob": blob}, testHealthConfig, nil)

	assert.Equal(t, StateHealthy, c.Check(context.Background()))

	blob.fail(errors.New("connection refused"))
	assert.Equal(t, StateDegraded, c.Check(context.Background()))
	assert.Equal(t, []string{"blob"}, status.Failing())
	assert.EqualValues(t, 2, table.calls.Load())
}

func TestChecker_PingTimeout(t *testing.T) {
	status := NewStatus(nil)
	c := NewChecker(status, map[string]Pinger{"table": blockingPinger{}}, testHealthConfig, nil)

	assert.Equal(t, StateDegraded, c.Check(context.Background()))
}

func TestChecker_RunUntilShutdown(t *testing.T) {
	m := lifecycle.NewManager(nil)
	h, err := m.NewServiceHandle("health")
	require.NoError(t, err)

	core, logs := observer.New(zap.InfoLevel)
	p := &fakePinger{}
	c := NewChecker(NewStatus(nil), map[string]Pinger{"table": p}, testHealthConfig, zap.New(core))
	go c.Run(h)

	assert.Eventually(t, func() bool { return p.calls.Load() >= 2 }, time.Second, time.Millisecond)

	m.Shutdown()
	assert.Empty(t, m.WaitWithTimeout(time.Second))

	stopped := logs.FilterMessage("health checker stopped").All()
	require.Len(t, stopped, 1)
	assert.Equal(t, "health", stopped[0].ContextMap()["service"])
}

func TestHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	status := NewStatus(nil)
	r := gin.New()
	r.GET("/healthz", Handler(status))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())

	status.Assess(map[string]error{"table": errors.New("down")})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"degraded","failing":["table"]}`, w.Body.String())
}
