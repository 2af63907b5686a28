package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"panelsound/internal/models"
	"panelsound/internal/service"
)

type mockAuth struct {
	enabled       bool
	genTokenToken string
	genTokenErr   error
	parseSubject  string
	parseErr      error

	lastGenPassword string
	lastParseToken  string
}

func (m *mockAuth) Enabled() bool { return m.enabled }

func (m *mockAuth) GenerateToken(password string) (string, error) {
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}

func (m *mockAuth) ParseToken(token string) (string, error) {
	m.lastParseToken = token
	return m.parseSubject, m.parseErr
}

type mockMonitoring struct {
	mu    sync.Mutex
	state models.PanelSnapshot
	err   error
	calls int
	// advance bumps EventsProcessed on every call
	advance bool
}

func (m *mockMonitoring) GetState(ctx context.Context) (models.PanelSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.advance {
		m.state.EventsProcessed++
	}
	return m.state, m.err
}

type mockEventLog struct {
	resp          []models.PanelEvent
	err           error
	lastFrom      time.Time
	lastTo        time.Time
	lastComponent string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.PanelEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastComponent = f.Component
	return m.resp, m.err
}

type mockInjector struct {
	injected []models.InboundEvent
	err      error
}

func (m *mockInjector) Inject(ev models.InboundEvent) error {
	if m.err != nil {
		return m.err
	}
	m.injected = append(m.injected, ev)
	return nil
}

func newTestRouter(s *service.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewHandler(s, nil).InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
