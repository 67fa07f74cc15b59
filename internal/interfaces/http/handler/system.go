package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mosesmbadi/easymed-sub000/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// ReadinessCheck probes one dependency the service cannot serve without
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// SystemHandler serves health probes and build information
type SystemHandler struct {
	BaseHandler
	name      string
	version   string
	startTime time.Time
	checks    []ReadinessCheck
	sessions  func() int
	timeout   time.Duration
}

// SystemOption configures a SystemHandler
type SystemOption func(*SystemHandler)

// WithReadinessCheck adds a dependency probed by /health/ready
func WithReadinessCheck(name string, check func(ctx context.Context) error) SystemOption {
	return func(h *SystemHandler) {
		h.checks = append(h.checks, ReadinessCheck{Name: name, Check: check})
	}
}

// WithSessionCounter reports the number of open payment sessions in the info endpoint
func WithSessionCounter(count func() int) SystemOption {
	return func(h *SystemHandler) {
		h.sessions = count
	}
}

// WithCheckTimeout bounds each readiness check
func WithCheckTimeout(d time.Duration) SystemOption {
	return func(h *SystemHandler) {
		h.timeout = d
	}
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(name, version string, opts ...SystemOption) *SystemHandler {
	h := &SystemHandler{
		name:      name,
		version:   version,
		startTime: time.Now(),
		timeout:   2 * time.Second,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name         string `json:"name"`
	Version      string `json:"version"`
	GoVersion    string `json:"go_version"`
	Uptime       string `json:"uptime"`
	OpenSessions int    `json:"open_sessions"`
}

// HealthResponse is the body of the health probes
type HealthResponse struct {
	Status string            `json:"status"`
	Time   string            `json:"time"`
	Checks map[string]string `json:"checks,omitempty"`
}

// GetSystemInfo godoc
// @Summary      Get system information
// @Description  Returns version and uptime
// @Tags         system
// @Produce      json
// @Success      200 {object} dto.Response{data=SystemInfoResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /system/info [get]
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	info := SystemInfoResponse{
		Name:      h.name,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}
	if h.sessions != nil {
		info.OpenSessions = h.sessions()
	}
	h.Success(c, info)
}

// Live godoc
// @Summary      Liveness probe
// @Description  Reports that the process is serving requests
// @Tags         health
// @Produce      json
// @Success      200 {object} HealthResponse
// @Router       /health/live [get]
func (h *SystemHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status: "healthy",
		Time:   time.Now().Format(time.RFC3339),
	})
}

// Ready godoc
// @Summary      Readiness probe
// @Description  Runs every readiness check and reports 503 when any fails
// @Tags         health
// @Produce      json
// @Success      200 {object} HealthResponse
// @Failure      503 {object} HealthResponse
// @Router       /health/ready [get]
func (h *SystemHandler) Ready(c *gin.Context) {
	resp := HealthResponse{
		Status: "healthy",
		Checks: make(map[string]string, len(h.checks)),
	}
	status := http.StatusOK
	for _, check := range h.checks {
		ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
		err := check.Check(ctx)
		cancel()
		if err != nil {
			logger.GetGinLogger(c).Warn("Readiness check failed", zap.String("check", check.Name), zap.Error(err))
			resp.Checks[check.Name] = "error"
			resp.Status = "unhealthy"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[check.Name] = "ok"
	}
	resp.Time = time.Now().Format(time.RFC3339)
	c.JSON(status, resp)
}

// Ping godoc
// @Summary      Ping the API
// @Description  Answers with pong
// @Tags         system
// @Produce      json
// @Success      200 {object} map[string]string
// @Security     BearerAuth
// @Router       /system/ping [get]
func (h *SystemHandler) Ping(c *gin.Context) {
	h.Success(c, gin.H{"message": "pong"})
}
