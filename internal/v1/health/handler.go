// Package health serves the liveness and readiness probes on the HTTP ops
// port, next to the Prometheus metrics endpoint.
package health

import (
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// TCPChecker probes the game listener. The transport server satisfies it.
type TCPChecker interface {
	Addr() string
}

// Handler manages health check endpoints.
type Handler struct {
	tcp     TCPChecker
	timeout time.Duration
}

// NewHandler creates a health handler probing the given TCP server.
func NewHandler(tcp TCPChecker) *Handler {
	return &Handler{tcp: tcp, timeout: 3 * time.Second}
}

// LivenessResponse represents the liveness probe response.
type LivenessResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// ReadinessResponse represents the readiness probe response.
type ReadinessResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Timestamp string            `json:"timestamp"`
}

// Liveness handles GET /health/live. Returns 200 if the process is alive,
// with no dependency checks.
func (h *Handler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, LivenessResponse{
		Status:    "alive",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Readiness handles GET /health/ready. Returns 200 once the game listener
// is accepting TCP connections, 503 otherwise.
func (h *Handler) Readiness(c *gin.Context) {
	checks := map[string]string{
		"tcp_listener": h.checkListener(),
	}

	status := "ready"
	statusCode := http.StatusOK
	if checks["tcp_listener"] != "healthy" {
		status = "unavailable"
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, ReadinessResponse{
		Status:    status,
		Checks:    checks,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) checkListener() string {
	addr := h.tcp.Addr()
	if addr == "" {
		return "unhealthy"
	}
	conn, err := net.DialTimeout("tcp", addr, h.timeout)
	if err != nil {
		return "unhealthy"
	}
	conn.Close()
	return "healthy"
}
