package api

import (
	"net/http"
	"os"
	"time"

	apperrors "github.com/flipbookapp/flipbook-server/internal/errors"
	"github.com/flipbookapp/flipbook-server/internal/http/response"
)

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Message string `json:"message,omitempty"`
}

// HealthResponse contains health check data.
type HealthResponse struct {
	Status     string                     `json:"status"`
	Components map[string]ComponentHealth `json:"components"`
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	components := map[string]ComponentHealth{
		"database": s.checkDatabase(r),
		"uploads":  s.checkUploads(),
	}

	overall := "healthy"
	for _, c := range components {
		if c.Status != "healthy" {
			overall = "unhealthy"
			break
		}
	}

	response.Success(w, HealthResponse{Status: overall, Components: components}, s.logger)
}

// checkDatabase verifies the document database answers reads. A not-found on
// the probe key still proves the database is reachable.
func (s *Server) checkDatabase(r *http.Request) ComponentHealth {
	if s.store == nil {
		return ComponentHealth{Status: "degraded", Message: "database not configured"}
	}

	start := time.Now()
	_, err := s.store.GetFlipbook(r.Context(), "health-probe")
	latency := time.Since(start)

	if err != nil && !apperrors.Is(err, apperrors.ErrNotFound) {
		return ComponentHealth{Status: "unhealthy", Latency: latency.String(), Message: "database read failed"}
	}
	return ComponentHealth{Status: "healthy", Latency: latency.String()}
}

// checkUploads verifies the uploads root exists and is a directory.
func (s *Server) checkUploads() ComponentHealth {
	info, err := os.Stat(s.uploadsRoot)
	if err != nil || !info.IsDir() {
		return ComponentHealth{Status: "unhealthy", Message: "uploads root unavailable"}
	}
	return ComponentHealth{Status: "healthy"}
}
