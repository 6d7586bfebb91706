package api

import (
	"net/http"

	"github.com/lectern/lectern/internal/log"
)

// CoursesHandler handles the course analytics endpoint.
type CoursesHandler struct {
	system QuerySystem
	logger log.Logger
}

// NewCoursesHandler creates a courses handler.
func NewCoursesHandler(system QuerySystem, logger log.Logger) *CoursesHandler {
	return &CoursesHandler{system: system, logger: logger}
}

// RegisterRoutes registers the courses route on the given mux.
func (h *CoursesHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/courses", h.handleCourses)
}

func (h *CoursesHandler) handleCourses(w http.ResponseWriter, r *http.Request) {
	stats, err := h.system.Stats(r.Context())
	if err != nil {
		h.logger.Error("course stats failed", "error", err)
		writeError(w, http.StatusInternalServerError, "stats_failed", "failed to read course statistics")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
