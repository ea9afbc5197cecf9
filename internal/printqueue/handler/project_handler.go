package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Aceless34/PrintingQueue/internal/printqueue/service"
)

// ProjectHandler print queue projects
type ProjectHandler struct {
	svc    *service.ProjectService
	stats  *service.StatsService
	logger *zap.Logger
}

func NewProjectHandler(svc *service.ProjectService, stats *service.StatsService, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{svc: svc, stats: stats, logger: logger}
}

// List GET /projects?includeArchived=1
func (h *ProjectHandler) List(c *gin.Context) {
	projects, err := h.svc.List(c.Request.Context(), c.Query("includeArchived") == "1")
	if err != nil {
		respondError(c, h.logger, err, "Failed to load projects")
		return
	}
	c.JSON(http.StatusOK, projects)
}

// Create POST /projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var req service.CreateProjectRequest
	if !bindJSON(c, &req) {
		return
	}
	project, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err, "Failed to create project")
		return
	}
	h.publishStats()
	c.JSON(http.StatusCreated, project)
}

// Update PATCH /projects/:id
func (h *ProjectHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "project")
	if !ok {
		return
	}
	var req service.UpdateProjectRequest
	if !bindJSON(c, &req) {
		return
	}
	project, err := h.svc.Update(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, h.logger, err, "Failed to update project")
		return
	}
	h.publishStats()
	c.JSON(http.StatusOK, project)
}

// Delete DELETE /projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "project")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err, "Failed to delete project")
		return
	}
	h.publishStats()
	c.Status(http.StatusNoContent)
}

func (h *ProjectHandler) publishStats() {
	if h.stats != nil {
		h.stats.Trigger()
	}
}
