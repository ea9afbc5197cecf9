package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Aceless34/PrintingQueue/internal/printqueue/service"
)

// ColorHandler filament colors
type ColorHandler struct {
	svc    *service.ColorService
	logger *zap.Logger
}

func NewColorHandler(svc *service.ColorService, logger *zap.Logger) *ColorHandler {
	return &ColorHandler{svc: svc, logger: logger}
}

func (h *ColorHandler) List(c *gin.Context) {
	colors, err := h.svc.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "Failed to load filament colors")
		return
	}
	c.JSON(http.StatusOK, colors)
}

// Create POST /filament-colors. 201 when created, 200 when the color already existed.
func (h *ColorHandler) Create(c *gin.Context) {
	var req service.CreateColorRequest
	if !bindJSON(c, &req) {
		return
	}
	color, created, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err, "Failed to save filament color")
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, color)
}

func (h *ColorHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "color")
	if !ok {
		return
	}
	var req service.UpdateColorRequest
	if !bindJSON(c, &req) {
		return
	}
	color, err := h.svc.Update(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, h.logger, err, "Failed to update filament color")
		return
	}
	c.JSON(http.StatusOK, color)
}

func (h *ColorHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "color")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err, "Failed to delete filament color")
		return
	}
	c.Status(http.StatusNoContent)
}

// LookupHandler manufacturers and materials share one shape
type LookupHandler struct {
	svc    *service.LookupService
	entity string
	plural string
	logger *zap.Logger
}

func NewLookupHandler(svc *service.LookupService, entity, plural string, logger *zap.Logger) *LookupHandler {
	return &LookupHandler{svc: svc, entity: entity, plural: plural, logger: logger}
}

func (h *LookupHandler) register(g *gin.RouterGroup) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.PATCH("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

func (h *LookupHandler) List(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "Failed to load "+h.plural)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *LookupHandler) Create(c *gin.Context) {
	var req service.LookupRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err, "Failed to save "+h.entity)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *LookupHandler) Update(c *gin.Context) {
	id, ok := parseID(c, h.entity)
	if !ok {
		return
	}
	var req service.LookupRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.svc.Update(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, h.logger, err, "Failed to update "+h.entity)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *LookupHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, h.entity)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err, "Failed to delete "+h.entity)
		return
	}
	c.Status(http.StatusNoContent)
}

// RollHandler filament rolls
type RollHandler struct {
	svc    *service.RollService
	export *service.ExportService
	logger *zap.Logger
}

func NewRollHandler(svc *service.RollService, export *service.ExportService, logger *zap.Logger) *RollHandler {
	return &RollHandler{svc: svc, export: export, logger: logger}
}

func (h *RollHandler) List(c *gin.Context) {
	rolls, err := h.svc.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "Failed to load filament rolls")
		return
	}
	c.JSON(http.StatusOK, rolls)
}

func (h *RollHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "roll")
	if !ok {
		return
	}
	roll, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err, "Failed to load roll")
		return
	}
	c.JSON(http.StatusOK, roll)
}

// Usage GET /filament-rolls/:id/usage
func (h *RollHandler) Usage(c *gin.Context) {
	id, ok := parseID(c, "roll")
	if !ok {
		return
	}
	roll, usage, err := h.svc.Usage(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err, "Failed to load roll usage")
		return
	}
	c.JSON(http.StatusOK, gin.H{"roll": roll, "usage": usage})
}

func (h *RollHandler) Create(c *gin.Context) {
	var req service.CreateRollRequest
	if !bindJSON(c, &req) {
		return
	}
	roll, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err, "Failed to create roll")
		return
	}
	c.JSON(http.StatusCreated, roll)
}

func (h *RollHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "roll")
	if !ok {
		return
	}
	var req service.UpdateRollRequest
	if !bindJSON(c, &req) {
		return
	}
	roll, err := h.svc.Update(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, h.logger, err, "Failed to update roll")
		return
	}
	c.JSON(http.StatusOK, roll)
}

// Export GET /filament-rolls/export
func (h *RollHandler) Export(c *gin.Context) {
	f, filename, err := h.export.ExportRolls(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "Failed to export filament rolls")
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Header("Content-Transfer-Encoding", "binary")

	if err := f.Write(c.Writer); err != nil {
		h.logger.Error("write roll export failed", zap.Error(err))
	}
}
