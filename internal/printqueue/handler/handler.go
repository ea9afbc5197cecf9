package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Aceless34/PrintingQueue/internal/printqueue/apperr"
	"github.com/Aceless34/PrintingQueue/internal/printqueue/service"
	"github.com/Aceless34/PrintingQueue/internal/shared/metrics"
	"github.com/Aceless34/PrintingQueue/internal/shared/notify"
)

// BuildInfo reported by GET /version
type BuildInfo struct {
	Version   string `json:"version"`
	BuildTime string `json:"build_time"`
}

// Handlers all HTTP handlers
type Handlers struct {
	Project      *ProjectHandler
	Color        *ColorHandler
	Manufacturer *LookupHandler
	Material     *LookupHandler
	Roll         *RollHandler
	Events       *EventsHandler

	metrics *metrics.Metrics
	build   BuildInfo
}

func NewHandlers(svc *service.Services, hub *notify.Hub, m *metrics.Metrics, logger *zap.Logger, build BuildInfo) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		Project:      NewProjectHandler(svc.Project, svc.Stats, logger),
		Color:        NewColorHandler(svc.Color, logger),
		Manufacturer: NewLookupHandler(svc.Manufacturer, "manufacturer", "manufacturers", logger),
		Material:     NewLookupHandler(svc.Material, "material", "materials", logger),
		Roll:         NewRollHandler(svc.Roll, svc.Export, logger),
		Events:       NewEventsHandler(hub),
		metrics:      m,
		build:        build,
	}
}

// Register mounts every route on r
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, h.build)
	})
	if h.metrics != nil {
		r.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	}
	if h.Events != nil {
		r.GET("/events", h.Events.Stream)
	}

	projects := r.Group("/projects")
	{
		projects.GET("", h.Project.List)
		projects.POST("", h.Project.Create)
		projects.PATCH("/:id", h.Project.Update)
		projects.DELETE("/:id", h.Project.Delete)
	}

	colors := r.Group("/filament-colors")
	{
		colors.GET("", h.Color.List)
		colors.POST("", h.Color.Create)
		colors.PATCH("/:id", h.Color.Update)
		colors.DELETE("/:id", h.Color.Delete)
	}

	h.Manufacturer.register(r.Group("/filament-manufacturers"))
	h.Material.register(r.Group("/filament-materials"))

	rolls := r.Group("/filament-rolls")
	{
		rolls.GET("", h.Roll.List)
		rolls.GET("/export", h.Roll.Export)
		rolls.GET("/:id", h.Roll.Get)
		rolls.GET("/:id/usage", h.Roll.Usage)
		rolls.POST("", h.Roll.Create)
		rolls.PATCH("/:id", h.Roll.Update)
	}
}

// ErrorBody error response body
type ErrorBody struct {
	Error string `json:"error"`
}

func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorBody{Error: message})
}

// respondError renders a service error. Internal errors are logged and answered with fallback.
func respondError(c *gin.Context, logger *zap.Logger, err error, fallback string) {
	status := apperr.StatusOf(err)
	if status == http.StatusInternalServerError {
		logger.Error(fallback,
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
		c.JSON(status, ErrorBody{Error: fallback})
		return
	}
	c.JSON(status, ErrorBody{Error: err.Error()})
}

// parseID reads the :id path parameter; on failure it writes "Invalid <entity> id"
func parseID(c *gin.Context, entity string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		BadRequest(c, "Invalid "+entity+" id")
		return 0, false
	}
	return uint(id), true
}

// bindJSON decodes the request body into req; an empty body decodes as {}
func bindJSON(c *gin.Context, req interface{}) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(req); err != nil {
		BadRequest(c, "Invalid request body")
		return false
	}
	return true
}
