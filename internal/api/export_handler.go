package api

import (
	"github.com/agency-cms-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ExportHandler handles export endpoints
type ExportHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewExportHandler creates a new ExportHandler
func NewExportHandler(services *service.Services, log zerolog.Logger) *ExportHandler {
	return &ExportHandler{
		services: services,
		log:      log.With().Str("handler", "export").Logger(),
	}
}

func exportFormat(c *gin.Context) string {
	if f := c.Query("format"); f != "" {
		return f
	}
	return "csv"
}

// Subscribers handles GET /api/admin/newsletter/export?format=&status=
func (h *ExportHandler) Subscribers(c *gin.Context) {
	format := exportFormat(c)
	h.log.Info().Str("resource", "subscribers").Str("format", format).Msg("Starting streaming export")
	h.finish(c, "subscribers", h.services.Export.StreamSubscribers(c.Request.Context(), c.Writer, format, c.Query("status")))
}

// Contacts handles GET /api/admin/contact/export?format=
func (h *ExportHandler) Contacts(c *gin.Context) {
	format := exportFormat(c)
	h.log.Info().Str("resource", "contacts").Str("format", format).Msg("Starting streaming export")
	h.finish(c, "contacts", h.services.Export.StreamContacts(c.Request.Context(), c.Writer, format))
}

// Payments handles GET /api/admin/payments/export?format=
func (h *ExportHandler) Payments(c *gin.Context) {
	format := exportFormat(c)
	h.log.Info().Str("resource", "payments").Str("format", format).Msg("Starting streaming export")
	h.finish(c, "payments", h.services.Export.StreamPayments(c.Request.Context(), c.Writer, format))
}

func (h *ExportHandler) finish(c *gin.Context, resource string, err error) {
	if err == nil {
		return
	}
	if !c.Writer.Written() {
		c.Writer.Header().Del("Content-Disposition")
		c.Writer.Header().Set("Content-Type", "application/json; charset=utf-8")
		respondError(c, h.log, err)
		return
	}
	// Can't return error JSON after streaming has started
	h.log.Error().Err(err).Str("resource", resource).Msg("Export failed")
}
