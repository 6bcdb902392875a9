package certificates

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"techstar/certificate-portal/certificate-portal-backend/internal/notifications"
	"techstar/certificate-portal/certificate-portal-backend/web"
)

const (
	// SessionCookie scopes a browser to its certificate
	SessionCookie = "certificate_session"
	sessionKey    = "session_id"
)

// ConnectionHandler upgrades a request to a notification stream
type ConnectionHandler interface {
	HandleConnection(w http.ResponseWriter, r *http.Request, sessionID string) (*notifications.Connection, error)
}

// HandlerOptions configures the HTTP surface
type HandlerOptions struct {
	SecureCookies bool
	Page          web.Page
}

type Handler struct {
	service       Service
	notifications ConnectionHandler
	logger        *zap.Logger
	options       HandlerOptions
}

func NewHandler(service Service, notifications ConnectionHandler, logger *zap.Logger, options HandlerOptions) *Handler {
	return &Handler{
		service:       service,
		notifications: notifications,
		logger:        logger,
		options:       options,
	}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	session := rg.Group("", h.SessionMiddleware())
	session.GET("/", h.Index)

	api := session.Group("/api/v1")
	certs := api.Group("/certificates")
	{
		certs.POST("", h.Submit)
		certs.GET("/current", h.Current)
		certs.GET("/current/preview.png", h.Preview)
		certs.GET("/current/export.pdf", h.ExportPDF)
		certs.GET("/current/export.png", h.ExportPNG)
	}
	api.GET("/notifications/ws", h.Notifications)
}

// SessionMiddleware assigns every browser a session id cookie
func (h *Handler) SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(SessionCookie)
		if _, parseErr := uuid.Parse(id); err != nil || parseErr != nil {
			id = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(SessionCookie, id, 0, "/", "", h.options.SecureCookies, true)
		}
		c.Set(sessionKey, id)
		c.Next()
	}
}

func sessionID(c *gin.Context) string {
	return c.GetString(sessionKey)
}

func (h *Handler) Index(c *gin.Context) {
	c.Render(http.StatusOK, render.HTML{
		Template: web.Templates,
		Name:     web.IndexTemplate,
		Data:     h.options.Page,
	})
}

func (h *Handler) Submit(c *gin.Context) {
	var req CertificateRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	record, err := h.service.Generate(c.Request.Context(), sessionID(c), req)
	if err != nil {
		h.writeError(c, err, msgGenerateFailed)
		return
	}

	c.JSON(http.StatusCreated, record)
}

func (h *Handler) Current(c *gin.Context) {
	record, state, err := h.service.Current(c.Request.Context(), sessionID(c))
	if err != nil {
		if errors.Is(err, ErrNoCertificate) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "state": state})
			return
		}
		h.writeError(c, err, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"certificate": record, "state": state})
}

func (h *Handler) Preview(c *gin.Context) {
	artifact, err := h.service.Preview(c.Request.Context(), sessionID(c))
	if err != nil {
		h.writeError(c, err, "Erro ao gerar pré-visualização.")
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, artifact.ContentType, artifact.Data)
}

func (h *Handler) ExportPDF(c *gin.Context) {
	artifact, err := h.service.ExportPDF(c.Request.Context(), sessionID(c))
	if err != nil {
		h.writeError(c, err, "Erro ao gerar PDF. Tente novamente.")
		return
	}
	h.attach(c, artifact)
}

func (h *Handler) ExportPNG(c *gin.Context) {
	artifact, err := h.service.ExportPNG(c.Request.Context(), sessionID(c))
	if err != nil {
		h.writeError(c, err, "Erro ao gerar PNG. Tente novamente.")
		return
	}
	h.attach(c, artifact)
}

func (h *Handler) Notifications(c *gin.Context) {
	if _, err := h.notifications.HandleConnection(c.Writer, c.Request, sessionID(c)); err != nil {
		// the upgrader has already written the error response
		h.logger.Warn("Failed to open notification stream",
			zap.String("session_id", sessionID(c)),
			zap.Error(err))
	}
}

func (h *Handler) attach(c *gin.Context, artifact *Artifact) {
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, artifact.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, artifact.ContentType, artifact.Data)
}

func (h *Handler) writeError(c *gin.Context, err error, message string) {
	var validationErr *ValidationError
	var externalErr *ExternalServiceError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Message, "field": validationErr.Field})
	case errors.Is(err, ErrNoCertificate):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ErrBusy):
		c.JSON(http.StatusConflict, gin.H{"error": msgPleaseWait})
	case errors.As(err, &externalErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": message, "service": externalErr.Service})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		if message == "" {
			message = err.Error()
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": message})
	}
}
