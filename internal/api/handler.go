package api

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"msgrelay/internal/constants"
	"msgrelay/internal/logger"
	"msgrelay/pkg/errors"
	"msgrelay/pkg/metrics"
	"msgrelay/pkg/models"
)

const (
	routeSend       = "/api/kafka/send"
	routeSendSimple = "/api/kafka/send/simple"
	routeHealth     = "/api/kafka/health"
)

// Sender is the publishing side the handlers dispatch to.
type Sender interface {
	Send(ctx context.Context, msg models.Envelope) models.Envelope
}

type Handler struct {
	sender      Sender
	serviceName string
	logger      logger.Logger
}

func NewHandler(sender Sender, serviceName string, log logger.Logger) *Handler {
	if serviceName == "" {
		serviceName = constants.DefaultServiceName
	}
	return &Handler{
		sender:      sender,
		serviceName: serviceName,
		logger:      log,
	}
}

func (h *Handler) RegisterRoutes(router gin.IRouter) {
	kafka := router.Group("/api/kafka")
	{
		kafka.POST("/send", h.Send)
		kafka.POST("/send/simple", h.SendSimple)
		kafka.GET("/health", h.Health)
	}
}

func (h *Handler) handleError(c *gin.Context, route string, err error) {
	h.logger.WarnwCtx(c.Request.Context(), "Request error", "error", err, "path", c.Request.URL.Path)

	status := errors.ToHTTPStatus(err)
	metrics.IncHTTPRequest(route, strconv.Itoa(status))
	c.JSON(status, errors.ToErrorResponse(err))
}

// Send godoc
// @Summary      Publish an envelope
// @Description  Missing id, timestamp and sender are defaulted before publishing
// @Tags         kafka
// @Accept       json
// @Produce      json
// @Param        message  body      models.Envelope  true  "Envelope"
// @Success      200      {object}  SendResponse
// @Failure      400      {object}  map[string]interface{}
// @Router       /api/kafka/send [post]
func (h *Handler) Send(c *gin.Context) {
	var msg models.Envelope
	if err := c.ShouldBindJSON(&msg); err != nil {
		h.handleError(c, routeSend, errors.ErrValidation.WithCause(err))
		return
	}

	sent := h.sender.Send(c.Request.Context(), msg.WithDefaults())

	metrics.IncHTTPRequest(routeSend, strconv.Itoa(http.StatusOK))
	c.JSON(http.StatusOK, SendResponse{
		Status:    constants.StatusSuccess,
		Message:   constants.ResponseMessageSent,
		MessageID: sent.ID,
	})
}

// SendSimple godoc
// @Summary      Publish free text
// @Description  Builds a new envelope from optional content and sender fields
// @Tags         kafka
// @Accept       json
// @Produce      json
// @Param        message  body      map[string]string  false  "content and sender"
// @Success      200      {object}  SendSimpleResponse
// @Failure      400      {object}  map[string]interface{}
// @Router       /api/kafka/send/simple [post]
func (h *Handler) SendSimple(c *gin.Context) {
	var req map[string]string
	if err := c.ShouldBindJSON(&req); err != nil && !stderrors.Is(err, io.EOF) {
		h.handleError(c, routeSendSimple, errors.ErrValidation.WithCause(err))
		return
	}

	content, ok := req["content"]
	if !ok {
		content = constants.DefaultSimpleContent
	}
	sender, ok := req["sender"]
	if !ok {
		sender = constants.DefaultSimpleSender
	}

	msg := models.NewEnvelopeBuilder().
		WithID(models.NewID()).
		WithContent(content).
		WithSender(sender).
		WithTimestamp(models.Now()).
		Build()

	sent := h.sender.Send(c.Request.Context(), msg)

	metrics.IncHTTPRequest(routeSendSimple, strconv.Itoa(http.StatusOK))
	c.JSON(http.StatusOK, SendSimpleResponse{
		Status:    constants.StatusSuccess,
		Message:   constants.ResponseSimpleSent,
		MessageID: sent.ID,
		Content:   sent.Content,
	})
}

// Health godoc
// @Summary      Liveness check
// @Tags         kafka
// @Produce      json
// @Success      200  {object}  HealthResponse
// @Router       /api/kafka/health [get]
func (h *Handler) Health(c *gin.Context) {
	metrics.IncHTTPRequest(routeHealth, strconv.Itoa(http.StatusOK))
	c.JSON(http.StatusOK, HealthResponse{
		Status:    constants.StatusUp,
		Service:   h.serviceName,
		Timestamp: models.Now(),
	})
}
