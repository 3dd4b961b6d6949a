package speech

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/voxstory/core/internal/middleware"
	"github.com/voxstory/core/internal/modules/usage"
	"github.com/voxstory/core/internal/pkg/response"
)

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	rg.POST("/say", authMW, h.say)
	rg.GET("/voices", h.voices)
	rg.POST("/voices/previews", authMW, h.generatePreviews)
}

// POST /say
func (h *Handler) say(c *gin.Context) {
	var dto SayDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "Text is required")
		return
	}

	audio, denied, err := h.svc.Say(c.Request.Context(), middleware.CurrentUserID(c), dto)
	if err != nil {
		if errors.Is(err, errEmptyText) || errors.Is(err, errSpeedOutOfRange) {
			response.BadRequest(c, err.Error())
			return
		}
		response.BadGateway(c, "Text-to-speech service unavailable")
		return
	}
	if denied != nil {
		h.writeDenial(c, denied)
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("Content-Length", strconv.Itoa(len(audio.Data)))
	c.Data(http.StatusOK, audio.MIMEType, audio.Data)
}

func (h *Handler) writeDenial(c *gin.Context, denied *usage.Decision) {
	switch denied.Reason {
	case usage.ReasonTextTooLong:
		response.BadRequest(c, denied.Reason)
	case usage.ReasonDailyLimit:
		response.TooManyRequests(c, denied.Reason, gin.H{"usage": denied.Current})
	default:
		response.InternalError(c, errors.New(denied.Reason))
	}
}

// GET /voices
func (h *Handler) voices(c *gin.Context) {
	response.OK(c, h.svc.VoiceCatalog())
}

// POST /voices/previews
func (h *Handler) generatePreviews(c *gin.Context) {
	results, err := h.svc.GeneratePreviews(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, results)
}
