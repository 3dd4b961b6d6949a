package usage

import (
	"github.com/gin-gonic/gin"
	"github.com/voxstory/core/internal/middleware"
	"github.com/voxstory/core/internal/pkg/response"
)

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	rg.GET("/usage", authMW, h.today)
}

// GET /usage
func (h *Handler) today(c *gin.Context) {
	u, err := h.svc.Today(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, u)
}
