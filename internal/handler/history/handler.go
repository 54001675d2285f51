package history

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/medicare-hq/medicare-api/internal/middleware"
	"github.com/medicare-hq/medicare-api/internal/model"
	"github.com/medicare-hq/medicare-api/internal/service/history"
	"github.com/medicare-hq/medicare-api/pkg/httputil"
)

type Handler struct {
	service *history.Service
}

func NewHandler(service *history.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes wires the medical-history endpoints. /self is the patient
// view; /:userId is the clinical view for doctors and admins.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	r.GET("/self", auth.RequireRole(model.RoleUser, model.RoleDoctor), h.Self)
	r.GET("/:userId", auth.RequireRole(model.RoleDoctor, model.RoleAdmin), h.ForUser)
}

func (h *Handler) Self(c *gin.Context) {
	caller := middleware.CallerClaims(c)
	record, err := h.service.Self(c.Request.Context(), caller.AccountID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, record)
}

func (h *Handler) ForUser(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, httputil.NewErrorResponse("invalid user ID"))
		return
	}

	record, err := h.service.ForUser(c.Request.Context(), model.AccountID(id))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, record)
}
