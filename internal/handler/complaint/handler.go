package complaint

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/medicare-hq/medicare-api/internal/middleware"
	"github.com/medicare-hq/medicare-api/internal/model"
	"github.com/medicare-hq/medicare-api/internal/service/complaint"
	"github.com/medicare-hq/medicare-api/pkg/httputil"
)

type Handler struct {
	service *complaint.Service
}

func NewHandler(service *complaint.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	r.POST("", auth.RequireRole(model.RoleUser), h.Submit)
	r.GET("/user", auth.RequireRole(model.RoleUser), h.ListMine)
	r.GET("/all", auth.RequireRole(model.RoleAdmin), h.ListAll)
	r.GET("/:id", h.Get)
	r.PATCH("/:id/status", auth.RequireRole(model.RoleAdmin), h.UpdateStatus)
	r.POST("/:id/messages", h.AddMessage)
}

func (h *Handler) Submit(c *gin.Context) {
	var req model.SubmitComplaintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httputil.NewErrorResponse(httputil.BindError(err)))
		return
	}

	caller := middleware.CallerClaims(c)
	complaint, err := h.service.Submit(c.Request.Context(), caller.AccountID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, complaint)
}

func (h *Handler) ListMine(c *gin.Context) {
	caller := middleware.CallerClaims(c)
	list, err := h.service.ListForUser(c.Request.Context(), caller.AccountID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, list)
}

func (h *Handler) ListAll(c *gin.Context) {
	list, err := h.service.ListAll(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, list)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	caller := middleware.CallerClaims(c)
	complaint, messages, err := h.service.Get(c.Request.Context(), caller, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, gin.H{
		"complaint": complaint,
		"messages":  messages,
	})
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req model.UpdateComplaintStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httputil.NewErrorResponse(httputil.BindError(err)))
		return
	}

	if err := h.service.UpdateStatus(c.Request.Context(), id, req.Status); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, http.StatusOK, "complaint status updated")
}

func (h *Handler) AddMessage(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req model.AddComplaintMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httputil.NewErrorResponse(httputil.BindError(err)))
		return
	}

	caller := middleware.CallerClaims(c)
	message, err := h.service.AddMessage(c.Request.Context(), caller, id, req.Message)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, message)
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, httputil.NewErrorResponse("invalid complaint ID"))
		return 0, false
	}
	return id, true
}
