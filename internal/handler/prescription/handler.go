package prescription

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/medicare-hq/medicare-api/internal/middleware"
	"github.com/medicare-hq/medicare-api/internal/model"
	"github.com/medicare-hq/medicare-api/internal/service/prescription"
	"github.com/medicare-hq/medicare-api/pkg/httputil"
)

type Handler struct {
	service *prescription.Service
}

func NewHandler(service *prescription.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	r.POST("", auth.RequireRole(model.RoleDoctor), h.Create)
	r.GET("/user", auth.RequireRole(model.RoleUser), h.ListMine)
	r.GET("/doctor", auth.RequireRole(model.RoleDoctor), h.ListForDoctor)
	r.GET("/:id", h.Get)
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreatePrescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httputil.NewErrorResponse(httputil.BindError(err)))
		return
	}

	caller := middleware.CallerClaims(c)
	p, err := h.service.Create(c.Request.Context(), caller.AccountID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, p)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, httputil.NewErrorResponse("invalid prescription ID"))
		return
	}

	caller := middleware.CallerClaims(c)
	p, err := h.service.Get(c.Request.Context(), caller, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, p)
}

func (h *Handler) ListMine(c *gin.Context) {
	caller := middleware.CallerClaims(c)
	list, err := h.service.ListForPatient(c.Request.Context(), caller.AccountID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, list)
}

func (h *Handler) ListForDoctor(c *gin.Context) {
	caller := middleware.CallerClaims(c)
	list, err := h.service.ListForDoctor(c.Request.Context(), caller.AccountID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, list)
}
