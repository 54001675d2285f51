package appointment

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/medicare-hq/medicare-api/internal/middleware"
	"github.com/medicare-hq/medicare-api/internal/model"
	"github.com/medicare-hq/medicare-api/internal/service/appointment"
	"github.com/medicare-hq/medicare-api/pkg/httputil"
)

type Handler struct {
	service *appointment.Service
}

func NewHandler(service *appointment.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes wires the appointment endpoints. Everything here runs
// behind Authenticate; role gates are per-route.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	r.GET("/doctors", h.ListDoctors)

	r.POST("", auth.RequireRole(model.RoleUser), h.Book)
	r.GET("/user", auth.RequireRole(model.RoleUser), h.ListMine)
	r.GET("/doctor", auth.RequireRole(model.RoleDoctor), h.ListForDoctor)
	r.GET("/all", auth.RequireRole(model.RoleAdmin), h.ListAll)
	r.GET("/:id", h.Get)

	r.PATCH("/:id/status", auth.RequireRole(model.RoleDoctor), h.UpdateStatus)
	r.PATCH("/:id/cancel", auth.RequireRole(model.RoleUser), h.Cancel)
	r.PATCH("/:id/override", auth.RequireRole(model.RoleAdmin), h.Override)
	r.PATCH("/:id/amount", auth.RequireRole(model.RoleAdmin), h.UpdateAmount)
	r.DELETE("/:id", h.Delete)
}

func (h *Handler) Book(c *gin.Context) {
	var req model.BookAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httputil.NewErrorResponse(httputil.BindError(err)))
		return
	}

	caller := middleware.CallerClaims(c)
	apt, err := h.service.Book(c.Request.Context(), caller.AccountID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, apt)
}

func (h *Handler) ListMine(c *gin.Context) {
	caller := middleware.CallerClaims(c)
	appointments, err := h.service.ListForPatient(c.Request.Context(), caller.AccountID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, appointments)
}

func (h *Handler) ListForDoctor(c *gin.Context) {
	caller := middleware.CallerClaims(c)
	appointments, err := h.service.ListForDoctor(c.Request.Context(), caller.AccountID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, appointments)
}

func (h *Handler) ListAll(c *gin.Context) {
	appointments, err := h.service.ListAll(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, appointments)
}

func (h *Handler) ListDoctors(c *gin.Context) {
	doctors, err := h.service.ListDoctors(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, doctors)
}

// Get returns one appointment; visibility follows the same ownership rules
// as the listings.
func (h *Handler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	caller := middleware.CallerClaims(c)
	apt, err := h.service.GetForCaller(c.Request.Context(), caller, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, apt)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req model.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httputil.NewErrorResponse(httputil.BindError(err)))
		return
	}

	caller := middleware.CallerClaims(c)
	apt, err := h.service.UpdateStatusAsDoctor(c.Request.Context(), caller.AccountID, id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, apt)
}

func (h *Handler) Cancel(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	caller := middleware.CallerClaims(c)
	apt, err := h.service.CancelAsPatient(c.Request.Context(), caller.AccountID, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, apt)
}

func (h *Handler) Override(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req model.OverrideStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httputil.NewErrorResponse(httputil.BindError(err)))
		return
	}

	apt, err := h.service.OverrideStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, apt)
}

func (h *Handler) UpdateAmount(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req model.UpdateAmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httputil.NewErrorResponse(httputil.BindError(err)))
		return
	}

	apt, err := h.service.UpdateAmount(c.Request.Context(), id, req.TotalAmount)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, apt)
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	caller := middleware.CallerClaims(c)
	if err := h.service.Delete(c.Request.Context(), caller, id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, http.StatusOK, "appointment deleted")
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, httputil.NewErrorResponse("invalid appointment ID"))
		return 0, false
	}
	return id, true
}
