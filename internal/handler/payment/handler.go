package payment

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/medicare-hq/medicare-api/internal/middleware"
	"github.com/medicare-hq/medicare-api/internal/model"
	mpesasvc "github.com/medicare-hq/medicare-api/internal/service/mpesa"
	"github.com/medicare-hq/medicare-api/internal/service/payment"
	"github.com/medicare-hq/medicare-api/pkg/gateway/card"
	"github.com/medicare-hq/medicare-api/pkg/gateway/mpesa"
	"github.com/medicare-hq/medicare-api/pkg/httputil"
)

type Handler struct {
	payments *payment.Service
	mpesa    *mpesasvc.Service
}

func NewHandler(payments *payment.Service, mpesa *mpesasvc.Service) *Handler {
	return &Handler{payments: payments, mpesa: mpesa}
}

// RegisterRoutes wires the authenticated payment endpoints.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	r.POST("/create", auth.RequireRole(model.RoleUser, model.RoleAdmin), h.CreateCheckout)
	r.POST("/confirm", auth.RequireRole(model.RoleUser, model.RoleAdmin), h.Confirm)
	r.GET("/history", auth.RequireRole(model.RoleUser), h.History)
	r.GET("/appointment/:id", h.GetByAppointment)
	r.PATCH("/:id", auth.RequireRole(model.RoleAdmin), h.Update)
	r.DELETE("/:id", auth.RequireRole(model.RoleAdmin), h.Delete)

	r.POST("/mpesa/initiate", auth.RequireRole(model.RoleUser, model.RoleAdmin), h.InitiateMobile)
}

// RegisterWebhookRoutes wires the unauthenticated gateway callbacks. These
// must be mounted before any middleware that consumes the request body.
func (h *Handler) RegisterWebhookRoutes(r *gin.RouterGroup) {
	r.POST("/card", h.CardWebhook)
	r.POST("/mpesa", h.MpesaCallback)
}

func (h *Handler) CreateCheckout(c *gin.Context) {
	var req model.CreateCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httputil.NewErrorResponse(httputil.BindError(err)))
		return
	}

	caller := middleware.CallerClaims(c)
	session, err := h.payments.CreateCheckout(c.Request.Context(), caller, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, session)
}

func (h *Handler) Confirm(c *gin.Context) {
	var req model.ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httputil.NewErrorResponse(httputil.BindError(err)))
		return
	}

	caller := middleware.CallerClaims(c)
	p, err := h.payments.Confirm(c.Request.Context(), caller, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, p)
}

func (h *Handler) History(c *gin.Context) {
	caller := middleware.CallerClaims(c)
	payments, err := h.payments.History(c.Request.Context(), caller.AccountID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, payments)
}

func (h *Handler) GetByAppointment(c *gin.Context) {
	id, ok := pathID(c, "invalid appointment ID")
	if !ok {
		return
	}

	caller := middleware.CallerClaims(c)
	p, err := h.payments.GetByAppointment(c.Request.Context(), caller, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, p)
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := pathID(c, "invalid payment ID")
	if !ok {
		return
	}

	var req model.UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httputil.NewErrorResponse(httputil.BindError(err)))
		return
	}

	p, err := h.payments.Update(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, p)
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := pathID(c, "invalid payment ID")
	if !ok {
		return
	}

	if err := h.payments.Delete(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, http.StatusOK, "payment deleted")
}

func (h *Handler) InitiateMobile(c *gin.Context) {
	var req model.InitiateMobilePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httputil.NewErrorResponse(httputil.BindError(err)))
		return
	}

	caller := middleware.CallerClaims(c)
	ack, err := h.mpesa.Initiate(c.Request.Context(), caller, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, ack)
}

// CardWebhook consumes the raw body so the signature is verified over the
// exact wire bytes. A bad signature is the only refusal; everything after
// that is acknowledged.
func (h *Handler) CardWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, httputil.NewErrorResponse("failed to read request body"))
		return
	}

	signature := c.GetHeader(card.SignatureHeader)
	if err := h.payments.HandleCardWebhook(c.Request.Context(), payload, signature); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

// MpesaCallback always acknowledges; the gateway only needs to know the
// delivery landed.
func (h *Handler) MpesaCallback(c *gin.Context) {
	var envelope mpesa.CallbackEnvelope
	if err := c.ShouldBindJSON(&envelope); err != nil {
		c.JSON(http.StatusBadRequest, httputil.NewErrorResponse("invalid callback payload"))
		return
	}

	h.mpesa.HandleCallback(c.Request.Context(), &envelope)
	c.JSON(http.StatusOK, gin.H{"ResultCode": 0, "ResultDesc": "Accepted"})
}

func pathID(c *gin.Context, msg string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, httputil.NewErrorResponse(msg))
		return 0, false
	}
	return id, true
}
