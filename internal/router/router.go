package router

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	adminh "github.com/medicare-hq/medicare-api/internal/handler/admin"
	appointmenth "github.com/medicare-hq/medicare-api/internal/handler/appointment"
	authh "github.com/medicare-hq/medicare-api/internal/handler/auth"
	complainth "github.com/medicare-hq/medicare-api/internal/handler/complaint"
	healthh "github.com/medicare-hq/medicare-api/internal/handler/health"
	historyh "github.com/medicare-hq/medicare-api/internal/handler/history"
	paymenth "github.com/medicare-hq/medicare-api/internal/handler/payment"
	prescriptionh "github.com/medicare-hq/medicare-api/internal/handler/prescription"
	"github.com/medicare-hq/medicare-api/internal/middleware"
	"github.com/medicare-hq/medicare-api/internal/model"
)

type Config struct {
	RateLimit        rate.Limit
	RateBurst        int
	RateLimitEnabled bool
	CORSConfig       middleware.CORSConfig
	MetricsPrefix    string
	MetricsPath      string
}

type Router struct {
	engine        *gin.Engine
	auth          *middleware.AuthMiddleware
	authH         *authh.Handler
	appointmentH  *appointmenth.Handler
	paymentH      *paymenth.Handler
	prescriptionH *prescriptionh.Handler
	complaintH    *complainth.Handler
	historyH      *historyh.Handler
	adminH        *adminh.Handler
	healthH       *healthh.Handler
	config        Config
	metrics       *routerMetrics
}

type routerMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	errorTotal      *prometheus.CounterVec
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	authH *authh.Handler,
	appointmentH *appointmenth.Handler,
	paymentH *paymenth.Handler,
	prescriptionH *prescriptionh.Handler,
	complaintH *complainth.Handler,
	historyH *historyh.Handler,
	adminH *adminh.Handler,
	healthH *healthh.Handler,
	config Config,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	r := &Router{
		engine:        engine,
		auth:          auth,
		authH:         authH,
		appointmentH:  appointmentH,
		paymentH:      paymentH,
		prescriptionH: prescriptionH,
		complaintH:    complaintH,
		historyH:      historyH,
		adminH:        adminH,
		healthH:       healthH,
		config:        config,
		metrics:       initRouterMetrics(config.MetricsPrefix),
	}

	engine.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.ErrorHandler(),
		r.metricsMiddleware(),
		middleware.CORS(config.CORSConfig),
	)

	return r
}

func (r *Router) Setup() {
	metricsPath := r.config.MetricsPath
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	r.engine.GET(metricsPath, gin.WrapH(promhttp.Handler()))

	// Gateway callbacks sit outside the rate limiter and the request timeout
	// so a traffic spike or a slow database never drops a payment result.
	webhooks := r.engine.Group("/webhooks")
	r.paymentH.RegisterWebhookRoutes(webhooks)

	api := r.engine.Group("/api/v1")
	api.Use(middleware.Timeout(middleware.DefaultTimeoutConfig()))
	if r.config.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  r.config.RateLimit,
			Burst: r.config.RateBurst,
		})
		api.Use(limiter.RateLimit())
	}

	r.healthH.RegisterRoutes(api)
	r.authH.RegisterRoutes(api.Group("/auth"))

	protected := api.Group("")
	protected.Use(r.auth.Authenticate())

	r.appointmentH.RegisterRoutes(protected.Group("/appointments"), r.auth)
	r.paymentH.RegisterRoutes(protected.Group("/payments"), r.auth)
	r.prescriptionH.RegisterRoutes(protected.Group("/prescriptions"), r.auth)
	r.complaintH.RegisterRoutes(protected.Group("/complaints"), r.auth)
	r.historyH.RegisterRoutes(protected.Group("/medical-history"), r.auth)

	admin := protected.Group("/admin")
	admin.Use(r.auth.RequireRole(model.RoleAdmin))
	r.adminH.RegisterRoutes(admin)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func initRouterMetrics(prefix string) *routerMetrics {
	return &routerMetrics{
		requestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: prefix + "_request_duration_seconds",
				Help: "Duration of HTTP requests in seconds",
			},
			[]string{"method", "path", "status"},
		),
		requestTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		errorTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_errors_total",
				Help: "Total number of HTTP errors",
			},
			[]string{"method", "path", "type"},
		),
	}
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()

		c.Next()

		status := fmt.Sprintf("%d", c.Writer.Status())
		duration := time.Since(start).Seconds()

		r.metrics.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
		r.metrics.requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()

		if c.Writer.Status() >= 400 {
			r.metrics.errorTotal.WithLabelValues(c.Request.Method, path, "http").Inc()
		}
	}
}
