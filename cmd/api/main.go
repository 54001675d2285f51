package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/medicare-hq/medicare-api/config"
	"github.com/medicare-hq/medicare-api/internal/email"
	adminh "github.com/medicare-hq/medicare-api/internal/handler/admin"
	appointmenth "github.com/medicare-hq/medicare-api/internal/handler/appointment"
	authh "github.com/medicare-hq/medicare-api/internal/handler/auth"
	complainth "github.com/medicare-hq/medicare-api/internal/handler/complaint"
	healthh "github.com/medicare-hq/medicare-api/internal/handler/health"
	historyh "github.com/medicare-hq/medicare-api/internal/handler/history"
	paymenth "github.com/medicare-hq/medicare-api/internal/handler/payment"
	prescriptionh "github.com/medicare-hq/medicare-api/internal/handler/prescription"
	"github.com/medicare-hq/medicare-api/internal/middleware"
	"github.com/medicare-hq/medicare-api/internal/repository/postgres"
	"github.com/medicare-hq/medicare-api/internal/router"
	adminsvc "github.com/medicare-hq/medicare-api/internal/service/admin"
	appointmentsvc "github.com/medicare-hq/medicare-api/internal/service/appointment"
	authsvc "github.com/medicare-hq/medicare-api/internal/service/auth"
	complaintsvc "github.com/medicare-hq/medicare-api/internal/service/complaint"
	historysvc "github.com/medicare-hq/medicare-api/internal/service/history"
	mpesasvc "github.com/medicare-hq/medicare-api/internal/service/mpesa"
	"github.com/medicare-hq/medicare-api/internal/service/notification"
	paymentsvc "github.com/medicare-hq/medicare-api/internal/service/payment"
	prescriptionsvc "github.com/medicare-hq/medicare-api/internal/service/prescription"
	"github.com/medicare-hq/medicare-api/pkg/auth"
	"github.com/medicare-hq/medicare-api/pkg/gateway/card"
	"github.com/medicare-hq/medicare-api/pkg/gateway/mpesa"
	"github.com/medicare-hq/medicare-api/pkg/logger"
	"github.com/medicare-hq/medicare-api/pkg/messaging"
	redisbroker "github.com/medicare-hq/medicare-api/pkg/messaging/redis"
	"github.com/medicare-hq/medicare-api/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	l := logger.NewLogger(nil)
	m := metrics.NewMetrics("medicare")

	var cardCfg card.Config
	if err := envconfig.Process("", &cardCfg); err != nil {
		log.Fatal().Err(err).Msg("failed to load card gateway config")
	}
	var mpesaCfg mpesa.Config
	if err := envconfig.Process("", &mpesaCfg); err != nil {
		log.Fatal().Err(err).Msg("failed to load mpesa gateway config")
	}
	var emailCfg email.Config
	if err := envconfig.Process("", &emailCfg); err != nil {
		log.Fatal().Err(err).Msg("failed to load smtp config")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// The broker is optional infrastructure; without it, notifications still
	// go out by email.
	var broker messaging.Broker
	if cfg.Redis.URL != "" {
		zl := log.Logger
		broker, err = redisbroker.NewRedisBroker(cfg.Redis.ToBrokerConfig(), &zl)
		if err != nil {
			log.Warn().Err(err).Msg("message broker unavailable, continuing without it")
			broker = nil
		}
	}

	accountRepo := postgres.NewAccountRepository(db)
	doctorRepo := postgres.NewDoctorRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)
	paymentRepo := postgres.NewPaymentRepository(db)
	prescriptionRepo := postgres.NewPrescriptionRepository(db)
	complaintRepo := postgres.NewComplaintRepository(db)

	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryHours)*time.Hour)
	emailSvc := email.NewSMTPService(emailCfg)
	notifSvc := notification.NewService(emailSvc, broker, m, l)

	cardClient := card.NewClient(cardCfg, m)
	mpesaClient := mpesa.NewClient(mpesaCfg, m)

	authSvc := authsvc.NewService(accountRepo, jwtSvc, notifSvc, l)
	appointmentSvc := appointmentsvc.NewService(appointmentRepo, doctorRepo, accountRepo, notifSvc, m, l, cfg.Booking.DefaultConsultationFee)
	paymentSvc := paymentsvc.NewService(paymentRepo, appointmentRepo, accountRepo, cardClient, notifSvc, m, l)
	mpesaSvc := mpesasvc.NewService(paymentRepo, appointmentRepo, accountRepo, mpesaClient, notifSvc, m, l)
	prescriptionSvc := prescriptionsvc.NewService(prescriptionRepo, appointmentRepo, doctorRepo, l)
	complaintSvc := complaintsvc.NewService(complaintRepo, appointmentRepo, l)
	historySvc := historysvc.NewService(appointmentRepo, prescriptionRepo, accountRepo, l)
	adminSvc := adminsvc.NewService(accountRepo, appointmentRepo, paymentRepo, l)

	authMw := middleware.NewAuthMiddleware(jwtSvc)

	corsCfg := middleware.DefaultCORSConfig()
	if len(cfg.Security.AllowedOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.Security.AllowedOrigins
	}

	r := router.NewRouter(
		authMw,
		authh.NewHandler(authSvc),
		appointmenth.NewHandler(appointmentSvc),
		paymenth.NewHandler(paymentSvc, mpesaSvc),
		prescriptionh.NewHandler(prescriptionSvc),
		complainth.NewHandler(complaintSvc),
		historyh.NewHandler(historySvc),
		adminh.NewHandler(adminSvc),
		healthh.NewHandler(db),
		router.Config{
			RateLimit:        rate.Limit(cfg.RateLimit.RequestsPerSecond),
			RateBurst:        cfg.RateLimit.Burst,
			RateLimitEnabled: cfg.RateLimit.Enabled,
			CORSConfig:       corsCfg,
			MetricsPrefix:    "medicare_http",
			MetricsPath:      cfg.Monitoring.MetricsPath,
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        r.Engine(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	if broker != nil {
		if err := broker.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close broker")
		}
	}
}
