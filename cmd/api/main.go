package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/khanhle/gocab/configs"
	"github.com/khanhle/gocab/internal/dispatch"
	"github.com/khanhle/gocab/internal/infra/web/handler"
	"github.com/khanhle/gocab/internal/infra/web/middleware"
	"github.com/khanhle/gocab/internal/registry"
	"github.com/khanhle/gocab/pkg/logger"
	"github.com/khanhle/gocab/pkg/metrics"
)

func main() {
	config, err := configs.LoadConfig(".")
	if err != nil {
		panic(err)
	}

	log := logger.NewLogger("gocab-api", config.IsProd())
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	promReg := prometheus.NewRegistry()
	m := metrics.NewPrometheusMetrics(promReg, "gocab-api")

	reg := registry.New(config.GuardTimeout(), log)
	pipeline := dispatch.New(reg, dispatch.Options{
		Workers:          config.DispatchWorkers,
		QueuePoll:        config.QueuePoll(),
		MaxMatchDistance: config.MaxMatchDistance,
		FareRatePerUnit:  config.FareRatePerUnit,
		Logger:           log,
		Metrics:          m,
	})
	pipeline.Start(ctx)

	riderHandler := handler.NewRiderHandler(reg)
	driverHandler := handler.NewDriverHandler(reg)
	rideHandler := handler.NewRideHandler(pipeline)

	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: config.RateLimitRPS,
		Burst:             config.RateLimitBurst,
	})

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.MetricsWrapper(m))
	r.Use(limiter.Handler(log))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/riders", riderHandler.Create)
		r.Get("/riders/{name}", riderHandler.Get)
		r.Delete("/riders/{name}", riderHandler.Delete)
		r.Put("/riders/{name}/location", riderHandler.UpdateLocation)

		r.Post("/drivers", driverHandler.Create)
		r.Get("/drivers", driverHandler.List)
		r.Get("/drivers/{name}", driverHandler.Get)
		r.Delete("/drivers/{name}", driverHandler.Delete)
		r.Put("/drivers/{name}/location", driverHandler.UpdateLocation)
		r.Put("/drivers/{name}/availability", driverHandler.UpdateAvailability)

		r.Post("/rides", rideHandler.Submit)
		r.Get("/rides/{id}", rideHandler.Get)
	})
	r.Method(http.MethodGet, "/healthz",
		handler.NewHealthHandler("gocab-api", handler.WithDispatch(pipeline)))
	r.Method(http.MethodGet, "/metrics",
		promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:    ":" + config.WebServerPort,
		Handler: r,
	}

	go func() {
		log.Info(ctx, "http server listening", logger.String("port", config.WebServerPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "http server failed", logger.WithError(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info(context.Background(), "shutting down")

	shutCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout())
	defer cancel()
	if err := server.Shutdown(shutCtx); err != nil {
		log.Warn(context.Background(), "http server shutdown incomplete", logger.WithError(err))
	}

	if !pipeline.Stop(config.ShutdownTimeout()) {
		log.Warn(context.Background(), "dispatch workers did not stop within bound",
			logger.Duration("bound", config.ShutdownTimeout()))
	}
	log.Info(context.Background(), "bye")
}
