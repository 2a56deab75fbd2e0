package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/pribylovaa/telematics-auth/internal/config"
	"github.com/pribylovaa/telematics-auth/internal/credential"
	"github.com/pribylovaa/telematics-auth/internal/metrics"
	"github.com/pribylovaa/telematics-auth/internal/pkg/log"
	"github.com/pribylovaa/telematics-auth/internal/service"
	"github.com/pribylovaa/telematics-auth/internal/vendor"
)

// Константы для определения окружения.
const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

// run выполняет одно рукопожатие и возвращает код выхода:
// 0 — токен выведен, 1 — ошибка конфигурации или рукопожатия, 2 — неверные флаги.
func run(args []string, stdout io.Writer) int {
	var (
		configPath string
		asJSON     bool
	)
	fs := flag.NewFlagSet("telematics-auth", flag.ContinueOnError)
	fs.StringVar(&configPath, "config", "", "path to config file")
	fs.BoolVar(&asJSON, "json", false, "print the whole login result as JSON")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		// окружение ещё неизвестно: логгер по умолчанию
		lg := setupLogger("")
		attrs := []any{slog.String("err", err.Error())}
		var ve *config.ValidationError
		if errors.As(err, &ve) {
			attrs = append(attrs, slog.String("field", ve.Field))
		}
		lg.Error("config_load_failed", attrs...)
		return 1
	}

	lg := setupLogger(cfg.Env)
	slog.SetDefault(lg)
	lg.Info("starting application",
		slog.String("env", cfg.Env),
		slog.String("vendor", cfg.Vendor.BaseURL),
		slog.Any("account", cfg.Account),
	)

	// Корневой контекст по сигналам.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx = log.Into(ctx, lg)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	client := vendor.New(cfg.Vendor, cfg.Timeouts, credential.New(), vendor.WithMetrics(m))
	svc := service.New(client, client, cfg.Timeouts, service.WithMetrics(m))

	res, err := svc.Authenticate(ctx, cfg.Account.Email, cfg.Account.Password)
	pushMetrics(lg, cfg.Metrics, reg)

	if err != nil {
		stage := "unknown"
		var he *service.HandshakeError
		if errors.As(err, &he) {
			stage = he.Stage.String()
		}
		lg.Error("authentication_failed",
			slog.String("stage", stage),
			slog.String("err", err.Error()),
		)
		return 1
	}

	if err := writeResult(stdout, res, service.InspectAccessToken(res.AccessToken), asJSON); err != nil {
		lg.Error("write_result_failed", slog.String("err", err.Error()))
		return 1
	}

	return 0
}

// pushMetrics отправляет метрики в Pushgateway, если он сконфигурирован.
// Ошибка отправки не влияет на код выхода.
func pushMetrics(lg *slog.Logger, cfg config.MetricsConfig, reg *prometheus.Registry) {
	if cfg.PushURL == "" {
		return
	}

	if err := push.New(cfg.PushURL, cfg.Job).Gatherer(reg).Push(); err != nil {
		lg.Warn("metrics_push_failed",
			slog.String("url", cfg.PushURL),
			slog.String("err", err.Error()),
		)
		return
	}

	lg.Debug("metrics_pushed", slog.String("url", cfg.PushURL))
}

// setupLogger пишет в stderr: stdout занят токеном.
func setupLogger(env string) *slog.Logger {
	var lg *slog.Logger

	switch env {
	case envLocal:
		lg = slog.New(
			slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		lg = slog.New(
			slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		lg = slog.New(
			slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		lg = slog.New(
			slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	}

	return lg
}
