// mailprobed serves the email deliverability verification API.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/optimode/mailprobe"
	"github.com/optimode/mailprobe/internal/config"
	"github.com/optimode/mailprobe/internal/httpapi"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the yaml config file")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("loading configuration")
	}

	log := newLogger(cfg.Log)

	validator := mailprobe.New().
		WithDNS(mailprobe.DNSOptions{
			Timeout:        cfg.DNS.Timeout(),
			CacheTTL:       cfg.DNS.CacheTTL(),
			PublicResolver: cfg.DNS.PublicResolver,
		}).
		WithLists(mailprobe.ListOptions{
			ExtraDisposable: cfg.Lists.ExtraDisposable,
			ExtraTrusted:    cfg.Lists.ExtraTrusted,
		}).
		WithSMTP(mailprobe.SMTPOptions{
			HeloDomain:     cfg.SMTP.HeloDomain,
			MailFrom:       cfg.SMTP.MailFrom,
			Port:           cfg.SMTP.Port,
			ConnectTimeout: cfg.SMTP.ConnectTimeout(),
			CommandTimeout: cfg.SMTP.CommandTimeout(),
			Socks5Addr:     cfg.SMTP.Socks5Addr,
			Socks5User:     cfg.SMTP.Socks5User,
			Socks5Pass:     cfg.SMTP.Socks5Pass,
		}).
		WithProbePolicy(mailprobe.ProbeOptions{
			RejectOnUncertainty: cfg.Probe.RejectOnUncertainty,
			TransientRetries:    cfg.Probe.TransientRetries,
			RetryBackoff:        cfg.Probe.RetryBackoff(),
		}).
		WithRateLimits(mailprobe.RateLimitOptions{
			GlobalPerSecond: cfg.Rate.GlobalPerSecond,
			DomainPerSecond: cfg.Rate.DomainPerSecond,
		})

	router := httpapi.NewRouter(validator, httpapi.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RequestTimeout: cfg.Server.RequestTimeout(),
		Logger:         log,
	})

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.WithField("addr", server.Addr).Info("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server error")
		}
	}()

	<-done
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server shutdown")
	}
	log.Info("server stopped")
}

func newLogger(cfg config.LogConfig) *logrus.Logger {
	log := logrus.New()
	if cfg.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}
