package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	echoapi "github.com/devnest/devnest/apps/api/echo"
	"github.com/devnest/devnest/apps/shared"
	"github.com/devnest/devnest/core"
	"github.com/devnest/devnest/core/registration"
	emailsvc "github.com/devnest/devnest/services/email"
	logsvc "github.com/devnest/devnest/services/logger"
	"github.com/devnest/devnest/services/notify"
	"github.com/devnest/devnest/storage"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)
	defer logger.Wait()

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	// set up events & stores
	catalog, err := shared.LoadCatalog(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("loading events: %v", err), err)
	}

	backends, closeBackends, err := shared.OpenBackends(context.Background(), conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening %s backend: %v", conf.Storage.DocumentBackend, err), err)
	}
	defer func() {
		if err = closeBackends(); err != nil {
			dbLogger.Error("Failed to close", err)
		}
	}()

	repos, err := storage.NewRepositories(catalog, conf.Storage.DocumentBackend, backends)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up repositories: %v", err), err)
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	notifiers := []registration.Notifier{emailsvc.NewAcknowledgementNotifier(mailSvc)}
	if alerter := newAlerter(conf, logger); !alerter.Empty() {
		notifiers = append(notifiers, alerter)
	}

	validate, translator := shared.NewValidator()

	regSvc := registration.NewService(registration.Options{
		Catalog:   catalog,
		Repos:     repos,
		WorkDir:   conf.WorkDir,
		UploadDir: conf.Storage.UploadDir,
		Validate:  validate,
		Logger:    logger,
		Notifiers: notifiers,
	})

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	core.ParseEmailTemplates(logger)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.
	// /metrics - Prometheus collectors.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("documentBackend").Set(conf.Storage.DocumentBackend)

	metrics := echoapi.NewMetrics(prometheus.DefaultRegisterer)
	http.Handle("/metrics", promhttp.Handler())

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:            conf,
			Logger:          logger,
			RegistrationSvc: regSvc,
			Translator:      translator,
			Metrics:         metrics,
		},
	)
	server.Start()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

// newAlerter returns an Alerter over every organiser channel configured.
// A channel that fails to connect is logged and skipped.
func newAlerter(conf *core.Config, logger core.Logger) *notify.Alerter {
	var senders []notify.Sender

	if conf.Telegram.Token != "" && len(conf.Telegram.ChatIDs) > 0 {
		s, err := notify.NewTelegramSender(conf.Telegram.Token, conf.Telegram.ChatIDs)
		if err != nil {
			logger.Error(fmt.Sprintf("setting up telegram alerts: %v", err), err)
		} else {
			senders = append(senders, s)
		}
	}

	if conf.Discord.WebhookID != "" && conf.Discord.WebhookToken != "" {
		s, err := notify.NewDiscordSender(conf.Discord.WebhookID, conf.Discord.WebhookToken)
		if err != nil {
			logger.Error(fmt.Sprintf("setting up discord alerts: %v", err), err)
		} else {
			senders = append(senders, s)
		}
	}

	return notify.NewAlerter(logger, senders...)
}
