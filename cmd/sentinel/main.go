// Command sentinel runs the incident-response dispatcher: it polls
// configured alert sources, matches alerts to incident cards, and invokes
// the agent orchestrator for each admitted notification. Adapted from
// tarsy's cmd/tarsy/main.go wiring style (stdlib flag, godotenv, gin
// health endpoint, log/slog).
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/jneo8/mcp-sentinel/pkg/agent"
	"github.com/jneo8/mcp-sentinel/pkg/config"
	"github.com/jneo8/mcp-sentinel/pkg/dispatcher"
	"github.com/jneo8/mcp-sentinel/pkg/prompt"
	"github.com/jneo8/mcp-sentinel/pkg/sinks"
	"github.com/jneo8/mcp-sentinel/pkg/toolserver"
	"github.com/jneo8/mcp-sentinel/pkg/version"
	"github.com/jneo8/mcp-sentinel/pkg/watcher"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 || args[0] != "run" {
		fmt.Fprintln(os.Stderr, "usage: sentinel run [--config path] [--log-level LEVEL] [--debug] [--no-healthz]")
		return 2
	}

	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "config.yaml", "path to the sentinel configuration file")
	logLevel := fs.String("log-level", "INFO", "log level: DEBUG, INFO, WARN, ERROR")
	debug := fs.Bool("debug", false, "force DEBUG logging and add source file:line to log records (no stack traces are printed)")
	noHealthz := fs.Bool("no-healthz", false, "disable the /healthz endpoint")
	healthzAddr := fs.String("healthz-addr", ":8080", "address for the /healthz endpoint")
	if err := fs.Parse(args[1:]); err != nil {
		return 2
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env file", "error", err)
	}

	setupLogging(*logLevel, *debug)
	slog.Info("starting", "app", version.Full())

	settings, err := config.Load(*configPath)
	if err != nil {
		slog.Error("configuration error", "error", err)
		return 1
	}

	sinkBus := sinks.NewDispatcher(settings.Sinks)
	registry := toolserver.NewRegistry(settings.ToolServers)
	orchestrator := agent.NewOrchestrator(prompt.NewRepository(), prompt.NewRenderer(), registry, sinkBus, agent.NewStubRuntime(), settings.Runtime)
	incidentDispatcher := dispatcher.New(settings.IncidentCards, settings.Dispatcher, orchestrator)
	watcherService := watcher.NewService(settings.Watchers, settings.ResourceDefinitions, incidentDispatcher)

	incidentDispatcher.Start()
	watcherService.Start()

	var healthzServer *http.Server
	if !*noHealthz {
		healthzServer = startHealthzServer(*healthzAddr, incidentDispatcher, watcherService)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	slog.Info("shutdown signal received, stopping")

	// Watcher service stops first so no new notifications are admitted
	// while the dispatcher drains its workers.
	watcherService.Stop()
	incidentDispatcher.Stop()

	if healthzServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := healthzServer.Shutdown(shutdownCtx); err != nil {
			slog.Warn("healthz server shutdown error", "error", err)
		}
	}

	slog.Info("shutdown complete")
	return 0
}

func setupLogging(levelName string, debug bool) {
	var level slog.Level
	if debug {
		level = slog.LevelDebug
	} else if err := level.UnmarshalText([]byte(levelName)); err != nil {
		level = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug,
	})
	slog.SetDefault(slog.New(handler))
}

// healthReporter exposes the dispatcher's liveness snapshot to the healthz
// handler without coupling main to the dispatcher package's internals.
type healthReporter interface {
	Status() dispatcher.Status
}

// watcherReporter exposes per-watcher liveness snapshots to the healthz
// handler.
type watcherReporter interface {
	Statuses() []watcher.Status
}

func startHealthzServer(addr string, d healthReporter, w watcherReporter) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "ok",
			"app":        version.AppName,
			"dispatcher": d.Status(),
			"watchers":   w.Statuses(),
		})
	})

	server := &http.Server{Addr: addr, Handler: router}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("healthz server failed", "error", err)
		}
	}()
	slog.Info("healthz endpoint listening", "addr", addr)
	return server
}
