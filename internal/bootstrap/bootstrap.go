package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	artifactservice "artifact-server-go/internal/domain/artifact/service"
	domainauth "artifact-server-go/internal/domain/auth"
	"artifact-server-go/internal/domain/eventbus"
	platformconfig "artifact-server-go/internal/platform/config"
	platformerrors "artifact-server-go/internal/platform/errors"
	platformlogging "artifact-server-go/internal/platform/logging"
	platformobservability "artifact-server-go/internal/platform/observability"
	platformstorage "artifact-server-go/internal/platform/storage"
	httptransport "artifact-server-go/internal/transport/http"
	httpwebapi "artifact-server-go/internal/transport/http/webapi"
)

type stepFn func(context.Context, *appState) error

type initStep struct {
	ID        string
	Title     string
	DependsOn []string
	Kind      platformerrors.Kind
	Execute   stepFn
}

type appState struct {
	config      *platformconfig.Config
	logger      *platformlogging.Logger
	bus         *eventbus.Bus
	tokens      *domainauth.Manager
	artifacts   *artifactservice.ArtifactService
	obsShutdown platformobservability.ShutdownFunc
}

// Run starts the whole service lifecycle: configuration, dependencies and
// graceful shutdown.
func Run(ctx context.Context) error {
	state := &appState{}

	steps := InitGraph()
	if err := executeInitSteps(ctx, steps, state); err != nil {
		shutdownState(state)
		return err
	}
	defer shutdownState(state)

	config := state.config
	logger := state.logger
	if config == nil || logger == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"bootstrap state validation",
			"config/logger not initialised",
		)
	}

	logBootstrapGraph(steps, logger)

	rootCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	signalCtx, stop := signal.NotifyContext(rootCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(rootCtx)

	if _, err := startHTTPServer(state, group, groupCtx); err != nil {
		cancel()
		return err
	}

	if err := waitForShutdown(signalCtx, cancel, logger, group); err != nil {
		return err
	}

	logger.InfoTag("boot", "service stopped")
	return nil
}

// shutdownState releases everything the init steps created. Safe to call on
// a partially initialised state, including after a failed step.
func shutdownState(state *appState) {
	if state == nil {
		return
	}
	if state.bus != nil {
		state.bus.Close()
	}
	if state.obsShutdown != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := state.obsShutdown(shutdownCtx); err != nil {
			state.logger.WarnTag("obs", "instrumentation shutdown failed: %v", err)
		}
		cancel()
	}
	if state.logger != nil {
		state.logger.Close()
	}
}

func logBootstrapGraph(steps []initStep, logger *platformlogging.Logger) {
	if logger == nil {
		return
	}
	logger.InfoTag("boot", "initialisation order")
	for _, step := range steps {
		logger.InfoTag("boot", "  %s", step.Title)
	}
}

func executeInitSteps(ctx context.Context, steps []initStep, state *appState) error {
	if state == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"execute init steps",
			"nil bootstrap state",
		)
	}

	completed := make(map[string]struct{}, len(steps))
	for _, step := range steps {
		for _, dep := range step.DependsOn {
			if _, ok := completed[dep]; !ok {
				return platformerrors.New(
					platformerrors.KindBootstrap,
					step.ID,
					fmt.Sprintf("dependency %s not satisfied", dep),
				)
			}
		}
		if step.Execute == nil {
			return platformerrors.New(
				platformerrors.KindBootstrap,
				step.ID,
				"missing execute function",
			)
		}
		if err := step.Execute(ctx, state); err != nil {
			var typed *platformerrors.Error
			if errors.As(err, &typed) {
				return err
			}

			kind := step.Kind
			if kind == "" {
				kind = platformerrors.KindBootstrap
			}
			return platformerrors.Wrap(kind, step.ID, "bootstrap step failed", err)
		}
		completed[step.ID] = struct{}{}
	}
	return nil
}

// InitGraph declares the dependency-ordered initialisation steps.
func InitGraph() []initStep {
	return []initStep{
		{
			ID:      "config:load",
			Title:   "Load configuration",
			Kind:    platformerrors.KindConfig,
			Execute: loadConfigStep,
		},
		{
			ID:        "logging:init-provider",
			Title:     "Initialise logging provider",
			DependsOn: []string{"config:load"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initLoggingStep,
		},
		{
			ID:        "observability:setup-hooks",
			Title:     "Setup observability hooks",
			DependsOn: []string{"logging:init-provider"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   setupObservabilityStep,
		},
		{
			ID:        "storage:init-database",
			Title:     "Initialise database",
			DependsOn: []string{"config:load", "logging:init-provider"},
			Kind:      platformerrors.KindStorage,
			Execute:   initDatabaseStep,
		},
		{
			ID:        "events:init-bus",
			Title:     "Initialise event bus",
			DependsOn: []string{"logging:init-provider", "storage:init-database"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initEventBusStep,
		},
		{
			ID:        "auth:init-manager",
			Title:     "Initialise token manager",
			DependsOn: []string{"config:load"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initAuthStep,
		},
		{
			ID:        "artifact:init-service",
			Title:     "Initialise artifact service",
			DependsOn: []string{"storage:init-database", "events:init-bus"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initArtifactServiceStep,
		},
	}
}

func loadConfigStep(_ context.Context, state *appState) error {
	config, err := platformconfig.NewLoader().Load()
	if err != nil {
		return err
	}
	state.config = config
	return nil
}

func initLoggingStep(_ context.Context, state *appState) error {
	if state == nil || state.config == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"logging:init-provider",
			"config not loaded",
		)
	}

	logger, err := platformlogging.New(platformlogging.Config{
		Level:    state.config.Log.Level,
		Dir:      state.config.Log.Dir,
		Filename: state.config.Log.File,
	})
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "logging:init-provider", "failed to initialize logging provider", err)
	}

	state.logger = logger
	state.logger.InfoTag("boot", "logging ready [%s]", state.config.Log.Level)
	return nil
}

func setupObservabilityStep(ctx context.Context, state *appState) error {
	if state == nil || state.config == nil || state.logger == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"observability:setup-hooks",
			"config/logger not initialised",
		)
	}

	cfg := platformobservability.Config{
		Enabled: strings.EqualFold(state.config.Log.Level, "debug"),
	}

	shutdown, err := platformobservability.Setup(ctx, cfg, state.logger.Slog())
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "observability:setup-hooks", "failed to setup observability hooks", err)
	}
	state.obsShutdown = shutdown
	return nil
}

func initDatabaseStep(_ context.Context, state *appState) error {
	if err := platformstorage.InitDatabase(state.config.Database.Path); err != nil {
		return platformerrors.Wrap(platformerrors.KindStorage, "storage:init-database", "failed to initialize database", err)
	}
	state.logger.InfoTag("storage", "database ready at %s", state.config.Database.Path)
	return nil
}

func initEventBusStep(_ context.Context, state *appState) error {
	bus := eventbus.New(state.logger)
	recorder := platformstorage.NewEventRepository(platformstorage.GetDB())
	if err := bus.SubscribeRecorder(recorder); err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "events:init-bus", "failed to subscribe event recorder", err)
	}
	state.bus = bus
	return nil
}

func initAuthStep(_ context.Context, state *appState) error {
	tokens, err := domainauth.NewManager(
		state.config.Server.Auth.Secret,
		state.config.Server.Auth.TokenTTL,
	)
	if err != nil {
		return err
	}
	state.tokens = tokens
	return nil
}

func initArtifactServiceStep(_ context.Context, state *appState) error {
	repo := platformstorage.NewArtifactRepository(platformstorage.GetDB())
	state.artifacts = artifactservice.NewArtifactService(repo, state.bus)
	return nil
}

func startHTTPServer(state *appState, g *errgroup.Group, groupCtx context.Context) (*http.Server, error) {
	config := state.config
	logger := state.logger

	httpRouter, err := httptransport.Build(httptransport.Options{
		Config: config,
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}

	webapiService := httpwebapi.NewService(
		config,
		logger,
		state.artifacts,
		state.tokens,
		platformstorage.NewEventRepository(platformstorage.GetDB()),
	)
	webapiService.Register(httpRouter.Engine)

	httpServer := &http.Server{
		Addr:    net.JoinHostPort(config.Server.IP, strconv.Itoa(config.Server.Port)),
		Handler: httpRouter.Engine,
	}

	g.Go(func() error {
		logger.InfoTag("http", "server listening on %s", httpServer.Addr)

		go func() {
			<-groupCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.ErrorTag("http", "server shutdown failed: %v", err)
			} else {
				logger.InfoTag("http", "server shut down gracefully")
			}
		}()

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorTag("http", "server failed: %v", err)
			return err
		}
		return nil
	})

	return httpServer, nil
}

func waitForShutdown(
	ctx context.Context,
	cancel context.CancelFunc,
	logger *platformlogging.Logger,
	g *errgroup.Group,
) error {
	<-ctx.Done()
	logger.InfoTag("boot", "received shutdown signal, cleaning up")

	cancel()

	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			logger.ErrorTag("boot", "error during shutdown: %v", err)
			return err
		}
		logger.InfoTag("boot", "all services stopped")
	case <-time.After(15 * time.Second):
		logger.ErrorTag("boot", "shutdown timed out, forcing exit")
		return errors.New("shutdown timed out")
	}
	return nil
}
