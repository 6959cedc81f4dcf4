package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/studypilot/assessment-service/internal/handlers"
	"github.com/studypilot/assessment-service/internal/repositories"
	"github.com/studypilot/assessment-service/internal/repositories/memory"
	"github.com/studypilot/assessment-service/internal/repositories/postgres"
	"github.com/studypilot/assessment-service/internal/services"
	"github.com/studypilot/assessment-service/internal/utils"
	"github.com/studypilot/assessment-service/internal/validator"
	"github.com/studypilot/assessment-service/pkg"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd)
	},
}

func init() {
	serveCmd.Flags().String("port", "", "Listen port (overrides PORT)")
}

func runServer(cmd *cobra.Command) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	if port, _ := cmd.Flags().GetString("port"); port != "" {
		a.cfg.Port = port
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	grader, closeCache, err := a.semanticGrader(ctx)
	if err != nil {
		return fmt.Errorf("init grader: %w", err)
	}
	defer closeCache()

	quizRepo, err := a.quizRepository()
	if err != nil {
		return err
	}

	publisher, err := a.cfg.Events.CreateEventPublisher(a.logger)
	if err != nil {
		return fmt.Errorf("init event publisher: %w", err)
	}
	defer publisher.Close()

	serviceManager := services.NewServiceManager(services.Dependencies{
		QuizRepo:      quizRepo,
		Assessor:      a.orchestrator(grader),
		Grader:        grader,
		GraderTimeout: a.cfg.Grading.DelegateTimeout,
		Publisher:     publisher,
		Validator:     validator.New(),
		Logger:        a.logger,
		Metrics:       a.metrics,
	})

	go a.sweepSessions(ctx, serviceManager.Session())

	if a.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	appLogger := utils.NewSlogLogger(a.logger)
	router := gin.New()
	router.Use(gin.Recovery(), utils.RequestLogger(appLogger))
	handlers.NewHandlerManager(serviceManager, appLogger, a.registry).SetupRoutes(router)

	server := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("Starting server", "port", a.cfg.Port, "environment", a.cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

// quizRepository uses postgres when DATABASE_URL is set and keeps quizzes
// in memory otherwise.
func (a *app) quizRepository() (repositories.QuizRepository, error) {
	if a.cfg.DatabaseURL == "" {
		a.logger.Warn("DATABASE_URL not set, quizzes are kept in memory")
		return memory.NewQuizMemory(), nil
	}
	db, err := pkg.InitDatabase(a.cfg, a.logger)
	if err != nil {
		return nil, err
	}
	return postgres.NewQuizPostgreSQL(db), nil
}

// sweepSessions drops idle sessions until ctx ends.
func (a *app) sweepSessions(ctx context.Context, sessions services.SessionService) {
	idle := a.cfg.Sessions.IdleTimeout
	if idle <= 0 {
		return
	}
	ticker := time.NewTicker(a.cfg.Sessions.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			sessions.Sweep(ctx, now.Add(-idle))
		}
	}
}
