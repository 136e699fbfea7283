package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/edutools/timetable-optimizer/internal/engine"
	"github.com/edutools/timetable-optimizer/internal/repository"
	"github.com/edutools/timetable-optimizer/internal/service"
	"github.com/edutools/timetable-optimizer/pkg/cache"
	"github.com/edutools/timetable-optimizer/pkg/config"
	"github.com/edutools/timetable-optimizer/pkg/database"
	"github.com/edutools/timetable-optimizer/pkg/logger"
	"github.com/edutools/timetable-optimizer/pkg/runner"
)

func main() {
	name := flag.String("name", "weekly-timetable", "name of the schedule to generate")
	scenario := flag.String("scenario", "", "scenario override (HIGH_SCHOOL, ELEMENTARY, UNIVERSITY)")
	seed := flag.Int64("seed", 0, "random seed override; 0 uses configuration")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	var metrics *service.MetricsService
	if cfg.Metrics.Enabled {
		metrics = service.NewMetricsService()
	}

	var reportCache *service.ReportCache
	if cfg.Reports.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, report caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			reportCache = service.NewReportCache(redisClient, cfg.Reports.CacheTTL, metrics, logr)
		}
	}

	courseRepo := repository.NewCourseRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)

	// External constraint-solver integrations register here; without one
	// the pipeline keeps its pre-solver schedules.
	var solver engine.Solver

	optimizationSvc := service.NewOptimizationService(
		courseRepo, teacherRepo, roomRepo, scheduleRepo,
		solver, cfg.Optimizer, cfg.Solver,
		reportCache, metrics, nil, logr,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Metrics.Port), Handler: mux}
		go func() {
			logr.Sugar().Infow("metrics server starting", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logr.Sugar().Errorw("metrics server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	done := make(chan struct{})
	optimizerRunner := runner.New("optimizer", func(runCtx context.Context, run runner.Run) error {
		defer close(done)
		req := run.Payload.(service.OptimizeRequest)
		resp, err := optimizationSvc.Optimize(runCtx, req)
		if err != nil {
			return err
		}
		logr.Sugar().Infow("schedule generated",
			"schedule_id", resp.Schedule.ID,
			"slots", len(resp.Schedule.Slots),
			"quality", resp.Metrics.QualityScore,
			"conflicts", resp.Metrics.ConflictCount,
			"solver_applied", resp.SolverApplied,
			"duration", resp.Duration)
		return nil
	}, runner.Config{Logger: logr})

	optimizerRunner.Start(ctx)

	req := service.OptimizeRequest{Name: *name, Scenario: *scenario, Seed: *seed}
	if err := optimizerRunner.Enqueue(runner.Run{ID: *name, Payload: req}); err != nil {
		logr.Sugar().Fatalw("failed to enqueue optimization run", "error", err)
	}

	select {
	case <-done:
	case <-ctx.Done():
		logr.Sugar().Infow("shutdown requested, cancelling active run")
	}
	optimizerRunner.Stop()
}
