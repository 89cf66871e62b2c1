package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/example/studyplanner/internal/bot"
	"github.com/example/studyplanner/internal/config"
	"github.com/example/studyplanner/internal/database"
	"github.com/example/studyplanner/internal/events"
	"github.com/example/studyplanner/internal/excel"
	"github.com/example/studyplanner/internal/httpapi"
	"github.com/example/studyplanner/internal/logger"
	"github.com/example/studyplanner/internal/scheduler"
	"github.com/example/studyplanner/internal/study"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logg, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logg.Sync()

	if err := run(cfg, logg); err != nil {
		logg.Error("studyplanner stopped with error", "error", err)
		logg.Sync()
		os.Exit(1)
	}
	logg.Info("studyplanner stopped")
}

func run(cfg *config.Config, logg *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	db, err := database.Connect(cfg.DBType, cfg.DBURL)
	if err != nil {
		return err
	}
	defer db.Close()
	logg.Info("connected to database", "type", cfg.DBType)

	bus, err := events.Open(ctx, logg, cfg.RedisAddr, cfg.RedisChannel)
	if err != nil {
		return err
	}
	defer bus.Close()

	users := database.NewUserRepository(db)
	svc := study.New(study.Repositories{
		Users:     users,
		Subjects:  database.NewSubjectRepository(db),
		Topics:    database.NewTopicRepository(db),
		Revisions: database.NewRevisionRepository(db),
		Stats:     database.NewStatisticsRepository(db),
		Notes:     database.NewNoteRepository(db),
	}, bus, logg, study.Config{
		EaseFloor:    cfg.EaseFloor,
		MaxInterval:  cfg.MaxInterval,
		AutoFollowUp: cfg.AutoFollowUp,
		Location:     loc,
	})

	var reminders httpapi.ReminderChecker
	if cfg.EnableScheduler {
		opts := scheduler.DefaultOptions()
		opts.Interval = cfg.ReminderInterval
		opts.StartHour = cfg.NotificationStartHour
		opts.EndHour = cfg.NotificationEndHour
		opts.Location = loc
		sched := scheduler.New(users, svc, bus, logg, opts)
		if err := sched.Start(ctx); err != nil {
			return err
		}
		defer sched.Stop()
		reminders = sched
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.TelegramToken != "" {
		api, err := bot.Connect(cfg.TelegramToken)
		if err != nil {
			return err
		}
		logg.Info("authorized on telegram", "account", api.Self.UserName)
		b := bot.New(api, svc, logg)
		if err := b.ForwardEvents(gctx, bus); err != nil {
			return err
		}
		g.Go(func() error { return b.Run(gctx) })
	} else {
		logg.Warn("TELEGRAM_BOT_TOKEN is not set, running without the bot")
	}

	server := httpapi.NewServer(cfg.HTTPAddr, httpapi.RouterConfig{
		Handler:     httpapi.NewHandler(svc, excel.NewImporter(svc, excel.DefaultImportConfig()), reminders, logg),
		Log:         logg,
		CORSOrigins: cfg.CORSOrigins,
	})
	g.Go(func() error {
		logg.Info("http server listening", "addr", cfg.HTTPAddr)
		return server.Run()
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		logg.Info("shutting down")
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
