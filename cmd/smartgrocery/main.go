package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"smart-grocery/internal/audio"
	"smart-grocery/internal/bot"
	"smart-grocery/internal/config"
	"smart-grocery/internal/haptic"
	"smart-grocery/internal/logging"
	"smart-grocery/internal/reminder"
	"smart-grocery/internal/repository"
	"smart-grocery/internal/service"
)

const reportTimeout = 30 * time.Second

func main() {
	configPath := flag.String("config", config.GetDefaultConfigPath(), "path to the YAML config file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.RequireTelegram(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	store, err := repository.NewBlobStore(cfg.Storage, logger.Named("storage"))
	if err != nil {
		logger.Fatalw("open storage", "backend", cfg.Storage.Backend, "error", err)
	}
	defer store.Close()

	state := service.NewStateService(store, cfg.Storage.Key, logger.Named("state"))
	if err := state.Load(ctx); err != nil {
		logger.Warnw("starting with default state", "error", err)
	}

	scheduler := service.NewSchedulerService(time.Local, logger.Named("cron"))

	var opener audio.Opener = audio.Unavailable
	if cfg.Audio.Device == config.DeviceCommand {
		opener = audio.CommandOpener(cfg.Audio.Command[0], cfg.Audio.Command[1:]...)
	}
	tone := audio.NewSequencer(opener, cfg.Audio.SampleRate, logger.Named("audio"))

	var vibrator haptic.Vibrator
	if cfg.Haptic.Device == config.DeviceBell {
		vibrator = haptic.NewBell(os.Stdout)
	}
	buzzer := haptic.New(vibrator, logger.Named("haptic"))

	api, err := bot.Connect(cfg.Telegram.Token)
	if err != nil {
		logger.Fatalw("connect telegram", "error", err)
	}

	notifier := bot.NewNotifier(api, state, logger.Named("notify"))
	indicator := bot.NewIndicator(api, state, logger.Named("indicator"))
	go indicator.Run(ctx)

	controller := reminder.NewController(tone, buzzer, state, scheduler, logger.Named("alert"),
		reminder.WithPulseInterval(cfg.Reminder.PulseInterval),
		reminder.WithIndicator(indicator),
	)
	reminders := reminder.NewScheduler(state, controller, scheduler, logger.Named("reminder"),
		reminder.WithPollInterval(cfg.Reminder.PollInterval),
		reminder.WithNotifier(notifier, state.PendingCount),
	)

	telegramBot := bot.New(api, bot.Deps{
		State:     state,
		List:      service.NewListService(state),
		Budget:    service.NewBudgetService(state),
		History:   service.NewHistoryService(state),
		Security:  service.NewSecurityService(state),
		Settings:  service.NewSettingsService(state),
		Report:    service.NewReportService(state),
		Reminders: reminders,
		Alerts:    controller,
		Sound:     tone,
	}, cfg.Telegram.OwnerID, logger.Named("bot"))

	sendReports := func() {
		jobCtx, cancel := context.WithTimeout(ctx, reportTimeout)
		defer cancel()
		if err := telegramBot.SendBudgetReports(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warnw("budget report", "error", err)
		}
	}
	if cfg.Report.Interval > 0 {
		if _, err := scheduler.ScheduleInterval(cfg.Report.Interval, sendReports); err != nil {
			logger.Fatalw("schedule reports", "error", err)
		}
	}
	if cfg.Report.DailyAt != "" {
		if _, err := scheduler.ScheduleDaily(cfg.Report.DailyAt, sendReports); err != nil {
			logger.Fatalw("schedule daily report", "error", err)
		}
	}

	scheduler.Start()
	defer scheduler.Stop()

	if err := reminders.Start(); err != nil {
		logger.Warnw("reminder polling unavailable", "error", err)
	}
	defer controller.Close()
	defer reminders.Stop()

	logger.Infow("smart grocery bot started",
		"storage", cfg.Storage.Backend,
		"audio", cfg.Audio.Device,
		"haptic", cfg.Haptic.Device,
	)
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Errorw("bot stopped with error", "error", err)
	}
	logger.Infow("shutdown complete")
}
