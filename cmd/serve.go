package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"Invoicing/CronJobs"
	"Invoicing/FiberConfig"
	"Invoicing/Models"
	"Invoicing/Notifications"
	"Invoicing/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and the overdue reminder",
	Long: `Start the HTTP API on PORT. Tables are migrated on start and the overdue
reminder runs on REMINDER_SCHEDULE (six-field cron, seconds first).

Required environment variables:
  JWT_SECRET - secret used to sign session tokens`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().Bool("no-reminders", false, "Do not schedule overdue reminders")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("serve")
	noReminders, _ := cmd.Flags().GetBool("no-reminders")

	if err := cfg.RequireServe(); err != nil {
		return err
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB(db)
	if err := Models.Migrate(db); err != nil {
		return err
	}

	views := FiberConfig.Views(cfg.TemplatesDir)
	notifier := Notifications.New(cfg, views)

	if !noReminders {
		reminder := CronJobs.NewOverdueReminder(db, notifier, cfg.ReminderSchedule)
		if err := reminder.Start(); err != nil {
			return err
		}
		defer reminder.Stop()
	}

	app := FiberConfig.New(FiberConfig.Dependencies{
		Config:   cfg,
		DB:       db,
		Views:    views,
		Notifier: notifier,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Server Up...")
		errc <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("server stopped: %w", err)
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		return app.Shutdown()
	}
}
