package cmd

import (
	"github.com/spf13/cobra"

	"Invoicing/CronJobs"
	"Invoicing/FiberConfig"
	"Invoicing/Notifications"
	"Invoicing/logger"
)

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Send overdue reminders once and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer closeDB(db)

		notifier := Notifications.New(cfg, FiberConfig.Views(cfg.TemplatesDir))
		count, err := CronJobs.NewOverdueReminder(db, notifier, cfg.ReminderSchedule).Run(cmd.Context())
		if err != nil {
			return err
		}
		log := logger.WithComponent("remind")
		log.Info().Int("overdue", count).Msg("reminders sent")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(remindCmd)
}
