package Notifications

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"Invoicing/Config"
	"Invoicing/Exports"
	"Invoicing/Models"
	"Invoicing/Slack"
	"Invoicing/email"
)

// Notifier is told about paid and overdue invoices. Implementations must not
// change the invoices they are given.
type Notifier interface {
	InvoicePaid(ctx context.Context, inv *Models.Invoice) error
	InvoicesOverdue(ctx context.Context, invoices []Models.Invoice, now time.Time) error
}

// Multi fans each event out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) InvoicePaid(ctx context.Context, inv *Models.Invoice) error {
	var errs []error
	for _, n := range m {
		errs = append(errs, n.InvoicePaid(ctx, inv))
	}
	return errors.Join(errs...)
}

func (m Multi) InvoicesOverdue(ctx context.Context, invoices []Models.Invoice, now time.Time) error {
	var errs []error
	for _, n := range m {
		errs = append(errs, n.InvoicesOverdue(ctx, invoices, now))
	}
	return errors.Join(errs...)
}

// Noop discards every event.
type Noop struct{}

func (Noop) InvoicePaid(context.Context, *Models.Invoice) error { return nil }

func (Noop) InvoicesOverdue(context.Context, []Models.Invoice, time.Time) error { return nil }

// New builds the notifiers enabled by cfg.
func New(cfg *Config.Config, views email.Renderer) Notifier {
	var m Multi
	if cfg.EmailEnabled() {
		m = append(m, email.NewMailer(Models.EmailConfig{
			SMTPServer: cfg.SMTPServer,
			SMTPPort:   cfg.SMTPPort,
			Username:   cfg.SMTPUsername,
			Password:   cfg.SMTPPassword,
			FromEmail:  cfg.SMTPFromEmail,
			FromName:   cfg.SMTPFromName,
			TLSEnabled: cfg.SMTPTLS,
			ArchiveBCC: cfg.SMTPArchiveBCC,
		}, views, Company(cfg)))
	}
	if cfg.SlackEnabled() {
		m = append(m, Slack.NewNotifier(cfg.SlackBotToken, cfg.SlackChannel))
	}
	log.Info().Bool("email", cfg.EmailEnabled()).Bool("slack", cfg.SlackEnabled()).Msg("notifications configured")
	if len(m) == 0 {
		return Noop{}
	}
	return m
}

// Company is the issuer block derived from configuration.
func Company(cfg *Config.Config) Exports.CompanyInfo {
	return Exports.CompanyInfo{Name: cfg.CompanyName, LogoPath: cfg.LogoPath, Currency: cfg.Currency}
}
