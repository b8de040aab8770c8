package Slack

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/slack-go/slack"

	"Invoicing/Exports"
	"Invoicing/Models"
	"Invoicing/logger"
)

// API is the subset of *slack.Client the notifier uses.
type API interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
	AddPinContext(ctx context.Context, channel string, item slack.ItemRef) error
	ListPinsContext(ctx context.Context, channel string) ([]slack.Item, *slack.Paging, error)
	RemovePinContext(ctx context.Context, channel string, item slack.ItemRef) error
}

// digestMarker identifies the pinned overdue digest so the next one can replace it.
const digestMarker = ":receipt: Overdue invoices"

// Notifier posts billing events to a Slack channel.
// Required bot token scopes: chat:write, pins:read, pins:write.
type Notifier struct {
	api     API
	channel string
	log     zerolog.Logger
}

func NewNotifier(token, channel string) *Notifier {
	return NewNotifierWithAPI(slack.New(token), channel)
}

func NewNotifierWithAPI(api API, channel string) *Notifier {
	return &Notifier{api: api, channel: channel, log: logger.WithComponent("slack")}
}

// InvoicePaid posts a one-line paid notice.
func (n *Notifier) InvoicePaid(ctx context.Context, inv *Models.Invoice) error {
	_, _, err := n.api.PostMessageContext(ctx, n.channel, slack.MsgOptionText(PaidMessage(inv), false))
	if err != nil {
		return fmt.Errorf("failed to post paid notice for %s: %w", inv.InvoiceNumber, err)
	}
	return nil
}

// InvoicesOverdue posts a digest of overdue invoices and pins it in place of
// the previous digest. An empty list unpins the old digest only.
func (n *Notifier) InvoicesOverdue(ctx context.Context, invoices []Models.Invoice, now time.Time) error {
	if err := n.unpinPreviousDigest(ctx); err != nil {
		n.log.Warn().Err(err).Msg("could not remove previous digest pin")
	}
	if len(invoices) == 0 {
		return nil
	}

	_, ts, err := n.api.PostMessageContext(ctx, n.channel, slack.MsgOptionText(DigestMessage(invoices, now), false))
	if err != nil {
		return fmt.Errorf("failed to post overdue digest: %w", err)
	}
	if err := n.api.AddPinContext(ctx, n.channel, slack.NewRefToMessage(n.channel, ts)); err != nil {
		return fmt.Errorf("failed to pin overdue digest: %w", err)
	}
	return nil
}

func (n *Notifier) unpinPreviousDigest(ctx context.Context) error {
	items, _, err := n.api.ListPinsContext(ctx, n.channel)
	if err != nil {
		return err
	}
	for _, item := range items {
		if item.Message == nil || !strings.HasPrefix(item.Message.Text, digestMarker) {
			continue
		}
		if err := n.api.RemovePinContext(ctx, n.channel, slack.NewRefToMessage(n.channel, item.Message.Timestamp)); err != nil {
			return err
		}
	}
	return nil
}

// PaidMessage is the text posted when an invoice is paid.
func PaidMessage(inv *Models.Invoice) string {
	client := "unknown client"
	if inv.Client != nil {
		client = inv.Client.DisplayName()
	}
	return fmt.Sprintf(":white_check_mark: Invoice *%s* for %s was paid: %s",
		inv.InvoiceNumber, client, Exports.FormatMoney(inv.TotalAmount, inv.Currency))
}

// DigestMessage lists overdue invoices, oldest due date first as given.
func DigestMessage(invoices []Models.Invoice, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d) as of %s\n", digestMarker, len(invoices), Exports.FormatDate(now))
	for i := range invoices {
		inv := &invoices[i]
		client := ""
		if inv.Client != nil {
			client = inv.Client.DisplayName()
		}
		days := int(now.Sub(inv.DueDate).Hours() / 24)
		fmt.Fprintf(&b, "• %s %s %s, due %s (%d days late)\n",
			inv.InvoiceNumber, client, Exports.FormatMoney(inv.TotalAmount, inv.Currency), Exports.FormatDate(inv.DueDate), days)
	}
	return strings.TrimRight(b.String(), "\n")
}
