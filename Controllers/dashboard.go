package Controllers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"
	"gorm.io/gorm"

	"Invoicing/Billing"
	"Invoicing/Models"
)

// DashboardController serves the billing overview
type DashboardController struct {
	DB  *gorm.DB
	Now func() time.Time
}

func NewDashboardController(db *gorm.DB) *DashboardController {
	return &DashboardController{DB: db, Now: time.Now}
}

type DashboardStats struct {
	Clients         int64           `json:"clients"`
	ActiveProducts  int64           `json:"active_products"`
	ActiveContracts int64           `json:"active_contracts"`
	Invoices        int64           `json:"invoices"`
	UnpaidInvoices  int64           `json:"unpaid_invoices"`
	OverdueInvoices int64           `json:"overdue_invoices"`
	Revenue         decimal.Decimal `json:"revenue"`
	Outstanding     decimal.Decimal `json:"outstanding"`
	OverdueAmount   decimal.Decimal `json:"overdue_amount"`
}

// Stats GET /api/dashboard/stats
func (dc *DashboardController) Stats(c *fiber.Ctx) error {
	now := dc.Now()
	stats := DashboardStats{Revenue: decimal.Zero, Outstanding: decimal.Zero, OverdueAmount: decimal.Zero}

	counts := []struct {
		dst   *int64
		query *gorm.DB
	}{
		{&stats.Clients, dc.DB.Model(&Models.Client{})},
		{&stats.ActiveProducts, dc.DB.Model(&Models.Product{}).Where("is_active = ?", true)},
		{&stats.ActiveContracts, dc.DB.Model(&Models.Contract{}).Where("is_active = ? AND status = ?", true, Models.ContractActive)},
		{&stats.Invoices, dc.DB.Model(&Models.Invoice{}).Where("status <> ?", Models.InvoiceCancelled)},
	}
	for _, q := range counts {
		if err := q.query.Count(q.dst).Error; err != nil {
			return respondError(c, err)
		}
	}

	// Amounts are summed here rather than in SQL so decimals keep their precision on every driver.
	var invoices []Models.Invoice
	err := dc.DB.Preload("Payments").
		Select("id", "status", "is_paid", "total_amount", "due_date").
		Where("status IN ?", []Models.InvoiceStatus{Models.InvoiceSent, Models.InvoicePaid}).
		Find(&invoices).Error
	if err != nil {
		return respondError(c, err)
	}
	for i := range invoices {
		inv := &invoices[i]
		if inv.IsPaid {
			stats.Revenue = stats.Revenue.Add(inv.TotalAmount)
			continue
		}
		owed := Billing.Outstanding(inv, Billing.SumPayments(inv.Payments))
		stats.UnpaidInvoices++
		stats.Outstanding = stats.Outstanding.Add(owed)
		if Billing.IsOverdue(inv, now) {
			stats.OverdueInvoices++
			stats.OverdueAmount = stats.OverdueAmount.Add(owed)
		}
	}

	return c.JSON(fiber.Map{"data": stats})
}

type RevenuePoint struct {
	Period   string          `json:"period"`
	Revenue  decimal.Decimal `json:"revenue"`
	Invoices int             `json:"invoices"`
}

// revenueBuckets returns the bucket keys, oldest first, and a function mapping a date to its key.
func revenueBuckets(period string, now time.Time) ([]string, func(time.Time) string, error) {
	var keyOf func(time.Time) string
	var step func(time.Time, int) time.Time
	var n int
	switch period {
	case "", "monthly":
		n = 12
		keyOf = func(t time.Time) string { return t.Format("2006-01") }
		step = func(t time.Time, i int) time.Time { return t.AddDate(0, -i, 0) }
	case "quarterly":
		n = 8
		keyOf = func(t time.Time) string { return fmt.Sprintf("%d-Q%d", t.Year(), (int(t.Month())-1)/3+1) }
		step = func(t time.Time, i int) time.Time { return t.AddDate(0, -3*i, 0) }
	case "yearly":
		n = 5
		keyOf = func(t time.Time) string { return t.Format("2006") }
		step = func(t time.Time, i int) time.Time { return t.AddDate(-i, 0, 0) }
	default:
		return nil, nil, Billing.Validation("Revenue", "period must be monthly, quarterly or yearly")
	}

	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	keys := make([]string, n)
	for i := 0; i < n; i++ {
		keys[n-1-i] = keyOf(step(first, i))
	}
	return keys, keyOf, nil
}

// Revenue returns paid revenue grouped by payment date
// GET /api/dashboard/revenue?period=monthly|quarterly|yearly
func (dc *DashboardController) Revenue(c *fiber.Ctx) error {
	keys, keyOf, err := revenueBuckets(c.Query("period", "monthly"), dc.Now().UTC())
	if err != nil {
		return respondError(c, err)
	}

	var invoices []Models.Invoice
	if err := dc.DB.Select("id", "total_amount", "payment_date").Where("is_paid = ?", true).Find(&invoices).Error; err != nil {
		return respondError(c, err)
	}

	points := make(map[string]*RevenuePoint, len(keys))
	series := make([]RevenuePoint, len(keys))
	for i, k := range keys {
		series[i] = RevenuePoint{Period: k, Revenue: decimal.Zero}
		points[k] = &series[i]
	}
	for _, inv := range invoices {
		if inv.PaymentDate == nil {
			continue
		}
		if p, ok := points[keyOf(inv.PaymentDate.UTC())]; ok {
			p.Revenue = p.Revenue.Add(inv.TotalAmount)
			p.Invoices++
		}
	}

	return c.JSON(fiber.Map{"data": series})
}

type ClientRevenue struct {
	ClientID    uint            `json:"client_id"`
	Name        string          `json:"name"`
	Invoices    int             `json:"invoices"`
	Paid        int             `json:"paid"`
	PaymentRate float64         `json:"payment_rate"`
	Revenue     decimal.Decimal `json:"revenue"`
	Outstanding decimal.Decimal `json:"outstanding"`
}

// Clients returns the ten clients with the most paid revenue
// GET /api/dashboard/clients
func (dc *DashboardController) Clients(c *fiber.Ctx) error {
	var invoices []Models.Invoice
	err := dc.DB.Preload("Client").Preload("Payments").
		Select("id", "client_id", "status", "is_paid", "total_amount").
		Where("status <> ?", Models.InvoiceCancelled).
		Find(&invoices).Error
	if err != nil {
		return respondError(c, err)
	}

	byClient := make(map[uint]*ClientRevenue)
	for i := range invoices {
		inv := &invoices[i]
		row, ok := byClient[inv.ClientID]
		if !ok {
			row = &ClientRevenue{ClientID: inv.ClientID, Revenue: decimal.Zero, Outstanding: decimal.Zero}
			if inv.Client != nil {
				row.Name = inv.Client.DisplayName()
			}
			byClient[inv.ClientID] = row
		}
		row.Invoices++
		if inv.IsPaid {
			row.Paid++
			row.Revenue = row.Revenue.Add(inv.TotalAmount)
		} else if inv.Status == Models.InvoiceSent {
			row.Outstanding = row.Outstanding.Add(Billing.Outstanding(inv, Billing.SumPayments(inv.Payments)))
		}
	}

	rows := make([]ClientRevenue, 0, len(byClient))
	for _, r := range byClient {
		r.PaymentRate = float64(r.Paid) / float64(r.Invoices)
		rows = append(rows, *r)
	}
	slices.SortFunc(rows, func(a, b ClientRevenue) int {
		if cmp := b.Revenue.Cmp(a.Revenue); cmp != 0 {
			return cmp
		}
		return int(a.ClientID) - int(b.ClientID)
	})
	if len(rows) > 10 {
		rows = rows[:10]
	}

	return c.JSON(fiber.Map{"data": rows})
}

// StatusSummary counts invoices per display status, overdue included
// GET /api/dashboard/status-summary
func (dc *DashboardController) StatusSummary(c *fiber.Ctx) error {
	now := dc.Now()
	var invoices []Models.Invoice
	if err := dc.DB.Select("id", "status", "is_paid", "due_date").Find(&invoices).Error; err != nil {
		return respondError(c, err)
	}

	summary := map[Models.InvoiceStatus]int{
		Models.InvoiceDraft:     0,
		Models.InvoiceSent:      0,
		Models.InvoiceOverdue:   0,
		Models.InvoicePaid:      0,
		Models.InvoiceCancelled: 0,
	}
	for i := range invoices {
		summary[Billing.EffectiveStatus(&invoices[i], now)]++
	}
	return c.JSON(fiber.Map{"data": summary})
}
