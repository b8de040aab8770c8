package Exports

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"Invoicing/Billing"
)

// CompanyInfo is the issuer block printed on documents.
type CompanyInfo struct {
	Name     string
	LogoPath string
	Currency string
}

const displayDate = "Jan 02, 2006"

var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
}

// FormatMoney renders 1234.5 as "$1,234.50"; unknown currencies get a code prefix.
func FormatMoney(amount decimal.Decimal, currency string) string {
	fixed := Billing.RoundMoney(amount).StringFixed(Billing.MoneyPlaces)
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}
	whole, frac, _ := strings.Cut(fixed, ".")

	var grouped strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(r)
	}

	number := grouped.String() + "." + frac
	if symbol, ok := currencySymbols[strings.ToUpper(currency)]; ok {
		return sign + symbol + number
	}
	if currency == "" {
		return sign + number
	}
	return sign + strings.ToUpper(currency) + " " + number
}

// FormatDate renders a date for documents; the zero time renders empty.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(displayDate)
}

func formatDatePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return FormatDate(*t)
}
