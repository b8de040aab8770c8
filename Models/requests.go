package Models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire format for every date field.
const DateLayout = "2006-01-02"

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ClientRequest struct {
	Name         string       `json:"name" validate:"required,max=100"`
	Email        string       `json:"email" validate:"required,email"`
	Phone        string       `json:"phone" validate:"omitempty,max=50"`
	Address      *Address     `json:"address"`
	Company      string       `json:"company" validate:"omitempty,max=150"`
	TaxID        string       `json:"tax_id" validate:"omitempty,max=50"`
	PaymentTerms PaymentTerms `json:"payment_terms" validate:"omitempty,oneof=immediate net15 net30 net60"`
	Currency     string       `json:"currency" validate:"omitempty,len=3"`
	TaxExempt    bool         `json:"tax_exempt"`
	Notes        string       `json:"notes"`
}

type ProductRequest struct {
	Name        string           `json:"name" validate:"required,max=100"`
	Description string           `json:"description" validate:"omitempty,max=500"`
	Category    string           `json:"category" validate:"omitempty,max=50"`
	Price       *decimal.Decimal `json:"price" validate:"required"`
	Unit        ProductUnit      `json:"unit" validate:"required,oneof=piece hour day month kg meter"`
	TaxRate     *decimal.Decimal `json:"tax_rate"`
	IsActive    *bool            `json:"is_active"`
}

// LineItemRequest uses pointers so an omitted number is told apart from zero.
type LineItemRequest struct {
	ProductID   uint             `json:"product_id" validate:"required"`
	Description string           `json:"description" validate:"omitempty,max=500"`
	Quantity    *decimal.Decimal `json:"quantity" validate:"required"`
	UnitPrice   *decimal.Decimal `json:"unit_price" validate:"required"`
	Discount    *decimal.Decimal `json:"discount"`
	Notes       string           `json:"notes"`
}

// ToLineItem converts the request; Amount is left for the pricing step.
func (r LineItemRequest) ToLineItem(position int) (LineItem, error) {
	if r.Quantity == nil {
		return LineItem{}, fmt.Errorf("line %d: quantity is required", position+1)
	}
	if r.UnitPrice == nil {
		return LineItem{}, fmt.Errorf("line %d: unit price is required", position+1)
	}
	discount := decimal.Zero
	if r.Discount != nil {
		discount = *r.Discount
	}
	return LineItem{
		ProductID:   r.ProductID,
		Description: r.Description,
		Quantity:    *r.Quantity,
		UnitPrice:   *r.UnitPrice,
		Discount:    discount,
		Notes:       r.Notes,
		Position:    position,
	}, nil
}

type ContractRequest struct {
	ClientID     uint              `json:"client_id" validate:"required"`
	Title        string            `json:"title" validate:"required,max=200"`
	Description  string            `json:"description"`
	Lines        []LineItemRequest `json:"lines" validate:"required,min=1,dive"`
	StartDate    string            `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate      string            `json:"end_date" validate:"required,datetime=2006-01-02"`
	Status       ContractStatus    `json:"status" validate:"omitempty,oneof=draft active completed cancelled"`
	Terms        string            `json:"terms"`
	PaymentTerms PaymentTerms      `json:"payment_terms" validate:"omitempty,oneof=immediate net15 net30 net60"`
	Currency     string            `json:"currency" validate:"omitempty,len=3"`
	BillingCycle BillingCycle      `json:"billing_cycle" validate:"omitempty,oneof=one-time monthly quarterly annually"`
	AutoRenew    bool              `json:"auto_renew"`
	RenewalTerm  int               `json:"renewal_term" validate:"gte=0"`
	Notes        string            `json:"notes"`
}

type InvoiceRequest struct {
	ClientID     uint              `json:"client_id" validate:"required"`
	ContractID   *uint             `json:"contract_id"`
	Lines        []LineItemRequest `json:"lines" validate:"required,min=1,dive"`
	IssueDate    string            `json:"issue_date" validate:"omitempty,datetime=2006-01-02"`
	DueDate      string            `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	PaymentTerms PaymentTerms      `json:"payment_terms" validate:"omitempty,oneof=immediate net15 net30 net60"`
	Currency     string            `json:"currency" validate:"omitempty,len=3"`
	Notes        string            `json:"notes"`
}

type GenerateInvoiceRequest struct {
	IssueDate string `json:"issue_date" validate:"omitempty,datetime=2006-01-02"`
	Notes     string `json:"notes"`
}

type StatusRequest struct {
	Status           InvoiceStatus `json:"status" validate:"required"`
	PaymentDate      string        `json:"payment_date" validate:"omitempty,datetime=2006-01-02"`
	PaymentMode      string        `json:"payment_mode" validate:"omitempty,max=30"`
	PaymentMethod    string        `json:"payment_method" validate:"omitempty,max=30"`
	PaymentReference string        `json:"payment_reference" validate:"omitempty,max=100"`
}

type MarkPaidRequest struct {
	PaymentDate      string `json:"payment_date" validate:"required,datetime=2006-01-02"`
	PaymentMode      string `json:"payment_mode" validate:"omitempty,max=30"`
	PaymentMethod    string `json:"payment_method" validate:"omitempty,max=30"`
	PaymentReference string `json:"payment_reference" validate:"omitempty,max=100"`
}

type PaymentRequest struct {
	Amount      *decimal.Decimal `json:"amount" validate:"required"`
	Method      string           `json:"method" validate:"omitempty,max=30"`
	Reference   string           `json:"reference" validate:"omitempty,max=100"`
	PaymentDate string           `json:"payment_date" validate:"required,datetime=2006-01-02"`
	Notes       string           `json:"notes"`
}
