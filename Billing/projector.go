package Billing

import (
	"time"

	"github.com/shopspring/decimal"

	"Invoicing/Models"
)

const defaultDueDays = 30

// DueDateOffset returns the number of days between issue and due date.
func DueDateOffset(terms Models.PaymentTerms) int {
	switch terms {
	case Models.TermsImmediate:
		return 0
	case Models.TermsNet15:
		return 15
	case Models.TermsNet30:
		return 30
	case Models.TermsNet60:
		return 60
	}
	return defaultDueDays
}

// DueDate computes the due date from the issue date and payment terms.
func DueDate(issueDate time.Time, terms Models.PaymentTerms) time.Time {
	return issueDate.AddDate(0, 0, DueDateOffset(terms))
}

// ProjectInvoiceFromContract builds a draft invoice from an active contract.
// products must contain every product the contract references. The returned
// invoice has no number; one is assigned when it is saved.
func ProjectInvoiceFromContract(contract *Models.Contract, products []Models.Product, issueDate time.Time, taxRate decimal.Decimal) (*Models.Invoice, error) {
	const op = "ProjectInvoiceFromContract"
	if contract == nil {
		return nil, NotFound(op, "contract not found")
	}
	if !contract.IsActive {
		return nil, Conflict(op, "contract %s is not active", contract.ContractNumber)
	}
	if contract.Status == Models.ContractCancelled {
		return nil, Conflict(op, "contract %s is cancelled", contract.ContractNumber)
	}
	if len(contract.Lines) == 0 {
		return nil, FailedPrecondition(op, "contract %s has no lines", contract.ContractNumber)
	}
	if err := ValidateTaxRate(taxRate); err != nil {
		return nil, err
	}

	byID := make(map[uint]Models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	lines := make([]Models.InvoiceLine, 0, len(contract.Lines))
	for i, cl := range contract.Lines {
		product, ok := byID[cl.ProductID]
		if !ok {
			return nil, FailedPrecondition(op, "product %d referenced by line %d does not exist", cl.ProductID, i+1)
		}
		if !product.IsActive {
			return nil, FailedPrecondition(op, "product %d (%s) is inactive", product.ID, product.Name)
		}

		// Contract prices are copied as is; zero is a free line.
		item := cl.LineItem
		if item.Description == "" {
			item.Description = product.Name
		}
		item.Position = i
		if err := ValidateLine(i, item); err != nil {
			return nil, err
		}
		lines = append(lines, Models.InvoiceLine{LineItem: item})
	}

	contractID := contract.ID
	inv := &Models.Invoice{
		ContractID:   &contractID,
		ClientID:     contract.ClientID,
		Client:       contract.Client,
		Lines:        lines,
		Status:       Models.InvoiceDraft,
		IssueDate:    issueDate,
		DueDate:      DueDate(issueDate, contract.PaymentTerms),
		PaymentTerms: contract.PaymentTerms,
		Currency:     contract.Currency,
		UserID:       contract.UserID,
	}
	PriceInvoice(inv, taxRate)
	return inv, nil
}
