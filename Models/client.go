package Models

import (
	"encoding/json"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Client struct {
	gorm.Model
	Name         string         `json:"name" gorm:"size:100;not null;index"`
	Email        string         `json:"email" gorm:"size:255;uniqueIndex;not null"`
	Phone        string         `json:"phone" gorm:"size:50"`
	Address      datatypes.JSON `json:"address"`
	Company      string         `json:"company" gorm:"size:150"`
	TaxID        string         `json:"tax_id" gorm:"size:50"`
	PaymentTerms PaymentTerms   `json:"payment_terms" gorm:"size:20;default:net30"`
	Currency     string         `json:"currency" gorm:"size:3"`
	TaxExempt    bool           `json:"tax_exempt"`
	Notes        string         `json:"notes" gorm:"type:text"`
	UserID       uint           `json:"user_id" gorm:"index"`
}

// Address is the structured form stored in Client.Address.
type Address struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zip_code,omitempty"`
	Country string `json:"country,omitempty"`
}

// UnmarshalJSON accepts either an address object or a single line of text.
func (a *Address) UnmarshalJSON(data []byte) error {
	var line string
	if err := json.Unmarshal(data, &line); err == nil {
		*a = Address{Street: strings.TrimSpace(line)}
		return nil
	}
	type plain Address
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*a = Address(p)
	return nil
}

// Lines renders the address for documents, skipping empty parts.
func (a Address) Lines() []string {
	var lines []string
	if a.Street != "" {
		lines = append(lines, a.Street)
	}
	cityLine := strings.TrimSpace(strings.Join(nonEmpty(a.City, a.State, a.ZipCode), " "))
	if cityLine != "" {
		lines = append(lines, cityLine)
	}
	if a.Country != "" {
		lines = append(lines, a.Country)
	}
	return lines
}

// ParsedAddress decodes the stored JSON column; a malformed value yields an empty address.
func (c Client) ParsedAddress() Address {
	var a Address
	if len(c.Address) == 0 {
		return a
	}
	_ = json.Unmarshal(c.Address, &a)
	return a
}

// DisplayName prefers the company name for documents.
func (c Client) DisplayName() string {
	if c.Company != "" {
		return c.Company
	}
	return c.Name
}

func nonEmpty(parts ...string) []string {
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
