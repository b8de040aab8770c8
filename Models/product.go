package Models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductUnit string

const (
	UnitPiece ProductUnit = "piece"
	UnitHour  ProductUnit = "hour"
	UnitDay   ProductUnit = "day"
	UnitMonth ProductUnit = "month"
	UnitKg    ProductUnit = "kg"
	UnitMeter ProductUnit = "meter"
)

// ProductUnits lists the accepted units in display order.
var ProductUnits = []ProductUnit{UnitPiece, UnitHour, UnitDay, UnitMonth, UnitKg, UnitMeter}

type Product struct {
	gorm.Model
	Name        string          `json:"name" gorm:"size:100;not null;index"`
	Description string          `json:"description" gorm:"size:500"`
	Category    string          `json:"category" gorm:"size:50;index"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(18,4);not null"`
	Unit        ProductUnit     `json:"unit" gorm:"size:10;not null"`
	TaxRate     decimal.Decimal `json:"tax_rate" gorm:"type:decimal(7,4);not null"`
	IsActive    bool            `json:"is_active"`
	UserID      uint            `json:"user_id" gorm:"index"`
}
