package Controllers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"Invoicing/Billing"
	"Invoicing/Exports"
	"Invoicing/Models"
	"Invoicing/middleware"
)

// ContractController handles contract endpoints and invoice generation
type ContractController struct {
	DB      *gorm.DB
	TaxRate decimal.Decimal
	Company Exports.CompanyInfo
	Now     func() time.Time
}

func NewContractController(db *gorm.DB, taxRate decimal.Decimal, company Exports.CompanyInfo) *ContractController {
	return &ContractController{DB: db, TaxRate: taxRate, Company: company, Now: time.Now}
}

func loadContract(db *gorm.DB, id uint) (*Models.Contract, error) {
	var contract Models.Contract
	err := db.Preload("Client").
		Preload("Lines", linesByPosition).
		Preload("Lines.Product").
		First(&contract, id).Error
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

func loadClient(db *gorm.DB, id uint) (*Models.Client, error) {
	var client Models.Client
	if err := db.First(&client, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, Billing.NotFound("loadClient", "client %d not found", id)
		}
		return nil, err
	}
	return &client, nil
}

// applyContractRequest validates req and prices the contract from it.
func (cc *ContractController) applyContractRequest(req Models.ContractRequest, contract *Models.Contract) error {
	const op = "applyContractRequest"
	lines, err := buildLines(req.Lines)
	if err != nil {
		return err
	}
	start, err := parseDate(req.StartDate, time.Time{})
	if err != nil {
		return err
	}
	end, err := parseDate(req.EndDate, time.Time{})
	if err != nil {
		return err
	}
	if !start.Before(end) {
		return Billing.Validation(op, "start date must be before end date")
	}
	client, err := loadClient(cc.DB, req.ClientID)
	if err != nil {
		return err
	}
	if err := checkProducts(cc.DB, lines); err != nil {
		return err
	}

	contract.ClientID = client.ID
	contract.Client = client
	contract.Title = req.Title
	contract.Description = req.Description
	contract.StartDate, contract.EndDate = start, end
	if req.Status != "" {
		contract.Status = req.Status
	} else if contract.Status == "" {
		contract.Status = Models.ContractActive
	}
	contract.Terms = req.Terms
	contract.PaymentTerms = req.PaymentTerms
	if contract.PaymentTerms == "" {
		contract.PaymentTerms = client.PaymentTerms
	}
	contract.Currency = firstNonEmpty(req.Currency, client.Currency, cc.Company.Currency)
	contract.BillingCycle = req.BillingCycle
	if contract.BillingCycle == "" {
		contract.BillingCycle = Models.CycleOneTime
	}
	contract.AutoRenew = req.AutoRenew
	contract.RenewalTerm = req.RenewalTerm
	contract.Notes = req.Notes

	contract.Lines = make([]Models.ContractLine, len(lines))
	for i, l := range lines {
		contract.Lines[i] = Models.ContractLine{ContractID: contract.ID, LineItem: l}
	}
	Billing.PriceContract(contract, Billing.TaxRateFor(client, cc.TaxRate))
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// GetContracts GET /api/contracts?page=1&limit=10&q=&status=&client_id=
func (cc *ContractController) GetContracts(c *fiber.Ctx) error {
	page, limit, offset := paginate(c)

	query := cc.DB.Model(&Models.Contract{})
	if q := c.Query("q"); q != "" {
		like := "%" + q + "%"
		query = query.Where("contract_number LIKE ? OR title LIKE ?", like, like)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if clientID := c.Query("client_id"); clientID != "" {
		query = query.Where("client_id = ?", clientID)
	}
	if c.Query("active") == "true" {
		query = query.Where("is_active = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return respondError(c, err)
	}
	var contracts []Models.Contract
	err := query.Preload("Client").Order("created_at DESC").Offset(offset).Limit(limit).Find(&contracts).Error
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message":    "Contracts retrieved successfully",
		"data":       contracts,
		"pagination": pagination(page, limit, total),
	})
}

// GetContract GET /api/contracts/:id
func (cc *ContractController) GetContract(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	contract, err := loadContract(cc.DB, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": contract})
}

// CreateContract prices the contract and assigns its number atomically
// POST /api/contracts
func (cc *ContractController) CreateContract(c *fiber.Ctx) error {
	var req Models.ContractRequest
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, err)
	}

	contract := Models.Contract{IsActive: true}
	if err := cc.applyContractRequest(req, &contract); err != nil {
		return respondError(c, err)
	}
	if user, ok := middleware.CurrentUser(c); ok {
		contract.UserID = user.ID
	}

	err := cc.DB.Transaction(func(tx *gorm.DB) error {
		number, err := Billing.AssignNumber(contract.ContractNumber, Billing.PrefixContract, Models.NewCounterStore(tx))
		if err != nil {
			return err
		}
		contract.ContractNumber = number
		return tx.Omit("Client").Create(&contract).Error
	})
	if err != nil {
		return respondError(c, err)
	}

	saved, err := loadContract(cc.DB, contract.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Contract created successfully",
		"data":    saved,
	})
}

// UpdateContract replaces the contract's terms and lines; the number never changes
// PUT /api/contracts/:id
func (cc *ContractController) UpdateContract(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req Models.ContractRequest
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, err)
	}

	contract, err := loadContract(cc.DB, id)
	if err != nil {
		return respondError(c, err)
	}
	if contract.Status == Models.ContractCancelled {
		return respondError(c, Billing.Conflict("UpdateContract", "contract %s is cancelled", contract.ContractNumber))
	}
	if err := cc.applyContractRequest(req, contract); err != nil {
		return respondError(c, err)
	}

	err = cc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("contract_id = ?", contract.ID).Delete(&Models.ContractLine{}).Error; err != nil {
			return err
		}
		if err := tx.Create(&contract.Lines).Error; err != nil {
			return err
		}
		return tx.Omit("Client", "Lines").Save(contract).Error
	})
	if err != nil {
		return respondError(c, err)
	}

	saved, err := loadContract(cc.DB, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Contract updated successfully",
		"data":    saved,
	})
}

// DeleteContract deactivates a contract; it stays readable but cannot be invoiced
// DELETE /api/contracts/:id
func (cc *ContractController) DeleteContract(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	res := cc.DB.Model(&Models.Contract{}).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		return respondError(c, res.Error)
	}
	if res.RowsAffected == 0 {
		return respondError(c, gorm.ErrRecordNotFound)
	}
	return c.JSON(fiber.Map{"message": "Contract deactivated successfully"})
}

// GenerateInvoice projects a draft invoice from the contract and saves it
// POST /api/contracts/:id/invoice
func (cc *ContractController) GenerateInvoice(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req Models.GenerateInvoiceRequest
	if len(c.Body()) > 0 {
		if err := bindJSON(c, &req); err != nil {
			return respondError(c, err)
		}
	}
	issueDate, err := parseDate(req.IssueDate, today(cc.Now()))
	if err != nil {
		return respondError(c, err)
	}

	contract, err := loadContract(cc.DB, id)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(c, err)
		}
		contract = nil
	}

	var products []Models.Product
	if contract != nil {
		if err := cc.DB.Where("id IN ?", contract.ProductIDs()).Find(&products).Error; err != nil {
			return respondError(c, err)
		}
	}

	inv, err := Billing.ProjectInvoiceFromContract(contract, products, issueDate, Billing.TaxRateFor(contractClient(contract), cc.TaxRate))
	if err != nil {
		return respondError(c, err)
	}
	inv.Notes = req.Notes
	if user, ok := middleware.CurrentUser(c); ok {
		inv.UserID = user.ID
	}

	if err := saveNewInvoice(cc.DB, inv); err != nil {
		return respondError(c, err)
	}
	saved, err := loadInvoice(cc.DB, inv.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Invoice generated from contract",
		"data":    newInvoiceView(saved, cc.Now()),
	})
}

func contractClient(contract *Models.Contract) *Models.Client {
	if contract == nil {
		return nil
	}
	return contract.Client
}

// ContractPDF GET /api/contracts/:id/pdf
func (cc *ContractController) ContractPDF(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	contract, err := loadContract(cc.DB, id)
	if err != nil {
		return respondError(c, err)
	}
	out, err := Exports.ContractPDF(contract, cc.Company)
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, "attachment; filename="+contract.ContractNumber+".pdf")
	return c.Send(out)
}
