package Controllers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"Invoicing/Billing"
	"Invoicing/Models"
	"Invoicing/middleware"
)

// ClientController handles client endpoints
type ClientController struct {
	DB *gorm.DB
}

func NewClientController(db *gorm.DB) *ClientController {
	return &ClientController{DB: db}
}

func clientFromRequest(req Models.ClientRequest, client *Models.Client) error {
	client.Name = req.Name
	client.Email = req.Email
	client.Phone = req.Phone
	client.Company = req.Company
	client.TaxID = req.TaxID
	client.PaymentTerms = req.PaymentTerms
	if client.PaymentTerms == "" {
		client.PaymentTerms = Models.TermsNet30
	}
	client.Currency = req.Currency
	client.TaxExempt = req.TaxExempt
	client.Notes = req.Notes
	client.Address = nil
	if req.Address != nil {
		raw, err := json.Marshal(req.Address)
		if err != nil {
			return err
		}
		client.Address = datatypes.JSON(raw)
	}
	return nil
}

// GetClients lists clients, optionally filtered by q
// GET /api/clients?page=1&limit=10&q=acme
func (cc *ClientController) GetClients(c *fiber.Ctx) error {
	page, limit, offset := paginate(c)

	query := cc.DB.Model(&Models.Client{})
	if q := c.Query("q"); q != "" {
		like := "%" + q + "%"
		query = query.Where("name LIKE ? OR email LIKE ? OR company LIKE ?", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return respondError(c, err)
	}

	var clients []Models.Client
	if err := query.Order("name").Offset(offset).Limit(limit).Find(&clients).Error; err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message":    "Clients retrieved successfully",
		"data":       clients,
		"pagination": pagination(page, limit, total),
	})
}

// GetClient GET /api/clients/:id
func (cc *ClientController) GetClient(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var client Models.Client
	if err := cc.DB.First(&client, id).Error; err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": client})
}

// CreateClient POST /api/clients
func (cc *ClientController) CreateClient(c *fiber.Ctx) error {
	var req Models.ClientRequest
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, err)
	}

	var client Models.Client
	if err := clientFromRequest(req, &client); err != nil {
		return respondError(c, err)
	}
	if user, ok := middleware.CurrentUser(c); ok {
		client.UserID = user.ID
	}

	if err := cc.DB.Create(&client).Error; err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Client created successfully",
		"data":    client,
	})
}

// UpdateClient PUT /api/clients/:id
func (cc *ClientController) UpdateClient(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req Models.ClientRequest
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, err)
	}

	var client Models.Client
	if err := cc.DB.First(&client, id).Error; err != nil {
		return respondError(c, err)
	}
	if err := clientFromRequest(req, &client); err != nil {
		return respondError(c, err)
	}
	if err := cc.DB.Save(&client).Error; err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Client updated successfully",
		"data":    client,
	})
}

// DeleteClient soft deletes a client without open invoices
// DELETE /api/clients/:id
func (cc *ClientController) DeleteClient(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var client Models.Client
	if err := cc.DB.First(&client, id).Error; err != nil {
		return respondError(c, err)
	}

	var open int64
	err = cc.DB.Model(&Models.Invoice{}).
		Where("client_id = ? AND is_paid = ? AND status <> ?", id, false, Models.InvoiceCancelled).
		Count(&open).Error
	if err != nil {
		return respondError(c, err)
	}
	if open > 0 {
		return respondError(c, Billing.Conflict("DeleteClient", "client has %d unpaid invoices", open))
	}

	if err := cc.DB.Delete(&client).Error; err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Client deleted successfully"})
}
