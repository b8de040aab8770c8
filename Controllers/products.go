package Controllers

import (
	"fmt"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"Invoicing/Billing"
	"Invoicing/Exports"
	"Invoicing/Models"
	"Invoicing/middleware"
)

// ProductController handles product endpoints
type ProductController struct {
	DB *gorm.DB
}

func NewProductController(db *gorm.DB) *ProductController {
	return &ProductController{DB: db}
}

// ProductFromRequest validates req and copies it onto product.
func ProductFromRequest(req Models.ProductRequest, product *Models.Product) error {
	if err := validateStruct(req); err != nil {
		return err
	}
	if req.Price.IsNegative() {
		return Billing.Validation("ProductFromRequest", "price must not be negative")
	}
	rate := decimal.Zero
	if req.TaxRate != nil {
		rate = *req.TaxRate
		if err := Billing.ValidateTaxRate(rate); err != nil {
			return err
		}
	}

	product.Name = strings.TrimSpace(req.Name)
	product.Description = req.Description
	product.Category = req.Category
	product.Price = *req.Price
	product.Unit = req.Unit
	product.TaxRate = rate
	product.IsActive = req.IsActive == nil || *req.IsActive
	return nil
}

// GetProducts GET /api/products?page=1&limit=10&q=&category=&active=true
func (pc *ProductController) GetProducts(c *fiber.Ctx) error {
	page, limit, offset := paginate(c)

	query := pc.DB.Model(&Models.Product{})
	if q := c.Query("q"); q != "" {
		like := "%" + q + "%"
		query = query.Where("name LIKE ? OR description LIKE ?", like, like)
	}
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if active := c.Query("active"); active != "" {
		query = query.Where("is_active = ?", active == "true")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return respondError(c, err)
	}
	var products []Models.Product
	if err := query.Order("name").Offset(offset).Limit(limit).Find(&products).Error; err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message":    "Products retrieved successfully",
		"data":       products,
		"pagination": pagination(page, limit, total),
	})
}

// GetProduct GET /api/products/:id
func (pc *ProductController) GetProduct(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var product Models.Product
	if err := pc.DB.First(&product, id).Error; err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": product})
}

// CreateProduct POST /api/products
func (pc *ProductController) CreateProduct(c *fiber.Ctx) error {
	var req Models.ProductRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, Billing.Validation("CreateProduct", "invalid request body: %v", err))
	}
	var product Models.Product
	if err := ProductFromRequest(req, &product); err != nil {
		return respondError(c, err)
	}
	if user, ok := middleware.CurrentUser(c); ok {
		product.UserID = user.ID
	}
	if err := pc.DB.Create(&product).Error; err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Product created successfully",
		"data":    product,
	})
}

// UpdateProduct PUT /api/products/:id
// Existing contracts and invoices keep the prices they were created with.
func (pc *ProductController) UpdateProduct(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req Models.ProductRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, Billing.Validation("UpdateProduct", "invalid request body: %v", err))
	}

	var product Models.Product
	if err := pc.DB.First(&product, id).Error; err != nil {
		return respondError(c, err)
	}
	if err := ProductFromRequest(req, &product); err != nil {
		return respondError(c, err)
	}
	if err := pc.DB.Save(&product).Error; err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Product updated successfully",
		"data":    product,
	})
}

// DeleteProduct deactivates and soft deletes a product
// DELETE /api/products/:id
func (pc *ProductController) DeleteProduct(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var product Models.Product
	if err := pc.DB.First(&product, id).Error; err != nil {
		return respondError(c, err)
	}
	err = pc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&product).Update("is_active", false).Error; err != nil {
			return err
		}
		return tx.Delete(&product).Error
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Product deleted successfully"})
}

// ImportProducts creates products from an uploaded xlsx workbook in one transaction.
// POST /api/products/import (multipart field "file")
func (pc *ProductController) ImportProducts(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return respondError(c, Billing.Validation("ImportProducts", "no file provided, upload an xlsx workbook"))
	}
	if !strings.HasSuffix(strings.ToLower(file.Filename), ".xlsx") {
		return respondError(c, Billing.Validation("ImportProducts", "invalid file type, upload an xlsx workbook"))
	}
	src, err := file.Open()
	if err != nil {
		return respondError(c, err)
	}
	defer src.Close()

	var userID uint
	if user, ok := middleware.CurrentUser(c); ok {
		userID = user.ID
	}
	products, err := ImportProductsFrom(pc.DB, src, userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": fmt.Sprintf("%d products imported", len(products)),
		"data":    products,
		"count":   len(products),
	})
}

// ImportProductsFrom reads a workbook and stores every row, or none on error.
func ImportProductsFrom(db *gorm.DB, src io.Reader, userID uint) ([]Models.Product, error) {
	reqs, err := Exports.ReadProductsXLSX(src)
	if err != nil {
		return nil, err
	}
	if len(reqs) == 0 {
		return nil, Billing.Validation("ImportProducts", "workbook has no product rows")
	}

	products := make([]Models.Product, len(reqs))
	for i, req := range reqs {
		if err := ProductFromRequest(req, &products[i]); err != nil {
			return nil, Billing.Validation("ImportProducts", "product %d (%q): %s", i+1, req.Name, Billing.Details(err))
		}
		products[i].UserID = userID
	}
	if err := db.Create(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// ProductTemplate GET /api/products/import/template
func (pc *ProductController) ProductTemplate(c *fiber.Ctx) error {
	buf, err := Exports.ProductTemplateXLSX()
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, Exports.XLSXContentType)
	c.Set(fiber.HeaderContentDisposition, "attachment; filename=products_template.xlsx")
	return c.Send(buf.Bytes())
}
