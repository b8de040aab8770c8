package Controllers

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"

	"Invoicing/Billing"
	"Invoicing/Exports"
)

// SettingsController manages company branding
type SettingsController struct {
	Company Exports.CompanyInfo
}

func NewSettingsController(company Exports.CompanyInfo) *SettingsController {
	return &SettingsController{Company: company}
}

// GetCompany GET /api/settings/company
func (sc *SettingsController) GetCompany(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": fiber.Map{
		"name":     sc.Company.Name,
		"currency": sc.Company.Currency,
		"has_logo": sc.Company.LogoPath != "" && fileExists(sc.Company.LogoPath),
	}})
}

// UploadLogo replaces the logo printed on PDFs
// POST /api/settings/logo (multipart field "logo")
func (sc *SettingsController) UploadLogo(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("logo")
	if err != nil {
		return respondError(c, Billing.Validation("UploadLogo", "logo file is required"))
	}
	switch strings.ToLower(filepath.Ext(fileHeader.Filename)) {
	case ".png", ".jpg", ".jpeg", ".gif":
	default:
		return respondError(c, Billing.Validation("UploadLogo", "logo must be a png, jpg or gif image"))
	}
	if sc.Company.LogoPath == "" {
		return respondError(c, Billing.FailedPrecondition("UploadLogo", "no logo path is configured"))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return respondError(c, err)
	}
	defer file.Close()

	if err := Exports.SaveLogo(file, sc.Company.LogoPath); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Logo uploaded successfully"})
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
