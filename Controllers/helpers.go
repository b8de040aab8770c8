package Controllers

import (
	"errors"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"Invoicing/Billing"
	"Invoicing/Models"
)

var (
	validate   = validator.New()
	translator ut.Translator
)

func init() {
	english := en.New()
	translator, _ = ut.New(english, english).GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, translator); err != nil {
		panic(err)
	}
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
}

// bindJSON parses the body into out and runs its validate tags.
func bindJSON(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return Billing.Validation("bind", "invalid request body: %v", err)
	}
	return validateStruct(out)
}

func validateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Billing.Validation("validate", "%v", err)
	}
	messages := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		messages = append(messages, fe.Translate(translator))
	}
	return Billing.Validation("validate", "%s", strings.Join(messages, "; "))
}

// respondError maps billing and persistence errors onto HTTP responses.
func respondError(c *fiber.Ctx, err error) error {
	status, code := fiber.StatusInternalServerError, "internal_error"
	switch {
	case errors.Is(err, Billing.ErrValidation):
		status, code = fiber.StatusBadRequest, "validation_error"
	case errors.Is(err, Billing.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		status, code = fiber.StatusNotFound, "not_found"
	case errors.Is(err, Billing.ErrConflict), isUniqueViolation(err):
		status, code = fiber.StatusConflict, "conflict"
	case errors.Is(err, Billing.ErrFailedPrecondition):
		status, code = fiber.StatusPreconditionFailed, "failed_precondition"
	}

	message := Billing.Details(err)
	switch {
	case status == fiber.StatusInternalServerError:
		log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
		message = "Something went wrong"
	case errors.Is(err, gorm.ErrRecordNotFound):
		message = "Record not found"
	case isUniqueViolation(err):
		message = "A record with these details already exists"
	}
	return c.Status(status).JSON(fiber.Map{"error": code, "message": message})
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate entry") ||
		strings.Contains(msg, "duplicate key")
}

func parseID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, Billing.Validation("parseID", "invalid %s", name)
	}
	return uint(id), nil
}

// parseDate reads a YYYY-MM-DD value in UTC; empty yields fallback.
func parseDate(value string, fallback time.Time) (time.Time, error) {
	if value == "" {
		return fallback, nil
	}
	t, err := time.ParseInLocation(Models.DateLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, Billing.Validation("parseDate", "invalid date %q, expected YYYY-MM-DD", value)
	}
	return t, nil
}

func today(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// paginate reads page and limit (1..100, default 10).
func paginate(c *fiber.Ctx) (page, limit, offset int) {
	page, _ = strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(c.Query("limit", "10"))
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return page, limit, (page - 1) * limit
}

func pagination(page, limit int, total int64) fiber.Map {
	return fiber.Map{
		"page":       page,
		"limit":      limit,
		"total":      total,
		"totalPages": (total + int64(limit) - 1) / int64(limit),
	}
}

// buildLines converts and validates request lines.
func buildLines(reqs []Models.LineItemRequest) ([]Models.LineItem, error) {
	lines := make([]Models.LineItem, 0, len(reqs))
	for i, r := range reqs {
		l, err := r.ToLineItem(i)
		if err != nil {
			return nil, Billing.Validation("buildLines", "%v", err)
		}
		lines = append(lines, l)
	}
	if err := Billing.ValidateLines(lines); err != nil {
		return nil, err
	}
	return lines, nil
}

// checkProducts loads the products referenced by lines, requires each to
// exist and be active, and fills empty descriptions from the product name.
func checkProducts(db *gorm.DB, lines []Models.LineItem) error {
	const op = "checkProducts"
	ids := make([]uint, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	var products []Models.Product
	if err := db.Where("id IN ?", ids).Find(&products).Error; err != nil {
		return err
	}
	byID := make(map[uint]Models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	for i := range lines {
		p, ok := byID[lines[i].ProductID]
		if !ok {
			return Billing.FailedPrecondition(op, "product %d referenced by line %d does not exist", lines[i].ProductID, i+1)
		}
		if !p.IsActive {
			return Billing.FailedPrecondition(op, "product %d (%s) is inactive", p.ID, p.Name)
		}
		if lines[i].Description == "" {
			lines[i].Description = p.Name
		}
	}
	return nil
}

func linesByPosition(tx *gorm.DB) *gorm.DB {
	return tx.Order("position")
}
