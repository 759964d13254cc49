package handler

import (
	"strconv"

	"tenant-deployment-system/internal/apperr"
	"tenant-deployment-system/internal/licensing"
	"tenant-deployment-system/internal/middleware"
	"tenant-deployment-system/internal/service"

	"github.com/gofiber/fiber/v2"
)

// HandleLicenseValidate is called by tenant-side products. The tenant id may
// arrive as x-tenant-id or as the older x-client-id header.
func (h *Handler) HandleLicenseValidate(c *fiber.Ctx) error {
	tenantID := c.Get("x-tenant-id")
	if tenantID == "" {
		tenantID = c.Get("x-client-id")
	}

	res, err := h.Gatekeeper.Validate(c.UserContext(), c.Get("x-license-key"), tenantID, c.Get("x-product-name"), c.IP())
	if err != nil {
		if apperr.KindOf(err) == apperr.KindValidationInput {
			return c.Status(fiber.StatusBadRequest).JSON(res)
		}
		return err
	}
	return c.JSON(res)
}

func (h *Handler) HandleIssueLicense(c *fiber.Ctx) error {
	input := new(licensing.IssueRequest)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	issued, err := h.Gatekeeper.Issue(c.UserContext(), *input)
	if err != nil {
		return err
	}

	h.Logs.Record(c.UserContext(), middleware.UserID(c), service.ActionLicenseIssue, "license", issued.LicenseKey, fiber.Map{
		"tenant_id":       input.TenantID,
		"expiration_date": issued.ExpirationDate,
		"features":        issued.Features,
	})
	return c.Status(fiber.StatusCreated).JSON(issued)
}

func (h *Handler) HandleSetLicenseActive(c *fiber.Ctx) error {
	var input struct {
		Active *bool `json:"active"`
	}
	if err := c.BodyParser(&input); err != nil || input.Active == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "active is required",
		})
	}

	license, err := h.Gatekeeper.SetActive(c.UserContext(), c.Params("key"), *input.Active)
	if err != nil {
		return err
	}

	h.Logs.Record(c.UserContext(), middleware.UserID(c), service.ActionLicenseActive, "license", license.Key, fiber.Map{
		"active": license.Active,
	})
	return c.JSON(license)
}

func (h *Handler) HandleListLicenses(c *fiber.Ctx) error {
	licenses, err := h.Gatekeeper.List(c.UserContext(), c.Query("tenantId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"licenses": licenses,
	})
}

func (h *Handler) HandleLicenseChecks(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if limit > 100 {
		limit = 100
	}

	checks, err := h.Gatekeeper.Checks(c.UserContext(), c.Params("key"), limit)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"checks": checks,
	})
}
