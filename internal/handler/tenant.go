package handler

import (
	"errors"

	"tenant-deployment-system/internal/apperr"
	"tenant-deployment-system/internal/middleware"
	"tenant-deployment-system/internal/model"
	"tenant-deployment-system/internal/service"

	"github.com/gofiber/fiber/v2"
)

type TenantInput struct {
	TenantID     string `json:"tenant_id"`
	Name         string `json:"name"`
	ContactEmail string `json:"contact_email"`
	ContactPhone string `json:"contact_phone"`
}

func (h *Handler) HandleCreateTenant(c *fiber.Ctx) error {
	input := new(TenantInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if input.TenantID == "" || input.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "tenant_id and name are required",
		})
	}

	ctx := c.UserContext()
	if _, err := h.Store.FindTenant(ctx, input.TenantID); err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "tenant already exists",
		})
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return err
	}

	tenant := &model.Tenant{
		ExternalID:   input.TenantID,
		Name:         input.Name,
		ContactEmail: input.ContactEmail,
		ContactPhone: input.ContactPhone,
	}
	if err := h.Store.CreateTenant(ctx, tenant); err != nil {
		return apperr.Internal("create tenant", err)
	}

	h.Logs.Record(ctx, middleware.UserID(c), service.ActionTenantCreate, "tenant", tenant.ExternalID, input)
	return c.Status(fiber.StatusCreated).JSON(tenant)
}

// HandleListTenants lists the tenants a workflow can be deployed to.
func (h *Handler) HandleListTenants(c *fiber.Ctx) error {
	tenants, err := h.Store.ListTenants(c.UserContext())
	if err != nil {
		return err
	}

	out := make([]fiber.Map, 0, len(tenants))
	for _, t := range tenants {
		out = append(out, fiber.Map{"tenantId": t.ExternalID, "name": t.Name})
	}
	return c.JSON(out)
}
