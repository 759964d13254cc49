package handler

import (
	"tenant-deployment-system/internal/deploy"
	"tenant-deployment-system/internal/middleware"
	"tenant-deployment-system/internal/model"
	"tenant-deployment-system/internal/service"

	"github.com/gofiber/fiber/v2"
)

func (h *Handler) HandleListTemplates(c *fiber.Ctx) error {
	templates, err := h.Templates.List()
	if err != nil {
		return err
	}
	return c.JSON(templates)
}

func (h *Handler) HandleListDeployments(c *fiber.Ctx) error {
	var (
		records []model.DeploymentRecord
		err     error
	)
	if tenantID := c.Query("tenantId"); tenantID != "" {
		records, err = h.Store.ListForTenant(c.UserContext(), tenantID)
	} else {
		records, err = h.Store.ListAll(c.UserContext())
	}
	if err != nil {
		return err
	}
	return c.JSON(records)
}

func (h *Handler) HandleDeploy(c *fiber.Ctx) error {
	req := new(deploy.DeployRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid request body",
		})
	}

	out := h.Deployer.Deploy(c.UserContext(), *req)
	if out.DeploymentID != 0 {
		h.Logs.Record(c.UserContext(), middleware.UserID(c), service.ActionDeploy, "workflow", req.WorkflowName, fiber.Map{
			"tenant_id":       req.TenantID,
			"subscription_id": req.SubscriptionID,
			"resource_group":  req.ResourceGroup,
			"template":        req.TemplateName,
			"deployment_id":   out.DeploymentID,
			"success":         out.Success,
		})
	}
	return c.Status(out.HTTPStatus()).JSON(out)
}

func (h *Handler) HandleDisable(c *fiber.Ctx) error {
	req := new(deploy.DisableRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid request body",
		})
	}

	out := h.Deployer.Disable(c.UserContext(), *req)
	if out.DeploymentID != 0 {
		h.Logs.Record(c.UserContext(), middleware.UserID(c), service.ActionDisable, "workflow", req.WorkflowName, fiber.Map{
			"tenant_id":       req.TenantID,
			"subscription_id": req.SubscriptionID,
			"resource_group":  req.ResourceGroup,
			"deployment_id":   out.DeploymentID,
			"success":         out.Success,
		})
	}
	return c.Status(out.HTTPStatus()).JSON(out)
}
