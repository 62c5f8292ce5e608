// FILE: internal/controller/purchase_controller.go
package controller

import (
	"context"

	"membership-iap-core/internal/dto"
	"membership-iap-core/internal/entity"
	"membership-iap-core/internal/gateway/ledger"
	"membership-iap-core/internal/pkg/serverutils"
	"membership-iap-core/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type IPurchaseController interface {
	RegisterRoutes(r fiber.Router)
	GetProducts(ctx *fiber.Ctx) error
	Purchase(ctx *fiber.Ctx) error
	Restore(ctx *fiber.Ctx) error
	GetStatus(ctx *fiber.Ctx) error
	GetHistory(ctx *fiber.Ctx) error
}

type purchaseController struct {
	purchases service.IPurchaseService
	catalog   service.ICatalogService
	validate  *validator.Validate
}

func NewPurchaseController(purchases service.IPurchaseService, catalog service.ICatalogService) IPurchaseController {
	return &purchaseController{
		purchases: purchases,
		catalog:   catalog,
		validate:  validator.New(),
	}
}

func (c *purchaseController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/iap")
	h.Get("/products", c.GetProducts)

	// Protected Routes
	h.Post("/purchase", serverutils.JwtMiddleware, c.Purchase)
	h.Post("/restore", serverutils.JwtMiddleware, c.Restore)
	h.Get("/status", serverutils.JwtMiddleware, c.GetStatus)
	h.Get("/history", serverutils.JwtMiddleware, c.GetHistory)
}

func (c *purchaseController) GetProducts(ctx *fiber.Ctx) error {
	entries := c.catalog.Entries()
	if len(entries) == 0 {
		loaded, err := c.catalog.LoadCatalog(c.userContext(ctx))
		if err != nil {
			return entity.NewNetworkError("catalog load failed", err)
		}
		entries = loaded
	}

	out := make([]dto.CatalogEntryResponse, 0, len(entries))
	for _, e := range entries {
		resp := dto.CatalogEntryResponse{
			PlanCode:      e.PlanCode,
			PlanName:      e.PlanName,
			ProductID:     e.ProductID,
			Price:         e.Price,
			Currency:      e.Currency,
			IsRecommended: e.IsRecommended,
			Available:     e.Resolved,
		}
		if handle, ok := c.catalog.Resolve(e.PlanCode); ok {
			resp.DisplayPrice = handle.DisplayPrice
		}
		out = append(out, resp)
	}
	return ctx.JSON(fiber.Map{"success": true, "data": out})
}

func (c *purchaseController) Purchase(ctx *fiber.Ctx) error {
	var req dto.PurchaseRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}
	if err := c.validate.Struct(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "plan_code is required"})
	}

	membership, err := c.purchases.Purchase(c.userContext(ctx), req.PlanCode)
	if err != nil {
		return err
	}

	return ctx.JSON(dto.PurchaseResponse{
		Success:    true,
		Status:     "finalized",
		Membership: membership,
	})
}

func (c *purchaseController) Restore(ctx *fiber.Ctx) error {
	data, err := c.purchases.Restore(c.userContext(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{"success": true, "data": data})
}

func (c *purchaseController) GetStatus(ctx *fiber.Ctx) error {
	status, err := c.purchases.GetStatus(c.userContext(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{"success": true, "data": status})
}

func (c *purchaseController) GetHistory(ctx *fiber.Ctx) error {
	history, err := c.purchases.GetHistory(c.userContext(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{"success": true, "transactions": history})
}

// userContext forwards the caller's bearer token so ledger calls run with
// the user's own identity instead of the service token.
func (c *purchaseController) userContext(ctx *fiber.Ctx) context.Context {
	userCtx := ctx.UserContext()
	if tok, ok := ctx.Locals("token").(string); ok && tok != "" {
		return ledger.WithToken(userCtx, tok)
	}
	return userCtx
}
