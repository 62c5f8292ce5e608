// FILE: internal/pkg/serverutils/error_handler.go
package serverutils

import (
	"membership-iap-core/internal/entity"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware maps the purchase error taxonomy onto HTTP.
// Cancellation is not an error for the UI; it answers 200 with a status the
// client renders as "nothing happened".
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		if fiberErr, ok := err.(*fiber.Error); ok {
			return ctx.Status(fiberErr.Code).JSON(fiber.Map{"message": fiberErr.Message})
		}

		switch entity.KindOf(err) {
		case entity.ErrKindUserCancelled:
			return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
				"success": false,
				"status":  "cancelled",
			})
		case entity.ErrKindPurchaseInProgress:
			return ctx.Status(fiber.StatusAccepted).JSON(fiber.Map{
				"success": false,
				"status":  "in_progress",
			})
		case entity.ErrKindProductNotFound:
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "No matching in-app product for this plan",
			})
		case entity.ErrKindReceiptVerificationFailed:
			return ctx.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		case entity.ErrKindNetworkError:
			return ctx.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		default:
			return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		}
	}
}
