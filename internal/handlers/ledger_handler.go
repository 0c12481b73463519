package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/saeid-a/CoachEscrow/internal/middleware"
	"github.com/saeid-a/CoachEscrow/internal/models"
	"github.com/saeid-a/CoachEscrow/internal/services"
	"github.com/shopspring/decimal"
)

type ledgerApplicationService interface {
	Deposit(ctx context.Context, auth services.AuthContext, holder string, amount decimal.Decimal) (*models.Balance, error)
	Balance(ctx context.Context, auth services.AuthContext, holder string) (*models.Balance, error)
}

type LedgerHandler struct {
	service ledgerApplicationService
}

func NewLedgerHandler(service *services.LedgerService) *LedgerHandler {
	return &LedgerHandler{service: service}
}

type depositRequest struct {
	Holder string          `json:"holder"`
	Amount decimal.Decimal `json:"amount"`
}

func (h *LedgerHandler) Deposit(c *fiber.Ctx) error {
	auth, ok := middleware.Auth(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	if !auth.IsAdmin() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	var req depositRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if strings.TrimSpace(req.Holder) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "holder is required"})
	}

	balance, err := h.service.Deposit(c.Context(), auth, req.Holder, req.Amount)
	if err != nil {
		return mapEscrowError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"balance": balance})
}

func (h *LedgerHandler) GetBalance(c *fiber.Ctx) error {
	auth, ok := middleware.Auth(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	balance, err := h.service.Balance(c.Context(), auth, c.Query("holder"))
	if err != nil {
		return mapEscrowError(c, err)
	}

	return c.JSON(fiber.Map{"balance": balance})
}
