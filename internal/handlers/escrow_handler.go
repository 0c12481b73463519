package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/saeid-a/CoachEscrow/internal/middleware"
	"github.com/saeid-a/CoachEscrow/internal/models"
	"github.com/saeid-a/CoachEscrow/internal/services"
	"github.com/shopspring/decimal"
)

type EscrowHandler struct {
	service escrowApplicationService
	risk    clientStatsReader
}

type escrowApplicationService interface {
	Initialize(ctx context.Context, paymentAsset string) error
	GetConfig(ctx context.Context) (*models.EscrowConfig, error)
	CreateSession(ctx context.Context, auth services.AuthContext, input services.CreateSessionInput) (*models.CoachingSession, error)
	MarkAttendance(ctx context.Context, auth services.AuthContext, sessionID uint64, attended bool) (*models.CoachingSession, error)
	CompleteSession(ctx context.Context, auth services.AuthContext, sessionID uint64) (*models.CoachingSession, error)
	GetSession(ctx context.Context, sessionID uint64) (*models.CoachingSession, error)
	ListSessions(ctx context.Context, auth services.AuthContext, party string) ([]models.CoachingSession, error)
}

type clientStatsReader interface {
	GetClientStats(ctx context.Context, client string) (*models.ClientStats, error)
}

func NewEscrowHandler(service *services.EscrowService, risk *services.RiskTracker) *EscrowHandler {
	return &EscrowHandler{service: service, risk: risk}
}

type initializeRequest struct {
	PaymentAsset string `json:"payment_asset"`
}

type createSessionRequest struct {
	Client        string          `json:"client"`
	Coach         string          `json:"coach"`
	Amount        decimal.Decimal `json:"amount"`
	ScheduledTime uint64          `json:"scheduled_time"`
}

type markAttendanceRequest struct {
	Attended *bool `json:"attended"`
}

func (h *EscrowHandler) Initialize(c *fiber.Ctx) error {
	if _, ok := middleware.Auth(c); !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req initializeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if strings.TrimSpace(req.PaymentAsset) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "payment_asset is required"})
	}

	if err := h.service.Initialize(c.Context(), req.PaymentAsset); err != nil {
		return mapEscrowError(c, err)
	}

	cfg, err := h.service.GetConfig(c.Context())
	if err != nil {
		return mapEscrowError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"config": cfg})
}

func (h *EscrowHandler) GetConfig(c *fiber.Ctx) error {
	cfg, err := h.service.GetConfig(c.Context())
	if err != nil {
		return mapEscrowError(c, err)
	}
	return c.JSON(fiber.Map{"config": cfg})
}

func (h *EscrowHandler) CreateSession(c *fiber.Ctx) error {
	auth, ok := middleware.Auth(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req createSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if strings.TrimSpace(req.Coach) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "coach is required"})
	}
	client := strings.TrimSpace(req.Client)
	if client == "" {
		client = auth.Identity
	}

	session, err := h.service.CreateSession(c.Context(), auth, services.CreateSessionInput{
		Client:        client,
		Coach:         strings.TrimSpace(req.Coach),
		Amount:        req.Amount,
		ScheduledTime: req.ScheduledTime,
	})
	if err != nil {
		return mapEscrowError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"session": session})
}

func (h *EscrowHandler) ListSessions(c *fiber.Ctx) error {
	auth, ok := middleware.Auth(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	party := strings.TrimSpace(c.Query("as", "client"))
	if party != "client" && party != "coach" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "as must be client or coach"})
	}

	sessions, err := h.service.ListSessions(c.Context(), auth, party)
	if err != nil {
		return mapEscrowError(c, err)
	}

	page := parsePositiveInt(c.Query("page"), 1)
	limit := parsePositiveInt(c.Query("limit"), defaultPageLimit)
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	pageItems, meta := paginate(sessions, page, limit)

	return c.JSON(fiber.Map{
		"sessions":   pageItems,
		"pagination": meta,
	})
}

func (h *EscrowHandler) GetSession(c *fiber.Ctx) error {
	sessionID, err := parseSessionID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	session, err := h.service.GetSession(c.Context(), sessionID)
	if err != nil {
		return mapEscrowError(c, err)
	}

	return c.JSON(fiber.Map{"session": session})
}

func (h *EscrowHandler) MarkAttendance(c *fiber.Ctx) error {
	auth, ok := middleware.Auth(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	sessionID, err := parseSessionID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	var req markAttendanceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Attended == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "attended is required"})
	}

	session, err := h.service.MarkAttendance(c.Context(), auth, sessionID, *req.Attended)
	if err != nil {
		return mapEscrowError(c, err)
	}

	return c.JSON(fiber.Map{"session": session})
}

func (h *EscrowHandler) CompleteSession(c *fiber.Ctx) error {
	auth, ok := middleware.Auth(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	sessionID, err := parseSessionID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	session, err := h.service.CompleteSession(c.Context(), auth, sessionID)
	if err != nil {
		return mapEscrowError(c, err)
	}

	return c.JSON(fiber.Map{"session": session})
}

func (h *EscrowHandler) GetClientStats(c *fiber.Ctx) error {
	client := strings.TrimSpace(c.Params("client"))
	if client == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid client"})
	}

	stats, err := h.risk.GetClientStats(c.Context(), client)
	if err != nil {
		return mapEscrowError(c, err)
	}

	return c.JSON(fiber.Map{"stats": stats})
}

func parseSessionID(c *fiber.Ctx) (uint64, error) {
	sessionID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return 0, err
	}
	if sessionID == 0 {
		return 0, strconv.ErrRange
	}
	return sessionID, nil
}

func mapEscrowError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrSessionNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
	case errors.Is(err, services.ErrAlreadyInitialized):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Escrow already initialized"})
	case errors.Is(err, services.ErrAlreadyCompleted):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Session already completed"})
	case errors.Is(err, services.ErrNotInitialized):
		return c.Status(fiber.StatusPreconditionFailed).JSON(fiber.Map{"error": "Escrow not initialized"})
	case errors.Is(err, services.ErrNotAttended):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "Session must be marked as attended first"})
	case errors.Is(err, services.ErrInsufficientFunds):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "Insufficient funds"})
	case errors.Is(err, services.ErrTransferFailed):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "Transfer failed"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process escrow request"})
	}
}
