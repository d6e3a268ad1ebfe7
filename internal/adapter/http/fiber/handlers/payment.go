package handlers

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/invoice-stripe-driver/internal/domain"
	"github.com/seu-repo/invoice-stripe-driver/internal/ports"
)

type PaymentHandler struct {
	service ports.PaymentService
	sources ports.SourceRepository
	log     *zap.Logger
}

func NewPaymentHandler(service ports.PaymentService, sources ports.SourceRepository, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		sources: sources,
		log:     log,
	}
}

type ChargeRequest struct {
	Amount          int64              `json:"amount"`
	Currency        string             `json:"currency"`
	Data            map[string]any     `json:"data"`
	PaymentData     domain.PaymentData `json:"payment_data"`
	Description     string             `json:"description"`
	Payment         *domain.Payment    `json:"payment"`
	Invoice         *domain.Invoice    `json:"invoice"`
	SuccessURL      string             `json:"success_url"`
	ErrorURL        string             `json:"error_url"`
	CustomerPresent *bool              `json:"customer_present"`
	SourceID        string             `json:"source_id"`
}

type AuthenticateRequest struct {
	IntentID   string          `json:"intent_id"`
	SCAData    json.RawMessage `json:"sca_data"`
	SuccessURL string          `json:"success_url"`
}

type RefundRequest struct {
	OriginalTransactionID string               `json:"original_transaction_id"`
	Amount                int64                `json:"amount"`
	Currency              string               `json:"currency"`
	PaymentData           domain.PaymentData   `json:"payment_data"`
	Reason                string               `json:"reason"`
	Payment               *domain.Payment      `json:"payment"`
	Refund                *domain.RefundRecord `json:"refund"`
	Invoice               *domain.Invoice      `json:"invoice"`
}

type CreateSourceRequest struct {
	Customer *domain.Customer `json:"customer"`
	Token    string           `json:"token"`
}

type UpdateSourceRequest struct {
	Name     *string `json:"name"`
	ExpMonth *int    `json:"exp_month"`
	ExpYear  *int    `json:"exp_year"`
}

type DriverInfo struct {
	Slug           string `json:"slug"`
	Label          string `json:"label"`
	PublishableKey string `json:"publishable_key,omitempty"`
	Available      bool   `json:"available"`
}

func (h *PaymentHandler) Charge(c *fiber.Ctx) error {
	var req ChargeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}

	in := &ports.ChargeInput{
		AmountMinorUnits: req.Amount,
		Currency:         req.Currency,
		Data:             req.Data,
		PaymentData:      req.PaymentData,
		Description:      req.Description,
		Payment:          req.Payment,
		Invoice:          req.Invoice,
		SuccessURL:       req.SuccessURL,
		ErrorURL:         req.ErrorURL,
		CustomerPresent:  true,
	}
	if req.CustomerPresent != nil {
		in.CustomerPresent = *req.CustomerPresent
	}

	if req.SourceID != "" {
		src, err := h.findSource(c, req.SourceID)
		if err != nil || src == nil {
			return err
		}
		in.Source = src
	}

	outcome, err := h.service.Charge(c.UserContext(), in)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(outcome)
}

func (h *PaymentHandler) Authenticate(c *fiber.Ctx) error {
	var req AuthenticateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}

	var (
		outcome *domain.ScaOutcome
		err     error
	)
	if len(req.SCAData) > 0 {
		outcome, err = h.service.AuthenticateWithData(c.UserContext(), req.SCAData, req.SuccessURL)
	} else {
		outcome, err = h.service.Authenticate(c.UserContext(), req.IntentID, req.SuccessURL)
	}
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(outcome)
}

func (h *PaymentHandler) Refund(c *fiber.Ctx) error {
	var req RefundRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}

	outcome, err := h.service.Refund(c.UserContext(), &ports.RefundInput{
		OriginalTransactionID: req.OriginalTransactionID,
		AmountMinorUnits:      req.Amount,
		Currency:              req.Currency,
		PaymentData:           req.PaymentData,
		Reason:                req.Reason,
		Payment:               req.Payment,
		Refund:                req.Refund,
		Invoice:               req.Invoice,
	})
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(outcome)
}

func (h *PaymentHandler) CreateSource(c *fiber.Ctx) error {
	var req CreateSourceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}

	src, err := h.service.CreateSource(c.UserContext(), req.Customer, req.Token)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(src)
}

func (h *PaymentHandler) UpdateSource(c *fiber.Ctx) error {
	var req UpdateSourceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}

	src, err := h.findSource(c, c.Params("id"))
	if err != nil || src == nil {
		return err
	}

	updated, err := h.service.UpdateSource(c.UserContext(), src, &domain.SourceUpdate{
		Name:     req.Name,
		ExpMonth: req.ExpMonth,
		ExpYear:  req.ExpYear,
	})
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(updated)
}

func (h *PaymentHandler) DeleteSource(c *fiber.Ctx) error {
	src, err := h.findSource(c, c.Params("id"))
	if err != nil || src == nil {
		return err
	}

	if err := h.service.DeleteSource(c.UserContext(), src); err != nil {
		return h.writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SyncCustomer pushes the framework customer's contact details to Stripe.
func (h *PaymentHandler) SyncCustomer(c *fiber.Ctx) error {
	var customer domain.Customer
	if err := c.BodyParser(&customer); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}
	customer.ID = c.Params("id")

	if err := h.service.SyncCustomer(c.UserContext(), &customer); err != nil {
		return h.writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *PaymentHandler) RemoveCustomer(c *fiber.Ctx) error {
	if err := h.service.RemoveCustomer(c.UserContext(), &domain.Customer{ID: c.Params("id")}); err != nil {
		return h.writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *PaymentHandler) Driver(c *fiber.Ctx) error {
	info := DriverInfo{
		Slug:      domain.DriverSlug,
		Label:     h.service.Label(),
		Available: h.service.IsAvailable(),
	}
	if key, err := h.service.PublishableKey(); err == nil {
		info.PublishableKey = key
	}
	return c.JSON(info)
}

// findSource writes the 404/500 response itself; a nil source with a nil
// error means the response has already been sent.
func (h *PaymentHandler) findSource(c *fiber.Ctx, id string) (*domain.Source, error) {
	src, err := h.sources.FindByID(c.UserContext(), id)
	if err != nil {
		h.log.Error("Failed to load source", zap.String("source_id", id), zap.Error(err))
		return nil, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load source"})
	}
	if src == nil {
		return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Source not found"})
	}
	return src, nil
}

func (h *PaymentHandler) writeError(c *fiber.Ctx, err error) error {
	var ce *domain.ConfigurationError
	if errors.As(err, &ce) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}
	h.log.Error("Payment operation failed", zap.String("path", c.Path()), zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
}
