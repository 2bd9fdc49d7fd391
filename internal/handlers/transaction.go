package handlers

import (
	"time"

	"merx/internal/services/transaction"
	"merx/internal/utils/pagination"
	"merx/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type TransactionHandler struct {
	transactions transaction.Service
}

func NewTransactionHandler(transactions transaction.Service) *TransactionHandler {
	return &TransactionHandler{transactions: transactions}
}

// Create processes a payment. The caller's IP and the edge-derived
// country header feed risk scoring; clients cannot set either through
// the body.
func (h *TransactionHandler) Create(c *fiber.Ctx) error {
	var req transaction.CreateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	req.IPAddress = c.IP()
	req.IPCountry = c.Get("CF-IPCountry")

	txn, err := h.transactions.Create(c.Context(), tenantID(c), req, actorID(c))
	if err != nil {
		return respondError(c, err)
	}
	return response.Created(c, txn)
}

func (h *TransactionHandler) List(c *fiber.Ctx) error {
	p := pagination.ParseFromRequest(c)
	filter := transaction.Filter{
		MerchantID: uint(c.QueryInt("merchant_id")),
		Status:     c.Query("status"),
		Type:       c.Query("type"),
		From:       parseTimeQuery(c, "from"),
		To:         parseTimeQuery(c, "to"),
	}

	txns, total, err := h.transactions.List(c.Context(), tenantID(c), filter, p.Limit, p.Offset)
	if err != nil {
		return respondError(c, err)
	}
	p.Total = total
	return response.Success(c, pagination.Response(p, txns))
}

func (h *TransactionHandler) Get(c *fiber.Ctx) error {
	txn, err := h.transactions.Get(c.Context(), tenantID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, txn)
}

// Update is the administrative correction surface; routing restricts it
// to admins.
func (h *TransactionHandler) Update(c *fiber.Ctx) error {
	var req transaction.UpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	txn, err := h.transactions.Update(c.Context(), tenantID(c), c.Params("id"), req, actorID(c))
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, txn)
}

func (h *TransactionHandler) Refund(c *fiber.Ctx) error {
	var req transaction.RefundRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	refund, err := h.transactions.Refund(c.Context(), tenantID(c), c.Params("id"), req, actorID(c))
	if err != nil {
		return respondError(c, err)
	}
	return response.Created(c, refund)
}

func (h *TransactionHandler) Cancel(c *fiber.Ctx) error {
	var input struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	txn, err := h.transactions.Cancel(c.Context(), tenantID(c), c.Params("id"), input.Reason, actorID(c))
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, txn)
}

func (h *TransactionHandler) Chargeback(c *fiber.Ctx) error {
	var input struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	cb, err := h.transactions.MarkChargeback(c.Context(), tenantID(c), c.Params("id"), input.Reason, actorID(c))
	if err != nil {
		return respondError(c, err)
	}
	return response.Created(c, cb)
}

// parseTimeQuery reads an RFC 3339 timestamp or plain date query param.
// Unparseable values are treated as absent rather than rejected.
func parseTimeQuery(c *fiber.Ctx, name string) time.Time {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t
	}
	return time.Time{}
}
