package handlers

import (
	"merx/internal/services/merchant"
	"merx/internal/utils/pagination"
	"merx/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type MerchantHandler struct {
	merchants merchant.Service
}

func NewMerchantHandler(merchants merchant.Service) *MerchantHandler {
	return &MerchantHandler{merchants: merchants}
}

func (h *MerchantHandler) Create(c *fiber.Ctx) error {
	var req merchant.CreateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	created, err := h.merchants.Create(c.Context(), tenantID(c), req, actorID(c))
	if err != nil {
		return respondError(c, err)
	}
	return response.Created(c, created)
}

func (h *MerchantHandler) List(c *fiber.Ctx) error {
	p := pagination.ParseFromRequest(c)
	filter := merchant.Filter{
		Status:    c.Query("status"),
		KYCStatus: c.Query("kyc_status"),
		Type:      c.Query("type"),
	}

	merchants, total, err := h.merchants.List(c.Context(), tenantID(c), filter, p.Limit, p.Offset)
	if err != nil {
		return respondError(c, err)
	}
	p.Total = total
	return response.Success(c, pagination.Response(p, merchants))
}

func (h *MerchantHandler) Get(c *fiber.Ctx) error {
	m, err := h.merchants.Get(c.Context(), tenantID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, m)
}

func (h *MerchantHandler) Delete(c *fiber.Ctx) error {
	if err := h.merchants.Delete(c.Context(), tenantID(c), c.Params("id"), actorID(c)); err != nil {
		return respondError(c, err)
	}
	return response.Success(c, fiber.Map{"message": "merchant deleted"})
}

func (h *MerchantHandler) StartKyc(c *fiber.Ctx) error {
	m, err := h.merchants.StartKyc(c.Context(), tenantID(c), c.Params("id"), actorID(c))
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, m)
}

func (h *MerchantHandler) UploadKycDocument(c *fiber.Ctx) error {
	var input struct {
		DocumentType string `json:"document_type"`
		Reference    string `json:"reference"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	m, err := h.merchants.UploadKycDocument(c.Context(), tenantID(c), c.Params("id"), input.DocumentType, input.Reference, actorID(c))
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, m)
}

func (h *MerchantHandler) ApproveKyc(c *fiber.Ctx) error {
	m, err := h.merchants.ApproveKyc(c.Context(), tenantID(c), c.Params("id"), actorID(c))
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, m)
}

func (h *MerchantHandler) RejectKyc(c *fiber.Ctx) error {
	var input struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	m, err := h.merchants.RejectKyc(c.Context(), tenantID(c), c.Params("id"), input.Reason, actorID(c))
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, m)
}

func (h *MerchantHandler) Activate(c *fiber.Ctx) error {
	m, err := h.merchants.Activate(c.Context(), tenantID(c), c.Params("id"), actorID(c))
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, m)
}

func (h *MerchantHandler) Suspend(c *fiber.Ctx) error {
	var input struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	m, err := h.merchants.Suspend(c.Context(), tenantID(c), c.Params("id"), input.Reason, actorID(c))
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, m)
}

func (h *MerchantHandler) Reactivate(c *fiber.Ctx) error {
	m, err := h.merchants.Reactivate(c.Context(), tenantID(c), c.Params("id"), actorID(c))
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, m)
}
