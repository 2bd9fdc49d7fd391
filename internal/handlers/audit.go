package handlers

import (
	"fmt"
	"time"

	"merx/internal/services/audit"
	"merx/internal/utils/pagination"
	"merx/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type AuditHandler struct {
	audit audit.Service
}

func NewAuditHandler(auditSvc audit.Service) *AuditHandler {
	return &AuditHandler{audit: auditSvc}
}

func (h *AuditHandler) List(c *fiber.Ctx) error {
	p := pagination.ParseFromRequest(c)
	filter := auditFilterFromQuery(c)

	logs, total, err := h.audit.List(c.Context(), tenantID(c), filter, p.Limit, p.Offset)
	if err != nil {
		return respondError(c, err)
	}
	p.Total = total
	return response.Success(c, pagination.Response(p, logs))
}

// ListByEntity returns the full trail for one entity, newest first.
func (h *AuditHandler) ListByEntity(c *fiber.Ctx) error {
	logs, err := h.audit.ListByEntity(c.Context(), tenantID(c), c.Params("type"), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, logs)
}

// Export downloads every entry matching the filter. The export itself
// is audited as a PCI-relevant access.
func (h *AuditHandler) Export(c *fiber.Ctx) error {
	logs, err := h.audit.Export(c.Context(), tenantID(c), actorID(c), auditFilterFromQuery(c))
	if err != nil {
		return respondError(c, err)
	}

	filename := fmt.Sprintf("audit-export-%s-%s.json", time.Now().UTC().Format("2006-01-02"), uuid.NewString()[:8])
	c.Set(fiber.HeaderContentDisposition, `attachment; filename=`+filename)
	return c.JSON(logs)
}

func auditFilterFromQuery(c *fiber.Ctx) audit.Filter {
	return audit.Filter{
		Action:       c.Query("action"),
		Level:        c.Query("level"),
		EntityType:   c.Query("entity_type"),
		EntityID:     c.Query("entity_id"),
		SecurityOnly: c.QueryBool("security_only"),
		PCIOnly:      c.QueryBool("pci_only"),
		From:         parseTimeQuery(c, "from"),
		To:           parseTimeQuery(c, "to"),
	}
}
