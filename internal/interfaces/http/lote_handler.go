package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/facturape/sifen-api/internal/application/dto"
	appsifen "github.com/facturape/sifen-api/internal/application/sifen"
)

// LoteHandler maneja la operación manual de lotes (el worker hace lo mismo solo).
type LoteHandler struct {
	lotes *appsifen.LoteUseCase
}

// NewLoteHandler construye el handler.
func NewLoteHandler(lotes *appsifen.LoteUseCase) *LoteHandler {
	return &LoteHandler{lotes: lotes}
}

// Armar cierra un lote con los documentos encolados del tenant (FIFO, máx. 50).
// POST /api/tenants/:tenantId/sifen/lotes/armar
func (h *LoteHandler) Armar(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	lote, err := h.lotes.ArmarLote(c.Context(), tenantID)
	if err != nil {
		return respondError(c, err)
	}
	if lote == nil {
		return c.JSON(fiber.Map{"message": "sin documentos encolados"})
	}
	return c.Status(fiber.StatusCreated).JSON(appsifen.ToLoteResponse(lote, true))
}

// Enviar transmite el lote a la SET vía siRecepLoteDE.
// POST /api/tenants/:tenantId/sifen/lotes/:loteId/send
func (h *LoteHandler) Enviar(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	lote, err := h.lotes.EnviarLote(c.Context(), tenantID, c.Params("loteId"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(appsifen.ToLoteResponse(lote, true))
}

// Consultar consulta el resultado del lote (idempotente: un lote terminal
// responde desde la base sin llamar al WS).
// POST /api/tenants/:tenantId/sifen/lotes/:loteId/poll
func (h *LoteHandler) Consultar(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	lote, err := h.lotes.ConsultarLote(c.Context(), tenantID, c.Params("loteId"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(appsifen.ToLoteResponse(lote, true))
}

// GetByID detalle del lote con sus ítems.
// GET /api/tenants/:tenantId/sifen/lotes/:loteId
func (h *LoteHandler) GetByID(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	lote, err := h.lotes.GetLote(c.Context(), tenantID, c.Params("loteId"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(appsifen.ToLoteResponse(lote, true))
}

// List lista lotes paginados, más reciente primero.
// GET /api/tenants/:tenantId/sifen/lotes
func (h *LoteHandler) List(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	page.DefaultPage()

	lotes, total, err := h.lotes.ListLotes(c.Context(), tenantID, page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	items := make([]dto.LoteResponse, 0, len(lotes))
	for _, l := range lotes {
		items = append(items, appsifen.ToLoteResponse(l, false))
	}
	return c.JSON(fiber.Map{
		"items": items,
		"page":  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: total},
	})
}
