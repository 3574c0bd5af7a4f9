package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/facturape/sifen-api/internal/application/dto"
	appsifen "github.com/facturape/sifen-api/internal/application/sifen"
)

// NumeracionHandler administra las series de numeración (timbrados).
type NumeracionHandler struct {
	uc *appsifen.NumeracionUseCase
}

// NewNumeracionHandler construye el handler.
func NewNumeracionHandler(uc *appsifen.NumeracionUseCase) *NumeracionHandler {
	return &NumeracionHandler{uc: uc}
}

// Create registra una serie de numeración para el tenant.
// POST /api/tenants/:tenantId/sifen/numeracion
func (h *NumeracionHandler) Create(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	var in dto.CrearTimbradoRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	tb, err := h.uc.Crear(c.Context(), tenantID, &in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(appsifen.ToTimbradoResponse(tb))
}

// List lista las series del tenant.
// GET /api/tenants/:tenantId/sifen/numeracion
func (h *NumeracionHandler) List(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	series, err := h.uc.List(c.Context(), tenantID)
	if err != nil {
		return respondError(c, err)
	}
	items := make([]dto.TimbradoResponse, 0, len(series))
	for _, tb := range series {
		items = append(items, appsifen.ToTimbradoResponse(tb))
	}
	return c.JSON(fiber.Map{"items": items})
}

// Delete elimina una serie sin documentos emitidos.
// DELETE /api/tenants/:tenantId/sifen/numeracion/:id
func (h *NumeracionHandler) Delete(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if err := h.uc.Eliminar(c.Context(), tenantID, c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
