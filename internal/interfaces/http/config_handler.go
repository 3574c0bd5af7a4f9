package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/facturape/sifen-api/internal/application/dto"
	appsifen "github.com/facturape/sifen-api/internal/application/sifen"
)

// ConfigHandler expone la configuración SIFEN del tenant.
// Los secretos (CSC, llave privada, passphrase) son write-only: entran por
// PUT y jamás vuelven en una respuesta.
type ConfigHandler struct {
	uc *appsifen.ConfigUseCase
}

// NewConfigHandler construye el handler.
func NewConfigHandler(uc *appsifen.ConfigUseCase) *ConfigHandler {
	return &ConfigHandler{uc: uc}
}

// Get proyección pública de la configuración (flags de presencia, sin secretos).
// GET /api/tenants/:tenantId/sifen/config
func (h *ConfigHandler) Get(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	pub, err := h.uc.Get(c.Context(), tenantID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(appsifen.ToConfigResponse(pub))
}

// Update aplica un patch sobre la configuración. Cambiar el ambiente a
// PRODUCCION exige confirmar_produccion=true.
// PUT /api/tenants/:tenantId/sifen/config
func (h *ConfigHandler) Update(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	var in dto.UpdateConfigRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	pub, err := h.uc.Update(c.Context(), tenantID, &in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(appsifen.ToConfigResponse(pub))
}
