package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	appsifen "github.com/facturape/sifen-api/internal/application/sifen"
	"github.com/facturape/sifen-api/internal/application/dto"
	"github.com/facturape/sifen-api/internal/domain/repository"
)

// DocumentoHandler maneja el ciclo de vida del Documento Electrónico (protegido).
type DocumentoHandler struct {
	crear     *appsifen.CrearDocumentoUseCase
	emitir    *appsifen.EmitirOrchestrator
	anular    *appsifen.AnularUseCase
	documento *appsifen.DocumentoUseCase
	lotes     *appsifen.LoteUseCase
}

// NewDocumentoHandler construye el handler.
func NewDocumentoHandler(
	crear *appsifen.CrearDocumentoUseCase,
	emitir *appsifen.EmitirOrchestrator,
	anular *appsifen.AnularUseCase,
	documento *appsifen.DocumentoUseCase,
	lotes *appsifen.LoteUseCase,
) *DocumentoHandler {
	return &DocumentoHandler{crear: crear, emitir: emitir, anular: anular, documento: documento, lotes: lotes}
}

// Create crea un DE en borrador: numeración atómica + CDC + totales.
// POST /api/tenants/:tenantId/sifen/de
func (h *DocumentoHandler) Create(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	var in dto.CrearDocumentoRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	doc, err := h.crear.Crear(c.Context(), tenantID, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(doc)
}

// Emitir dispara la firma digital y el encolado del DE (asíncrono).
// POST /api/tenants/:tenantId/sifen/de/:deId/sign
func (h *DocumentoHandler) Emitir(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	id := c.Params("deId")
	if err := h.emitir.Emitir(c.Context(), tenantID, id); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "processing", "documento_id": id})
}

// List lista documentos con filtros y paginación.
// GET /api/tenants/:tenantId/sifen/de
func (h *DocumentoHandler) List(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)

	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	page.DefaultPage()

	f := repository.DocumentoFilter{
		Estado: c.Query("estado"),
		TipoDE: c.Query("tipo_documento"),
		Query:  c.Query("q"),
		Limit:  page.Limit,
		Offset: page.Offset,
	}
	if s := c.Query("desde"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "desde: formato AAAA-MM-DD"})
		}
		f.Desde = &t
	}
	if s := c.Query("hasta"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "hasta: formato AAAA-MM-DD"})
		}
		f.Hasta = &t
	}

	docs, total, err := h.documento.List(c.Context(), tenantID, f)
	if err != nil {
		return respondError(c, err)
	}
	items := make([]dto.DocumentoResponse, 0, len(docs))
	for _, d := range docs {
		items = append(items, appsifen.ToDocumentoResponse(d))
	}
	return c.JSON(fiber.Map{
		"items": items,
		"page":  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: total},
	})
}

// GetByID detalle completo de un DE, ítems incluidos.
// GET /api/tenants/:tenantId/sifen/de/:deId
func (h *DocumentoHandler) GetByID(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	doc, err := h.documento.Get(c.Context(), tenantID, c.Params("deId"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(appsifen.ToDocumentoDetalle(doc))
}

// XML descarga el XML del DE (firmado si ya se firmó).
// GET /api/tenants/:tenantId/sifen/de/:deId/xml
func (h *DocumentoHandler) XML(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	data, filename, err := h.documento.XML(c.Context(), tenantID, c.Params("deId"))
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/xml; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(data)
}

// Kude descarga la representación gráfica en PDF (solo APPROVED o CANCELLED).
// GET /api/tenants/:tenantId/sifen/de/:deId/kude
func (h *DocumentoHandler) Kude(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	data, filename, err := h.documento.Kude(c.Context(), tenantID, c.Params("deId"))
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(data)
}

// Anular envía el evento de cancelación a la SET (solo APPROVED).
// POST /api/tenants/:tenantId/sifen/de/:deId/anular
func (h *DocumentoHandler) Anular(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	var in dto.AnularRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	doc, err := h.anular.Anular(c.Context(), tenantID, c.Params("deId"), in.Motivo)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(appsifen.ToDocumentoDetalle(doc))
}

// ConsultaCDC consulta el estado de un DE contra la SET por su CDC.
// GET /api/tenants/:tenantId/sifen/consultas/:cdc
func (h *DocumentoHandler) ConsultaCDC(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	doc, err := h.lotes.ConsultarDocumento(c.Context(), tenantID, c.Params("cdc"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(appsifen.ToDocumentoDetalle(doc))
}

// Metrics agregados por estado y tipo para el dashboard.
// GET /api/tenants/:tenantId/sifen/metrics
func (h *DocumentoHandler) Metrics(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	var desde, hasta time.Time
	if s := c.Query("desde"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "desde: formato AAAA-MM-DD"})
		}
		desde = t
	}
	if s := c.Query("hasta"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "hasta: formato AAAA-MM-DD"})
		}
		hasta = t
	}
	m, err := h.documento.Metrics(c.Context(), tenantID, desde, hasta)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(appsifen.ToMetricsResponse(m))
}
