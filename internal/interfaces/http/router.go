package http

import (
	"github.com/gofiber/fiber/v2"

	appsifen "github.com/facturape/sifen-api/internal/application/sifen"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	CrearDocumento *appsifen.CrearDocumentoUseCase
	Emitir         *appsifen.EmitirOrchestrator
	Anular         *appsifen.AnularUseCase
	DocumentoUC    *appsifen.DocumentoUseCase
	LoteUC         *appsifen.LoteUseCase
	NumeracionUC   *appsifen.NumeracionUseCase
	ConfigUC       *appsifen.ConfigUseCase
	JWTSecret      string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Todo el árbol SIFEN exige token y pertenencia al tenant de la ruta.
	sifen := api.Group("/tenants/:tenantId/sifen",
		AuthMiddleware(deps.JWTSecret),
		TenantMiddleware(),
	)

	// Documentos electrónicos
	docHandler := NewDocumentoHandler(deps.CrearDocumento, deps.Emitir, deps.Anular, deps.DocumentoUC, deps.LoteUC)
	de := sifen.Group("/de")
	de.Post("/", docHandler.Create)
	de.Get("/", docHandler.List)
	de.Get("/:deId", docHandler.GetByID)
	de.Post("/:deId/sign", docHandler.Emitir)
	de.Post("/:deId/anular", docHandler.Anular)
	de.Get("/:deId/xml", docHandler.XML)
	de.Get("/:deId/kude", docHandler.Kude)

	// Consulta directa por CDC contra la SET
	sifen.Get("/consultas/:cdc", docHandler.ConsultaCDC)

	// Métricas del dashboard
	sifen.Get("/metrics", docHandler.Metrics)

	// Lotes (operación manual; el worker cubre el camino automático)
	loteHandler := NewLoteHandler(deps.LoteUC)
	lotes := sifen.Group("/lotes")
	lotes.Post("/armar", loteHandler.Armar)
	lotes.Get("/", loteHandler.List)
	lotes.Get("/:loteId", loteHandler.GetByID)
	lotes.Post("/:loteId/send", loteHandler.Enviar)
	lotes.Post("/:loteId/poll", loteHandler.Consultar)

	// Numeración (timbrados)
	numHandler := NewNumeracionHandler(deps.NumeracionUC)
	numeracion := sifen.Group("/numeracion")
	numeracion.Post("/", numHandler.Create)
	numeracion.Get("/", numHandler.List)
	numeracion.Delete("/:id", numHandler.Delete)

	// Configuración del emisor
	cfgHandler := NewConfigHandler(deps.ConfigUC)
	sifen.Get("/config", cfgHandler.Get)
	sifen.Put("/config", cfgHandler.Update)
}
