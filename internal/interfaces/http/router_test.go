package http_test

import (
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"

	ihttp "github.com/facturape/sifen-api/internal/interfaces/http"
)

// Las rutas son contrato público: los clientes las construyen a mano, un
// rename silencioso los deja con 404 en cada acción del ciclo de vida.
func TestRouter_RutasDelContrato(t *testing.T) {
	app := fiber.New()
	ihttp.Router(app, ihttp.RouterDeps{JWTSecret: "secreto"})

	registradas := make(map[string]bool)
	for _, rutas := range app.Stack() {
		for _, r := range rutas {
			clave := r.Method + " " + strings.TrimSuffix(r.Path, "/")
			registradas[clave] = true
		}
	}

	esperadas := []string{
		"POST /api/tenants/:tenantId/sifen/de",
		"GET /api/tenants/:tenantId/sifen/de",
		"GET /api/tenants/:tenantId/sifen/de/:deId",
		"POST /api/tenants/:tenantId/sifen/de/:deId/sign",
		"POST /api/tenants/:tenantId/sifen/de/:deId/anular",
		"GET /api/tenants/:tenantId/sifen/de/:deId/xml",
		"GET /api/tenants/:tenantId/sifen/de/:deId/kude",
		"GET /api/tenants/:tenantId/sifen/consultas/:cdc",
		"GET /api/tenants/:tenantId/sifen/metrics",
		"POST /api/tenants/:tenantId/sifen/lotes/armar",
		"GET /api/tenants/:tenantId/sifen/lotes",
		"GET /api/tenants/:tenantId/sifen/lotes/:loteId",
		"POST /api/tenants/:tenantId/sifen/lotes/:loteId/send",
		"POST /api/tenants/:tenantId/sifen/lotes/:loteId/poll",
		"POST /api/tenants/:tenantId/sifen/numeracion",
		"GET /api/tenants/:tenantId/sifen/numeracion",
		"DELETE /api/tenants/:tenantId/sifen/numeracion/:id",
		"GET /api/tenants/:tenantId/sifen/config",
		"PUT /api/tenants/:tenantId/sifen/config",
	}
	for _, ruta := range esperadas {
		assert.True(t, registradas[ruta], "ruta no registrada: %s", ruta)
	}
}
