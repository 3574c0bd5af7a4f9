package sifen_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domsifen "github.com/facturape/sifen-api/internal/domain/sifen"
)

// ──────────────────────────────────────────────────────────────────────────────
// TestBuildCDC valida que la composición del CDC de 44 dígitos produce el
// valor exacto esperado para componentes conocidos.
//
// Este test es el canario de la integración SIFEN: si alguien modifica la
// concatenación, el código de seguridad derivado o el módulo 11, el test
// falla de inmediato.
//
// Vector calculado manualmente:
//
//	base(34) = "01" + "80012345" + "0" + "001" + "001" + "0000123" +
//	           "2" + "20260815" + "1"
//	códigoSeguridad = SHA-256(base) mod 10^9 = 193437924
//	DV módulo 11 del total = 9
// ──────────────────────────────────────────────────────────────────────────────

const testCDCEsperado = "01800123450001001000012322026081511934379249"

func paramsDePrueba() *domsifen.CDCParams {
	return &domsifen.CDCParams{
		TipoDE:            "1",
		RUC:               "80012345",
		DV:                0,
		Establecimiento:   "001",
		PuntoExpedicion:   "001",
		Numero:            "0000123",
		TipoContribuyente: "2",
		FechaEmision:      time.Date(2026, 8, 15, 10, 30, 0, 0, time.UTC),
		TipoEmision:       "1",
	}
}

func TestBuildCDC_VectorExacto(t *testing.T) {
	cdc, err := domsifen.BuildCDC(paramsDePrueba())
	require.NoError(t, err)
	require.Len(t, cdc, domsifen.CDCLength)
	assert.Equal(t, testCDCEsperado, cdc,
		"el CDC debe coincidir exactamente con el vector conocido")
}

func TestBuildCDC_EsDeterminista(t *testing.T) {
	a, err := domsifen.BuildCDC(paramsDePrueba())
	require.NoError(t, err)
	b, err := domsifen.BuildCDC(paramsDePrueba())
	require.NoError(t, err)
	assert.Equal(t, a, b, "el mismo documento siempre produce el mismo CDC")
}

func TestBuildCDC_DocumentosDistintosProducenCDCDistintos(t *testing.T) {
	a, err := domsifen.BuildCDC(paramsDePrueba())
	require.NoError(t, err)

	otro := paramsDePrueba()
	otro.Numero = "0000124"
	b, err := domsifen.BuildCDC(otro)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestBuildCDC_TipoEmisionVaciaAsumeNormal(t *testing.T) {
	p := paramsDePrueba()
	p.TipoEmision = ""
	cdc, err := domsifen.BuildCDC(p)
	require.NoError(t, err)
	assert.Equal(t, testCDCEsperado, cdc, "tipo de emisión vacío equivale a normal (1)")
}

func TestBuildCDC_RechazaComponentesInvalidos(t *testing.T) {
	casos := []struct {
		nombre string
		mutar  func(p *domsifen.CDCParams)
	}{
		{"RUC vacío", func(p *domsifen.CDCParams) { p.RUC = "" }},
		{"RUC demasiado largo", func(p *domsifen.CDCParams) { p.RUC = "123456789" }},
		{"DV fuera de rango", func(p *domsifen.CDCParams) { p.DV = 12 }},
		{"establecimiento vacío", func(p *domsifen.CDCParams) { p.Establecimiento = "" }},
		{"número de 8 dígitos", func(p *domsifen.CDCParams) { p.Numero = "00001234" }},
		{"tipo de contribuyente inválido", func(p *domsifen.CDCParams) { p.TipoContribuyente = "3" }},
		{"tipo de emisión inválido", func(p *domsifen.CDCParams) { p.TipoEmision = "5" }},
		{"fecha cero", func(p *domsifen.CDCParams) { p.FechaEmision = time.Time{} }},
	}
	for _, c := range casos {
		t.Run(c.nombre, func(t *testing.T) {
			p := paramsDePrueba()
			c.mutar(p)
			_, err := domsifen.BuildCDC(p)
			assert.Error(t, err)
		})
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// ParseCDC
// ──────────────────────────────────────────────────────────────────────────────

func TestParseCDC_RoundTrip(t *testing.T) {
	cdc, err := domsifen.BuildCDC(paramsDePrueba())
	require.NoError(t, err)

	campos, err := domsifen.ParseCDC(cdc)
	require.NoError(t, err)

	assert.Equal(t, "01", campos.TipoDE)
	assert.Equal(t, "80012345", campos.RUC)
	assert.Equal(t, "0", campos.DV)
	assert.Equal(t, "001", campos.Establecimiento)
	assert.Equal(t, "001", campos.PuntoExpedicion)
	assert.Equal(t, "0000123", campos.Numero)
	assert.Equal(t, "2", campos.TipoContribuyente)
	assert.Equal(t, "20260815", campos.FechaEmision)
	assert.Equal(t, "1", campos.TipoEmision)
	assert.Len(t, campos.CodigoSeguridad, 9)
}

func TestParseCDC_RechazaLongitudIncorrecta(t *testing.T) {
	_, err := domsifen.ParseCDC("123")
	assert.Error(t, err)
}

func TestParseCDC_RechazaCaracteresNoNumericos(t *testing.T) {
	cdc := testCDCEsperado[:43] + "X"
	_, err := domsifen.ParseCDC(cdc)
	assert.Error(t, err)
}

func TestParseCDC_RechazaDigitoVerificadorAlterado(t *testing.T) {
	// Cambiar el último dígito invalida el módulo 11
	alterado := testCDCEsperado[:43] + "0"
	_, err := domsifen.ParseCDC(alterado)
	assert.Error(t, err, "un CDC con DV alterado no debe validar")
}
