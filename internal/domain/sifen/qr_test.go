package sifen_test

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domsifen "github.com/facturape/sifen-api/internal/domain/sifen"
)

func qrParamsDePrueba() *domsifen.QRParams {
	return &domsifen.QRParams{
		BaseURL:      "https://ekuatia.set.gov.py/consultas-test/qr?",
		CDC:          testCDCEsperado,
		FechaEmision: "2026-08-15",
		RUCReceptor:  "80069563",
		Total:        decimal.NewFromInt(1_500_000),
		TotalIVA:     decimal.NewFromInt(136_364),
		CantItems:    1,
		DigestValue:  "abc123",
		IDCSC:        "0001",
		CSC:          "ABCD0000000000000000000000000000",
	}
}

func TestBuildQR_VectorExacto(t *testing.T) {
	qr, err := domsifen.BuildQR(qrParamsDePrueba())
	require.NoError(t, err)

	// Canario: cadena de parámetros y hash verificados a mano.
	// sha256(params + CSC) con la fecha y el DigestValue en hex.
	esperado := "https://ekuatia.set.gov.py/consultas-test/qr?" +
		"nVersion=150" +
		"&Id=" + testCDCEsperado +
		"&dFeEmiDE=323032362d30382d3135" +
		"&dRucRec=80069563" +
		"&dTotGralOpe=1500000" +
		"&dTotIVA=136364" +
		"&cItems=1" +
		"&DigestValue=616263313233" +
		"&IdCSC=0001" +
		"&cHashQR=d1094a31f6e22ab5b10de0d6ac7fd5f9b4e2234009dc8a75a785559d70e41321"
	assert.Equal(t, esperado, qr)
}

func TestBuildQR_ElCSCNoViajaEnLaURL(t *testing.T) {
	p := qrParamsDePrueba()
	qr, err := domsifen.BuildQR(p)
	require.NoError(t, err)

	assert.NotContains(t, qr, p.CSC, "el CSC solo entra al hash")
}

func TestBuildQR_CSCDistintoCambiaElHash(t *testing.T) {
	a, err := domsifen.BuildQR(qrParamsDePrueba())
	require.NoError(t, err)

	p := qrParamsDePrueba()
	p.CSC = "EFGH0000000000000000000000000000"
	b, err := domsifen.BuildQR(p)
	require.NoError(t, err)

	require.NotEqual(t, a, b)
	// Solo difiere el cHashQR: los parámetros visibles son idénticos
	assert.Equal(t, a[:strings.Index(a, "cHashQR=")], b[:strings.Index(b, "cHashQR=")])
}

func TestBuildQR_ReceptorInnominado(t *testing.T) {
	p := qrParamsDePrueba()
	p.RUCReceptor = ""
	qr, err := domsifen.BuildQR(p)
	require.NoError(t, err)
	assert.Contains(t, qr, "dRucRec=0")
}

func TestBuildQR_CamposObligatorios(t *testing.T) {
	sinCDC := qrParamsDePrueba()
	sinCDC.CDC = ""
	_, err := domsifen.BuildQR(sinCDC)
	require.Error(t, err)

	sinCSC := qrParamsDePrueba()
	sinCSC.CSC = ""
	_, err = domsifen.BuildQR(sinCSC)
	require.Error(t, err)
}
