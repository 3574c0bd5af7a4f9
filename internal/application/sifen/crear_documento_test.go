package sifen_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facturape/sifen-api/internal/application/dto"
	appsifen "github.com/facturape/sifen-api/internal/application/sifen"
	"github.com/facturape/sifen-api/internal/domain"
	"github.com/facturape/sifen-api/internal/domain/entity"
)

const testTenant = "tenant-1"

func nuevoCrearUC(t *testing.T) (*appsifen.CrearDocumentoUseCase, *fakeDocumentoRepo, *fakeTimbradoRepo, *fakeConfigRepo) {
	t.Helper()
	docRepo := newFakeDocumentoRepo()
	timbradoRepo := newFakeTimbradoRepo()
	configRepo := newFakeConfigRepo()
	tx := &fakeTxRunner{docRepo: docRepo, timbradoRepo: timbradoRepo}

	require.NoError(t, configRepo.Upsert(context.Background(), configDePrueba(testTenant)))
	require.NoError(t, timbradoRepo.Create(context.Background(), timbradoDePrueba(testTenant, "1")))

	uc := appsifen.NewCrearDocumentoUseCase(tx, docRepo, configRepo, fakeXMLBuilder{})
	return uc, docRepo, timbradoRepo, configRepo
}

func requestFactura(items ...dto.ItemRequest) dto.CrearDocumentoRequest {
	return dto.CrearDocumentoRequest{
		TipoDE: "1",
		Receptor: dto.ReceptorRequest{
			RazonSocial: "Cliente Demo S.R.L.",
			RUC:         "80069563-1",
		},
		Items: items,
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Cálculo de totales: el IVA viene incluido en los precios.
//
// Vector de referencia: 100 unidades × 15.000 Gs al 10%
//
//	subtotal = 1.500.000
//	IVA      = round(1.500.000 × 10 / 110) = 136.364
// ──────────────────────────────────────────────────────────────────────────────

func TestCrear_IVAIncluidoTasa10_VectorExacto(t *testing.T) {
	uc, _, _, _ := nuevoCrearUC(t)

	resp, err := uc.Crear(context.Background(), testTenant, requestFactura(dto.ItemRequest{
		Descripcion:    "Servicio de consultoría",
		Cantidad:       decimal.NewFromInt(100),
		PrecioUnitario: decimal.NewFromInt(15_000),
		TasaIVA:        10,
	}))
	require.NoError(t, err)

	require.Len(t, resp.Items, 1)
	assert.True(t, resp.Items[0].Subtotal.Equal(decimal.NewFromInt(1_500_000)),
		"subtotal debe ser 1.500.000, fue %s", resp.Items[0].Subtotal)
	assert.True(t, resp.Items[0].IVAItem.Equal(decimal.NewFromInt(136_364)),
		"IVA extraído debe ser 136.364, fue %s", resp.Items[0].IVAItem)

	assert.True(t, resp.Gravada10.Equal(decimal.NewFromInt(1_500_000)))
	assert.True(t, resp.IVA10.Equal(decimal.NewFromInt(136_364)))
	assert.True(t, resp.Total.Equal(decimal.NewFromInt(1_500_000)),
		"el total es la suma de subtotales (IVA incluido), no subtotal+IVA")
}

func TestCrear_IVAIncluidoTasa5(t *testing.T) {
	uc, _, _, _ := nuevoCrearUC(t)

	// 105.000 al 5% → IVA = round(105.000 × 5 / 105) = 5.000
	resp, err := uc.Crear(context.Background(), testTenant, requestFactura(dto.ItemRequest{
		Descripcion:    "Canasta básica",
		Cantidad:       decimal.NewFromInt(1),
		PrecioUnitario: decimal.NewFromInt(105_000),
		TasaIVA:        5,
	}))
	require.NoError(t, err)
	assert.True(t, resp.IVA5.Equal(decimal.NewFromInt(5_000)))
	assert.True(t, resp.Gravada5.Equal(decimal.NewFromInt(105_000)))
}

func TestCrear_ExentaNoGeneraIVA(t *testing.T) {
	uc, _, _, _ := nuevoCrearUC(t)

	resp, err := uc.Crear(context.Background(), testTenant, requestFactura(dto.ItemRequest{
		Descripcion:    "Libro",
		Cantidad:       decimal.NewFromInt(2),
		PrecioUnitario: decimal.NewFromInt(50_000),
		TasaIVA:        0,
	}))
	require.NoError(t, err)
	assert.True(t, resp.Exenta.Equal(decimal.NewFromInt(100_000)))
	assert.True(t, resp.IVA10.IsZero())
	assert.True(t, resp.IVA5.IsZero())
}

// ──────────────────────────────────────────────────────────────────────────────
// Numeración y CDC
// ──────────────────────────────────────────────────────────────────────────────

func TestCrear_NumeracionSecuencialSinHuecos(t *testing.T) {
	uc, _, _, _ := nuevoCrearUC(t)
	item := dto.ItemRequest{
		Descripcion:    "Producto",
		Cantidad:       decimal.NewFromInt(1),
		PrecioUnitario: decimal.NewFromInt(10_000),
		TasaIVA:        10,
	}

	a, err := uc.Crear(context.Background(), testTenant, requestFactura(item))
	require.NoError(t, err)
	b, err := uc.Crear(context.Background(), testTenant, requestFactura(item))
	require.NoError(t, err)

	assert.Equal(t, "001-001-0000001", a.Numero)
	assert.Equal(t, "001-001-0000002", b.Numero)
	assert.NotEqual(t, a.CDC, b.CDC, "documentos distintos producen CDC distintos")
	assert.Len(t, a.CDC, 44)
}

func TestCrear_SinSerieActiva(t *testing.T) {
	uc, _, timbradoRepo, _ := nuevoCrearUC(t)
	require.NoError(t, timbradoRepo.Delete(context.Background(), "tb-1"))

	_, err := uc.Crear(context.Background(), testTenant, requestFactura(dto.ItemRequest{
		Descripcion:    "Producto",
		Cantidad:       decimal.NewFromInt(1),
		PrecioUnitario: decimal.NewFromInt(10_000),
		TasaIVA:        10,
	}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNoActiveSeries))
}

func TestCrear_RequestInvalidoNoConsumeNumeros(t *testing.T) {
	uc, _, timbradoRepo, _ := nuevoCrearUC(t)

	_, err := uc.Crear(context.Background(), testTenant, requestFactura(dto.ItemRequest{
		Descripcion:    "Producto",
		Cantidad:       decimal.Zero, // inválido
		PrecioUnitario: decimal.NewFromInt(10_000),
		TasaIVA:        10,
	}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))

	tb, err := timbradoRepo.GetByID(context.Background(), "tb-1")
	require.NoError(t, err)
	assert.EqualValues(t, 0, tb.UltimoNumero,
		"un request inválido no debe reservar números de la serie")
}

// ──────────────────────────────────────────────────────────────────────────────
// Validaciones
// ──────────────────────────────────────────────────────────────────────────────

func TestCrear_NotaCreditoSinReferenciaFalla(t *testing.T) {
	uc, _, _, _ := nuevoCrearUC(t)

	in := requestFactura(dto.ItemRequest{
		Descripcion:    "Devolución",
		Cantidad:       decimal.NewFromInt(1),
		PrecioUnitario: decimal.NewFromInt(10_000),
		TasaIVA:        10,
	})
	in.TipoDE = "5" // nota de crédito

	_, err := uc.Crear(context.Background(), testTenant, in)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))
	assert.Contains(t, err.Error(), "de_referenciado_cdc")
}

func TestCrear_NotaCreditoContraDENoAprobadoFalla(t *testing.T) {
	uc, docRepo, timbradoRepo, _ := nuevoCrearUC(t)
	require.NoError(t, timbradoRepo.Create(context.Background(), timbradoDePrueba(testTenant, "5")))

	// DE referenciado existe pero sigue SENT
	ref := &entity.Documento{
		ID:       "doc-ref",
		TenantID: testTenant,
		CDC:      "01800123450001001000012322026081511934379249",
		Estado:   entity.EstadoDESent,
	}
	require.NoError(t, docRepo.Create(context.Background(), ref))

	in := requestFactura(dto.ItemRequest{
		Descripcion:    "Devolución",
		Cantidad:       decimal.NewFromInt(1),
		PrecioUnitario: decimal.NewFromInt(10_000),
		TasaIVA:        10,
	})
	in.TipoDE = "5"
	in.DEReferenciadoCDC = ref.CDC

	_, err := uc.Crear(context.Background(), testTenant, in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "APPROVED")
}

func TestCrear_ValidacionesDeRequest(t *testing.T) {
	uc, _, _, _ := nuevoCrearUC(t)
	base := dto.ItemRequest{
		Descripcion:    "Producto",
		Cantidad:       decimal.NewFromInt(1),
		PrecioUnitario: decimal.NewFromInt(10_000),
		TasaIVA:        10,
	}

	casos := []struct {
		nombre string
		mutar  func(in *dto.CrearDocumentoRequest)
	}{
		{"tipo de DE desconocido", func(in *dto.CrearDocumentoRequest) { in.TipoDE = "9" }},
		{"sin receptor", func(in *dto.CrearDocumentoRequest) { in.Receptor.RazonSocial = "" }},
		{"moneda no soportada", func(in *dto.CrearDocumentoRequest) { in.Moneda = "EUR" }},
		{"sin ítems", func(in *dto.CrearDocumentoRequest) { in.Items = nil }},
		{"tasa de IVA inválida", func(in *dto.CrearDocumentoRequest) { in.Items[0].TasaIVA = 7 }},
		{"precio negativo", func(in *dto.CrearDocumentoRequest) {
			in.Items[0].PrecioUnitario = decimal.NewFromInt(-1)
		}},
	}
	for _, c := range casos {
		t.Run(c.nombre, func(t *testing.T) {
			in := requestFactura(base)
			c.mutar(&in)
			_, err := uc.Crear(context.Background(), testTenant, in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrValidation))
		})
	}
}

func TestCrear_SinConfiguracionDeEmisor(t *testing.T) {
	docRepo := newFakeDocumentoRepo()
	timbradoRepo := newFakeTimbradoRepo()
	configRepo := newFakeConfigRepo() // sin configuración
	tx := &fakeTxRunner{docRepo: docRepo, timbradoRepo: timbradoRepo}
	uc := appsifen.NewCrearDocumentoUseCase(tx, docRepo, configRepo, fakeXMLBuilder{})

	_, err := uc.Crear(context.Background(), testTenant, requestFactura(dto.ItemRequest{
		Descripcion:    "Producto",
		Cantidad:       decimal.NewFromInt(1),
		PrecioUnitario: decimal.NewFromInt(10_000),
		TasaIVA:        10,
	}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
}
