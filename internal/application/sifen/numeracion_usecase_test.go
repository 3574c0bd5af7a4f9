package sifen_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facturape/sifen-api/internal/application/dto"
	appsifen "github.com/facturape/sifen-api/internal/application/sifen"
	"github.com/facturape/sifen-api/internal/domain"
	"github.com/facturape/sifen-api/internal/domain/entity"
)

func nuevoNumeracionUC(t *testing.T) (*appsifen.NumeracionUseCase, *fakeTimbradoRepo, *fakeDocumentoRepo) {
	t.Helper()
	timbradoRepo := newFakeTimbradoRepo()
	docRepo := newFakeDocumentoRepo()
	docRepo.timbrados = timbradoRepo
	uc := appsifen.NewNumeracionUseCase(timbradoRepo, docRepo, testLogger())
	return uc, timbradoRepo, docRepo
}

func requestTimbrado(numero string) *dto.CrearTimbradoRequest {
	hoy := time.Now()
	return &dto.CrearTimbradoRequest{
		TipoDE:          "1",
		Establecimiento: "001",
		PuntoExpedicion: "001",
		NumeroTimbrado:  numero,
		InicioVigencia:  hoy.AddDate(0, -1, 0).Format("2006-01-02"),
		FinVigencia:     hoy.AddDate(1, 0, 0).Format("2006-01-02"),
	}
}

func TestCrearTimbrado_CaminoFeliz(t *testing.T) {
	uc, _, _ := nuevoNumeracionUC(t)

	tb, err := uc.Crear(context.Background(), testTenant, requestTimbrado("11111111"))
	require.NoError(t, err)
	assert.Equal(t, "11111111", tb.NumeroTimbrado)
	assert.True(t, tb.Activo)
	assert.Zero(t, tb.UltimoNumero)
}

// Una sola serie abierta por (tenant, tipo, establecimiento, punto): un
// segundo timbrado para la misma clave, aunque tenga otro número, abriría
// dos contadores en paralelo para el mismo punto de expedición.
func TestCrearTimbrado_SegundaSerieAbiertaMismaClave(t *testing.T) {
	uc, repo, _ := nuevoNumeracionUC(t)

	_, err := uc.Crear(context.Background(), testTenant, requestTimbrado("11111111"))
	require.NoError(t, err)

	_, err = uc.Crear(context.Background(), testTenant, requestTimbrado("22222222"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))

	series, err := repo.ListByTenant(context.Background(), testTenant)
	require.NoError(t, err)
	abiertas := 0
	for _, tb := range series {
		if tb.Activo {
			abiertas++
		}
	}
	assert.Equal(t, 1, abiertas, "nunca más de una serie abierta por clave")
}

func TestCrearTimbrado_ClavesDistintasNoChocan(t *testing.T) {
	uc, _, _ := nuevoNumeracionUC(t)

	_, err := uc.Crear(context.Background(), testTenant, requestTimbrado("11111111"))
	require.NoError(t, err)

	// Otro punto de expedición es otra clave
	otroPunto := requestTimbrado("11111111")
	otroPunto.PuntoExpedicion = "002"
	_, err = uc.Crear(context.Background(), testTenant, otroPunto)
	require.NoError(t, err)

	// Otro tipo de documento también
	otroTipo := requestTimbrado("11111111")
	otroTipo.TipoDE = "5"
	_, err = uc.Crear(context.Background(), testTenant, otroTipo)
	require.NoError(t, err)

	// Y otro tenant
	_, err = uc.Crear(context.Background(), "tenant-2", requestTimbrado("11111111"))
	require.NoError(t, err)
}

func TestCrearTimbrado_Validaciones(t *testing.T) {
	uc, _, _ := nuevoNumeracionUC(t)

	casos := []struct {
		nombre  string
		mutador func(*dto.CrearTimbradoRequest)
	}{
		{"tipo desconocido", func(r *dto.CrearTimbradoRequest) { r.TipoDE = "9" }},
		{"establecimiento corto", func(r *dto.CrearTimbradoRequest) { r.Establecimiento = "01" }},
		{"timbrado de 7 dígitos", func(r *dto.CrearTimbradoRequest) { r.NumeroTimbrado = "1234567" }},
		{"vigencia invertida", func(r *dto.CrearTimbradoRequest) {
			r.InicioVigencia, r.FinVigencia = r.FinVigencia, r.InicioVigencia
		}},
		{"fecha malformada", func(r *dto.CrearTimbradoRequest) { r.InicioVigencia = "15/08/2026" }},
	}
	for _, c := range casos {
		t.Run(c.nombre, func(t *testing.T) {
			req := requestTimbrado("33333333")
			c.mutador(req)
			_, err := uc.Crear(context.Background(), testTenant, req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrValidation))
		})
	}
}

func TestEliminarTimbrado_SerieUsadaNoSeElimina(t *testing.T) {
	uc, _, docRepo := nuevoNumeracionUC(t)

	tb, err := uc.Crear(context.Background(), testTenant, requestTimbrado("11111111"))
	require.NoError(t, err)

	require.NoError(t, docRepo.Create(context.Background(), &entity.Documento{
		ID:              "doc-1",
		TenantID:        testTenant,
		TipoDE:          "1",
		Timbrado:        tb.NumeroTimbrado,
		Establecimiento: tb.Establecimiento,
		PuntoExpedicion: tb.PuntoExpedicion,
		Numero:          "0000001",
		Total:           decimal.NewFromInt(100_000),
		CreatedAt:       time.Now(),
	}))

	err = uc.Eliminar(context.Background(), testTenant, tb.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestEliminarTimbrado_SerieSinUso(t *testing.T) {
	uc, repo, _ := nuevoNumeracionUC(t)

	tb, err := uc.Crear(context.Background(), testTenant, requestTimbrado("11111111"))
	require.NoError(t, err)

	require.NoError(t, uc.Eliminar(context.Background(), testTenant, tb.ID))
	quedan, err := repo.ListByTenant(context.Background(), testTenant)
	require.NoError(t, err)
	assert.Empty(t, quedan)
}
