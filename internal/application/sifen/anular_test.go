package sifen_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appsifen "github.com/facturape/sifen-api/internal/application/sifen"
	"github.com/facturape/sifen-api/internal/domain"
	"github.com/facturape/sifen-api/internal/domain/entity"
)

type anularFixture struct {
	uc      *appsifen.AnularUseCase
	docRepo *fakeDocumentoRepo
	client  *fakeSifenClient
	signer  *fakeSigner
}

func nuevoAnularUC(t *testing.T) *anularFixture {
	t.Helper()
	docRepo := newFakeDocumentoRepo()
	configRepo := newFakeConfigRepo()
	client := &fakeSifenClient{}
	signer := &fakeSigner{}

	require.NoError(t, configRepo.Upsert(context.Background(), configDePrueba(testTenant)))

	uc := appsifen.NewAnularUseCase(
		docRepo, configRepo,
		&fakeXMLBuilder{}, &fakeCertProvider{}, signer, client,
		testLogger(),
	)
	return &anularFixture{uc: uc, docRepo: docRepo, client: client, signer: signer}
}

func (f *anularFixture) sembrarAprobado(t *testing.T) *entity.Documento {
	t.Helper()
	doc := &entity.Documento{
		ID:        "doc-aprobado",
		TenantID:  testTenant,
		TipoDE:    "1",
		CDC:       strings.Repeat("4", 44),
		Estado:    entity.EstadoDEApproved,
		XMLSigned: "<rDE>firmado</rDE>",
		CreatedAt: time.Now(),
	}
	require.NoError(t, f.docRepo.Create(context.Background(), doc))
	return doc
}

func TestAnular_CaminoFeliz(t *testing.T) {
	f := nuevoAnularUC(t)
	doc := f.sembrarAprobado(t)

	anulado, err := f.uc.Anular(context.Background(), testTenant, doc.ID,
		"error en el precio facturado")
	require.NoError(t, err)

	assert.Equal(t, entity.EstadoDECancelled, anulado.Estado)
	assert.Equal(t, "0600", anulado.SifenCodigo)
	assert.Equal(t, "anulado: error en el precio facturado", anulado.SifenMensaje)
	assert.Equal(t, 1, f.client.eventoCalls)
}

func TestAnular_MotivoCorto(t *testing.T) {
	f := nuevoAnularUC(t)
	doc := f.sembrarAprobado(t)

	_, err := f.uc.Anular(context.Background(), testTenant, doc.ID, "corto")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))
	assert.Equal(t, 0, f.client.eventoCalls, "no debe llegar al WS con motivo inválido")
	assert.Equal(t, entity.EstadoDEApproved, f.docRepo.estadoDe(doc.ID))
}

func TestAnular_MotivoCuentaRunasNoBytes(t *testing.T) {
	f := nuevoAnularUC(t)
	doc := f.sembrarAprobado(t)

	// 9 runas pero 18 bytes en UTF-8: sigue siendo corto
	_, err := f.uc.Anular(context.Background(), testTenant, doc.ID, strings.Repeat("ñ", 9))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestAnular_SoloDocumentosAprobados(t *testing.T) {
	f := nuevoAnularUC(t)

	estados := []string{
		entity.EstadoDEDraft, entity.EstadoDESigned, entity.EstadoDESent,
		entity.EstadoDERejected, entity.EstadoDECancelled,
	}
	for _, estado := range estados {
		doc := &entity.Documento{
			ID: "doc-" + estado, TenantID: testTenant, TipoDE: "1",
			Estado: estado, CreatedAt: time.Now(),
		}
		require.NoError(t, f.docRepo.Create(context.Background(), doc))

		_, err := f.uc.Anular(context.Background(), testTenant, doc.ID,
			"motivo suficientemente largo")
		require.Error(t, err, "estado %s no debería ser anulable", estado)
		assert.True(t, errors.Is(err, domain.ErrInvalidState))
	}
	assert.Equal(t, 0, f.client.eventoCalls)
}

func TestAnular_RechazoDeLaSETDejaAprobado(t *testing.T) {
	f := nuevoAnularUC(t)
	doc := f.sembrarAprobado(t)
	f.client.eventoResp = &appsifen.EventoResult{
		Aceptado: false, Codigo: "4001",
		Mensaje: "plazo de cancelación vencido",
	}

	_, err := f.uc.Anular(context.Background(), testTenant, doc.ID,
		"anulación fuera de plazo")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAuthorityRejection))
	assert.Contains(t, err.Error(), "4001")

	// El rechazo del evento no toca el documento
	guardado, _ := f.docRepo.GetByID(context.Background(), doc.ID)
	assert.Equal(t, entity.EstadoDEApproved, guardado.Estado)
	assert.Empty(t, guardado.SifenMensaje)
}

func TestAnular_FalloDeFirmaNoLlamaAlWS(t *testing.T) {
	f := nuevoAnularUC(t)
	doc := f.sembrarAprobado(t)
	f.signer.err = errors.New("certificado vencido")

	_, err := f.uc.Anular(context.Background(), testTenant, doc.ID,
		"motivo suficientemente largo")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrSigning))
	assert.Equal(t, 0, f.client.eventoCalls)
	assert.Equal(t, entity.EstadoDEApproved, f.docRepo.estadoDe(doc.ID))
}

func TestAnular_DeOtroTenantNoVisible(t *testing.T) {
	f := nuevoAnularUC(t)
	doc := f.sembrarAprobado(t)

	_, err := f.uc.Anular(context.Background(), "otro-tenant", doc.ID,
		"motivo suficientemente largo")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
