package sifen_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appsifen "github.com/facturape/sifen-api/internal/application/sifen"
	"github.com/facturape/sifen-api/internal/domain"
	"github.com/facturape/sifen-api/internal/domain/entity"
)

type emitirFixture struct {
	orch    *appsifen.EmitirOrchestrator
	docRepo *fakeDocumentoRepo
	signer  *fakeSigner
	certs   *fakeCertProvider
}

func nuevoEmitirOrch(t *testing.T) *emitirFixture {
	t.Helper()
	docRepo := newFakeDocumentoRepo()
	configRepo := newFakeConfigRepo()
	signer := &fakeSigner{}
	certs := &fakeCertProvider{}

	require.NoError(t, configRepo.Upsert(context.Background(), configDePrueba(testTenant)))

	orch := appsifen.NewEmitirOrchestrator(docRepo, configRepo, certs, signer, testLogger())
	return &emitirFixture{orch: orch, docRepo: docRepo, signer: signer, certs: certs}
}

func (f *emitirFixture) sembrarBorrador(t *testing.T) *entity.Documento {
	t.Helper()
	doc := &entity.Documento{
		ID:           "doc-borrador",
		TenantID:     testTenant,
		TipoDE:       "1",
		CDC:          strings.Repeat("7", 44),
		Estado:       entity.EstadoDEDraft,
		FechaEmision: time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC),
		ReceptorRUC:  "80069563-1",
		Total:        decimal.NewFromInt(1_500_000),
		IVA10:        decimal.NewFromInt(136_364),
		XMLUnsigned:  `<rDE><DE Id="` + strings.Repeat("7", 44) + `"/></rDE>`,
		CreatedAt:    time.Now(),
	}
	require.NoError(t, f.docRepo.Create(context.Background(), doc))
	return doc
}

func TestEmitirSync_CaminoFeliz(t *testing.T) {
	f := nuevoEmitirOrch(t)
	doc := f.sembrarBorrador(t)

	require.NoError(t, f.orch.EmitirSync(context.Background(), doc.ID))

	firmado, err := f.docRepo.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.EstadoDEEnqueued, firmado.Estado)
	assert.Contains(t, firmado.XMLSigned, "<!--firmado-->")
	assert.NotEmpty(t, firmado.QRData, "el QR se calcula sobre el XML firmado")
	assert.Contains(t, firmado.QRData, "cHashQR=", "el QR lleva el hash con CSC")
	assert.Empty(t, firmado.SifenMensaje)
}

func TestEmitirSync_FalloDeFirmaDejaErrorConPaso(t *testing.T) {
	f := nuevoEmitirOrch(t)
	doc := f.sembrarBorrador(t)
	f.signer.err = errors.New("clave privada ilegible")

	err := f.orch.EmitirSync(context.Background(), doc.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrSigning))

	guardado, _ := f.docRepo.GetByID(context.Background(), doc.ID)
	assert.Equal(t, entity.EstadoDEError, guardado.Estado)
	assert.Contains(t, guardado.SifenMensaje, "firma",
		"el motivo registra el paso que falló")
	assert.Empty(t, guardado.XMLSigned)
}

func TestEmitirSync_FalloDeCertificadoDejaError(t *testing.T) {
	f := nuevoEmitirOrch(t)
	doc := f.sembrarBorrador(t)
	f.certs.errCert = errors.New("PKCS12 corrupto")

	err := f.orch.EmitirSync(context.Background(), doc.ID)
	require.Error(t, err)

	guardado, _ := f.docRepo.GetByID(context.Background(), doc.ID)
	assert.Equal(t, entity.EstadoDEError, guardado.Estado)
	assert.Contains(t, guardado.SifenMensaje, "certificado")
}

func TestEmitirSync_ErrorEsReintentable(t *testing.T) {
	f := nuevoEmitirOrch(t)
	doc := f.sembrarBorrador(t)

	f.signer.err = errors.New("clave privada ilegible")
	require.Error(t, f.orch.EmitirSync(context.Background(), doc.ID))
	require.Equal(t, entity.EstadoDEError, f.docRepo.estadoDe(doc.ID))

	// Corregida la causa, el reintento completa el pipeline
	f.signer.err = nil
	require.NoError(t, f.orch.EmitirSync(context.Background(), doc.ID))
	assert.Equal(t, entity.EstadoDEEnqueued, f.docRepo.estadoDe(doc.ID))
}

func TestEmitirSync_FalloRepetidoActualizaElMotivo(t *testing.T) {
	f := nuevoEmitirOrch(t)
	doc := f.sembrarBorrador(t)

	f.signer.err = errors.New("clave privada ilegible")
	require.Error(t, f.orch.EmitirSync(context.Background(), doc.ID))

	// El segundo fallo no rompe la máquina de estados: sigue en ERROR con el
	// motivo nuevo.
	f.signer.err = errors.New("passphrase incorrecta")
	require.Error(t, f.orch.EmitirSync(context.Background(), doc.ID))

	guardado, _ := f.docRepo.GetByID(context.Background(), doc.ID)
	assert.Equal(t, entity.EstadoDEError, guardado.Estado)
	assert.Contains(t, guardado.SifenMensaje, "passphrase incorrecta")
}

func TestEmitirSync_EstadoNoFirmableNoHaceNada(t *testing.T) {
	f := nuevoEmitirOrch(t)
	doc := f.sembrarBorrador(t)
	doc.Estado = entity.EstadoDESent
	require.NoError(t, f.docRepo.Update(context.Background(), doc))

	// No es error: otro proceso ya lo avanzó
	require.NoError(t, f.orch.EmitirSync(context.Background(), doc.ID))
	assert.Equal(t, entity.EstadoDESent, f.docRepo.estadoDe(doc.ID))
}

func TestEmitir_RechazaEstadosNoFirmables(t *testing.T) {
	f := nuevoEmitirOrch(t)
	doc := f.sembrarBorrador(t)
	doc.Estado = entity.EstadoDEApproved
	require.NoError(t, f.docRepo.Update(context.Background(), doc))

	err := f.orch.Emitir(context.Background(), testTenant, doc.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidState))
}

func TestEmitir_DeOtroTenantNoVisible(t *testing.T) {
	f := nuevoEmitirOrch(t)
	doc := f.sembrarBorrador(t)

	err := f.orch.Emitir(context.Background(), "otro-tenant", doc.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
