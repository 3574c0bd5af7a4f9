package sifen

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/facturape/sifen-api/internal/domain"
	"github.com/facturape/sifen-api/internal/domain/entity"
	"github.com/facturape/sifen-api/internal/domain/repository"
	domsifen "github.com/facturape/sifen-api/internal/domain/sifen"
	"github.com/facturape/sifen-api/pkg/logger"
	pkgsifen "github.com/facturape/sifen-api/pkg/sifen"
)

// EmitirOrchestrator ejecuta el paso "emitir" de un DE:
//
//	cargar certificado → firmar XML (enveloped XML-DSig) → QR → SIGNED → ENQUEUED
//
// La precondición de estado se verifica sincrónicamente (el caller recibe
// ErrInvalidState de inmediato); la firma corre en goroutine independiente
// con su propio context.Background() + timeout, desacoplada del ciclo HTTP.
// Firmar y encolar son secuenciales y no interrumpibles por documento.
type EmitirOrchestrator struct {
	docRepo      repository.DocumentoRepository
	configRepo   repository.ConfigRepository
	certProvider CertProvider
	signer       pkgsifen.Signer
	log          *logger.Logger
	timeout      time.Duration
}

// NewEmitirOrchestrator construye el orquestador.
func NewEmitirOrchestrator(
	docRepo repository.DocumentoRepository,
	configRepo repository.ConfigRepository,
	certProvider CertProvider,
	signer pkgsifen.Signer,
	log *logger.Logger,
) *EmitirOrchestrator {
	return &EmitirOrchestrator{
		docRepo:      docRepo,
		configRepo:   configRepo,
		certProvider: certProvider,
		signer:       signer,
		log:          log.Component("emitir"),
		timeout:      30 * time.Second,
	}
}

// Emitir valida la precondición de estado y dispara la firma asíncrona.
func (o *EmitirOrchestrator) Emitir(ctx context.Context, tenantID, documentoID string) error {
	doc, err := o.docRepo.GetByID(ctx, documentoID)
	if err != nil {
		return fmt.Errorf("obtener documento: %w", err)
	}
	if doc == nil || doc.TenantID != tenantID {
		return domain.ErrNotFound
	}
	if !domsifen.PuedeFirmarse(doc.Estado) {
		return fmt.Errorf("%w: no se puede firmar un documento en estado %s", domain.ErrInvalidState, doc.Estado)
	}
	go o.process(documentoID)
	return nil
}

// EmitirSync versión síncrona, usada por el worker de fondo y los tests.
func (o *EmitirOrchestrator) EmitirSync(ctx context.Context, documentoID string) error {
	return o.firmarYEncolar(ctx, documentoID)
}

func (o *EmitirOrchestrator) process(documentoID string) {
	ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
	defer cancel()
	if err := o.firmarYEncolar(ctx, documentoID); err != nil {
		o.log.Error().Err(err).Str("documento_id", documentoID).Msg("emisión fallida")
	}
}

// firmarYEncolar núcleo síncrono. Siempre deja el documento en SIGNED→ENQUEUED
// o en ERROR con el motivo registrado (reintentable tras corregir configuración).
func (o *EmitirOrchestrator) firmarYEncolar(ctx context.Context, documentoID string) error {
	// Re-fetch con datos frescos: evita carreras con el goroutine HTTP.
	doc, err := o.docRepo.GetByID(ctx, documentoID)
	if err != nil || doc == nil {
		return fmt.Errorf("documento %s no encontrado: %w", documentoID, err)
	}
	if !domsifen.PuedeFirmarse(doc.Estado) {
		// Otro proceso lo firmó entre el check y el goroutine. No es error.
		o.log.Debug().Str("documento_id", documentoID).Str("estado", doc.Estado).Msg("estado no firmable, saltando")
		return nil
	}

	markError := func(paso string, cause error) error {
		if terr := domsifen.TransitionDocumento(doc, entity.EstadoDEError); terr != nil {
			return terr
		}
		doc.SifenCodigo = ""
		doc.SifenMensaje = fmt.Sprintf("%s: %v", paso, cause)
		doc.UpdatedAt = time.Now()
		if uerr := o.docRepo.Update(ctx, doc); uerr != nil {
			o.log.Error().Err(uerr).Str("documento_id", doc.ID).Msg("no se pudo persistir ERROR")
		}
		return fmt.Errorf("%w: %s: %v", domain.ErrSigning, paso, cause)
	}

	cfg, err := o.configRepo.Get(ctx, doc.TenantID)
	if err != nil || cfg == nil {
		return markError("configuración", fmt.Errorf("configuración SIFEN del tenant no disponible: %v", err))
	}

	cert, err := o.certProvider.Certificado(ctx, cfg)
	if err != nil {
		return markError("certificado", err)
	}

	signedXML, err := o.signer.Sign([]byte(doc.XMLUnsigned), cert)
	if err != nil {
		return markError("firma", err)
	}

	idCSC, csc, err := o.certProvider.CSC(ctx, cfg)
	if err != nil {
		return markError("csc", err)
	}
	digest := sha256.Sum256(signedXML)
	qrBase := pkgsifen.URLQRHomologacion
	if cfg.Ambiente == pkgsifen.AmbienteProduccion {
		qrBase = pkgsifen.URLQRProduccion
	}
	items, err := o.docRepo.GetItems(ctx, doc.ID)
	if err != nil {
		return markError("items", err)
	}
	qr, err := domsifen.BuildQR(&domsifen.QRParams{
		BaseURL:      qrBase,
		CDC:          doc.CDC,
		FechaEmision: doc.FechaEmision.Format("2006-01-02"),
		RUCReceptor:  pkgsifen.OnlyDigits(doc.ReceptorRUC),
		Total:        doc.Total,
		TotalIVA:     doc.IVA10.Add(doc.IVA5),
		CantItems:    len(items),
		DigestValue:  hex.EncodeToString(digest[:]),
		IDCSC:        idCSC,
		CSC:          csc,
	})
	if err != nil {
		return markError("qr", err)
	}

	if err := domsifen.TransitionDocumento(doc, entity.EstadoDESigned); err != nil {
		return err
	}
	doc.XMLSigned = string(signedXML)
	doc.QRData = qr
	doc.SifenMensaje = ""
	doc.UpdatedAt = time.Now()
	if err := o.docRepo.Update(ctx, doc); err != nil {
		return fmt.Errorf("persistir SIGNED: %w", err)
	}

	// Encolar para el armado de lote (mismo flujo, no interrumpible).
	if err := domsifen.TransitionDocumento(doc, entity.EstadoDEEnqueued); err != nil {
		return err
	}
	doc.UpdatedAt = time.Now()
	if err := o.docRepo.Update(ctx, doc); err != nil {
		return fmt.Errorf("persistir ENQUEUED: %w", err)
	}

	o.log.Info().Str("documento_id", doc.ID).Str("cdc", doc.CDC).Msg("documento firmado y encolado")
	return nil
}
