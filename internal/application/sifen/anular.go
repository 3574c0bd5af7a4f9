package sifen

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/facturape/sifen-api/internal/domain"
	"github.com/facturape/sifen-api/internal/domain/entity"
	"github.com/facturape/sifen-api/internal/domain/repository"
	domsifen "github.com/facturape/sifen-api/internal/domain/sifen"
	"github.com/facturape/sifen-api/pkg/logger"
	pkgsifen "github.com/facturape/sifen-api/pkg/sifen"
)

// MotivoMinimo longitud mínima del motivo de anulación exigida por la SET.
const MotivoMinimo = 10

// AnularUseCase emite el Evento de Cancelación de un DE aprobado. Solo un
// documento APPROVED es anulable; la SET debe aceptar el evento para que el
// documento pase a CANCELLED.
type AnularUseCase struct {
	docRepo      repository.DocumentoRepository
	configRepo   repository.ConfigRepository
	xmlBuilder   DEXMLBuilder
	certProvider CertProvider
	signer       pkgsifen.Signer
	client       SifenClient
	log          *logger.Logger
}

// NewAnularUseCase construye el caso de uso de anulación.
func NewAnularUseCase(
	docRepo repository.DocumentoRepository,
	configRepo repository.ConfigRepository,
	xmlBuilder DEXMLBuilder,
	certProvider CertProvider,
	signer pkgsifen.Signer,
	client SifenClient,
	log *logger.Logger,
) *AnularUseCase {
	return &AnularUseCase{
		docRepo:      docRepo,
		configRepo:   configRepo,
		xmlBuilder:   xmlBuilder,
		certProvider: certProvider,
		signer:       signer,
		client:       client,
		log:          log.Component("anular"),
	}
}

// Anular valida, firma y envía el evento; aplica APPROVED → CANCELLED solo si
// la SET acepta. Un rechazo del evento deja el documento intacto en APPROVED.
func (uc *AnularUseCase) Anular(ctx context.Context, tenantID, documentoID, motivo string) (*entity.Documento, error) {
	motivo = strings.TrimSpace(motivo)
	if utf8.RuneCountInString(motivo) < MotivoMinimo {
		return nil, fmt.Errorf("%w: el motivo de anulación requiere al menos %d caracteres",
			domain.ErrValidation, MotivoMinimo)
	}

	doc, err := uc.docRepo.GetByID(ctx, documentoID)
	if err != nil {
		return nil, fmt.Errorf("obtener documento: %w", err)
	}
	if doc == nil || doc.TenantID != tenantID {
		return nil, domain.ErrNotFound
	}
	if doc.Estado != entity.EstadoDEApproved {
		return nil, fmt.Errorf("%w: solo un documento APPROVED es anulable, está en %s",
			domain.ErrInvalidState, doc.Estado)
	}

	cfg, err := uc.configRepo.Get(ctx, tenantID)
	if err != nil || cfg == nil {
		return nil, fmt.Errorf("configuración SIFEN no disponible: %w", err)
	}

	eventoXML, err := uc.xmlBuilder.BuildEventoCancelacion(doc, cfg, motivo)
	if err != nil {
		return nil, fmt.Errorf("construir evento de cancelación: %w", err)
	}
	cert, err := uc.certProvider.Certificado(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSigning, err)
	}
	firmado, err := uc.signer.Sign(eventoXML, cert)
	if err != nil {
		return nil, fmt.Errorf("%w: firmar evento: %v", domain.ErrSigning, err)
	}

	ep := resolverEndpoints(cfg)
	res, err := uc.client.EnviarEvento(ctx, ep, firmado)
	if err != nil {
		return nil, err
	}
	if !res.Aceptado {
		uc.log.Warn().Str("documento_id", doc.ID).Str("codigo", res.Codigo).Msg("la SET rechazó la anulación")
		return nil, fmt.Errorf("%w: [%s] %s", domain.ErrAuthorityRejection, res.Codigo, res.Mensaje)
	}

	if err := domsifen.TransitionDocumento(doc, entity.EstadoDECancelled); err != nil {
		return nil, err
	}
	doc.SifenCodigo = res.Codigo
	doc.SifenMensaje = fmt.Sprintf("anulado: %s", motivo)
	doc.UpdatedAt = time.Now()
	if err := uc.docRepo.Update(ctx, doc); err != nil {
		return nil, fmt.Errorf("persistir CANCELLED: %w", err)
	}

	uc.log.Info().Str("documento_id", doc.ID).Str("cdc", doc.CDC).Msg("documento anulado")
	return doc, nil
}

// resolverEndpoints URLs efectivas del tenant (explícitas u oficiales).
func resolverEndpoints(cfg *entity.TenantSifenConfig) Endpoints {
	ep := Endpoints{
		Ambiente:     cfg.Ambiente,
		RecibeLote:   cfg.URLRecibeLote,
		ConsultaLote: cfg.URLConsultaLote,
		ConsultaDE:   cfg.URLConsultaDE,
		Evento:       cfg.URLEvento,
	}
	oficiales := pkgsifen.URLsHomologacion
	if cfg.Ambiente == pkgsifen.AmbienteProduccion {
		oficiales = pkgsifen.URLsProduccion
	}
	if ep.RecibeLote == "" {
		ep.RecibeLote = oficiales.RecibeLote
	}
	if ep.ConsultaLote == "" {
		ep.ConsultaLote = oficiales.ConsultaLote
	}
	if ep.ConsultaDE == "" {
		ep.ConsultaDE = oficiales.ConsultaDE
	}
	if ep.Evento == "" {
		ep.Evento = oficiales.Evento
	}
	return ep
}
