package sifen

import (
	"context"
	"fmt"
	"time"

	"github.com/facturape/sifen-api/internal/domain"
	"github.com/facturape/sifen-api/internal/domain/entity"
	"github.com/facturape/sifen-api/internal/domain/repository"
	"github.com/facturape/sifen-api/pkg/logger"
)

// DocumentoUseCase consultas de lectura sobre documentos: detalle, listado,
// descarga de XML, KUDE y métricas del dashboard.
type DocumentoUseCase struct {
	docRepo    repository.DocumentoRepository
	configRepo repository.ConfigRepository
	kude       KudeGenerator
	log        *logger.Logger
}

// NewDocumentoUseCase construye el caso de uso de consultas.
func NewDocumentoUseCase(
	docRepo repository.DocumentoRepository,
	configRepo repository.ConfigRepository,
	kude KudeGenerator,
	log *logger.Logger,
) *DocumentoUseCase {
	return &DocumentoUseCase{
		docRepo:    docRepo,
		configRepo: configRepo,
		kude:       kude,
		log:        log.Component("documento"),
	}
}

// Get devuelve el documento con sus ítems cargados.
func (uc *DocumentoUseCase) Get(ctx context.Context, tenantID, documentoID string) (*entity.Documento, error) {
	doc, err := uc.docRepo.GetByID(ctx, documentoID)
	if err != nil {
		return nil, err
	}
	if doc == nil || doc.TenantID != tenantID {
		return nil, domain.ErrNotFound
	}
	items, err := uc.docRepo.GetItems(ctx, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("cargar ítems: %w", err)
	}
	doc.Items = items
	return doc, nil
}

// List devuelve la página de documentos y el total para los filtros.
func (uc *DocumentoUseCase) List(ctx context.Context, tenantID string, f repository.DocumentoFilter) ([]*entity.Documento, int, error) {
	return uc.docRepo.List(ctx, tenantID, f)
}

// XML devuelve el XML del documento (firmado si ya pasó por el Signer) y un
// nombre de archivo sugerido.
func (uc *DocumentoUseCase) XML(ctx context.Context, tenantID, documentoID string) ([]byte, string, error) {
	doc, err := uc.docRepo.GetByID(ctx, documentoID)
	if err != nil {
		return nil, "", err
	}
	if doc == nil || doc.TenantID != tenantID {
		return nil, "", domain.ErrNotFound
	}
	contenido := doc.XMLSigned
	if contenido == "" {
		contenido = doc.XMLUnsigned
	}
	if contenido == "" {
		return nil, "", fmt.Errorf("%w: el documento no tiene XML generado", domain.ErrNotFound)
	}
	nombre := fmt.Sprintf("de-%s.xml", doc.CDC)
	return []byte(contenido), nombre, nil
}

// Kude genera el PDF del KUDE. Solo está disponible para documentos aprobados
// (o anulados, donde el KUDE lleva la marca de cancelación).
func (uc *DocumentoUseCase) Kude(ctx context.Context, tenantID, documentoID string) ([]byte, string, error) {
	doc, err := uc.Get(ctx, tenantID, documentoID)
	if err != nil {
		return nil, "", err
	}
	if doc.Estado != entity.EstadoDEApproved && doc.Estado != entity.EstadoDECancelled {
		return nil, "", fmt.Errorf("%w: el KUDE solo está disponible para documentos aprobados, está en %s",
			domain.ErrInvalidState, doc.Estado)
	}
	cfg, err := uc.configRepo.Get(ctx, tenantID)
	if err != nil || cfg == nil {
		return nil, "", fmt.Errorf("configuración SIFEN no disponible: %w", err)
	}
	pdf, err := uc.kude.GenerateKude(ctx, doc, cfg)
	if err != nil {
		return nil, "", fmt.Errorf("generar KUDE: %w", err)
	}
	nombre := fmt.Sprintf("kude-%s.pdf", doc.CDC)
	return pdf, nombre, nil
}

// MetricsResumen agregados del dashboard para un rango de fechas.
type MetricsResumen struct {
	Desde     time.Time
	Hasta     time.Time
	PorEstado map[string]int
	PorTipo   map[string]int
	Recientes []*entity.Documento
}

// Metrics conteos por estado y por tipo más los documentos recientes.
func (uc *DocumentoUseCase) Metrics(ctx context.Context, tenantID string, desde, hasta time.Time) (*MetricsResumen, error) {
	if hasta.IsZero() {
		hasta = time.Now()
	}
	if desde.IsZero() {
		desde = hasta.AddDate(0, -1, 0)
	}
	porEstado, porTipo, err := uc.docRepo.Metrics(ctx, tenantID, desde, hasta)
	if err != nil {
		return nil, fmt.Errorf("agregar métricas: %w", err)
	}
	recientes, err := uc.docRepo.ListRecent(ctx, tenantID, 10)
	if err != nil {
		return nil, fmt.Errorf("listar recientes: %w", err)
	}
	return &MetricsResumen{
		Desde:     desde,
		Hasta:     hasta,
		PorEstado: porEstado,
		PorTipo:   porTipo,
		Recientes: recientes,
	}, nil
}
