package sifen

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/facturape/sifen-api/internal/application/dto"
	"github.com/facturape/sifen-api/internal/domain"
	"github.com/facturape/sifen-api/internal/domain/entity"
	"github.com/facturape/sifen-api/internal/domain/repository"
	"github.com/facturape/sifen-api/pkg/logger"
	pkgsifen "github.com/facturape/sifen-api/pkg/sifen"
)

var (
	reCodigoEmision = regexp.MustCompile(`^\d{3}$`)
	reTimbrado      = regexp.MustCompile(`^\d{8}$`)
)

// NumeracionUseCase administra las series de timbrado del tenant. El borrado
// está protegido: una serie ya usada para numerar documentos no se elimina.
type NumeracionUseCase struct {
	timbradoRepo repository.TimbradoRepository
	docRepo      repository.DocumentoRepository
	log          *logger.Logger
}

// NewNumeracionUseCase construye el caso de uso de numeración.
func NewNumeracionUseCase(
	timbradoRepo repository.TimbradoRepository,
	docRepo repository.DocumentoRepository,
	log *logger.Logger,
) *NumeracionUseCase {
	return &NumeracionUseCase{
		timbradoRepo: timbradoRepo,
		docRepo:      docRepo,
		log:          log.Component("numeracion"),
	}
}

// Crear registra una serie nueva. ErrConflict si ya existe una serie abierta
// para la misma clave (tenant, tipo, establecimiento, punto).
func (uc *NumeracionUseCase) Crear(ctx context.Context, tenantID string, req *dto.CrearTimbradoRequest) (*entity.Timbrado, error) {
	if !pkgsifen.ValidTipoDE[req.TipoDE] {
		return nil, fmt.Errorf("%w: tipo de documento inválido: %q", domain.ErrValidation, req.TipoDE)
	}
	if !reCodigoEmision.MatchString(req.Establecimiento) || !reCodigoEmision.MatchString(req.PuntoExpedicion) {
		return nil, fmt.Errorf("%w: establecimiento y punto de expedición deben tener 3 dígitos", domain.ErrValidation)
	}
	if !reTimbrado.MatchString(req.NumeroTimbrado) {
		return nil, fmt.Errorf("%w: el número de timbrado debe tener 8 dígitos", domain.ErrValidation)
	}
	if req.UltimoNumero < 0 || req.UltimoNumero >= pkgsifen.MaxNumeroDocumento {
		return nil, fmt.Errorf("%w: último número fuera de rango", domain.ErrValidation)
	}
	inicio, err := time.Parse("2006-01-02", req.InicioVigencia)
	if err != nil {
		return nil, fmt.Errorf("%w: inicio_vigencia inválido (AAAA-MM-DD)", domain.ErrValidation)
	}
	fin, err := time.Parse("2006-01-02", req.FinVigencia)
	if err != nil {
		return nil, fmt.Errorf("%w: fin_vigencia inválido (AAAA-MM-DD)", domain.ErrValidation)
	}
	if !fin.After(inicio) {
		return nil, fmt.Errorf("%w: fin_vigencia debe ser posterior a inicio_vigencia", domain.ErrValidation)
	}

	now := time.Now()
	tb := &entity.Timbrado{
		ID:              uuid.New().String(),
		TenantID:        tenantID,
		TipoDE:          req.TipoDE,
		Establecimiento: req.Establecimiento,
		PuntoExpedicion: req.PuntoExpedicion,
		NumeroTimbrado:  req.NumeroTimbrado,
		UltimoNumero:    req.UltimoNumero,
		InicioVigencia:  inicio,
		// La vigencia termina al final del día declarado.
		FinVigencia: fin.Add(24*time.Hour - time.Second),
		Activo:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.timbradoRepo.Create(ctx, tb); err != nil {
		return nil, err
	}
	uc.log.Info().Str("timbrado", tb.NumeroTimbrado).Str("tipo", tb.TipoDE).Msg("serie de timbrado creada")
	return tb, nil
}

// List series del tenant.
func (uc *NumeracionUseCase) List(ctx context.Context, tenantID string) ([]*entity.Timbrado, error) {
	return uc.timbradoRepo.ListByTenant(ctx, tenantID)
}

// Eliminar borra una serie nunca usada. Si algún documento fue numerado bajo
// ella devuelve ErrConflict: el rastro de numeración es requisito legal.
func (uc *NumeracionUseCase) Eliminar(ctx context.Context, tenantID, timbradoID string) error {
	tb, err := uc.timbradoRepo.GetByID(ctx, timbradoID)
	if err != nil {
		return err
	}
	if tb == nil || tb.TenantID != tenantID {
		return domain.ErrNotFound
	}
	usados, err := uc.docRepo.CountByTimbrado(ctx, tb.ID)
	if err != nil {
		return fmt.Errorf("contar documentos de la serie: %w", err)
	}
	if usados > 0 {
		return fmt.Errorf("%w: la serie tiene %d documentos numerados y no puede eliminarse", domain.ErrConflict, usados)
	}
	return uc.timbradoRepo.Delete(ctx, tb.ID)
}
