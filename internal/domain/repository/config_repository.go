package repository

import (
	"context"

	"github.com/facturape/sifen-api/internal/domain/entity"
)

// ConfigRepository define el puerto de persistencia para la configuración
// SIFEN por tenant. Los campos secretos se guardan ya cifrados; el repo no
// conoce la master key.
type ConfigRepository interface {
	Get(ctx context.Context, tenantID string) (*entity.TenantSifenConfig, error)
	// Upsert crea o actualiza la configuración completa del tenant.
	Upsert(ctx context.Context, cfg *entity.TenantSifenConfig) error
}
