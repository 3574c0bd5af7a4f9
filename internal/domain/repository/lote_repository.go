package repository

import (
	"context"
	"time"

	"github.com/facturape/sifen-api/internal/domain/entity"
)

// LoteRepository define el puerto de persistencia para lotes y sus ítems.
type LoteRepository interface {
	// Create persiste el lote con sus ítems (membresía inmutable desde aquí).
	Create(ctx context.Context, lote *entity.Lote) error

	// Update persiste estado, número de lote y payloads de respuesta de la SET.
	Update(ctx context.Context, lote *entity.Lote) error

	// UpdateItem persiste el veredicto de un ítem.
	UpdateItem(ctx context.Context, item *entity.LoteItem) error

	GetByID(ctx context.Context, id string) (*entity.Lote, error)

	List(ctx context.Context, tenantID string, limit, offset int) ([]*entity.Lote, int, error)

	// ListByEstado lotes de un tenant en el estado dado (para el worker).
	ListByEstado(ctx context.Context, tenantID, estado string) ([]*entity.Lote, error)

	// ListCreatedBefore lotes en CREATED creados antes de `t` (política de
	// liberación de lotes estancados).
	ListCreatedBefore(ctx context.Context, t time.Time) ([]*entity.Lote, error)

	// TenantsConActividad tenants con lotes o documentos pendientes de proceso
	// (para que el worker no recorra tenants inactivos).
	TenantsConActividad(ctx context.Context) ([]string, error)
}
