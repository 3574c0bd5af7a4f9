package repository

import (
	"context"

	"github.com/facturape/sifen-api/internal/domain/entity"
)

// Asignacion resultado de reservar un número en una serie de timbrado.
type Asignacion struct {
	TimbradoID     string
	NumeroTimbrado string
	Numero         string // 7 dígitos, cero-padded
}

// TimbradoRepository define el puerto de persistencia para series de numeración.
//
// Allocate es el único punto del sistema que exige exclusión mutua estricta:
// la implementación debe serializar asignaciones concurrentes sobre la misma
// clave (tenant, tipo, establecimiento, punto), p.ej. con SELECT ... FOR
// UPDATE, porque un número duplicado es una violación legal.
type TimbradoRepository interface {
	// Allocate busca la serie abierta para la clave, incrementa UltimoNumero de
	// forma atómica y devuelve el número asignado. Errores:
	// ErrNoActiveSeries si no hay serie, está vencida o agotada.
	Allocate(ctx context.Context, tenantID, tipoDE, establecimiento, punto string) (*Asignacion, error)

	// Create registra una serie nueva; ErrConflict si ya existe una abierta
	// para la misma clave.
	Create(ctx context.Context, tb *entity.Timbrado) error

	GetByID(ctx context.Context, id string) (*entity.Timbrado, error)
	ListByTenant(ctx context.Context, tenantID string) ([]*entity.Timbrado, error)

	// Delete elimina la serie; el caso de uso verifica antes que ningún
	// documento la referencie.
	Delete(ctx context.Context, id string) error
}
