package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/facturape/sifen-api/internal/domain"
	"github.com/facturape/sifen-api/internal/domain/entity"
	"github.com/facturape/sifen-api/internal/domain/repository"
	pkgsifen "github.com/facturape/sifen-api/pkg/sifen"
)

var _ repository.TimbradoRepository = (*TimbradoRepo)(nil)

// TimbradoRepo implementación de TimbradoRepository (usable con pool o tx).
type TimbradoRepo struct {
	q Querier
}

// NewTimbradoRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTimbradoRepository(q Querier) *TimbradoRepo {
	return &TimbradoRepo{q: q}
}

// Allocate reserva el siguiente número de la serie abierta de la clave.
// SELECT ... FOR UPDATE serializa asignaciones concurrentes sobre la misma
// serie: dos emisiones simultáneas nunca reciben el mismo número ni dejan
// huecos. Debe ejecutarse dentro de una transacción.
func (r *TimbradoRepo) Allocate(ctx context.Context, tenantID, tipoDE, establecimiento, punto string) (*repository.Asignacion, error) {
	const q = `
		SELECT id, numero_timbrado, ultimo_numero
		FROM timbrados
		WHERE tenant_id = $1
		  AND tipo_de = $2
		  AND establecimiento = $3
		  AND punto_expedicion = $4
		  AND activo = true
		  AND inicio_vigencia <= now()
		  AND fin_vigencia >= now()
		  AND ultimo_numero < $5
		ORDER BY inicio_vigencia DESC
		LIMIT 1
		FOR UPDATE`
	var id, numeroTimbrado string
	var ultimo int64
	err := r.q.QueryRow(ctx, q, tenantID, tipoDE, establecimiento, punto, int64(pkgsifen.MaxNumeroDocumento)).
		Scan(&id, &numeroTimbrado, &ultimo)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNoActiveSeries
		}
		return nil, fmt.Errorf("buscar serie activa: %w", err)
	}

	siguiente := ultimo + 1
	const upd = `UPDATE timbrados SET ultimo_numero = $2, updated_at = now() WHERE id = $1`
	if _, err := r.q.Exec(ctx, upd, id, siguiente); err != nil {
		return nil, fmt.Errorf("incrementar serie: %w", err)
	}

	return &repository.Asignacion{
		TimbradoID:     id,
		NumeroTimbrado: numeroTimbrado,
		Numero:         fmt.Sprintf("%07d", siguiente),
	}, nil
}

// Create registra una serie. El índice único parcial sobre la clave con
// activo=true convierte el duplicado en ErrConflict.
func (r *TimbradoRepo) Create(ctx context.Context, tb *entity.Timbrado) error {
	if tb.ID == "" {
		tb.ID = uuid.New().String()
	}
	const q = `
		INSERT INTO timbrados (id, tenant_id, tipo_de, establecimiento, punto_expedicion,
			numero_timbrado, ultimo_numero, inicio_vigencia, fin_vigencia, activo, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`
	_, err := r.q.Exec(ctx, q,
		tb.ID, tb.TenantID, tb.TipoDE, tb.Establecimiento, tb.PuntoExpedicion,
		tb.NumeroTimbrado, tb.UltimoNumero, tb.InicioVigencia, tb.FinVigencia, tb.Activo,
		tb.CreatedAt, tb.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: ya existe una serie abierta para esta clave", domain.ErrConflict)
		}
		return fmt.Errorf("insert timbrado: %w", err)
	}
	return nil
}

// GetByID obtiene una serie. nil, nil si no existe.
func (r *TimbradoRepo) GetByID(ctx context.Context, id string) (*entity.Timbrado, error) {
	const q = `
		SELECT id, tenant_id, tipo_de, establecimiento, punto_expedicion,
		       numero_timbrado, ultimo_numero, inicio_vigencia, fin_vigencia, activo, created_at, updated_at
		FROM timbrados WHERE id = $1`
	tb, err := scanTimbrado(r.q.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get timbrado: %w", err)
	}
	return tb, nil
}

// ListByTenant series del tenant, más nuevas primero.
func (r *TimbradoRepo) ListByTenant(ctx context.Context, tenantID string) ([]*entity.Timbrado, error) {
	const q = `
		SELECT id, tenant_id, tipo_de, establecimiento, punto_expedicion,
		       numero_timbrado, ultimo_numero, inicio_vigencia, fin_vigencia, activo, created_at, updated_at
		FROM timbrados WHERE tenant_id = $1
		ORDER BY inicio_vigencia DESC`
	rows, err := r.q.Query(ctx, q, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list timbrados: %w", err)
	}
	defer rows.Close()

	var list []*entity.Timbrado
	for rows.Next() {
		tb, err := scanTimbrado(rows)
		if err != nil {
			return nil, fmt.Errorf("scan timbrado: %w", err)
		}
		list = append(list, tb)
	}
	return list, rows.Err()
}

// Delete elimina la serie. El caso de uso garantiza que no fue usada.
func (r *TimbradoRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM timbrados WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete timbrado: %w", err)
	}
	return nil
}

func scanTimbrado(row rowScanner) (*entity.Timbrado, error) {
	var tb entity.Timbrado
	err := row.Scan(&tb.ID, &tb.TenantID, &tb.TipoDE, &tb.Establecimiento, &tb.PuntoExpedicion,
		&tb.NumeroTimbrado, &tb.UltimoNumero, &tb.InicioVigencia, &tb.FinVigencia, &tb.Activo,
		&tb.CreatedAt, &tb.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &tb, nil
}
