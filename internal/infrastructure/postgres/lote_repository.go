package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/facturape/sifen-api/internal/domain/entity"
	"github.com/facturape/sifen-api/internal/domain/repository"
)

var _ repository.LoteRepository = (*LoteRepo)(nil)

// LoteRepo implementación de LoteRepository (usable con pool o tx).
type LoteRepo struct {
	q Querier
}

// NewLoteRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLoteRepository(q Querier) *LoteRepo {
	return &LoteRepo{q: q}
}

// Create persiste el lote con sus ítems.
func (r *LoteRepo) Create(ctx context.Context, lote *entity.Lote) error {
	if lote.ID == "" {
		lote.ID = uuid.New().String()
	}
	const q = `
		INSERT INTO lotes (id, tenant_id, estado, numero_lote, respuesta_envio, respuesta_consulta, created_at, sent_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`
	_, err := r.q.Exec(ctx, q,
		lote.ID, lote.TenantID, lote.Estado, nullIfEmpty(lote.NumeroLote),
		nullIfEmpty(lote.RespuestaEnvio), nullIfEmpty(lote.RespuestaConsulta),
		lote.CreatedAt, lote.SentAt, lote.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert lote: %w", err)
	}
	const qi = `
		INSERT INTO lote_items (id, lote_id, documento_id, cdc, orden, estado_item, codigo, mensaje)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	for _, it := range lote.Items {
		if it.ID == "" {
			it.ID = uuid.New().String()
		}
		if _, err := r.q.Exec(ctx, qi,
			it.ID, lote.ID, it.DocumentoID, it.CDC, it.Orden, it.EstadoItem,
			nullIfEmpty(it.Codigo), nullIfEmpty(it.Mensaje),
		); err != nil {
			return fmt.Errorf("insert lote_item: %w", err)
		}
	}
	return nil
}

// Update persiste estado, número de lote y payloads de respuesta.
func (r *LoteRepo) Update(ctx context.Context, lote *entity.Lote) error {
	const q = `
		UPDATE lotes
		SET estado             = $2,
		    numero_lote        = COALESCE($3, numero_lote),
		    respuesta_envio    = COALESCE($4, respuesta_envio),
		    respuesta_consulta = COALESCE($5, respuesta_consulta),
		    sent_at            = COALESCE($6, sent_at),
		    updated_at         = $7
		WHERE id = $1`
	_, err := r.q.Exec(ctx, q,
		lote.ID, lote.Estado, nullIfEmpty(lote.NumeroLote),
		nullIfEmpty(lote.RespuestaEnvio), nullIfEmpty(lote.RespuestaConsulta),
		lote.SentAt, lote.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update lote: %w", err)
	}
	return nil
}

// UpdateItem persiste el veredicto de un ítem.
func (r *LoteRepo) UpdateItem(ctx context.Context, item *entity.LoteItem) error {
	const q = `
		UPDATE lote_items
		SET estado_item = $2, codigo = $3, mensaje = $4
		WHERE id = $1`
	_, err := r.q.Exec(ctx, q, item.ID, item.EstadoItem, nullIfEmpty(item.Codigo), nullIfEmpty(item.Mensaje))
	if err != nil {
		return fmt.Errorf("update lote_item: %w", err)
	}
	return nil
}

// GetByID obtiene el lote con sus ítems. nil, nil si no existe.
func (r *LoteRepo) GetByID(ctx context.Context, id string) (*entity.Lote, error) {
	const q = `
		SELECT id, tenant_id, estado, numero_lote, respuesta_envio, respuesta_consulta, created_at, sent_at, updated_at
		FROM lotes WHERE id = $1`
	lote, err := scanLote(r.q.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get lote: %w", err)
	}
	items, err := r.items(ctx, lote.ID)
	if err != nil {
		return nil, err
	}
	lote.Items = items
	return lote, nil
}

// List lotes del tenant paginados, más recientes primero.
func (r *LoteRepo) List(ctx context.Context, tenantID string, limit, offset int) ([]*entity.Lote, int, error) {
	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM lotes WHERE tenant_id = $1`, tenantID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count lotes: %w", err)
	}
	if limit <= 0 {
		limit = 20
	}
	const q = `
		SELECT id, tenant_id, estado, numero_lote, respuesta_envio, respuesta_consulta, created_at, sent_at, updated_at
		FROM lotes WHERE tenant_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	lotes, err := r.collect(ctx, q, tenantID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return lotes, total, nil
}

// ListByEstado lotes del tenant en un estado, más antiguos primero.
func (r *LoteRepo) ListByEstado(ctx context.Context, tenantID, estado string) ([]*entity.Lote, error) {
	const q = `
		SELECT id, tenant_id, estado, numero_lote, respuesta_envio, respuesta_consulta, created_at, sent_at, updated_at
		FROM lotes WHERE tenant_id = $1 AND estado = $2
		ORDER BY created_at ASC`
	return r.collect(ctx, q, tenantID, estado)
}

// ListCreatedBefore lotes estancados en CREATED antes de t.
func (r *LoteRepo) ListCreatedBefore(ctx context.Context, t time.Time) ([]*entity.Lote, error) {
	const q = `
		SELECT id, tenant_id, estado, numero_lote, respuesta_envio, respuesta_consulta, created_at, sent_at, updated_at
		FROM lotes WHERE estado = 'CREATED' AND created_at < $1
		ORDER BY created_at ASC`
	return r.collect(ctx, q, t)
}

// TenantsConActividad tenants con lotes pendientes o documentos encolados.
func (r *LoteRepo) TenantsConActividad(ctx context.Context) ([]string, error) {
	const q = `
		SELECT DISTINCT tenant_id FROM (
			SELECT tenant_id FROM lotes WHERE estado IN ('CREATED', 'SENT', 'PROCESSING')
			UNION ALL
			SELECT tenant_id FROM documentos WHERE estado IN ('SIGNED', 'ENQUEUED')
		) activos`
	rows, err := r.q.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("tenants con actividad: %w", err)
	}
	defer rows.Close()

	var tenants []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan tenant: %w", err)
		}
		tenants = append(tenants, id)
	}
	return tenants, rows.Err()
}

func (r *LoteRepo) collect(ctx context.Context, q string, args ...any) ([]*entity.Lote, error) {
	rows, err := r.q.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list lotes: %w", err)
	}
	defer rows.Close()

	var lotes []*entity.Lote
	for rows.Next() {
		l, err := scanLote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lote: %w", err)
		}
		lotes = append(lotes, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()
	for _, l := range lotes {
		items, err := r.items(ctx, l.ID)
		if err != nil {
			return nil, err
		}
		l.Items = items
	}
	return lotes, nil
}

func (r *LoteRepo) items(ctx context.Context, loteID string) ([]*entity.LoteItem, error) {
	const q = `
		SELECT id, lote_id, documento_id, cdc, orden, estado_item, codigo, mensaje
		FROM lote_items WHERE lote_id = $1 ORDER BY orden`
	rows, err := r.q.Query(ctx, q, loteID)
	if err != nil {
		return nil, fmt.Errorf("list lote_items: %w", err)
	}
	defer rows.Close()

	var items []*entity.LoteItem
	for rows.Next() {
		var it entity.LoteItem
		var codigo, mensaje *string
		if err := rows.Scan(&it.ID, &it.LoteID, &it.DocumentoID, &it.CDC, &it.Orden,
			&it.EstadoItem, &codigo, &mensaje); err != nil {
			return nil, fmt.Errorf("scan lote_item: %w", err)
		}
		it.Codigo = derefStr(codigo)
		it.Mensaje = derefStr(mensaje)
		items = append(items, &it)
	}
	return items, rows.Err()
}

func scanLote(row rowScanner) (*entity.Lote, error) {
	var l entity.Lote
	var numeroLote, respEnvio, respConsulta *string
	err := row.Scan(&l.ID, &l.TenantID, &l.Estado, &numeroLote, &respEnvio, &respConsulta,
		&l.CreatedAt, &l.SentAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	l.NumeroLote = derefStr(numeroLote)
	l.RespuestaEnvio = derefStr(respEnvio)
	l.RespuestaConsulta = derefStr(respConsulta)
	return &l, nil
}
