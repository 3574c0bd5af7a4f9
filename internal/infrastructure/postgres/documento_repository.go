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

var _ repository.DocumentoRepository = (*DocumentoRepo)(nil)

// DocumentoRepo implementación de DocumentoRepository (usable con pool o tx).
type DocumentoRepo struct {
	q Querier
}

// NewDocumentoRepository construye el adaptador. Pasar pool o tx (Querier).
func NewDocumentoRepository(q Querier) *DocumentoRepo {
	return &DocumentoRepo{q: q}
}

const documentoColumns = `
	id, tenant_id, tipo_de, timbrado, establecimiento, punto_expedicion, numero,
	cdc, moneda, fecha_emision,
	receptor_nombre, receptor_ruc, receptor_email, receptor_direccion,
	de_referenciado_cdc,
	gravada_10, gravada_5, exenta, iva_10, iva_5, total,
	estado, xml_unsigned, xml_signed, qr_data, sifen_codigo, sifen_mensaje,
	created_at, updated_at`

// Create persiste la cabecera del documento.
func (r *DocumentoRepo) Create(ctx context.Context, doc *entity.Documento) error {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	const q = `
		INSERT INTO documentos (
			id, tenant_id, tipo_de, timbrado, establecimiento, punto_expedicion, numero,
			cdc, moneda, fecha_emision,
			receptor_nombre, receptor_ruc, receptor_email, receptor_direccion,
			de_referenciado_cdc,
			gravada_10, gravada_5, exenta, iva_10, iva_5, total,
			estado, xml_unsigned, xml_signed, qr_data, sifen_codigo, sifen_mensaje,
			created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27,$28,$29)`
	_, err := r.q.Exec(ctx, q,
		doc.ID, doc.TenantID, doc.TipoDE, doc.Timbrado, doc.Establecimiento, doc.PuntoExpedicion, doc.Numero,
		doc.CDC, doc.Moneda, doc.FechaEmision,
		doc.ReceptorNombre, nullIfEmpty(doc.ReceptorRUC), nullIfEmpty(doc.ReceptorEmail), nullIfEmpty(doc.ReceptorDireccion),
		nullIfEmpty(doc.DEReferenciadoCDC),
		doc.Gravada10, doc.Gravada5, doc.Exenta, doc.IVA10, doc.IVA5, doc.Total,
		doc.Estado, nullIfEmpty(doc.XMLUnsigned), nullIfEmpty(doc.XMLSigned), nullIfEmpty(doc.QRData),
		nullIfEmpty(doc.SifenCodigo), nullIfEmpty(doc.SifenMensaje),
		doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("cdc o número de documento duplicado: %w", err)
		}
		return fmt.Errorf("insert documento: %w", err)
	}
	return nil
}

// CreateItem persiste una línea de detalle.
func (r *DocumentoRepo) CreateItem(ctx context.Context, item *entity.DocumentoItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	const q = `
		INSERT INTO documento_items (id, documento_id, descripcion, cantidad, precio_unitario, tasa_iva, subtotal, iva_item)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	_, err := r.q.Exec(ctx, q,
		item.ID, item.DocumentoID, item.Descripcion, item.Cantidad, item.PrecioUnitario,
		item.TasaIVA, item.Subtotal, item.IVAItem,
	)
	if err != nil {
		return fmt.Errorf("insert documento_item: %w", err)
	}
	return nil
}

// Update persiste estado, XMLs, QR y respuesta de la SET.
func (r *DocumentoRepo) Update(ctx context.Context, doc *entity.Documento) error {
	const q = `
		UPDATE documentos
		SET estado        = $2,
		    xml_unsigned  = COALESCE($3, xml_unsigned),
		    xml_signed    = COALESCE($4, xml_signed),
		    qr_data       = COALESCE($5, qr_data),
		    sifen_codigo  = $6,
		    sifen_mensaje = $7,
		    updated_at    = $8
		WHERE id = $1`
	_, err := r.q.Exec(ctx, q,
		doc.ID, doc.Estado,
		nullIfEmpty(doc.XMLUnsigned), nullIfEmpty(doc.XMLSigned), nullIfEmpty(doc.QRData),
		nullIfEmpty(doc.SifenCodigo), nullIfEmpty(doc.SifenMensaje),
		doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update documento: %w", err)
	}
	return nil
}

// GetByID obtiene un documento por ID. nil, nil si no existe.
func (r *DocumentoRepo) GetByID(ctx context.Context, id string) (*entity.Documento, error) {
	q := `SELECT ` + documentoColumns + ` FROM documentos WHERE id = $1`
	doc, err := scanDocumento(r.q.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get documento: %w", err)
	}
	return doc, nil
}

// GetByCDC obtiene un documento por CDC dentro del tenant. nil, nil si no existe.
func (r *DocumentoRepo) GetByCDC(ctx context.Context, tenantID, cdc string) (*entity.Documento, error) {
	q := `SELECT ` + documentoColumns + ` FROM documentos WHERE tenant_id = $1 AND cdc = $2`
	doc, err := scanDocumento(r.q.QueryRow(ctx, q, tenantID, cdc))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get documento por cdc: %w", err)
	}
	return doc, nil
}

// GetItems devuelve las líneas del documento en orden de inserción.
func (r *DocumentoRepo) GetItems(ctx context.Context, documentoID string) ([]*entity.DocumentoItem, error) {
	const q = `
		SELECT id, documento_id, descripcion, cantidad, precio_unitario, tasa_iva, subtotal, iva_item
		FROM documento_items WHERE documento_id = $1 ORDER BY id`
	rows, err := r.q.Query(ctx, q, documentoID)
	if err != nil {
		return nil, fmt.Errorf("list documento_items: %w", err)
	}
	defer rows.Close()

	var items []*entity.DocumentoItem
	for rows.Next() {
		var it entity.DocumentoItem
		if err := rows.Scan(&it.ID, &it.DocumentoID, &it.Descripcion, &it.Cantidad,
			&it.PrecioUnitario, &it.TasaIVA, &it.Subtotal, &it.IVAItem); err != nil {
			return nil, fmt.Errorf("scan documento_item: %w", err)
		}
		items = append(items, &it)
	}
	return items, rows.Err()
}

// List devuelve la página y el total para los filtros dados.
func (r *DocumentoRepo) List(ctx context.Context, tenantID string, f repository.DocumentoFilter) ([]*entity.Documento, int, error) {
	where := `WHERE tenant_id = $1`
	args := []any{tenantID}
	if f.Estado != "" {
		args = append(args, f.Estado)
		where += fmt.Sprintf(" AND estado = $%d", len(args))
	}
	if f.TipoDE != "" {
		args = append(args, f.TipoDE)
		where += fmt.Sprintf(" AND tipo_de = $%d", len(args))
	}
	if f.Desde != nil {
		args = append(args, *f.Desde)
		where += fmt.Sprintf(" AND fecha_emision >= $%d", len(args))
	}
	if f.Hasta != nil {
		args = append(args, *f.Hasta)
		where += fmt.Sprintf(" AND fecha_emision <= $%d", len(args))
	}
	if f.Query != "" {
		args = append(args, "%"+f.Query+"%")
		n := len(args)
		where += fmt.Sprintf(" AND (cdc ILIKE $%d OR numero ILIKE $%d OR receptor_nombre ILIKE $%d)", n, n, n)
	}

	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM documentos `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count documentos: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit, f.Offset)
	q := `SELECT ` + documentoColumns + ` FROM documentos ` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	rows, err := r.q.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list documentos: %w", err)
	}
	defer rows.Close()

	docs, err := collectDocumentos(rows)
	if err != nil {
		return nil, 0, err
	}
	return docs, total, nil
}

// ListElegiblesParaLote documentos SIGNED/ENQUEUED fuera de lotes no
// terminales, FIFO por creación.
func (r *DocumentoRepo) ListElegiblesParaLote(ctx context.Context, tenantID string, limit int) ([]*entity.Documento, error) {
	q := `SELECT ` + documentoColumns + `
		FROM documentos d
		WHERE d.tenant_id = $1
		  AND d.estado IN ('SIGNED', 'ENQUEUED')
		  AND NOT EXISTS (
			SELECT 1 FROM lote_items li
			JOIN lotes l ON l.id = li.lote_id
			WHERE li.documento_id = d.id
			  AND l.estado NOT IN ('COMPLETED', 'ERROR'))
		ORDER BY d.created_at ASC
		LIMIT $2`
	rows, err := r.q.Query(ctx, q, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("list elegibles: %w", err)
	}
	defer rows.Close()
	return collectDocumentos(rows)
}

// CountByTimbrado cuenta documentos numerados bajo un timbrado.
func (r *DocumentoRepo) CountByTimbrado(ctx context.Context, timbradoID string) (int, error) {
	const q = `
		SELECT COUNT(*)
		FROM documentos d
		JOIN timbrados t ON t.numero_timbrado = d.timbrado
		 AND t.tipo_de = d.tipo_de
		 AND t.establecimiento = d.establecimiento
		 AND t.punto_expedicion = d.punto_expedicion
		 AND t.tenant_id = d.tenant_id
		WHERE t.id = $1`
	var n int
	if err := r.q.QueryRow(ctx, q, timbradoID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count por timbrado: %w", err)
	}
	return n, nil
}

// Metrics conteos por estado y por tipo dentro del rango.
func (r *DocumentoRepo) Metrics(ctx context.Context, tenantID string, desde, hasta time.Time) (map[string]int, map[string]int, error) {
	porEstado, err := r.agrupar(ctx, "estado", tenantID, desde, hasta)
	if err != nil {
		return nil, nil, err
	}
	porTipo, err := r.agrupar(ctx, "tipo_de", tenantID, desde, hasta)
	if err != nil {
		return nil, nil, err
	}
	return porEstado, porTipo, nil
}

func (r *DocumentoRepo) agrupar(ctx context.Context, columna, tenantID string, desde, hasta time.Time) (map[string]int, error) {
	// columna es un identificador fijo del caller, nunca input externo.
	q := fmt.Sprintf(`
		SELECT %s, COUNT(*)
		FROM documentos
		WHERE tenant_id = $1 AND fecha_emision >= $2 AND fecha_emision <= $3
		GROUP BY %s`, columna, columna)
	rows, err := r.q.Query(ctx, q, tenantID, desde, hasta)
	if err != nil {
		return nil, fmt.Errorf("métricas por %s: %w", columna, err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var clave string
		var n int
		if err := rows.Scan(&clave, &n); err != nil {
			return nil, fmt.Errorf("scan métrica: %w", err)
		}
		out[clave] = n
	}
	return out, rows.Err()
}

// ListRecent documentos más recientes del tenant.
func (r *DocumentoRepo) ListRecent(ctx context.Context, tenantID string, limit int) ([]*entity.Documento, error) {
	q := `SELECT ` + documentoColumns + ` FROM documentos WHERE tenant_id = $1 ORDER BY created_at DESC LIMIT $2`
	rows, err := r.q.Query(ctx, q, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recientes: %w", err)
	}
	defer rows.Close()
	return collectDocumentos(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocumento(row rowScanner) (*entity.Documento, error) {
	var d entity.Documento
	var receptorRUC, receptorEmail, receptorDir, refCDC *string
	var xmlUnsigned, xmlSigned, qrData, sifenCodigo, sifenMensaje *string
	err := row.Scan(
		&d.ID, &d.TenantID, &d.TipoDE, &d.Timbrado, &d.Establecimiento, &d.PuntoExpedicion, &d.Numero,
		&d.CDC, &d.Moneda, &d.FechaEmision,
		&d.ReceptorNombre, &receptorRUC, &receptorEmail, &receptorDir,
		&refCDC,
		&d.Gravada10, &d.Gravada5, &d.Exenta, &d.IVA10, &d.IVA5, &d.Total,
		&d.Estado, &xmlUnsigned, &xmlSigned, &qrData, &sifenCodigo, &sifenMensaje,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	d.ReceptorRUC = derefStr(receptorRUC)
	d.ReceptorEmail = derefStr(receptorEmail)
	d.ReceptorDireccion = derefStr(receptorDir)
	d.DEReferenciadoCDC = derefStr(refCDC)
	d.XMLUnsigned = derefStr(xmlUnsigned)
	d.XMLSigned = derefStr(xmlSigned)
	d.QRData = derefStr(qrData)
	d.SifenCodigo = derefStr(sifenCodigo)
	d.SifenMensaje = derefStr(sifenMensaje)
	return &d, nil
}

func collectDocumentos(rows pgx.Rows) ([]*entity.Documento, error) {
	var docs []*entity.Documento
	for rows.Next() {
		d, err := scanDocumento(rows)
		if err != nil {
			return nil, fmt.Errorf("scan documento: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}
