package repository

import (
	"context"
	"time"

	"github.com/facturape/sifen-api/internal/domain/entity"
)

// DocumentoFilter filtros del listado de documentos.
type DocumentoFilter struct {
	Estado string
	TipoDE string
	Desde  *time.Time
	Hasta  *time.Time
	Query  string // búsqueda libre: CDC, número, razón social del receptor
	Limit  int
	Offset int
}

// DocumentoRepository define el puerto de persistencia para el DE y sus ítems.
// Los documentos nunca se eliminan (rastro de auditoría legal); solo se
// insertan y actualizan.
type DocumentoRepository interface {
	Create(ctx context.Context, doc *entity.Documento) error
	CreateItem(ctx context.Context, item *entity.DocumentoItem) error

	// Update persiste estado, XMLs, QR y respuesta de la SET.
	Update(ctx context.Context, doc *entity.Documento) error

	GetByID(ctx context.Context, id string) (*entity.Documento, error)
	GetByCDC(ctx context.Context, tenantID, cdc string) (*entity.Documento, error)
	GetItems(ctx context.Context, documentoID string) ([]*entity.DocumentoItem, error)

	// List devuelve la página y el total para los filtros dados.
	List(ctx context.Context, tenantID string, f DocumentoFilter) ([]*entity.Documento, int, error)

	// ListElegiblesParaLote devuelve documentos SIGNED/ENQUEUED que no integran
	// ningún lote no terminal, en orden FIFO por creación, hasta `limit`.
	ListElegiblesParaLote(ctx context.Context, tenantID string, limit int) ([]*entity.Documento, error)

	// CountByTimbrado cuenta documentos numerados bajo un timbrado (guarda de borrado).
	CountByTimbrado(ctx context.Context, timbradoID string) (int, error)

	// Metrics agrega conteos por estado y por tipo dentro del rango.
	Metrics(ctx context.Context, tenantID string, desde, hasta time.Time) (porEstado map[string]int, porTipo map[string]int, err error)

	// ListRecent documentos más recientes del tenant (dashboard).
	ListRecent(ctx context.Context, tenantID string, limit int) ([]*entity.Documento, error)
}
