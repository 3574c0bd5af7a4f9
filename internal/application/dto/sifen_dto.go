package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReceptorRequest datos del receptor del DE (se guardan como snapshot).
type ReceptorRequest struct {
	RazonSocial string `json:"razon_social"`
	RUC         string `json:"ruc,omitempty"` // RUC-DV o documento de identidad
	Email       string `json:"email,omitempty"`
	Direccion   string `json:"direccion,omitempty"`
}

// ItemRequest línea de documento (precio con IVA incluido).
type ItemRequest struct {
	Descripcion    string          `json:"descripcion"`
	Cantidad       decimal.Decimal `json:"cantidad"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	TasaIVA        int             `json:"tasa_iva"` // 0 | 5 | 10
}

// CrearDocumentoRequest body para POST /tenants/:tenantId/sifen/de.
type CrearDocumentoRequest struct {
	TipoDE            string          `json:"tipo_documento"` // "1"|"4"|"5"|"6"|"7"
	Moneda            string          `json:"moneda,omitempty"`
	Receptor          ReceptorRequest `json:"receptor"`
	Items             []ItemRequest   `json:"items"`
	DEReferenciadoCDC string          `json:"de_referenciado_cdc,omitempty"` // Obligatorio para NC/ND
}

// AnularRequest body para POST .../de/:deId/anular.
type AnularRequest struct {
	Motivo string `json:"motivo"`
}

// ItemResponse línea de documento en respuestas.
type ItemResponse struct {
	ID             string          `json:"id"`
	Descripcion    string          `json:"descripcion"`
	Cantidad       decimal.Decimal `json:"cantidad"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	TasaIVA        int             `json:"tasa_iva"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	IVAItem        decimal.Decimal `json:"iva_item"`
}

// DocumentoResponse representación resumida del DE (listados).
type DocumentoResponse struct {
	ID             string          `json:"id"`
	TipoDE         string          `json:"tipo_documento"`
	Timbrado       string          `json:"timbrado"`
	Numero         string          `json:"numero"` // est-punto-secuencia
	CDC            string          `json:"cdc"`
	Moneda         string          `json:"moneda"`
	FechaEmision   string          `json:"fecha_emision"`
	ReceptorNombre string          `json:"receptor_nombre"`
	ReceptorRUC    string          `json:"receptor_ruc,omitempty"`
	Total          decimal.Decimal `json:"total"`
	Estado         string          `json:"estado"`
	SifenCodigo    string          `json:"sifen_codigo,omitempty"`
	SifenMensaje   string          `json:"sifen_mensaje,omitempty"`
}

// DocumentoDetalleResponse representación completa (detalle).
type DocumentoDetalleResponse struct {
	DocumentoResponse
	ReceptorEmail     string          `json:"receptor_email,omitempty"`
	ReceptorDireccion string          `json:"receptor_direccion,omitempty"`
	DEReferenciadoCDC string          `json:"de_referenciado_cdc,omitempty"`
	Gravada10         decimal.Decimal `json:"gravada_10"`
	Gravada5          decimal.Decimal `json:"gravada_5"`
	Exenta            decimal.Decimal `json:"exenta"`
	IVA10             decimal.Decimal `json:"iva_10"`
	IVA5              decimal.Decimal `json:"iva_5"`
	QRData            string          `json:"qr_data,omitempty"`
	TieneXMLFirmado   bool            `json:"tiene_xml_firmado"`
	Items             []ItemResponse  `json:"items"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// LoteItemResponse ítem de lote con su veredicto.
type LoteItemResponse struct {
	DocumentoID string `json:"documento_id"`
	CDC         string `json:"cdc"`
	Orden       int    `json:"orden"`
	EstadoItem  string `json:"estado_item"` // PENDING | ACCEPTED | REJECTED
	Codigo      string `json:"codigo,omitempty"`
	Mensaje     string `json:"mensaje,omitempty"`
}

// LoteResponse lote en listados y detalle.
type LoteResponse struct {
	ID         string             `json:"id"`
	Estado     string             `json:"estado"`
	NumeroLote string             `json:"numero_lote,omitempty"`
	CantItems  int                `json:"cant_items"`
	Items      []LoteItemResponse `json:"items,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
	SentAt     *time.Time         `json:"sent_at,omitempty"`
}

// CrearTimbradoRequest body para POST .../sifen/numeracion.
type CrearTimbradoRequest struct {
	TipoDE          string `json:"tipo_documento"`
	Establecimiento string `json:"establecimiento"`
	PuntoExpedicion string `json:"punto_expedicion"`
	NumeroTimbrado  string `json:"timbrado"`
	UltimoNumero    int64  `json:"ultimo_numero,omitempty"`
	InicioVigencia  string `json:"inicio_vigencia"` // AAAA-MM-DD
	FinVigencia     string `json:"fin_vigencia"`
}

// TimbradoResponse serie de numeración en respuestas.
type TimbradoResponse struct {
	ID              string `json:"id"`
	TipoDE          string `json:"tipo_documento"`
	Establecimiento string `json:"establecimiento"`
	PuntoExpedicion string `json:"punto_expedicion"`
	NumeroTimbrado  string `json:"timbrado"`
	UltimoNumero    int64  `json:"ultimo_numero"`
	InicioVigencia  string `json:"inicio_vigencia"`
	FinVigencia     string `json:"fin_vigencia"`
	Activo          bool   `json:"activo"`
}

// MetricsResponse agregados para el dashboard SIFEN.
type MetricsResponse struct {
	PorEstado map[string]int      `json:"por_estado"`
	PorTipo   map[string]int      `json:"por_tipo"`
	Recientes []DocumentoResponse `json:"recientes"`
}
