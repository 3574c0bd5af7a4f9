package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados del ciclo de vida de un Documento Electrónico (DE).
// DRAFT → GENERATED → SIGNED → ENQUEUED → IN_LOTE → SENT → APPROVED|REJECTED.
// APPROVED puede pasar a CANCELLED (anulación). ERROR es alcanzable desde
// cualquier paso de procesamiento y es reintentable.
const (
	EstadoDEDraft     = "DRAFT"     // Creado, número y CDC asignados, XML sin firmar
	EstadoDEGenerated = "GENERATED" // XML regenerado (re-emisión tras corrección)
	EstadoDESigned    = "SIGNED"    // XML firmado, QR calculado
	EstadoDEEnqueued  = "ENQUEUED"  // En cola para armado de lote
	EstadoDEInLote    = "IN_LOTE"   // Incluido en un lote no terminal
	EstadoDESent      = "SENT"      // Lote enviado, veredicto pendiente
	EstadoDEApproved  = "APPROVED"  // Aprobado por la SET (KUDE disponible)
	EstadoDERejected  = "REJECTED"  // Rechazado por la SET (ver código/mensaje)
	EstadoDECancelled = "CANCELLED" // Anulado por evento de cancelación
	EstadoDEError     = "ERROR"     // Fallo de firma/envío; reintentable
)

// Documento representa un Documento Electrónico SIFEN (factura, nota de
// crédito/débito, autofactura). Nunca se elimina físicamente: el rastro es
// requisito legal.
type Documento struct {
	ID             string
	TenantID       string
	TipoDE         string // "1" factura, "4" autofactura, "5" NC, "6" ND, "7" NR
	Timbrado       string // Número de timbrado bajo el cual se numeró
	Establecimiento string // 3 dígitos
	PuntoExpedicion string // 3 dígitos
	Numero         string // 7 dígitos, cero-padded
	CDC            string // Código de Control de 44 dígitos
	Moneda         string // PYG | USD
	FechaEmision   time.Time

	// Snapshot del receptor al momento de emitir (no una FK viva).
	ReceptorNombre   string
	ReceptorRUC      string // RUC-DV o documento de identidad
	ReceptorEmail    string
	ReceptorDireccion string

	// Referencia a otro DE (obligatoria para NC/ND).
	DEReferenciadoCDC string

	// Totales por tasa (IVA incluido en los precios).
	Gravada10 decimal.Decimal // Base gravada al 10%
	Gravada5  decimal.Decimal // Base gravada al 5%
	Exenta    decimal.Decimal
	IVA10     decimal.Decimal
	IVA5      decimal.Decimal
	Total     decimal.Decimal

	Estado      string
	XMLUnsigned string
	XMLSigned   string
	QRData      string // URL del QR (parámetros + cHashQR)

	// Respuesta de la SET una vez resuelto (o detalle del error de firma/envío).
	SifenCodigo  string
	SifenMensaje string

	Items []*DocumentoItem

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DocumentoItem línea de detalle de un DE.
type DocumentoItem struct {
	ID           string
	DocumentoID  string
	Descripcion  string
	Cantidad     decimal.Decimal
	PrecioUnitario decimal.Decimal
	TasaIVA      int // 0 | 5 | 10
	Subtotal     decimal.Decimal // Cantidad * PrecioUnitario (IVA incluido)
	IVAItem      decimal.Decimal // Porción de IVA extraída del subtotal
}

// EsTerminal indica si el documento ya no avanza por el pipeline
// (REJECTED y CANCELLED son finales; APPROVED solo admite anulación).
func (d *Documento) EsTerminal() bool {
	return d.Estado == EstadoDERejected || d.Estado == EstadoDECancelled
}

// NumeroCompleto devuelve "est-punto-numero" (ej: "001-001-0000123").
func (d *Documento) NumeroCompleto() string {
	return d.Establecimiento + "-" + d.PuntoExpedicion + "-" + d.Numero
}
