// Package sifen contiene catálogos y validaciones alineados al Manual Técnico
// del Sistema Integrado de Facturación Electrónica Nacional (SIFEN, Paraguay).
package sifen

// =============================================================================
// Tipos de Documento Electrónico (iTiDE, Manual Técnico SIFEN)
// =============================================================================

const (
	TipoDEFactura      = "1" // Factura electrónica
	TipoDEAutofactura  = "4" // Autofactura electrónica
	TipoDENotaCredito  = "5" // Nota de crédito electrónica
	TipoDENotaDebito   = "6" // Nota de débito electrónica
	TipoDENotaRemision = "7" // Nota de remisión electrónica
)

// ValidTipoDE tipos de documento electrónico soportados.
var ValidTipoDE = map[string]bool{
	TipoDEFactura:      true,
	TipoDEAutofactura:  true,
	TipoDENotaCredito:  true,
	TipoDENotaDebito:   true,
	TipoDENotaRemision: true,
}

// TipoDEDescripcion descripción oficial por código (para el XML y el KUDE).
var TipoDEDescripcion = map[string]string{
	TipoDEFactura:      "Factura electrónica",
	TipoDEAutofactura:  "Autofactura electrónica",
	TipoDENotaCredito:  "Nota de crédito electrónica",
	TipoDENotaDebito:   "Nota de débito electrónica",
	TipoDENotaRemision: "Nota de remisión electrónica",
}

// RequiereDEReferenciado indica si el tipo exige un CDC de documento asociado
// (notas de crédito y débito siempre referencian el DE que ajustan).
func RequiereDEReferenciado(tipoDE string) bool {
	return tipoDE == TipoDENotaCredito || tipoDE == TipoDENotaDebito
}

// =============================================================================
// Tipo de emisión (iTipEmi) y tipo de contribuyente (iTipCont)
// =============================================================================

const (
	TipoEmisionNormal       = "1" // Emisión normal
	TipoEmisionContingencia = "2" // Emisión en contingencia

	TipoContribuyenteFisica   = "1" // Persona física
	TipoContribuyenteJuridica = "2" // Persona jurídica
)

// =============================================================================
// Tasas de IVA admitidas en líneas de documento (Paraguay: exento, 5%, 10%)
// =============================================================================

var ValidTasasIVA = map[int]bool{0: true, 5: true, 10: true}

// =============================================================================
// Monedas (cMoneOpe, ISO 4217)
// =============================================================================

const (
	MonedaGuarani = "PYG"
	MonedaDolar   = "USD"
)

var ValidMonedas = map[string]bool{MonedaGuarani: true, MonedaDolar: true}

// =============================================================================
// Ambientes del WS SIFEN y URLs oficiales
// =============================================================================

const (
	AmbienteHomologacion = "HOMOLOGACION" // sifen-test.set.gov.py
	AmbienteProduccion   = "PRODUCCION"   // sifen.set.gov.py

	URLRecibeLoteHomologacion  = "https://sifen-test.set.gov.py/de/ws/async/recibe-lote.wsdl"
	URLRecibeLoteProduccion    = "https://sifen.set.gov.py/de/ws/async/recibe-lote.wsdl"
	URLConsultaLoteHomologacion = "https://sifen-test.set.gov.py/de/ws/consultas/consulta-lote.wsdl"
	URLConsultaLoteProduccion   = "https://sifen.set.gov.py/de/ws/consultas/consulta-lote.wsdl"
	URLConsultaDEHomologacion   = "https://sifen-test.set.gov.py/de/ws/consultas/consulta.wsdl"
	URLConsultaDEProduccion     = "https://sifen.set.gov.py/de/ws/consultas/consulta.wsdl"
	URLEventoHomologacion       = "https://sifen-test.set.gov.py/de/ws/eventos/evento.wsdl"
	URLEventoProduccion         = "https://sifen.set.gov.py/de/ws/eventos/evento.wsdl"
)

// WSEndpoints agrupa las URLs oficiales de los cuatro WS de un ambiente.
type WSEndpoints struct {
	RecibeLote   string
	ConsultaLote string
	ConsultaDE   string
	Evento       string
}

var (
	URLsHomologacion = WSEndpoints{
		RecibeLote:   URLRecibeLoteHomologacion,
		ConsultaLote: URLConsultaLoteHomologacion,
		ConsultaDE:   URLConsultaDEHomologacion,
		Evento:       URLEventoHomologacion,
	}
	URLsProduccion = WSEndpoints{
		RecibeLote:   URLRecibeLoteProduccion,
		ConsultaLote: URLConsultaLoteProduccion,
		ConsultaDE:   URLConsultaDEProduccion,
		Evento:       URLEventoProduccion,
	}
)

// URLQRHomologacion / URLQRProduccion base de la URL de consulta pública del QR (ekuatia).
const (
	URLQRHomologacion = "https://ekuatia.set.gov.py/consultas-test/qr?"
	URLQRProduccion   = "https://ekuatia.set.gov.py/consultas/qr?"
)

// MaxNumeroDocumento máximo número asignable dentro de un timbrado (7 dígitos).
const MaxNumeroDocumento = 9_999_999

// LoteMaxDocumentos máximo de DEs por lote impuesto por el WS recibe-lote.
const LoteMaxDocumentos = 50
