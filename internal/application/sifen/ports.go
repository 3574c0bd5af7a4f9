// Puertos de salida del pipeline SIFEN. Las implementaciones concretas viven
// en internal/infrastructure; para tests se inyectan fakes.

package sifen

import (
	"context"
	"crypto/tls"

	"github.com/facturape/sifen-api/internal/domain/entity"
	"github.com/facturape/sifen-api/internal/domain/repository"
)

// EmisionTxRunner ejecuta la creación del documento y la asignación de número
// dentro de una misma transacción: o se reserva número y persiste el DRAFT, o
// no pasa nada.
type EmisionTxRunner interface {
	RunEmision(ctx context.Context, fn func(
		docRepo repository.DocumentoRepository,
		timbradoRepo repository.TimbradoRepository,
	) error) error
}

// LoteTxRunner ejecuta el armado del lote (crear lote + transicionar
// documentos a IN_LOTE) atómicamente.
type LoteTxRunner interface {
	RunLote(ctx context.Context, fn func(
		docRepo repository.DocumentoRepository,
		loteRepo repository.LoteRepository,
	) error) error
}

// DEXMLBuilder construye los XML del Manual Técnico SIFEN.
type DEXMLBuilder interface {
	// BuildRDE genera el rDE (documento electrónico sin firma) listo para firmar.
	BuildRDE(doc *entity.Documento, cfg *entity.TenantSifenConfig) ([]byte, error)
	// BuildEventoCancelacion genera el Evento de Cancelación para el CDC dado.
	BuildEventoCancelacion(doc *entity.Documento, cfg *entity.TenantSifenConfig, motivo string) ([]byte, error)
}

// SecretCipher cifra secretos del tenant para su persistencia en reposo.
// La contraparte de descifrado vive en CertProvider.
type SecretCipher interface {
	Encrypt(plaintext []byte) ([]byte, error)
}

// CertProvider resuelve el material criptográfico del tenant, descifrándolo
// con la master key. El plaintext solo existe en memoria durante la firma.
type CertProvider interface {
	Certificado(ctx context.Context, cfg *entity.TenantSifenConfig) (tls.Certificate, error)
	CSC(ctx context.Context, cfg *entity.TenantSifenConfig) (idCSC, csc string, err error)
}

// Endpoints URLs efectivas del WS SIFEN para una llamada (resueltas desde la
// configuración del tenant y su ambiente).
type Endpoints struct {
	Ambiente      string // HOMOLOGACION | PRODUCCION
	RecibeLote    string
	ConsultaLote  string
	ConsultaDE    string
	Evento        string
}

// RecibeLoteResult respuesta síncrona del WS recibe-lote: acuse de recepción,
// no el veredicto final.
type RecibeLoteResult struct {
	Aceptado   bool   // La SET recibió el lote y lo encoló
	NumeroLote string // dProtConsLote para consultas posteriores
	Codigo     string
	Mensaje    string
	Raw        string // payload crudo para auditoría
}

// ItemVeredicto resolución de un DE dentro de la consulta de lote.
type ItemVeredicto struct {
	CDC      string
	Aprobado bool
	Codigo   string
	Mensaje  string
}

// ConsultaLoteResult respuesta del WS consulta-lote.
type ConsultaLoteResult struct {
	EnProceso bool // La SET aún no resolvió el lote
	Items     []ItemVeredicto
	Raw       string
}

// ConsultaDEResult respuesta del WS consulta por CDC (camino alternativo).
type ConsultaDEResult struct {
	Encontrado bool
	Aprobado   bool
	Codigo     string
	Mensaje    string
	Raw        string
}

// EventoResult respuesta del WS de eventos (anulación).
type EventoResult struct {
	Aceptado bool
	Codigo   string
	Mensaje  string
	Raw      string
}

// SifenClient puerto de salida hacia los WS de la SET. Los errores de
// transporte (red/timeout) se devuelven envueltos en ErrAuthorityTransport;
// un rechazo explícito de la SET llega como resultado, no como error.
type SifenClient interface {
	RecibeLote(ctx context.Context, ep Endpoints, xmlsFirmados [][]byte) (*RecibeLoteResult, error)
	ConsultaLote(ctx context.Context, ep Endpoints, numeroLote string) (*ConsultaLoteResult, error)
	ConsultaDE(ctx context.Context, ep Endpoints, cdc string) (*ConsultaDEResult, error)
	EnviarEvento(ctx context.Context, ep Endpoints, eventoXMLFirmado []byte) (*EventoResult, error)
}

// KudeGenerator genera la representación gráfica (PDF) de un DE aprobado.
type KudeGenerator interface {
	GenerateKude(ctx context.Context, doc *entity.Documento, cfg *entity.TenantSifenConfig) ([]byte, error)
}
