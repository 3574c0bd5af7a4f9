package entity

import "time"

// Estados de un Lote de envío a la SET.
const (
	EstadoLoteCreated    = "CREATED"    // Armado, pendiente de envío
	EstadoLoteSent       = "SENT"       // Entregado al WS, en cola de la SET
	EstadoLoteProcessing = "PROCESSING" // La SET reporta "aún en proceso"
	EstadoLoteCompleted  = "COMPLETED"  // Todos los ítems con veredicto terminal
	EstadoLoteError      = "ERROR"      // Falló el envío; los documentos se liberan
)

// Estados por ítem dentro de un lote.
const (
	EstadoItemPending  = "PENDING"
	EstadoItemAccepted = "ACCEPTED"
	EstadoItemRejected = "REJECTED"
)

// Lote agrupa documentos firmados para el envío asíncrono a la SET.
// La membresía es inmutable después de crearlo: un reenvío implica armar un
// lote nuevo, nunca reutilizar uno fallido.
type Lote struct {
	ID         string
	TenantID   string
	Estado     string
	NumeroLote string // Asignado por la SET en la recepción (dProtConsLote)

	// Payloads crudos de la SET, para auditoría.
	RespuestaEnvio    string
	RespuestaConsulta string

	Items []*LoteItem

	CreatedAt time.Time
	SentAt    *time.Time
	UpdatedAt time.Time
}

// LoteItem referencia ordenada a un documento del lote con su veredicto.
type LoteItem struct {
	ID          string
	LoteID      string
	DocumentoID string
	CDC         string
	Orden       int    // Preserva el orden de numeración dentro del lote
	EstadoItem  string // PENDING | ACCEPTED | REJECTED
	Codigo      string // Código de respuesta de la SET para el ítem
	Mensaje     string
}

// EsTerminal indica si el lote ya no admite mutaciones.
func (l *Lote) EsTerminal() bool {
	return l.Estado == EstadoLoteCompleted || l.Estado == EstadoLoteError
}

// TodosResueltos indica si cada ítem tiene veredicto terminal.
func (l *Lote) TodosResueltos() bool {
	for _, it := range l.Items {
		if it.EstadoItem == EstadoItemPending {
			return false
		}
	}
	return len(l.Items) > 0
}
