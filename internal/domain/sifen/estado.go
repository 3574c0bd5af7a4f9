// Máquinas de estado de Documento y Lote. Toda mutación de estado pasa por
// TransitionDocumento/TransitionLote; ningún caso de uso compara strings de
// estado por su cuenta.

package sifen

import (
	"fmt"

	"github.com/facturape/sifen-api/internal/domain"
	"github.com/facturape/sifen-api/internal/domain/entity"
)

// transicionesDocumento tabla de transiciones válidas del DE.
var transicionesDocumento = map[string][]string{
	entity.EstadoDEDraft:     {entity.EstadoDEGenerated, entity.EstadoDESigned, entity.EstadoDEError},
	entity.EstadoDEGenerated: {entity.EstadoDESigned, entity.EstadoDEError},
	entity.EstadoDESigned:    {entity.EstadoDEEnqueued, entity.EstadoDEInLote, entity.EstadoDEError},
	entity.EstadoDEEnqueued:  {entity.EstadoDEInLote, entity.EstadoDEError},
	entity.EstadoDEInLote:    {entity.EstadoDESent, entity.EstadoDESigned, entity.EstadoDEError},
	entity.EstadoDESent:      {entity.EstadoDEApproved, entity.EstadoDERejected, entity.EstadoDEError},
	entity.EstadoDEApproved:  {entity.EstadoDECancelled},
	// ERROR reintenta hacia el pipeline: re-firma o re-encolado. El lazo sobre
	// sí mismo registra un reintento que volvió a fallar.
	entity.EstadoDEError: {entity.EstadoDEGenerated, entity.EstadoDESigned, entity.EstadoDEEnqueued, entity.EstadoDEError},
	// REJECTED y CANCELLED son terminales.
	entity.EstadoDERejected:  {},
	entity.EstadoDECancelled: {},
}

// transicionesLote tabla de transiciones válidas del Lote.
var transicionesLote = map[string][]string{
	entity.EstadoLoteCreated:    {entity.EstadoLoteSent, entity.EstadoLoteError},
	entity.EstadoLoteSent:       {entity.EstadoLoteProcessing, entity.EstadoLoteCompleted, entity.EstadoLoteError},
	entity.EstadoLoteProcessing: {entity.EstadoLoteProcessing, entity.EstadoLoteCompleted, entity.EstadoLoteError},
	entity.EstadoLoteCompleted:  {},
	entity.EstadoLoteError:      {},
}

// CanTransitionDocumento indica si el DE puede pasar de `from` a `to`.
func CanTransitionDocumento(from, to string) bool {
	return contiene(transicionesDocumento[from], to)
}

// TransitionDocumento valida y aplica la transición sobre el documento.
// Retorna ErrInvalidState (envuelto con el detalle) si la transición es ilegal.
func TransitionDocumento(d *entity.Documento, to string) error {
	if !CanTransitionDocumento(d.Estado, to) {
		return fmt.Errorf("%w: documento %s no puede pasar de %s a %s",
			domain.ErrInvalidState, d.ID, d.Estado, to)
	}
	d.Estado = to
	return nil
}

// CanTransitionLote indica si el lote puede pasar de `from` a `to`.
func CanTransitionLote(from, to string) bool {
	return contiene(transicionesLote[from], to)
}

// TransitionLote valida y aplica la transición sobre el lote.
func TransitionLote(l *entity.Lote, to string) error {
	if !CanTransitionLote(l.Estado, to) {
		return fmt.Errorf("%w: lote %s no puede pasar de %s a %s",
			domain.ErrInvalidState, l.ID, l.Estado, to)
	}
	l.Estado = to
	return nil
}

// PuedeFirmarse estados desde los cuales el Signer acepta un documento.
func PuedeFirmarse(estado string) bool {
	return estado == entity.EstadoDEDraft ||
		estado == entity.EstadoDEGenerated ||
		estado == entity.EstadoDEError
}

// ElegibleParaLote estados que el Batch Assembler considera al armar un lote.
func ElegibleParaLote(estado string) bool {
	return estado == entity.EstadoDESigned || estado == entity.EstadoDEEnqueued
}

func contiene(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
