package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound       = errors.New("recurso no encontrado")
	ErrValidation     = errors.New("entrada inválida")
	ErrConflict       = errors.New("conflicto con el estado actual")
	ErrUnauthorized   = errors.New("no autorizado")
	ErrForbidden      = errors.New("acceso denegado")
	ErrNoActiveSeries = errors.New("no existe numeración activa para la clave solicitada")
	ErrInvalidState   = errors.New("operación no permitida en el estado actual")
	ErrSigning        = errors.New("error de firma digital")

	// ErrAuthorityTransport error de red/timeout contra el WS SIFEN; la operación
	// es segura de reintentar (el estado queda donde estaba).
	ErrAuthorityTransport = errors.New("error de transporte con el WS SIFEN")

	// ErrAuthorityRejection la SET rechazó explícitamente el documento o evento;
	// se persiste el código/mensaje y no se reintenta a ciegas.
	ErrAuthorityRejection = errors.New("rechazo del WS SIFEN")
)
