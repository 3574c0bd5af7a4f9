package entity

import "time"

// Timbrado representa una serie de numeración autorizada por la SET para un
// (tenant, tipo de DE, establecimiento, punto de expedición). La asignación
// de números es estrictamente secuencial y sin huecos; UltimoNumero solo se
// incrementa bajo bloqueo transaccional.
// A lo sumo una serie abierta (vigente, no agotada) por clave.
type Timbrado struct {
	ID              string
	TenantID        string
	TipoDE          string // "1", "4", "5", "6", "7"
	Establecimiento string // 3 dígitos (ej: "001")
	PuntoExpedicion string // 3 dígitos (ej: "001")
	NumeroTimbrado  string // Número de timbrado otorgado por la SET (8 dígitos)
	UltimoNumero    int64  // Último número asignado (0 = ninguno)
	InicioVigencia  time.Time
	FinVigencia     time.Time
	Activo          bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Vigente indica si la serie está dentro de su ventana de validez en t.
func (tb *Timbrado) Vigente(t time.Time) bool {
	return tb.Activo && !t.Before(tb.InicioVigencia) && !t.After(tb.FinVigencia)
}

// Agotado indica si la serie alcanzó el máximo de 7 dígitos impuesto por la SET.
func (tb *Timbrado) Agotado(max int64) bool {
	return tb.UltimoNumero >= max
}
