package dto

import "time"

// ConfigResponse proyección pública de la configuración SIFEN del tenant.
// Los secretos jamás se devuelven: solo flags de presencia.
type ConfigResponse struct {
	Ambiente        string    `json:"ambiente"` // HOMOLOGACION | PRODUCCION
	RUC             string    `json:"ruc"`
	DV              int       `json:"dv"`
	RazonSocial     string    `json:"razon_social"`
	Establecimiento string    `json:"establecimiento"`
	PuntoExpedicion string    `json:"punto_expedicion"`
	IDCSC           string    `json:"id_csc,omitempty"`
	HasCSC          bool      `json:"has_csc"`
	HasCertificado  bool      `json:"has_certificado"`
	HasPrivateKey   bool      `json:"has_private_key"`
	HasPassphrase   bool      `json:"has_passphrase"`
	URLRecibeLote   string    `json:"url_recibe_lote,omitempty"`
	URLConsultaLote string    `json:"url_consulta_lote,omitempty"`
	URLConsultaDE   string    `json:"url_consulta_de,omitempty"`
	URLEvento       string    `json:"url_evento,omitempty"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// UpdateConfigRequest body para PUT .../sifen/config.
// Los campos secretos son write-only: vacíos = conservar el valor actual.
// Cambiar Ambiente a PRODUCCION exige ConfirmarProduccion=true (tiene efecto
// legal real).
type UpdateConfigRequest struct {
	Ambiente            string `json:"ambiente,omitempty"`
	ConfirmarProduccion bool   `json:"confirmar_produccion,omitempty"`

	RUC             string `json:"ruc,omitempty"`
	DV              *int   `json:"dv,omitempty"`
	RazonSocial     string `json:"razon_social,omitempty"`
	Establecimiento string `json:"establecimiento,omitempty"`
	PuntoExpedicion string `json:"punto_expedicion,omitempty"`

	IDCSC string `json:"id_csc,omitempty"`
	CSC   string `json:"csc,omitempty"` // write-only

	CertPEM    string `json:"cert_pem,omitempty"`
	PrivateKey string `json:"private_key,omitempty"` // write-only
	Passphrase string `json:"passphrase,omitempty"`  // write-only

	URLRecibeLote   string `json:"url_recibe_lote,omitempty"`
	URLConsultaLote string `json:"url_consulta_lote,omitempty"`
	URLConsultaDE   string `json:"url_consulta_de,omitempty"`
	URLEvento       string `json:"url_evento,omitempty"`
}
