package entity

import "time"

// TenantSifenConfig configuración SIFEN por tenant: identidad del emisor,
// ambiente, material de certificado (siempre cifrado en reposo) y URLs de
// los WS de la SET.
//
// Los campos *Enc nunca salen en texto claro por la API: la proyección
// pública (ver ConfigPublica) solo expone flags de presencia.
type TenantSifenConfig struct {
	TenantID string

	Ambiente string // HOMOLOGACION | PRODUCCION

	// Identidad del emisor.
	RUC             string // Sin DV (ej: "80012345")
	DV              int    // Dígito verificador
	RazonSocial     string
	Establecimiento string // Default para emisión (3 dígitos)
	PuntoExpedicion string // Default para emisión (3 dígitos)

	// CSC (Código Secreto del Contribuyente) para el hash del QR.
	IDCSC string
	CSCEnc []byte // cifrado

	// Material del certificado de firma (cifrado con la master key).
	CertPEM       []byte // certificado público; no es secreto pero se guarda junto
	PrivateKeyEnc []byte
	PassphraseEnc []byte

	// URLs de los WS (vacío = URL oficial según Ambiente).
	URLRecibeLote   string
	URLConsultaLote string
	URLConsultaDE   string
	URLEvento       string

	UpdatedAt time.Time
}

// TieneCertificado indica si el tenant cargó certificado y llave privada.
func (c *TenantSifenConfig) TieneCertificado() bool {
	return len(c.CertPEM) > 0 && len(c.PrivateKeyEnc) > 0
}

// ConfigPublica proyección de solo lectura de la configuración: los secretos
// se reemplazan por flags de presencia.
type ConfigPublica struct {
	TenantID        string
	Ambiente        string
	RUC             string
	DV              int
	RazonSocial     string
	Establecimiento string
	PuntoExpedicion string
	IDCSC           string
	HasCSC          bool
	HasCertificado  bool
	HasPrivateKey   bool
	HasPassphrase   bool
	URLRecibeLote   string
	URLConsultaLote string
	URLConsultaDE   string
	URLEvento       string
	UpdatedAt       time.Time
}

// Publica construye la proyección pública (sin secretos).
func (c *TenantSifenConfig) Publica() ConfigPublica {
	return ConfigPublica{
		TenantID:        c.TenantID,
		Ambiente:        c.Ambiente,
		RUC:             c.RUC,
		DV:              c.DV,
		RazonSocial:     c.RazonSocial,
		Establecimiento: c.Establecimiento,
		PuntoExpedicion: c.PuntoExpedicion,
		IDCSC:           c.IDCSC,
		HasCSC:          len(c.CSCEnc) > 0,
		HasCertificado:  len(c.CertPEM) > 0,
		HasPrivateKey:   len(c.PrivateKeyEnc) > 0,
		HasPassphrase:   len(c.PassphraseEnc) > 0,
		URLRecibeLote:   c.URLRecibeLote,
		URLConsultaLote: c.URLConsultaLote,
		URLConsultaDE:   c.URLConsultaDE,
		URLEvento:       c.URLEvento,
		UpdatedAt:       c.UpdatedAt,
	}
}
