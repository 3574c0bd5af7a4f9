// Cálculo del payload del QR del KUDE según el Manual Técnico SIFEN:
// URL base de ekuatia + parámetros del DE + cHashQR (SHA-256 de los
// parámetros concatenados con el CSC del contribuyente).

package sifen

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

// QRParams datos del DE que viajan en la URL del QR.
type QRParams struct {
	BaseURL      string // URLQRHomologacion | URLQRProduccion (pkg/sifen)
	CDC          string
	FechaEmision string // AAAA-MM-DD
	RUCReceptor  string // Solo dígitos; "0" si es innominado
	Total        decimal.Decimal
	TotalIVA     decimal.Decimal
	CantItems    int
	DigestValue  string // DigestValue de la firma (hex), liga el QR al XML firmado
	IDCSC        string // Identificador del CSC vigente (ej: "0001")
	CSC          string // Código Secreto del Contribuyente; solo entra al hash, nunca a la URL
}

// BuildQR construye la URL completa del QR. El orden de los parámetros es
// fijo: el hash se calcula sobre la cadena de parámetros en ese orden + CSC.
func BuildQR(p *QRParams) (string, error) {
	if p == nil || p.CDC == "" {
		return "", fmt.Errorf("sifen: CDC es obligatorio para el QR")
	}
	if p.CSC == "" {
		return "", fmt.Errorf("sifen: CSC es obligatorio para el hash del QR")
	}
	idCSC := p.IDCSC
	if idCSC == "" {
		idCSC = "0001"
	}
	rucRec := p.RUCReceptor
	if rucRec == "" {
		rucRec = "0"
	}

	params := strings.Join([]string{
		"nVersion=150",
		"Id=" + url.QueryEscape(p.CDC),
		"dFeEmiDE=" + hex.EncodeToString([]byte(p.FechaEmision)),
		"dRucRec=" + url.QueryEscape(rucRec),
		"dTotGralOpe=" + p.Total.StringFixed(0),
		"dTotIVA=" + p.TotalIVA.StringFixed(0),
		"cItems=" + fmt.Sprintf("%d", p.CantItems),
		"DigestValue=" + hex.EncodeToString([]byte(p.DigestValue)),
		"IdCSC=" + idCSC,
	}, "&")

	hash := sha256.Sum256([]byte(params + p.CSC))
	return p.BaseURL + params + "&cHashQR=" + hex.EncodeToString(hash[:]), nil
}
