// Package sifen: cálculo del CDC (Código de Control) de 44 dígitos según el
// Manual Técnico SIFEN. El CDC identifica unívocamente un DE y se reconstruye
// de forma determinista a partir de sus componentes, lo que permite auditar
// cualquier documento emitido.
//
// Composición (44 dígitos):
//
//	tipoDE(2) + RUC(8) + DV(1) + establecimiento(3) + punto(3) + número(7) +
//	tipoContribuyente(1) + fechaEmisión AAAAMMDD(8) + tipoEmisión(1) +
//	códigoSeguridad(9) + dígitoVerificador(1)
package sifen

import (
	"crypto/sha256"
	"fmt"
	"math/big"
	"time"

	pkgsifen "github.com/facturape/sifen-api/pkg/sifen"
)

// CDCLength longitud fija del CDC.
const CDCLength = 44

// CDCParams componentes del CDC en el orden exigido por el Manual Técnico.
type CDCParams struct {
	TipoDE            string    // "1".."7"; se rellena a 2 dígitos
	RUC               string    // Parte numérica del RUC emisor, sin DV
	DV                int       // Dígito verificador del RUC
	Establecimiento   string    // 3 dígitos
	PuntoExpedicion   string    // 3 dígitos
	Numero            string    // hasta 7 dígitos
	TipoContribuyente string    // "1" física | "2" jurídica
	FechaEmision      time.Time // Solo la fecha (AAAAMMDD)
	TipoEmision       string    // "1" normal | "2" contingencia
}

// CDCFields componentes extraídos de un CDC existente.
type CDCFields struct {
	TipoDE            string
	RUC               string
	DV                string
	Establecimiento   string
	PuntoExpedicion   string
	Numero            string
	TipoContribuyente string
	FechaEmision      string // AAAAMMDD
	TipoEmision       string
	CodigoSeguridad   string
	DigitoVerificador string
}

// BuildCDC construye el CDC de 44 dígitos. El código de seguridad de 9
// dígitos se deriva por SHA-256 de los componentes, de modo que el mismo
// documento siempre produce el mismo CDC (requisito de reproducibilidad
// para auditoría).
func BuildCDC(p *CDCParams) (string, error) {
	if p == nil {
		return "", fmt.Errorf("sifen: CDCParams es obligatorio")
	}
	ruc := pkgsifen.OnlyDigits(p.RUC)
	if ruc == "" || len(ruc) > 8 {
		return "", fmt.Errorf("sifen: RUC emisor inválido para CDC: %q", p.RUC)
	}
	if p.DV < 0 || p.DV > 9 {
		return "", fmt.Errorf("sifen: DV del RUC fuera de rango: %d", p.DV)
	}
	est := pkgsifen.OnlyDigits(p.Establecimiento)
	punto := pkgsifen.OnlyDigits(p.PuntoExpedicion)
	num := pkgsifen.OnlyDigits(p.Numero)
	if est == "" || len(est) > 3 || punto == "" || len(punto) > 3 {
		return "", fmt.Errorf("sifen: establecimiento/punto inválidos: %q/%q", p.Establecimiento, p.PuntoExpedicion)
	}
	if num == "" || len(num) > 7 {
		return "", fmt.Errorf("sifen: número de documento inválido: %q", p.Numero)
	}
	tipoDE := pkgsifen.OnlyDigits(p.TipoDE)
	if tipoDE == "" || len(tipoDE) > 2 {
		return "", fmt.Errorf("sifen: tipo de DE inválido: %q", p.TipoDE)
	}
	tipoCont := p.TipoContribuyente
	if tipoCont != "1" && tipoCont != "2" {
		return "", fmt.Errorf("sifen: tipo de contribuyente inválido: %q", p.TipoContribuyente)
	}
	tipoEmi := p.TipoEmision
	if tipoEmi == "" {
		tipoEmi = "1"
	}
	if tipoEmi != "1" && tipoEmi != "2" {
		return "", fmt.Errorf("sifen: tipo de emisión inválido: %q", p.TipoEmision)
	}
	if p.FechaEmision.IsZero() {
		return "", fmt.Errorf("sifen: fecha de emisión es obligatoria")
	}

	base := fmt.Sprintf("%02s%08s%d%03s%03s%07s%s%s%s",
		tipoDE, ruc, p.DV, est, punto, num,
		tipoCont, p.FechaEmision.Format("20060102"), tipoEmi)

	base += securityCode(base)

	dv, err := mod11BaseMax11(base)
	if err != nil {
		return "", err
	}
	cdc := base + fmt.Sprintf("%d", dv)
	if len(cdc) != CDCLength {
		return "", fmt.Errorf("sifen: CDC generado con longitud %d (esperado %d)", len(cdc), CDCLength)
	}
	return cdc, nil
}

// ParseCDC descompone y valida un CDC: longitud, solo dígitos y dígito
// verificador módulo 11.
func ParseCDC(cdc string) (*CDCFields, error) {
	if len(cdc) != CDCLength {
		return nil, fmt.Errorf("sifen: CDC debe tener %d dígitos, tiene %d", CDCLength, len(cdc))
	}
	if pkgsifen.OnlyDigits(cdc) != cdc {
		return nil, fmt.Errorf("sifen: CDC contiene caracteres no numéricos")
	}
	dv, err := mod11BaseMax11(cdc[:CDCLength-1])
	if err != nil {
		return nil, err
	}
	if fmt.Sprintf("%d", dv) != cdc[CDCLength-1:] {
		return nil, fmt.Errorf("sifen: dígito verificador del CDC inválido: esperado %d, recibido %s", dv, cdc[CDCLength-1:])
	}
	return &CDCFields{
		TipoDE:            cdc[0:2],
		RUC:               cdc[2:10],
		DV:                cdc[10:11],
		Establecimiento:   cdc[11:14],
		PuntoExpedicion:   cdc[14:17],
		Numero:            cdc[17:24],
		TipoContribuyente: cdc[24:25],
		FechaEmision:      cdc[25:33],
		TipoEmision:       cdc[33:34],
		CodigoSeguridad:   cdc[34:43],
		DigitoVerificador: cdc[43:44],
	}, nil
}

// securityCode deriva el código de seguridad de 9 dígitos por SHA-256 de los
// 34 dígitos previos (interpretación decimal del hash, cero-padded).
func securityCode(base string) string {
	sum := sha256.Sum256([]byte(base))
	n := new(big.Int).SetBytes(sum[:])
	n.Mod(n, big.NewInt(1_000_000_000))
	return fmt.Sprintf("%09d", n.Int64())
}

// mod11BaseMax11 calcula el dígito verificador módulo 11 (base máxima 11,
// ponderación 2..11 de derecha a izquierda), el mismo algoritmo del DV del RUC.
func mod11BaseMax11(digits string) (int, error) {
	if digits == "" {
		return 0, fmt.Errorf("sifen: cadena vacía para módulo 11")
	}
	const baseMax = 11
	var sum int
	factor := 2
	for i := len(digits) - 1; i >= 0; i-- {
		c := digits[i]
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("sifen: carácter no numérico %q en posición %d", c, i)
		}
		sum += int(c-'0') * factor
		factor++
		if factor > baseMax {
			factor = 2
		}
	}
	rest := sum % 11
	if rest > 1 {
		return 11 - rest, nil
	}
	return 0, nil
}
