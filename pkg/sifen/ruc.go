package sifen

import (
	"fmt"
	"unicode"
)

// Dígito verificador del RUC paraguayo: módulo 11 base 11, ponderación 2..N
// de derecha a izquierda (algoritmo oficial de la SET).

// ComputeRUCVerificationDigit calcula el dígito verificador para la parte
// numérica del RUC (sin DV). Acepta el RUC con o sin puntos/guiones.
func ComputeRUCVerificationDigit(ruc string) (int, error) {
	digits := extractDigits(ruc)
	if len(digits) == 0 {
		return 0, fmt.Errorf("sifen: RUC sin dígitos")
	}
	const baseMax = 11
	var sum, factor int
	factor = 2
	for i := len(digits) - 1; i >= 0; i-- {
		sum += int(digits[i]-'0') * factor
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

// ValidateRUC valida "RUC-DV" (ej: "80012345-5"). El DV debe coincidir con el
// calculado; sin DV retorna error porque SIFEN siempre lo exige.
func ValidateRUC(ruc string, dv int) error {
	expected, err := ComputeRUCVerificationDigit(ruc)
	if err != nil {
		return err
	}
	if expected != dv {
		return fmt.Errorf("sifen: dígito verificador del RUC inválido: esperado %d, recibido %d", expected, dv)
	}
	return nil
}

func extractDigits(s string) []byte {
	var out []byte
	for _, r := range s {
		if unicode.IsDigit(r) {
			out = append(out, byte(r))
		}
	}
	return out
}

// OnlyDigits deja solo dígitos 0-9 (para RUC y números de documento).
func OnlyDigits(s string) string {
	return string(extractDigits(s))
}
