package sifen_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgsifen "github.com/facturape/sifen-api/pkg/sifen"
)

// Vectores calculados a mano con el módulo 11 base 11 oficial de la SET.
func TestComputeRUCVerificationDigit_VectoresConocidos(t *testing.T) {
	casos := []struct {
		ruc string
		dv  int
	}{
		{"80012345", 0},
		{"80069563", 1},
		{"4787097", 4},
		{"80089752", 8},
	}
	for _, c := range casos {
		t.Run(c.ruc, func(t *testing.T) {
			dv, err := pkgsifen.ComputeRUCVerificationDigit(c.ruc)
			require.NoError(t, err)
			assert.Equal(t, c.dv, dv)
		})
	}
}

func TestComputeRUCVerificationDigit_IgnoraSeparadores(t *testing.T) {
	dv, err := pkgsifen.ComputeRUCVerificationDigit("80.012.345")
	require.NoError(t, err)
	assert.Equal(t, 0, dv, "los puntos y guiones no deben alterar el cálculo")
}

func TestComputeRUCVerificationDigit_RechazaSinDigitos(t *testing.T) {
	_, err := pkgsifen.ComputeRUCVerificationDigit("sin-numeros")
	assert.Error(t, err)
}

func TestValidateRUC(t *testing.T) {
	require.NoError(t, pkgsifen.ValidateRUC("80069563", 1))

	err := pkgsifen.ValidateRUC("80069563", 7)
	require.Error(t, err, "un DV que no coincide debe rechazarse")
	assert.Contains(t, err.Error(), "dígito verificador")
}

func TestOnlyDigits(t *testing.T) {
	assert.Equal(t, "80012345", pkgsifen.OnlyDigits("80.012.345"))
	assert.Equal(t, "0010010000123", pkgsifen.OnlyDigits("001-001-0000123"))
	assert.Equal(t, "", pkgsifen.OnlyDigits("abc"))
}
