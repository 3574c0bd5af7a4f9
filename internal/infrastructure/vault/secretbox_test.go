package vault_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facturape/sifen-api/internal/domain/entity"
	"github.com/facturape/sifen-api/internal/infrastructure/vault"
)

func TestNew_RechazaMasterKeyVacia(t *testing.T) {
	_, err := vault.New("")
	require.Error(t, err)
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	v, err := vault.New("master-key-de-prueba")
	require.NoError(t, err)

	plaintext := []byte("ABCD0000000000000000000000000000")
	ciphertext, err := v.Encrypt(plaintext)
	require.NoError(t, err)

	assert.NotContains(t, string(ciphertext), string(plaintext),
		"el secreto no debe aparecer en claro en reposo")

	recuperado, err := v.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, plaintext, recuperado)
}

func TestEncrypt_NoEsDeterminista(t *testing.T) {
	v, err := vault.New("master-key-de-prueba")
	require.NoError(t, err)

	a, err := v.Encrypt([]byte("mismo secreto"))
	require.NoError(t, err)
	b, err := v.Encrypt([]byte("mismo secreto"))
	require.NoError(t, err)

	assert.False(t, bytes.Equal(a, b), "salt y nonce aleatorios por cifrado")
}

func TestDecrypt_MasterKeyIncorrecta(t *testing.T) {
	v1, err := vault.New("llave-correcta")
	require.NoError(t, err)
	v2, err := vault.New("llave-incorrecta")
	require.NoError(t, err)

	ciphertext, err := v1.Encrypt([]byte("secreto"))
	require.NoError(t, err)

	_, err = v2.Decrypt(ciphertext)
	require.Error(t, err)
}

func TestDecrypt_CiphertextAlterado(t *testing.T) {
	v, err := vault.New("master-key-de-prueba")
	require.NoError(t, err)

	ciphertext, err := v.Encrypt([]byte("secreto"))
	require.NoError(t, err)

	// El cifrado es autenticado: un bit alterado invalida todo
	ciphertext[len(ciphertext)-1] ^= 0x01
	_, err = v.Decrypt(ciphertext)
	require.Error(t, err)
}

func TestDecrypt_CiphertextTruncado(t *testing.T) {
	v, err := vault.New("master-key-de-prueba")
	require.NoError(t, err)

	_, err = v.Decrypt([]byte("corto"))
	require.Error(t, err)
}

func TestCSC_UsaIDPorDefecto(t *testing.T) {
	v, err := vault.New("master-key-de-prueba")
	require.NoError(t, err)

	enc, err := v.Encrypt([]byte("ABCD"))
	require.NoError(t, err)

	id, csc, err := v.CSC(context.Background(), &entity.TenantSifenConfig{CSCEnc: enc})
	require.NoError(t, err)
	assert.Equal(t, "0001", id)
	assert.Equal(t, "ABCD", csc)
}

func TestCSC_SinMaterialCargado(t *testing.T) {
	v, err := vault.New("master-key-de-prueba")
	require.NoError(t, err)

	_, _, err = v.CSC(context.Background(), &entity.TenantSifenConfig{})
	require.Error(t, err)
}

func TestCertificado_SinLlavePrivada(t *testing.T) {
	v, err := vault.New("master-key-de-prueba")
	require.NoError(t, err)

	_, err = v.Certificado(context.Background(), &entity.TenantSifenConfig{})
	require.Error(t, err)
}
