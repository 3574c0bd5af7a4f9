// Package vault cifra el material sensible de los tenants (CSC, llave privada,
// passphrase del certificado) para su persistencia. Llave derivada de la
// master key con scrypt, cifrado autenticado con nacl/secretbox; el salt y el
// nonce viajan antepuestos al ciphertext.
package vault

import (
	"context"
	"crypto/rand"
	"crypto/tls"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"

	appsifen "github.com/facturape/sifen-api/internal/application/sifen"
	"github.com/facturape/sifen-api/internal/domain/entity"
	"github.com/facturape/sifen-api/internal/infrastructure/sifen/signer"
)

const (
	saltLen  = 16
	nonceLen = 24
	keyLen   = 32

	// Parámetros scrypt recomendados para cifrado interactivo.
	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

var _ appsifen.SecretCipher = (*Vault)(nil)
var _ appsifen.CertProvider = (*Vault)(nil)

// Vault cifra y descifra secretos con una master key de proceso.
type Vault struct {
	masterKey []byte
}

// New construye el vault. La master key viene de configuración y nunca se
// persiste junto a los datos.
func New(masterKey string) (*Vault, error) {
	if masterKey == "" {
		return nil, fmt.Errorf("vault: master key vacía")
	}
	return &Vault{masterKey: []byte(masterKey)}, nil
}

// Encrypt cifra el plaintext. Formato de salida: salt(16) | nonce(24) | caja.
func (v *Vault) Encrypt(plaintext []byte) ([]byte, error) {
	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("vault: generar salt: %w", err)
	}
	key, err := v.deriveKey(salt)
	if err != nil {
		return nil, err
	}
	var nonce [nonceLen]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("vault: generar nonce: %w", err)
	}
	out := make([]byte, 0, saltLen+nonceLen+len(plaintext)+secretbox.Overhead)
	out = append(out, salt...)
	out = append(out, nonce[:]...)
	return secretbox.Seal(out, plaintext, &nonce, key), nil
}

// Decrypt descifra lo producido por Encrypt.
func (v *Vault) Decrypt(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < saltLen+nonceLen+secretbox.Overhead {
		return nil, fmt.Errorf("vault: ciphertext truncado")
	}
	key, err := v.deriveKey(ciphertext[:saltLen])
	if err != nil {
		return nil, err
	}
	var nonce [nonceLen]byte
	copy(nonce[:], ciphertext[saltLen:saltLen+nonceLen])
	plaintext, ok := secretbox.Open(nil, ciphertext[saltLen+nonceLen:], &nonce, key)
	if !ok {
		return nil, fmt.Errorf("vault: descifrado fallido (master key incorrecta o datos corruptos)")
	}
	return plaintext, nil
}

func (v *Vault) deriveKey(salt []byte) (*[keyLen]byte, error) {
	raw, err := scrypt.Key(v.masterKey, salt, scryptN, scryptR, scryptP, keyLen)
	if err != nil {
		return nil, fmt.Errorf("vault: derivar llave: %w", err)
	}
	var key [keyLen]byte
	copy(key[:], raw)
	return &key, nil
}

// Certificado descifra y arma el certificado de firma del tenant. Acepta
// llave privada en PEM o contenedor PKCS#12 completo.
func (v *Vault) Certificado(ctx context.Context, cfg *entity.TenantSifenConfig) (tls.Certificate, error) {
	if len(cfg.PrivateKeyEnc) == 0 {
		return tls.Certificate{}, fmt.Errorf("vault: el tenant no cargó llave privada")
	}
	keyMaterial, err := v.Decrypt(cfg.PrivateKeyEnc)
	if err != nil {
		return tls.Certificate{}, err
	}
	if signer.EsPKCS12(keyMaterial) {
		var passphrase string
		if len(cfg.PassphraseEnc) > 0 {
			p, err := v.Decrypt(cfg.PassphraseEnc)
			if err != nil {
				return tls.Certificate{}, err
			}
			passphrase = string(p)
		}
		return signer.LoadFromP12Bytes(keyMaterial, passphrase)
	}
	if len(cfg.CertPEM) == 0 {
		return tls.Certificate{}, fmt.Errorf("vault: el tenant no cargó certificado")
	}
	return signer.LoadFromPEMBytes(cfg.CertPEM, keyMaterial)
}

// CSC descifra el Código Secreto del Contribuyente para el hash del QR.
func (v *Vault) CSC(ctx context.Context, cfg *entity.TenantSifenConfig) (string, string, error) {
	if len(cfg.CSCEnc) == 0 {
		return "", "", fmt.Errorf("vault: el tenant no cargó CSC")
	}
	csc, err := v.Decrypt(cfg.CSCEnc)
	if err != nil {
		return "", "", err
	}
	idCSC := cfg.IDCSC
	if idCSC == "" {
		idCSC = "0001"
	}
	return idCSC, string(csc), nil
}
