// Carga de certificado desde bytes .p12 (PKCS#12) o par PEM, sin tocar disco:
// el material de los tenants vive cifrado en la base y se descifra en memoria.

package signer

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"fmt"

	"golang.org/x/crypto/pkcs12"
)

// LoadFromP12Bytes carga certificado y llave privada desde el contenido de un
// archivo .p12/.pfx. El password puede ser vacío si no está protegido.
func LoadFromP12Bytes(data []byte, password string) (tls.Certificate, error) {
	priv, cert, err := pkcs12.Decode(data, password)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("decodificar p12: %w", err)
	}
	return tls.Certificate{
		Certificate: [][]byte{cert.Raw},
		PrivateKey:  priv,
		Leaf:        cert,
	}, nil
}

// LoadFromPEMBytes carga certificado y llave desde bloques PEM en memoria.
func LoadFromPEMBytes(certPEM, keyPEM []byte) (tls.Certificate, error) {
	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("cargar par PEM: %w", err)
	}
	if cert.Leaf == nil && len(cert.Certificate) > 0 {
		if leaf, err := x509.ParseCertificate(cert.Certificate[0]); err == nil {
			cert.Leaf = leaf
		}
	}
	return cert, nil
}

// EsPKCS12 detecta si los bytes parecen un contenedor PKCS#12 (no PEM).
func EsPKCS12(data []byte) bool {
	block, _ := pem.Decode(data)
	return block == nil
}
