// Package sifen: interfaz para firma digital de documentos XML (XML-DSig enveloped, SIFEN).

package sifen

import "crypto/tls"

// Signer firma un XML de documento electrónico y devuelve el XML con la firma
// ds:Signature insertada como hijo del nodo DE (firma enveloped, Manual Técnico SIFEN).
type Signer interface {
	// Sign toma el XML del DE (sin firma) y el certificado con llave privada,
	// y retorna el XML con el nodo ds:Signature inyectado.
	Sign(xmlBytes []byte, cert tls.Certificate) ([]byte, error)
}
