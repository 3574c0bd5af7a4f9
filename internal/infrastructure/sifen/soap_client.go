// Cliente SOAP de los WS SIFEN (recibe-lote, consulta-lote, consulta por CDC
// y eventos). Los sobres se construyen a mano con encoding/xml; la respuesta
// se parsea de forma tolerante: un payload inesperado de la SET se devuelve
// como resultado no aceptado con el raw adjunto, nunca como panic.

package sifen

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/text/encoding/charmap"

	appsifen "github.com/facturape/sifen-api/internal/application/sifen"
	"github.com/facturape/sifen-api/internal/domain"
)

const (
	soapNS  = "http://www.w3.org/2003/05/soap-envelope"
	sifenNS = "http://ekuatia.set.gov.py/sifen/xsd"

	// Códigos de respuesta del Manual Técnico SIFEN.
	codLoteRecibido   = "0300" // Lote recibido con éxito
	codLoteEnProceso  = "0361" // Lote en procesamiento
	codCDCEncontrado  = "0420" // CDC encontrado
	codEventoAceptado = "0600" // Evento registrado

	maxRespuesta = 1 << 20 // 1 MB
)

var _ appsifen.SifenClient = (*SOAPClient)(nil)

// SOAPClient implementa el puerto SifenClient contra los WS de la SET.
type SOAPClient struct {
	httpClient *http.Client
	seq        atomic.Int64 // dId incremental por proceso
}

// NewSOAPClient construye el cliente. El WS de la SET puede tardar varios
// segundos, de ahí el timeout generoso; el context del caller manda igual.
func NewSOAPClient() *SOAPClient {
	return &SOAPClient{
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// NewSOAPClientWithHTTP permite inyectar el *http.Client (mTLS por tenant).
func NewSOAPClientWithHTTP(hc *http.Client) *SOAPClient {
	return &SOAPClient{httpClient: hc}
}

// ── Estructuras SOAP ─────────────────────────────────────────────────────────

type soapEnvelope struct {
	XMLName xml.Name   `xml:"env:Envelope"`
	XmlnsE  string     `xml:"xmlns:env,attr"`
	Header  soapHeader `xml:"env:Header"`
	Body    soapBody   `xml:"env:Body"`
}

type soapHeader struct{}

type soapBody struct {
	Content interface{}
}

func (b soapBody) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name.Local = "env:Body"
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if err := e.Encode(b.Content); err != nil {
		return err
	}
	return e.EncodeToken(start.End())
}

type enviLoteBody struct {
	XMLName xml.Name `xml:"rEnvioLote"`
	Xmlns   string   `xml:"xmlns,attr"`
	DId     int64    `xml:"dId"`
	XDE     string   `xml:"xDE"` // ZIP del rLoteDE en Base64
}

type consLoteBody struct {
	XMLName  xml.Name `xml:"rEnviConsLoteDe"`
	Xmlns    string   `xml:"xmlns,attr"`
	DId      int64    `xml:"dId"`
	DProtCon string   `xml:"dProtConsLote"`
}

type consDEBody struct {
	XMLName xml.Name `xml:"rEnviConsDeRequest"`
	Xmlns   string   `xml:"xmlns,attr"`
	DId     int64    `xml:"dId"`
	DCDC    string   `xml:"dCDC"`
}

type eventoBody struct {
	XMLName xml.Name `xml:"rEnviEventoDe"`
	Xmlns   string   `xml:"xmlns,attr"`
	DId     int64    `xml:"dId"`
	DEvReg  string   `xml:"dEvReg"` // Evento firmado en Base64
}

// ── Estructuras de respuesta ─────────────────────────────────────────────────

type respuestaEnvelope struct {
	Body respuestaBody `xml:"Body"`
}

type respuestaBody struct {
	EnvioLote *resEnvioLote `xml:"rResEnviLoteDe"`
	ConsLote  *resConsLote  `xml:"rResEnviConsLoteDe"`
	ConsDE    *resConsDE    `xml:"rEnviConsDeResponse"`
	Evento    *resEvento    `xml:"rRetEnviEventoDe"`
	Fault     *soapFault    `xml:"Fault"`
}

type soapFault struct {
	Code   string `xml:"Code>Value"`
	Reason string `xml:"Reason>Text"`
}

type resEnvioLote struct {
	DFecProc  string `xml:"dFecProc"`
	DCodRes   string `xml:"dCodRes"`
	DMsgRes   string `xml:"dMsgRes"`
	DProtCons string `xml:"dProtConsLote"`
}

type resConsLote struct {
	DCodResLot string           `xml:"dCodResLot"`
	DMsgResLot string           `xml:"dMsgResLot"`
	Resultados []resProcDetalle `xml:"gResProcLote"`
}

type resProcDetalle struct {
	ID      string `xml:"id"`
	DEstRes string `xml:"dEstRes"` // "Aprobado" | "Rechazado"
	DProtAut string `xml:"dProtAut"`
	Proc    struct {
		DCodRes string `xml:"dCodRes"`
		DMsgRes string `xml:"dMsgRes"`
	} `xml:"gResProc"`
}

type resConsDE struct {
	DCodRes string `xml:"dCodRes"`
	DMsgRes string `xml:"dMsgRes"`
	ProtDE  *struct {
		DEstRes string `xml:"gResProc>dEstRes"`
		DCodRes string `xml:"gResProc>dCodRes"`
		DMsgRes string `xml:"gResProc>dMsgRes"`
	} `xml:"rProtDe"`
}

type resEvento struct {
	DEstRes string `xml:"gResProcEVe>dEstRes"`
	DCodRes string `xml:"gResProcEVe>dCodRes"`
	DMsgRes string `xml:"gResProcEVe>dMsgRes"`
}

// ── Operaciones ──────────────────────────────────────────────────────────────

// RecibeLote arma el rLoteDE con los XML firmados, lo comprime y lo entrega
// al WS async. La aceptación es solo el acuse: el veredicto llega por
// ConsultaLote.
func (c *SOAPClient) RecibeLote(ctx context.Context, ep appsifen.Endpoints, xmlsFirmados [][]byte) (*appsifen.RecibeLoteResult, error) {
	if len(xmlsFirmados) == 0 {
		return nil, fmt.Errorf("sifen: lote sin documentos")
	}
	zipB64, err := zipLoteBase64(xmlsFirmados)
	if err != nil {
		return nil, err
	}
	raw, err := c.call(ctx, ep.RecibeLote, &enviLoteBody{
		Xmlns: sifenNS,
		DId:   c.seq.Add(1),
		XDE:   zipB64,
	})
	if err != nil {
		return nil, err
	}

	resp, fault := parseRespuesta(raw)
	if fault != "" {
		return &appsifen.RecibeLoteResult{Aceptado: false, Mensaje: fault, Raw: string(raw)}, nil
	}
	if resp.Body.EnvioLote == nil {
		return &appsifen.RecibeLoteResult{Aceptado: false, Mensaje: "respuesta SOAP inesperada", Raw: string(raw)}, nil
	}
	r := resp.Body.EnvioLote
	return &appsifen.RecibeLoteResult{
		Aceptado:   r.DCodRes == codLoteRecibido,
		NumeroLote: r.DProtCons,
		Codigo:     r.DCodRes,
		Mensaje:    r.DMsgRes,
		Raw:        string(raw),
	}, nil
}

// ConsultaLote pregunta por el veredicto del lote.
func (c *SOAPClient) ConsultaLote(ctx context.Context, ep appsifen.Endpoints, numeroLote string) (*appsifen.ConsultaLoteResult, error) {
	raw, err := c.call(ctx, ep.ConsultaLote, &consLoteBody{
		Xmlns:    sifenNS,
		DId:      c.seq.Add(1),
		DProtCon: numeroLote,
	})
	if err != nil {
		return nil, err
	}

	resp, fault := parseRespuesta(raw)
	if fault != "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrAuthorityTransport, fault)
	}
	if resp.Body.ConsLote == nil {
		return nil, fmt.Errorf("%w: respuesta de consulta-lote inesperada", domain.ErrAuthorityTransport)
	}
	r := resp.Body.ConsLote
	if r.DCodResLot == codLoteEnProceso {
		return &appsifen.ConsultaLoteResult{EnProceso: true, Raw: string(raw)}, nil
	}
	out := &appsifen.ConsultaLoteResult{Raw: string(raw)}
	for _, det := range r.Resultados {
		out.Items = append(out.Items, appsifen.ItemVeredicto{
			CDC:      det.ID,
			Aprobado: strings.EqualFold(det.DEstRes, "Aprobado"),
			Codigo:   det.Proc.DCodRes,
			Mensaje:  det.Proc.DMsgRes,
		})
	}
	return out, nil
}

// ConsultaDE consulta el estado de un DE por CDC.
func (c *SOAPClient) ConsultaDE(ctx context.Context, ep appsifen.Endpoints, cdc string) (*appsifen.ConsultaDEResult, error) {
	raw, err := c.call(ctx, ep.ConsultaDE, &consDEBody{
		Xmlns: sifenNS,
		DId:   c.seq.Add(1),
		DCDC:  cdc,
	})
	if err != nil {
		return nil, err
	}

	resp, fault := parseRespuesta(raw)
	if fault != "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrAuthorityTransport, fault)
	}
	if resp.Body.ConsDE == nil {
		return nil, fmt.Errorf("%w: respuesta de consulta inesperada", domain.ErrAuthorityTransport)
	}
	r := resp.Body.ConsDE
	out := &appsifen.ConsultaDEResult{
		Encontrado: r.DCodRes == codCDCEncontrado,
		Codigo:     r.DCodRes,
		Mensaje:    r.DMsgRes,
		Raw:        string(raw),
	}
	if r.ProtDE != nil {
		out.Aprobado = strings.EqualFold(r.ProtDE.DEstRes, "Aprobado")
		if r.ProtDE.DCodRes != "" {
			out.Codigo = r.ProtDE.DCodRes
			out.Mensaje = r.ProtDE.DMsgRes
		}
	}
	return out, nil
}

// EnviarEvento entrega un evento firmado (anulación).
func (c *SOAPClient) EnviarEvento(ctx context.Context, ep appsifen.Endpoints, eventoXMLFirmado []byte) (*appsifen.EventoResult, error) {
	raw, err := c.call(ctx, ep.Evento, &eventoBody{
		Xmlns:  sifenNS,
		DId:    c.seq.Add(1),
		DEvReg: base64.StdEncoding.EncodeToString(eventoXMLFirmado),
	})
	if err != nil {
		return nil, err
	}

	resp, fault := parseRespuesta(raw)
	if fault != "" {
		return &appsifen.EventoResult{Aceptado: false, Mensaje: fault, Raw: string(raw)}, nil
	}
	if resp.Body.Evento == nil {
		return &appsifen.EventoResult{Aceptado: false, Mensaje: "respuesta de evento inesperada", Raw: string(raw)}, nil
	}
	r := resp.Body.Evento
	aceptado := r.DCodRes == codEventoAceptado || strings.EqualFold(r.DEstRes, "Aprobado")
	return &appsifen.EventoResult{
		Aceptado: aceptado,
		Codigo:   r.DCodRes,
		Mensaje:  r.DMsgRes,
		Raw:      string(raw),
	}, nil
}

// ── Plomería ─────────────────────────────────────────────────────────────────

// call serializa el sobre, hace el POST y devuelve el body crudo. Los errores
// de red/timeout se envuelven en ErrAuthorityTransport, reintentables.
func (c *SOAPClient) call(ctx context.Context, url string, body interface{}) ([]byte, error) {
	envelope := soapEnvelope{
		XmlnsE: soapNS,
		Body:   soapBody{Content: body},
	}
	payload, err := xml.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("sifen: serializar envelope: %w", err)
	}
	payload = append([]byte(xml.Header), payload...)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("sifen: crear request: %w", err)
	}
	req.Header.Set("Content-Type", "application/soap+xml; charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: timeout o cancelación: %v", domain.ErrAuthorityTransport, ctx.Err())
		}
		return nil, fmt.Errorf("%w: llamada HTTP fallida: %v", domain.ErrAuthorityTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxRespuesta))
	if err != nil {
		return nil, fmt.Errorf("%w: leer respuesta: %v", domain.ErrAuthorityTransport, err)
	}
	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: HTTP %d: %s", domain.ErrAuthorityTransport, resp.StatusCode, string(raw))
	}
	return raw, nil
}

// parseRespuesta desempaqueta el sobre de forma tolerante. Algunas respuestas
// de la SET llegan en ISO-8859-1; el CharsetReader las convierte a UTF-8.
func parseRespuesta(raw []byte) (*respuestaEnvelope, string) {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	dec.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		switch strings.ToLower(charset) {
		case "iso-8859-1", "latin1", "windows-1252":
			return charmap.ISO8859_1.NewDecoder().Reader(input), nil
		}
		return input, nil
	}
	var resp respuestaEnvelope
	if err := dec.Decode(&resp); err != nil {
		return &resp, fmt.Sprintf("no se pudo parsear respuesta SOAP: %v", err)
	}
	if resp.Body.Fault != nil {
		return &resp, fmt.Sprintf("SOAP Fault [%s]: %s", resp.Body.Fault.Code, resp.Body.Fault.Reason)
	}
	return &resp, ""
}

// zipLoteBase64 envuelve los rDE firmados en un rLoteDE, lo comprime en un
// ZIP de un solo archivo y lo codifica en Base64 (formato del WS recibe-lote).
func zipLoteBase64(xmlsFirmados [][]byte) (string, error) {
	var lote bytes.Buffer
	lote.WriteString(xml.Header)
	lote.WriteString(`<rLoteDE xmlns="` + sifenNS + `">`)
	for _, x := range xmlsFirmados {
		lote.Write(quitarDeclaracion(x))
	}
	lote.WriteString(`</rLoteDE>`)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("lote.xml")
	if err != nil {
		return "", fmt.Errorf("sifen: crear entrada zip: %w", err)
	}
	if _, err := f.Write(lote.Bytes()); err != nil {
		return "", fmt.Errorf("sifen: escribir zip: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("sifen: cerrar zip: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// quitarDeclaracion remueve el <?xml ...?> de un documento para anidarlo.
func quitarDeclaracion(x []byte) []byte {
	s := bytes.TrimSpace(x)
	if bytes.HasPrefix(s, []byte("<?xml")) {
		if i := bytes.Index(s, []byte("?>")); i >= 0 {
			return bytes.TrimSpace(s[i+2:])
		}
	}
	return s
}
