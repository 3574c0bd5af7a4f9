// Construcción de los XML del Manual Técnico SIFEN: el rDE (documento
// electrónico sin firma, listo para el firmador) y el evento de cancelación.

package sifen

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	appsifen "github.com/facturape/sifen-api/internal/application/sifen"
	"github.com/facturape/sifen-api/internal/domain/entity"
	domsifen "github.com/facturape/sifen-api/internal/domain/sifen"
	pkgsifen "github.com/facturape/sifen-api/pkg/sifen"
)

const (
	nsXsi          = "http://www.w3.org/2001/XMLSchema-instance"
	schemaLocation = "http://ekuatia.set.gov.py/sifen/xsd siRecepDE_v150.xsd"
	versionFormato = "150"
)

var _ appsifen.DEXMLBuilder = (*XMLBuilderService)(nil)

// XMLBuilderService construye los XML SIFEN (sin firma).
type XMLBuilderService struct{}

// NewXMLBuilderService crea el servicio.
func NewXMLBuilderService() *XMLBuilderService {
	return &XMLBuilderService{}
}

// BuildRDE genera el rDE del documento. El atributo Id del <DE> lleva el CDC;
// el firmador lo usa como Reference URI y agrega ds:Signature al final.
func (s *XMLBuilderService) BuildRDE(doc *entity.Documento, cfg *entity.TenantSifenConfig) ([]byte, error) {
	if doc == nil || cfg == nil {
		return nil, fmt.Errorf("sifen: documento y configuración son obligatorios")
	}
	campos, err := domsifen.ParseCDC(doc.CDC)
	if err != nil {
		return nil, fmt.Errorf("sifen: CDC del documento inválido: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")

	root := xml.StartElement{
		Name: xml.Name{Local: "rDE"},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "xmlns"}, Value: "http://ekuatia.set.gov.py/sifen/xsd"},
			{Name: xml.Name{Local: "xmlns:xsi"}, Value: nsXsi},
			{Name: xml.Name{Local: "xsi:schemaLocation"}, Value: schemaLocation},
		},
	}
	if err := enc.EncodeToken(root); err != nil {
		return nil, err
	}

	writeEl(enc, "dVerFor", versionFormato)

	// <DE Id="CDC">: el bloque firmable.
	de := xml.StartElement{
		Name: xml.Name{Local: "DE"},
		Attr: []xml.Attr{{Name: xml.Name{Local: "Id"}, Value: doc.CDC}},
	}
	if err := enc.EncodeToken(de); err != nil {
		return nil, err
	}
	writeEl(enc, "dDVId", campos.DigitoVerificador)
	writeEl(enc, "dFecFirma", doc.FechaEmision.Format("2006-01-02T15:04:05"))
	writeEl(enc, "dSisFact", "1")

	// gOpeDE: datos de la operación de emisión.
	open(enc, "gOpeDE")
	writeEl(enc, "iTipEmi", campos.TipoEmision)
	writeEl(enc, "dDesTipEmi", "Normal")
	writeEl(enc, "dCodSeg", campos.CodigoSeguridad)
	closeEl(enc, "gOpeDE")

	// gTimb: timbrado y numeración.
	open(enc, "gTimb")
	writeEl(enc, "iTiDE", doc.TipoDE)
	writeEl(enc, "dDesTiDE", pkgsifen.TipoDEDescripcion[doc.TipoDE])
	writeEl(enc, "dNumTim", doc.Timbrado)
	writeEl(enc, "dEst", doc.Establecimiento)
	writeEl(enc, "dPunExp", doc.PuntoExpedicion)
	writeEl(enc, "dNumDoc", doc.Numero)
	closeEl(enc, "gTimb")

	// gDatGralOpe: emisor, receptor y datos generales.
	open(enc, "gDatGralOpe")
	writeEl(enc, "dFeEmiDE", doc.FechaEmision.Format("2006-01-02T15:04:05"))

	open(enc, "gOpeCom")
	writeEl(enc, "iTipTra", "1")
	writeEl(enc, "iTImp", "1")
	writeEl(enc, "cMoneOpe", doc.Moneda)
	closeEl(enc, "gOpeCom")

	open(enc, "gEmis")
	writeEl(enc, "dRucEm", cfg.RUC)
	writeEl(enc, "dDVEmi", strconv.Itoa(cfg.DV))
	writeEl(enc, "iTipCont", campos.TipoContribuyente)
	writeEl(enc, "dNomEmi", cfg.RazonSocial)
	closeEl(enc, "gEmis")

	open(enc, "gDatRec")
	if doc.ReceptorRUC != "" {
		writeEl(enc, "iNatRec", "1") // contribuyente
		writeEl(enc, "dRucRec", doc.ReceptorRUC)
	} else {
		writeEl(enc, "iNatRec", "2") // no contribuyente / innominado
	}
	writeEl(enc, "iTiOpe", "1")
	writeEl(enc, "cPaisRec", "PRY")
	writeEl(enc, "dNomRec", doc.ReceptorNombre)
	if doc.ReceptorEmail != "" {
		writeEl(enc, "dEmailRec", doc.ReceptorEmail)
	}
	if doc.ReceptorDireccion != "" {
		writeEl(enc, "dDirRec", doc.ReceptorDireccion)
	}
	closeEl(enc, "gDatRec")
	closeEl(enc, "gDatGralOpe")

	// gDtipDE: detalle por tipo de documento.
	open(enc, "gDtipDE")
	if doc.DEReferenciadoCDC != "" {
		open(enc, "gCamDEAsoc")
		writeEl(enc, "iTipDocAso", "1")
		writeEl(enc, "dCdCDERef", doc.DEReferenciadoCDC)
		closeEl(enc, "gCamDEAsoc")
	}
	for i, item := range doc.Items {
		open(enc, "gCamItem")
		writeEl(enc, "dCodInt", fmt.Sprintf("%03d", i+1))
		writeEl(enc, "dDesProSer", item.Descripcion)
		writeEl(enc, "cUniMed", "77") // unidad
		writeEl(enc, "dCantProSer", item.Cantidad.String())
		open(enc, "gValorItem")
		writeEl(enc, "dPUniProSer", montoFijo(item.PrecioUnitario, doc.Moneda))
		open(enc, "gValorRestaItem")
		writeEl(enc, "dTotOpeItem", montoFijo(item.Subtotal, doc.Moneda))
		closeEl(enc, "gValorRestaItem")
		closeEl(enc, "gValorItem")
		open(enc, "gCamIVA")
		if item.TasaIVA == 0 {
			writeEl(enc, "iAfecIVA", "3") // exenta
			writeEl(enc, "dDesAfecIVA", "Exenta")
		} else {
			writeEl(enc, "iAfecIVA", "1") // gravada
			writeEl(enc, "dDesAfecIVA", "Gravado IVA")
		}
		writeEl(enc, "dPropIVA", "100")
		writeEl(enc, "dTasaIVA", strconv.Itoa(item.TasaIVA))
		writeEl(enc, "dBasGravIVA", montoFijo(item.Subtotal.Sub(item.IVAItem), doc.Moneda))
		writeEl(enc, "dLiqIVAItem", montoFijo(item.IVAItem, doc.Moneda))
		closeEl(enc, "gCamIVA")
		closeEl(enc, "gCamItem")
	}
	closeEl(enc, "gDtipDE")

	// gTotSub: totales por tasa. Los precios ya incluyen IVA.
	open(enc, "gTotSub")
	writeEl(enc, "dSubExe", montoFijo(doc.Exenta, doc.Moneda))
	writeEl(enc, "dSub5", montoFijo(doc.Gravada5, doc.Moneda))
	writeEl(enc, "dSub10", montoFijo(doc.Gravada10, doc.Moneda))
	writeEl(enc, "dTotOpe", montoFijo(doc.Total, doc.Moneda))
	writeEl(enc, "dTotGralOpe", montoFijo(doc.Total, doc.Moneda))
	writeEl(enc, "dIVA5", montoFijo(doc.IVA5, doc.Moneda))
	writeEl(enc, "dIVA10", montoFijo(doc.IVA10, doc.Moneda))
	writeEl(enc, "dTotIVA", montoFijo(doc.IVA5.Add(doc.IVA10), doc.Moneda))
	closeEl(enc, "gTotSub")

	if err := enc.EncodeToken(xml.EndElement{Name: de.Name}); err != nil {
		return nil, err
	}
	if err := enc.EncodeToken(xml.EndElement{Name: root.Name}); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildEventoCancelacion genera el evento de cancelación para un DE aprobado.
// El Id del rEve es el Reference de la firma.
func (s *XMLBuilderService) BuildEventoCancelacion(doc *entity.Documento, cfg *entity.TenantSifenConfig, motivo string) ([]byte, error) {
	if doc == nil || cfg == nil {
		return nil, fmt.Errorf("sifen: documento y configuración son obligatorios")
	}
	if motivo == "" {
		return nil, fmt.Errorf("sifen: el motivo del evento es obligatorio")
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")

	root := xml.StartElement{
		Name: xml.Name{Local: "gGroupGesEve"},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "xmlns"}, Value: "http://ekuatia.set.gov.py/sifen/xsd"},
		},
	}
	if err := enc.EncodeToken(root); err != nil {
		return nil, err
	}

	eve := xml.StartElement{
		Name: xml.Name{Local: "rEve"},
		Attr: []xml.Attr{{Name: xml.Name{Local: "Id"}, Value: "evento-" + doc.CDC}},
	}
	if err := enc.EncodeToken(eve); err != nil {
		return nil, err
	}
	writeEl(enc, "dFecFirma", doc.UpdatedAt.Format("2006-01-02T15:04:05"))
	writeEl(enc, "dVerFor", versionFormato)
	open(enc, "gGroupTiEvt")
	open(enc, "rGeVeCan")
	writeEl(enc, "Id", doc.CDC)
	writeEl(enc, "mOtEve", motivo)
	closeEl(enc, "rGeVeCan")
	closeEl(enc, "gGroupTiEvt")
	if err := enc.EncodeToken(xml.EndElement{Name: eve.Name}); err != nil {
		return nil, err
	}
	if err := enc.EncodeToken(xml.EndElement{Name: root.Name}); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func open(enc *xml.Encoder, local string) {
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Local: local}})
}

func closeEl(enc *xml.Encoder, local string) {
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: local}})
}

func writeEl(enc *xml.Encoder, local, value string) {
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Local: local}})
	_ = enc.EncodeToken(xml.CharData(value))
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: local}})
}

// montoFijo formatea un decimal sin decimales para PYG, con dos para USD.
func montoFijo(d decimal.Decimal, moneda string) string {
	if moneda == pkgsifen.MonedaDolar {
		return d.StringFixed(2)
	}
	return d.StringFixed(0)
}
