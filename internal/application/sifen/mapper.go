package sifen

import (
	"github.com/facturape/sifen-api/internal/application/dto"
	"github.com/facturape/sifen-api/internal/domain/entity"
)

// ToDocumentoResponse proyección resumida para listados.
func ToDocumentoResponse(d *entity.Documento) dto.DocumentoResponse {
	return dto.DocumentoResponse{
		ID:             d.ID,
		TipoDE:         d.TipoDE,
		Timbrado:       d.Timbrado,
		Numero:         d.NumeroCompleto(),
		CDC:            d.CDC,
		Moneda:         d.Moneda,
		FechaEmision:   d.FechaEmision.Format("2006-01-02"),
		ReceptorNombre: d.ReceptorNombre,
		ReceptorRUC:    d.ReceptorRUC,
		Total:          d.Total,
		Estado:         d.Estado,
		SifenCodigo:    d.SifenCodigo,
		SifenMensaje:   d.SifenMensaje,
	}
}

// ToDocumentoDetalle proyección completa (detalle).
func ToDocumentoDetalle(d *entity.Documento) *dto.DocumentoDetalleResponse {
	out := &dto.DocumentoDetalleResponse{
		DocumentoResponse: ToDocumentoResponse(d),
		ReceptorEmail:     d.ReceptorEmail,
		ReceptorDireccion: d.ReceptorDireccion,
		DEReferenciadoCDC: d.DEReferenciadoCDC,
		Gravada10:         d.Gravada10,
		Gravada5:          d.Gravada5,
		Exenta:            d.Exenta,
		IVA10:             d.IVA10,
		IVA5:              d.IVA5,
		QRData:            d.QRData,
		TieneXMLFirmado:   d.XMLSigned != "",
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
	for _, it := range d.Items {
		out.Items = append(out.Items, dto.ItemResponse{
			ID:             it.ID,
			Descripcion:    it.Descripcion,
			Cantidad:       it.Cantidad,
			PrecioUnitario: it.PrecioUnitario,
			TasaIVA:        it.TasaIVA,
			Subtotal:       it.Subtotal,
			IVAItem:        it.IVAItem,
		})
	}
	return out
}

// ToLoteResponse proyección de lote (con ítems si incluirItems).
func ToLoteResponse(l *entity.Lote, incluirItems bool) dto.LoteResponse {
	out := dto.LoteResponse{
		ID:         l.ID,
		Estado:     l.Estado,
		NumeroLote: l.NumeroLote,
		CantItems:  len(l.Items),
		CreatedAt:  l.CreatedAt,
		SentAt:     l.SentAt,
	}
	if incluirItems {
		for _, it := range l.Items {
			out.Items = append(out.Items, dto.LoteItemResponse{
				DocumentoID: it.DocumentoID,
				CDC:         it.CDC,
				Orden:       it.Orden,
				EstadoItem:  it.EstadoItem,
				Codigo:      it.Codigo,
				Mensaje:     it.Mensaje,
			})
		}
	}
	return out
}

// ToTimbradoResponse proyección de serie de numeración.
func ToTimbradoResponse(tb *entity.Timbrado) dto.TimbradoResponse {
	return dto.TimbradoResponse{
		ID:              tb.ID,
		TipoDE:          tb.TipoDE,
		Establecimiento: tb.Establecimiento,
		PuntoExpedicion: tb.PuntoExpedicion,
		NumeroTimbrado:  tb.NumeroTimbrado,
		UltimoNumero:    tb.UltimoNumero,
		InicioVigencia:  tb.InicioVigencia.Format("2006-01-02"),
		FinVigencia:     tb.FinVigencia.Format("2006-01-02"),
		Activo:          tb.Activo,
	}
}

// ToConfigResponse proyección pública de la configuración (sin secretos).
func ToConfigResponse(p *entity.ConfigPublica) dto.ConfigResponse {
	return dto.ConfigResponse{
		Ambiente:        p.Ambiente,
		RUC:             p.RUC,
		DV:              p.DV,
		RazonSocial:     p.RazonSocial,
		Establecimiento: p.Establecimiento,
		PuntoExpedicion: p.PuntoExpedicion,
		IDCSC:           p.IDCSC,
		HasCSC:          p.HasCSC,
		HasCertificado:  p.HasCertificado,
		HasPrivateKey:   p.HasPrivateKey,
		HasPassphrase:   p.HasPassphrase,
		URLRecibeLote:   p.URLRecibeLote,
		URLConsultaLote: p.URLConsultaLote,
		URLConsultaDE:   p.URLConsultaDE,
		URLEvento:       p.URLEvento,
		UpdatedAt:       p.UpdatedAt,
	}
}

// ToMetricsResponse agregados del dashboard.
func ToMetricsResponse(m *MetricsResumen) dto.MetricsResponse {
	out := dto.MetricsResponse{
		PorEstado: m.PorEstado,
		PorTipo:   m.PorTipo,
	}
	for _, d := range m.Recientes {
		out.Recientes = append(out.Recientes, ToDocumentoResponse(d))
	}
	return out
}
