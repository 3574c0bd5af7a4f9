// Package pdf implementa la generación del KUDE, la representación gráfica
// del Documento Electrónico SIFEN (Manual Técnico v150, Anexo KUDE).
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Razón Social + RUC-DV  │  Tipo DE + N° + Fecha     │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TIMBRADO: número + ambiente                                │
//	│  RECEPTOR: Nombre + RUC/CI + contacto                       │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Cant | Descripción | P.Unit | IVA | Subtotal        │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Gravada 10/5, Exenta, IVA, TOTAL                  │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER SIFEN: CDC + QR + Leyenda legal                     │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/facturape/sifen-api/internal/domain/entity"
	pkgsifen "github.com/facturape/sifen-api/pkg/sifen"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 178, Green: 34, Blue: 52}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
	colorAnulado = &props.Color{Red: 200, Green: 30, Blue: 30}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoKudeGenerator implementa sifen.KudeGenerator usando Maroto v2.
type MarotoKudeGenerator struct{}

// NewMarotoKudeGenerator construye el generador.
func NewMarotoKudeGenerator() *MarotoKudeGenerator { return &MarotoKudeGenerator{} }

// GenerateKude genera el PDF del KUDE y devuelve sus bytes.
func (g *MarotoKudeGenerator) GenerateKude(
	_ context.Context,
	doc *entity.Documento,
	cfg *entity.TenantSifenConfig,
) ([]byte, error) {
	builder := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("KUDE "+doc.NumeroCompleto(), true).
		WithAuthor(cfg.RazonSocial, true).
		Build()

	m := maroto.New(builder)

	m.AddRows(headerRow(doc, cfg))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(timbradoRow(doc, cfg))
	m.AddRows(receptorRow(doc))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	if doc.Estado == entity.EstadoDECancelled {
		m.AddRows(anuladoRow(doc))
	}

	m.AddRows(tableHeaderRow())
	for _, r := range tableDetailRows(doc.Items) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(doc))

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	for _, r := range sifenFooterRows(doc, cfg) {
		m.AddRows(r)
	}

	rendered, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar kude: %w", err)
	}
	return rendered.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: Razón social + RUC (izq) y tipo de DE + número + fecha (der).
func headerRow(doc *entity.Documento, cfg *entity.TenantSifenConfig) core.Row {
	tipo := pkgsifen.TipoDEDescripcion[doc.TipoDE]
	if tipo == "" {
		tipo = "DOCUMENTO ELECTRÓNICO"
	}
	fecha := doc.FechaEmision.Format("02/01/2006 15:04")

	return row.New(18).Add(
		col.New(7).Add(
			text.New(cfg.RazonSocial, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("RUC: %s-%d", cfg.RUC, cfg.DV), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New(tipo, props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New(doc.NumeroCompleto(), props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Fecha: "+fecha, props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

// timbradoRow: timbrado bajo el cual se numeró el DE y el ambiente de emisión.
func timbradoRow(doc *entity.Documento, cfg *entity.TenantSifenConfig) core.Row {
	ambiente := "Producción"
	if cfg.Ambiente == pkgsifen.AmbienteHomologacion {
		ambiente = "Homologación"
	}
	return row.New(10).Add(
		col.New(12).Add(
			text.New("TIMBRADO N° "+doc.Timbrado, props.Text{
				Style: fontstyle.Bold, Size: 9, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("Ambiente: %s   |   Moneda: %s", ambiente, doc.Moneda),
				props.Text{Size: 8, Top: 6, Color: colorGray}),
		),
	)
}

// receptorRow: datos del receptor capturados al momento de la emisión.
func receptorRow(doc *entity.Documento) core.Row {
	return row.New(14).Add(
		col.New(12).Add(
			text.New("RECEPTOR", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(doc.ReceptorNombre, props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 6,
			}),
			text.New(fmt.Sprintf("RUC/CI: %s   |   Email: %s   |   Dirección: %s",
				doc.ReceptorRUC,
				nonEmpty(doc.ReceptorEmail, "—"),
				nonEmpty(doc.ReceptorDireccion, "—"),
			), props.Text{Size: 8, Top: 12, Color: colorGray}),
		),
	)
}

// anuladoRow: franja visible cuando el DE fue cancelado por evento.
func anuladoRow(doc *entity.Documento) core.Row {
	return row.New(10).Add(
		col.New(12).Add(
			text.New("DOCUMENTO ANULADO", props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Center,
				Color: colorAnulado, Top: 1,
			}),
			text.New(nonEmpty(doc.SifenMensaje, "Anulado por evento de cancelación"),
				props.Text{Size: 7, Align: align.Center, Color: colorGray, Top: 7}),
		),
	)
}

// tableHeaderRow: cabecera de la tabla de ítems.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Cant.", 1, align.Center),
		h("Descripción", 5, align.Left),
		h("Precio Unit.", 2, align.Right),
		h("IVA%", 1, align.Center),
		h("Subtotal", 3, align.Right),
	)
}

// tableDetailRows: una fila por ítem del DE.
func tableDetailRows(items []*entity.DocumentoItem) []core.Row {
	result := make([]core.Row, 0, len(items))
	for _, it := range items {
		result = append(result, row.New(7).Add(
			col.New(1).Add(text.New(
				it.Cantidad.StringFixed(0),
				props.Text{Size: 8, Align: align.Center, Top: 1},
			)),
			col.New(5).Add(text.New(
				it.Descripcion,
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1},
			)),
			col.New(2).Add(text.New(
				formatGuaranies(it.PrecioUnitario),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
			col.New(1).Add(text.New(
				fmt.Sprintf("%d%%", it.TasaIVA),
				props.Text{Size: 8, Align: align.Center, Top: 1},
			)),
			col.New(3).Add(text.New(
				formatGuaranies(it.Subtotal),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
		))
	}
	return result
}

// totalsRow: desglose por tasa con el IVA ya incluido en los precios.
func totalsRow(doc *entity.Documento) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2,
		})
	}
	value := func(s string) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1})
	}
	grandLabel := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right,
			Color: colorPrimary, Right: 2,
		})
	}
	grandValue := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right,
			Color: colorPrimary, Right: 1,
		})
	}

	return row.New(40).Add(
		col.New(3),
		col.New(4).Add(
			label("Gravada 10%:"),
			label("Gravada 5%:"),
			label("Exenta:"),
			label("IVA 10%:"),
			label("IVA 5%:"),
			grandLabel("TOTAL:"),
		),
		col.New(4).Add(
			value(formatGuaranies(doc.Gravada10)),
			value(formatGuaranies(doc.Gravada5)),
			value(formatGuaranies(doc.Exenta)),
			value(formatGuaranies(doc.IVA10)),
			value(formatGuaranies(doc.IVA5)),
			grandValue(formatGuaranies(doc.Total)),
		),
		col.New(1),
	)
}

// sifenFooterRows: CDC partido + código QR + leyenda legal.
func sifenFooterRows(doc *entity.Documento, cfg *entity.TenantSifenConfig) []core.Row {
	rows := []core.Row{
		row.New(6).Add(col.New(12).Add(
			text.New("INFORMACIÓN ELECTRÓNICA SIFEN", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
		)),
	}

	// CDC partido en dos bloques de 22 dígitos para facilitar la lectura
	if doc.CDC != "" {
		rows = append(rows, row.New(5).Add(col.New(12).Add(
			text.New("CDC (Código de Control):", props.Text{
				Style: fontstyle.Bold, Size: 7, Top: 1,
			}),
		)))
		for _, chunk := range splitEvery(doc.CDC, 22) {
			rows = append(rows, row.New(4).Add(col.New(12).Add(
				text.New(chunk, props.Text{Size: 8, Color: colorGray, Top: 0.5, Left: 2}),
			)))
		}
	}

	rows = append(rows, row.New(3))

	portal := "https://ekuatia.set.gov.py/consultas"
	if cfg.Ambiente == pkgsifen.AmbienteHomologacion {
		portal = "https://ekuatia.set.gov.py/consultas-test"
	}

	if doc.QRData != "" {
		rows = append(rows, row.New(50).Add(
			col.New(4).Add(code.NewQr(doc.QRData, props.Rect{
				Percent: 95,
				Center:  true,
			})),
			col.New(8).Add(
				text.New("Escanee el código QR para verificar\neste documento en "+portal, props.Text{
					Size: 8, Top: 4, Left: 3, Color: colorGray,
				}),
				text.New("KUDE\nRepresentación gráfica del\nDocumento Electrónico", props.Text{
					Style: fontstyle.Bold, Size: 10, Top: 20,
					Left: 3, Color: colorPrimary,
				}),
			),
		))
	} else {
		rows = append(rows, row.New(10).Add(col.New(12).Add(
			text.New("KUDE - Representación gráfica del Documento Electrónico", props.Text{
				Style: fontstyle.Bold, Size: 9, Align: align.Center,
				Color: colorPrimary, Top: 2,
			}),
		)))
	}

	// Leyenda legal
	rows = append(rows, row.New(8).Add(col.New(12).Add(
		text.New(
			"Este documento es una representación gráfica de un Documento Electrónico "+
				"emitido bajo el Sistema Integrado de Facturación Electrónica Nacional "+
				"(Ley 6380/2019, Decreto 7795/2017). Conserve este documento.",
			props.Text{Size: 6.5, Color: colorGray, Top: 2},
		),
	)))

	return rows
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatGuaranies formatea un monto con separador de miles.
// Ej: 1500000 → "1.500.000"
func formatGuaranies(d decimal.Decimal) string {
	s := d.StringFixed(0)
	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}
	n := len(s)
	if n > 3 {
		buf := make([]byte, 0, n+n/3)
		for i := 0; i < n; i++ {
			if i > 0 && (n-i)%3 == 0 {
				buf = append(buf, '.')
			}
			buf = append(buf, s[i])
		}
		s = string(buf)
	}
	if neg {
		return "-" + s
	}
	return s
}

// splitEvery divide s en trozos de max n caracteres.
func splitEvery(s string, n int) []string {
	var parts []string
	for len(s) > n {
		parts = append(parts, s[:n])
		s = s[n:]
	}
	if s != "" {
		parts = append(parts, s)
	}
	return parts
}
