package sifen

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/facturape/sifen-api/internal/application/dto"
	"github.com/facturape/sifen-api/internal/domain"
	"github.com/facturape/sifen-api/internal/domain/entity"
	"github.com/facturape/sifen-api/internal/domain/repository"
	domsifen "github.com/facturape/sifen-api/internal/domain/sifen"
	pkgsifen "github.com/facturape/sifen-api/pkg/sifen"
)

// CrearDocumentoUseCase construye un DE en estado DRAFT: valida el request,
// calcula totales (IVA incluido en los precios), reserva número de la serie
// de timbrado, calcula el CDC y genera el XML sin firmar.
//
// La reserva de número y la persistencia del DRAFT ocurren en una misma
// transacción. Un número reservado jamás se libera, aunque la firma falle
// después: los huecos de numeración son auditables por la SET y la serie
// sin huecos es requisito legal.
type CrearDocumentoUseCase struct {
	txRunner   EmisionTxRunner
	docRepo    repository.DocumentoRepository
	configRepo repository.ConfigRepository
	xmlBuilder DEXMLBuilder
}

// NewCrearDocumentoUseCase construye el caso de uso.
func NewCrearDocumentoUseCase(
	txRunner EmisionTxRunner,
	docRepo repository.DocumentoRepository,
	configRepo repository.ConfigRepository,
	xmlBuilder DEXMLBuilder,
) *CrearDocumentoUseCase {
	return &CrearDocumentoUseCase{
		txRunner:   txRunner,
		docRepo:    docRepo,
		configRepo: configRepo,
		xmlBuilder: xmlBuilder,
	}
}

// Crear valida y persiste el documento. Toda validación ocurre antes de
// tocar la serie de numeración: un request inválido no consume números.
func (uc *CrearDocumentoUseCase) Crear(ctx context.Context, tenantID string, in dto.CrearDocumentoRequest) (*dto.DocumentoDetalleResponse, error) {
	if err := validarRequest(&in); err != nil {
		return nil, err
	}

	cfg, err := uc.configRepo.Get(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("obtener configuración SIFEN: %w", err)
	}
	if cfg == nil || cfg.RUC == "" {
		return nil, fmt.Errorf("%w: el tenant no tiene configuración SIFEN de emisor", domain.ErrConflict)
	}

	// NC/ND deben referenciar un DE APROBADO del mismo tenant.
	if pkgsifen.RequiereDEReferenciado(in.TipoDE) {
		ref, err := uc.docRepo.GetByCDC(ctx, tenantID, in.DEReferenciadoCDC)
		if err != nil {
			return nil, fmt.Errorf("buscar DE referenciado: %w", err)
		}
		if ref == nil {
			return nil, fmt.Errorf("%w: de_referenciado_cdc no corresponde a un documento del tenant", domain.ErrValidation)
		}
		if ref.Estado != entity.EstadoDEApproved {
			return nil, fmt.Errorf("%w: el DE referenciado debe estar APPROVED, está %s", domain.ErrValidation, ref.Estado)
		}
	}

	now := time.Now()
	doc := &entity.Documento{
		ID:                uuid.New().String(),
		TenantID:          tenantID,
		TipoDE:            in.TipoDE,
		Establecimiento:   cfg.Establecimiento,
		PuntoExpedicion:   cfg.PuntoExpedicion,
		Moneda:            in.Moneda,
		FechaEmision:      now,
		ReceptorNombre:    in.Receptor.RazonSocial,
		ReceptorRUC:       in.Receptor.RUC,
		ReceptorEmail:     in.Receptor.Email,
		ReceptorDireccion: in.Receptor.Direccion,
		DEReferenciadoCDC: in.DEReferenciadoCDC,
		Estado:            entity.EstadoDEDraft,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if doc.Moneda == "" {
		doc.Moneda = pkgsifen.MonedaGuarani
	}
	doc.Items = calcularItems(doc.ID, in.Items)
	acumularTotales(doc)

	// Transacción: reservar número + CDC + XML + persistir DRAFT.
	err = uc.txRunner.RunEmision(ctx, func(
		docRepo repository.DocumentoRepository,
		timbradoRepo repository.TimbradoRepository,
	) error {
		asig, err := timbradoRepo.Allocate(ctx, tenantID, doc.TipoDE, doc.Establecimiento, doc.PuntoExpedicion)
		if err != nil {
			return err
		}
		doc.Timbrado = asig.NumeroTimbrado
		doc.Numero = asig.Numero

		cdc, err := domsifen.BuildCDC(&domsifen.CDCParams{
			TipoDE:            doc.TipoDE,
			RUC:               cfg.RUC,
			DV:                cfg.DV,
			Establecimiento:   doc.Establecimiento,
			PuntoExpedicion:   doc.PuntoExpedicion,
			Numero:            doc.Numero,
			TipoContribuyente: pkgsifen.TipoContribuyenteJuridica,
			FechaEmision:      doc.FechaEmision,
			TipoEmision:       pkgsifen.TipoEmisionNormal,
		})
		if err != nil {
			return err
		}
		doc.CDC = cdc

		xmlBytes, err := uc.xmlBuilder.BuildRDE(doc, cfg)
		if err != nil {
			return fmt.Errorf("construir XML rDE: %w", err)
		}
		doc.XMLUnsigned = string(xmlBytes)

		if err := docRepo.Create(ctx, doc); err != nil {
			return err
		}
		for _, item := range doc.Items {
			if err := docRepo.CreateItem(ctx, item); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return ToDocumentoDetalle(doc), nil
}

// validarRequest reglas de negocio previas a cualquier efecto.
func validarRequest(in *dto.CrearDocumentoRequest) error {
	if !pkgsifen.ValidTipoDE[in.TipoDE] {
		return fmt.Errorf("%w: tipo_documento %q no soportado", domain.ErrValidation, in.TipoDE)
	}
	if in.Receptor.RazonSocial == "" {
		return fmt.Errorf("%w: receptor.razon_social es obligatorio", domain.ErrValidation)
	}
	if in.Moneda != "" && !pkgsifen.ValidMonedas[in.Moneda] {
		return fmt.Errorf("%w: moneda %q no soportada", domain.ErrValidation, in.Moneda)
	}
	if pkgsifen.RequiereDEReferenciado(in.TipoDE) && in.DEReferenciadoCDC == "" {
		return fmt.Errorf("%w: de_referenciado_cdc es obligatorio para notas de crédito/débito", domain.ErrValidation)
	}
	if len(in.Items) == 0 {
		return fmt.Errorf("%w: el documento debe tener al menos un ítem", domain.ErrValidation)
	}
	for i, item := range in.Items {
		if item.Descripcion == "" {
			return fmt.Errorf("%w: ítem %d sin descripción", domain.ErrValidation, i)
		}
		if !item.Cantidad.GreaterThan(decimal.Zero) {
			return fmt.Errorf("%w: ítem %d con cantidad <= 0", domain.ErrValidation, i)
		}
		if item.PrecioUnitario.LessThan(decimal.Zero) {
			return fmt.Errorf("%w: ítem %d con precio unitario negativo", domain.ErrValidation, i)
		}
		if !pkgsifen.ValidTasasIVA[item.TasaIVA] {
			return fmt.Errorf("%w: ítem %d con tasa_iva %d (válidas: 0, 5, 10)", domain.ErrValidation, i, item.TasaIVA)
		}
	}
	return nil
}

// calcularItems calcula subtotal e IVA por línea. Los precios incluyen IVA:
// para tasa 10 el IVA es round(subtotal*10/110); para tasa 5, round(subtotal*5/105).
func calcularItems(documentoID string, items []dto.ItemRequest) []*entity.DocumentoItem {
	out := make([]*entity.DocumentoItem, 0, len(items))
	for _, in := range items {
		subtotal := in.Cantidad.Mul(in.PrecioUnitario)
		var iva decimal.Decimal
		switch in.TasaIVA {
		case 10:
			iva = subtotal.Mul(decimal.NewFromInt(10)).Div(decimal.NewFromInt(110)).Round(0)
		case 5:
			iva = subtotal.Mul(decimal.NewFromInt(5)).Div(decimal.NewFromInt(105)).Round(0)
		default:
			iva = decimal.Zero
		}
		out = append(out, &entity.DocumentoItem{
			ID:             uuid.New().String(),
			DocumentoID:    documentoID,
			Descripcion:    in.Descripcion,
			Cantidad:       in.Cantidad,
			PrecioUnitario: in.PrecioUnitario,
			TasaIVA:        in.TasaIVA,
			Subtotal:       subtotal,
			IVAItem:        iva,
		})
	}
	return out
}

// acumularTotales agrupa los subtotales por tasa y suma el total general.
func acumularTotales(doc *entity.Documento) {
	doc.Gravada10, doc.Gravada5, doc.Exenta = decimal.Zero, decimal.Zero, decimal.Zero
	doc.IVA10, doc.IVA5, doc.Total = decimal.Zero, decimal.Zero, decimal.Zero
	for _, item := range doc.Items {
		switch item.TasaIVA {
		case 10:
			doc.Gravada10 = doc.Gravada10.Add(item.Subtotal)
			doc.IVA10 = doc.IVA10.Add(item.IVAItem)
		case 5:
			doc.Gravada5 = doc.Gravada5.Add(item.Subtotal)
			doc.IVA5 = doc.IVA5.Add(item.IVAItem)
		default:
			doc.Exenta = doc.Exenta.Add(item.Subtotal)
		}
		doc.Total = doc.Total.Add(item.Subtotal)
	}
}
