package sifen

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/facturape/sifen-api/internal/domain"
	"github.com/facturape/sifen-api/internal/domain/entity"
	"github.com/facturape/sifen-api/internal/domain/repository"
	domsifen "github.com/facturape/sifen-api/internal/domain/sifen"
	"github.com/facturape/sifen-api/pkg/logger"
	pkgsifen "github.com/facturape/sifen-api/pkg/sifen"
)

// LoteUseCase arma, envía y consulta lotes de DEs contra el WS de la SET.
// El armado es transaccional (lote + documentos a IN_LOTE, o nada); el envío
// y la consulta mutan estados vía las tablas de transición.
type LoteUseCase struct {
	docRepo    repository.DocumentoRepository
	loteRepo   repository.LoteRepository
	configRepo repository.ConfigRepository
	client     SifenClient
	txRunner   LoteTxRunner
	loteMax    int
	log        *logger.Logger
}

// NewLoteUseCase construye el caso de uso. loteMax <= 0 usa el máximo del WS.
func NewLoteUseCase(
	docRepo repository.DocumentoRepository,
	loteRepo repository.LoteRepository,
	configRepo repository.ConfigRepository,
	client SifenClient,
	txRunner LoteTxRunner,
	loteMax int,
	log *logger.Logger,
) *LoteUseCase {
	if loteMax <= 0 || loteMax > pkgsifen.LoteMaxDocumentos {
		loteMax = pkgsifen.LoteMaxDocumentos
	}
	return &LoteUseCase{
		docRepo:    docRepo,
		loteRepo:   loteRepo,
		configRepo: configRepo,
		client:     client,
		txRunner:   txRunner,
		loteMax:    loteMax,
		log:        log.Component("lote"),
	}
}

// ArmarLote toma hasta loteMax documentos elegibles (FIFO por creación) y
// arma un lote en CREATED. Devuelve nil sin error si no hay elegibles.
func (uc *LoteUseCase) ArmarLote(ctx context.Context, tenantID string) (*entity.Lote, error) {
	var lote *entity.Lote
	err := uc.txRunner.RunLote(ctx, func(
		docRepo repository.DocumentoRepository,
		loteRepo repository.LoteRepository,
	) error {
		docs, err := docRepo.ListElegiblesParaLote(ctx, tenantID, uc.loteMax)
		if err != nil {
			return fmt.Errorf("listar elegibles: %w", err)
		}
		if len(docs) == 0 {
			return nil
		}

		now := time.Now()
		l := &entity.Lote{
			ID:        uuid.New().String(),
			TenantID:  tenantID,
			Estado:    entity.EstadoLoteCreated,
			CreatedAt: now,
			UpdatedAt: now,
		}
		for i, doc := range docs {
			// SIGNED puede saltar directo a IN_LOTE; ENQUEUED es el camino normal.
			if err := domsifen.TransitionDocumento(doc, entity.EstadoDEInLote); err != nil {
				return err
			}
			doc.UpdatedAt = now
			if err := docRepo.Update(ctx, doc); err != nil {
				return fmt.Errorf("marcar IN_LOTE: %w", err)
			}
			l.Items = append(l.Items, &entity.LoteItem{
				ID:          uuid.New().String(),
				LoteID:      l.ID,
				DocumentoID: doc.ID,
				CDC:         doc.CDC,
				Orden:       i + 1,
				EstadoItem:  entity.EstadoItemPending,
			})
		}
		if err := loteRepo.Create(ctx, l); err != nil {
			return fmt.Errorf("crear lote: %w", err)
		}
		lote = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	if lote != nil {
		uc.log.Info().Str("lote_id", lote.ID).Int("documentos", len(lote.Items)).Msg("lote armado")
	}
	return lote, nil
}

// EnviarLote entrega un lote CREATED al WS recibe-lote. Si la SET lo acepta,
// el lote pasa a SENT y sus documentos a SENT; si el envío falla (transporte
// o rechazo del sobre), el lote queda en ERROR y los documentos en ERROR
// reintentable. Un lote fallido no se reenvía: se arma uno nuevo.
func (uc *LoteUseCase) EnviarLote(ctx context.Context, tenantID, loteID string) (*entity.Lote, error) {
	lote, err := uc.loteRepo.GetByID(ctx, loteID)
	if err != nil {
		return nil, fmt.Errorf("obtener lote: %w", err)
	}
	if lote == nil || lote.TenantID != tenantID {
		return nil, domain.ErrNotFound
	}
	if lote.Estado != entity.EstadoLoteCreated {
		return nil, fmt.Errorf("%w: el lote %s está en %s, solo se envía desde CREATED",
			domain.ErrInvalidState, lote.ID, lote.Estado)
	}

	cfg, err := uc.configRepo.Get(ctx, tenantID)
	if err != nil || cfg == nil {
		return nil, fmt.Errorf("configuración SIFEN no disponible: %w", err)
	}

	docs := make([]*entity.Documento, 0, len(lote.Items))
	xmls := make([][]byte, 0, len(lote.Items))
	for _, it := range lote.Items {
		doc, err := uc.docRepo.GetByID(ctx, it.DocumentoID)
		if err != nil || doc == nil {
			return nil, fmt.Errorf("documento %s del lote no encontrado: %w", it.DocumentoID, err)
		}
		if doc.XMLSigned == "" {
			return nil, fmt.Errorf("%w: documento %s sin XML firmado", domain.ErrInvalidState, doc.ID)
		}
		docs = append(docs, doc)
		xmls = append(xmls, []byte(doc.XMLSigned))
	}

	res, err := uc.client.RecibeLote(ctx, resolverEndpoints(cfg), xmls)
	now := time.Now()
	if err != nil {
		uc.marcarEnvioFallido(ctx, lote, docs, fmt.Sprintf("envío de lote fallido: %v", err))
		return nil, err
	}
	if !res.Aceptado {
		lote.RespuestaEnvio = res.Raw
		uc.marcarEnvioFallido(ctx, lote, docs, fmt.Sprintf("la SET rechazó el lote [%s]: %s", res.Codigo, res.Mensaje))
		return nil, fmt.Errorf("%w: [%s] %s", domain.ErrAuthorityRejection, res.Codigo, res.Mensaje)
	}

	if err := domsifen.TransitionLote(lote, entity.EstadoLoteSent); err != nil {
		return nil, err
	}
	lote.NumeroLote = res.NumeroLote
	lote.RespuestaEnvio = res.Raw
	lote.SentAt = &now
	lote.UpdatedAt = now
	if err := uc.loteRepo.Update(ctx, lote); err != nil {
		return nil, fmt.Errorf("persistir SENT: %w", err)
	}
	for _, doc := range docs {
		if err := domsifen.TransitionDocumento(doc, entity.EstadoDESent); err != nil {
			return nil, err
		}
		doc.UpdatedAt = now
		if err := uc.docRepo.Update(ctx, doc); err != nil {
			return nil, fmt.Errorf("marcar documento SENT: %w", err)
		}
	}

	uc.log.Info().Str("lote_id", lote.ID).Str("numero_lote", lote.NumeroLote).Msg("lote enviado")
	return lote, nil
}

func (uc *LoteUseCase) marcarEnvioFallido(ctx context.Context, lote *entity.Lote, docs []*entity.Documento, motivo string) {
	now := time.Now()
	if err := domsifen.TransitionLote(lote, entity.EstadoLoteError); err == nil {
		lote.UpdatedAt = now
		if uerr := uc.loteRepo.Update(ctx, lote); uerr != nil {
			uc.log.Error().Err(uerr).Str("lote_id", lote.ID).Msg("no se pudo persistir lote ERROR")
		}
	}
	for _, doc := range docs {
		if terr := domsifen.TransitionDocumento(doc, entity.EstadoDEError); terr != nil {
			uc.log.Error().Err(terr).Str("documento_id", doc.ID).Msg("transición a ERROR rechazada")
			continue
		}
		doc.SifenMensaje = motivo
		doc.UpdatedAt = now
		if uerr := uc.docRepo.Update(ctx, doc); uerr != nil {
			uc.log.Error().Err(uerr).Str("documento_id", doc.ID).Msg("no se pudo persistir documento ERROR")
		}
	}
	uc.log.Warn().Str("lote_id", lote.ID).Str("motivo", motivo).Msg("envío de lote fallido")
}

// ConsultarLote consulta el veredicto de un lote SENT/PROCESSING y aplica los
// resultados por ítem. Es idempotente: sobre un lote terminal no hace ninguna
// llamada al WS y devuelve el estado persistido.
func (uc *LoteUseCase) ConsultarLote(ctx context.Context, tenantID, loteID string) (*entity.Lote, error) {
	lote, err := uc.loteRepo.GetByID(ctx, loteID)
	if err != nil {
		return nil, fmt.Errorf("obtener lote: %w", err)
	}
	if lote == nil || lote.TenantID != tenantID {
		return nil, domain.ErrNotFound
	}
	if lote.EsTerminal() {
		return lote, nil
	}
	if lote.Estado == entity.EstadoLoteCreated {
		return nil, fmt.Errorf("%w: el lote %s aún no fue enviado", domain.ErrInvalidState, lote.ID)
	}

	cfg, err := uc.configRepo.Get(ctx, tenantID)
	if err != nil || cfg == nil {
		return nil, fmt.Errorf("configuración SIFEN no disponible: %w", err)
	}

	res, err := uc.client.ConsultaLote(ctx, resolverEndpoints(cfg), lote.NumeroLote)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	lote.RespuestaConsulta = res.Raw
	if res.EnProceso {
		if err := domsifen.TransitionLote(lote, entity.EstadoLoteProcessing); err != nil {
			return nil, err
		}
		lote.UpdatedAt = now
		if err := uc.loteRepo.Update(ctx, lote); err != nil {
			return nil, fmt.Errorf("persistir PROCESSING: %w", err)
		}
		return lote, nil
	}

	veredictos := make(map[string]ItemVeredicto, len(res.Items))
	for _, v := range res.Items {
		veredictos[v.CDC] = v
	}
	for _, it := range lote.Items {
		if it.EstadoItem != entity.EstadoItemPending {
			continue // veredicto ya aplicado en una consulta previa
		}
		v, ok := veredictos[it.CDC]
		if !ok {
			continue // la SET todavía no resolvió este DE
		}
		if v.Aprobado {
			it.EstadoItem = entity.EstadoItemAccepted
		} else {
			it.EstadoItem = entity.EstadoItemRejected
		}
		it.Codigo = v.Codigo
		it.Mensaje = v.Mensaje
		if err := uc.loteRepo.UpdateItem(ctx, it); err != nil {
			return nil, fmt.Errorf("persistir veredicto del ítem %s: %w", it.CDC, err)
		}
		if err := uc.aplicarVeredictoDocumento(ctx, it.DocumentoID, v, now); err != nil {
			return nil, err
		}
	}

	destino := entity.EstadoLoteProcessing
	if lote.TodosResueltos() {
		destino = entity.EstadoLoteCompleted
	}
	if err := domsifen.TransitionLote(lote, destino); err != nil {
		return nil, err
	}
	lote.UpdatedAt = now
	if err := uc.loteRepo.Update(ctx, lote); err != nil {
		return nil, fmt.Errorf("persistir lote: %w", err)
	}
	return lote, nil
}

func (uc *LoteUseCase) aplicarVeredictoDocumento(ctx context.Context, documentoID string, v ItemVeredicto, now time.Time) error {
	doc, err := uc.docRepo.GetByID(ctx, documentoID)
	if err != nil || doc == nil {
		return fmt.Errorf("documento %s no encontrado: %w", documentoID, err)
	}
	destino := entity.EstadoDERejected
	if v.Aprobado {
		destino = entity.EstadoDEApproved
	}
	if err := domsifen.TransitionDocumento(doc, destino); err != nil {
		return err
	}
	doc.SifenCodigo = v.Codigo
	doc.SifenMensaje = v.Mensaje
	doc.UpdatedAt = now
	if err := uc.docRepo.Update(ctx, doc); err != nil {
		return fmt.Errorf("persistir veredicto del documento: %w", err)
	}
	return nil
}

// ConsultarDocumento consulta por CDC directo (camino alternativo cuando el
// lote tarda). Solo aplica el veredicto si el documento sigue en SENT.
func (uc *LoteUseCase) ConsultarDocumento(ctx context.Context, tenantID, cdc string) (*entity.Documento, error) {
	doc, err := uc.docRepo.GetByCDC(ctx, tenantID, cdc)
	if err != nil {
		return nil, fmt.Errorf("obtener documento: %w", err)
	}
	if doc == nil {
		return nil, domain.ErrNotFound
	}
	if doc.Estado != entity.EstadoDESent {
		return doc, nil
	}

	cfg, err := uc.configRepo.Get(ctx, tenantID)
	if err != nil || cfg == nil {
		return nil, fmt.Errorf("configuración SIFEN no disponible: %w", err)
	}
	res, err := uc.client.ConsultaDE(ctx, resolverEndpoints(cfg), cdc)
	if err != nil {
		return nil, err
	}
	if !res.Encontrado {
		return doc, nil
	}
	if err := uc.aplicarVeredictoDocumento(ctx, doc.ID, ItemVeredicto{
		CDC:      cdc,
		Aprobado: res.Aprobado,
		Codigo:   res.Codigo,
		Mensaje:  res.Mensaje,
	}, time.Now()); err != nil {
		return nil, err
	}
	return uc.docRepo.GetByID(ctx, doc.ID)
}

// LiberarLotesVencidos libera lotes estancados en CREATED más allá del TTL:
// el lote pasa a ERROR y sus documentos vuelven a SIGNED para ser tomados por
// el próximo armado.
func (uc *LoteUseCase) LiberarLotesVencidos(ctx context.Context, antesDe time.Time) (int, error) {
	lotes, err := uc.loteRepo.ListCreatedBefore(ctx, antesDe)
	if err != nil {
		return 0, fmt.Errorf("listar lotes vencidos: %w", err)
	}
	liberados := 0
	now := time.Now()
	for _, lote := range lotes {
		if err := domsifen.TransitionLote(lote, entity.EstadoLoteError); err != nil {
			continue
		}
		lote.UpdatedAt = now
		if err := uc.loteRepo.Update(ctx, lote); err != nil {
			uc.log.Error().Err(err).Str("lote_id", lote.ID).Msg("no se pudo liberar lote")
			continue
		}
		for _, it := range lote.Items {
			doc, err := uc.docRepo.GetByID(ctx, it.DocumentoID)
			if err != nil || doc == nil || doc.Estado != entity.EstadoDEInLote {
				continue
			}
			if err := domsifen.TransitionDocumento(doc, entity.EstadoDESigned); err != nil {
				continue
			}
			doc.UpdatedAt = now
			if err := uc.docRepo.Update(ctx, doc); err != nil {
				uc.log.Error().Err(err).Str("documento_id", doc.ID).Msg("no se pudo liberar documento")
			}
		}
		liberados++
		uc.log.Warn().Str("lote_id", lote.ID).Msg("lote vencido liberado")
	}
	return liberados, nil
}

// GetLote devuelve un lote del tenant.
func (uc *LoteUseCase) GetLote(ctx context.Context, tenantID, loteID string) (*entity.Lote, error) {
	lote, err := uc.loteRepo.GetByID(ctx, loteID)
	if err != nil {
		return nil, err
	}
	if lote == nil || lote.TenantID != tenantID {
		return nil, domain.ErrNotFound
	}
	return lote, nil
}

// ListLotes lista paginada de lotes del tenant.
func (uc *LoteUseCase) ListLotes(ctx context.Context, tenantID string, limit, offset int) ([]*entity.Lote, int, error) {
	return uc.loteRepo.List(ctx, tenantID, limit, offset)
}
