package sifen

import (
	"context"
	"sync"
	"time"

	"github.com/facturape/sifen-api/internal/domain/entity"
	"github.com/facturape/sifen-api/internal/domain/repository"
	"github.com/facturape/sifen-api/pkg/config"
	"github.com/facturape/sifen-api/pkg/logger"
)

// Worker es el scheduler del pipeline asíncrono: en cada tick, por tenant con
// actividad, arma un lote con los documentos encolados, lo envía, y consulta
// los lotes pendientes de veredicto. Cada consulta fallida o "en proceso"
// duplica la espera del lote hasta el tope configurado; el lote resuelto sale
// de la agenda.
//
// Corre en una sola goroutine; las llamadas al WS llevan timeout propio para
// que un endpoint colgado no frene el resto del ciclo.
type Worker struct {
	lotes    *LoteUseCase
	loteRepo repository.LoteRepository
	cfg      config.WorkerConfig
	log      *logger.Logger

	mu     sync.Mutex
	agenda map[string]*pollEntry // lote ID → próxima consulta
}

type pollEntry struct {
	proxima time.Time
	espera  time.Duration
}

// NewWorker construye el worker de fondo.
func NewWorker(lotes *LoteUseCase, loteRepo repository.LoteRepository, cfg config.WorkerConfig, log *logger.Logger) *Worker {
	return &Worker{
		lotes:    lotes,
		loteRepo: loteRepo,
		cfg:      cfg,
		log:      log.Component("worker"),
		agenda:   make(map[string]*pollEntry),
	}
}

// Run bloquea hasta que el context se cancele.
func (w *Worker) Run(ctx context.Context) {
	if !w.cfg.Enabled {
		w.log.Info().Msg("worker deshabilitado por configuración")
		return
	}
	w.log.Info().Dur("tick", w.cfg.TickInterval).Msg("worker iniciado")
	ticker := time.NewTicker(w.cfg.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("worker detenido")
			return
		case <-ticker.C:
			w.ciclo(ctx)
		}
	}
}

// ciclo una pasada completa del scheduler.
func (w *Worker) ciclo(ctx context.Context) {
	tenants, err := w.loteRepo.TenantsConActividad(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("no se pudo listar tenants con actividad")
		return
	}
	for _, tenantID := range tenants {
		if ctx.Err() != nil {
			return
		}
		w.procesarTenant(ctx, tenantID)
	}

	if w.cfg.LoteCreatedTTL > 0 {
		cctx, cancel := context.WithTimeout(ctx, w.cfg.CallTimeout)
		if n, err := w.lotes.LiberarLotesVencidos(cctx, time.Now().Add(-w.cfg.LoteCreatedTTL)); err != nil {
			w.log.Error().Err(err).Msg("liberación de lotes vencidos fallida")
		} else if n > 0 {
			w.log.Warn().Int("lotes", n).Msg("lotes vencidos liberados")
		}
		cancel()
	}
}

func (w *Worker) procesarTenant(ctx context.Context, tenantID string) {
	// 1. Armar y enviar un lote con lo que haya encolado.
	cctx, cancel := context.WithTimeout(ctx, w.cfg.CallTimeout)
	lote, err := w.lotes.ArmarLote(cctx, tenantID)
	cancel()
	if err != nil {
		w.log.Error().Err(err).Str("tenant_id", tenantID).Msg("armado de lote fallido")
	} else if lote != nil {
		cctx, cancel := context.WithTimeout(ctx, w.cfg.CallTimeout)
		if _, err := w.lotes.EnviarLote(cctx, tenantID, lote.ID); err != nil {
			w.log.Error().Err(err).Str("lote_id", lote.ID).Msg("envío de lote fallido")
		}
		cancel()
	}

	// 2. Consultar veredictos de lotes pendientes según su agenda.
	pendientes := w.lotesPendientes(ctx, tenantID)
	now := time.Now()
	for _, l := range pendientes {
		if !w.tocaConsultar(l.ID, now) {
			continue
		}
		cctx, cancel := context.WithTimeout(ctx, w.cfg.CallTimeout)
		res, err := w.lotes.ConsultarLote(cctx, tenantID, l.ID)
		cancel()
		switch {
		case err != nil:
			w.log.Error().Err(err).Str("lote_id", l.ID).Msg("consulta de lote fallida")
			w.posponer(l.ID)
		case res.EsTerminal():
			w.olvidar(l.ID)
		default:
			w.posponer(l.ID)
		}
	}
}

func (w *Worker) lotesPendientes(ctx context.Context, tenantID string) []*entity.Lote {
	var out []*entity.Lote
	for _, estado := range []string{entity.EstadoLoteSent, entity.EstadoLoteProcessing} {
		ls, err := w.loteRepo.ListByEstado(ctx, tenantID, estado)
		if err != nil {
			w.log.Error().Err(err).Str("estado", estado).Msg("no se pudo listar lotes pendientes")
			continue
		}
		out = append(out, ls...)
	}
	return out
}

// tocaConsultar agenda el lote en su primera aparición y decide si ya venció
// su espera.
func (w *Worker) tocaConsultar(loteID string, now time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, ok := w.agenda[loteID]
	if !ok {
		w.agenda[loteID] = &pollEntry{proxima: now, espera: w.cfg.PollInterval}
		return true
	}
	return !now.Before(e.proxima)
}

// posponer duplica la espera del lote hasta el tope.
func (w *Worker) posponer(loteID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, ok := w.agenda[loteID]
	if !ok {
		e = &pollEntry{espera: w.cfg.PollInterval}
		w.agenda[loteID] = e
	}
	e.proxima = time.Now().Add(e.espera)
	e.espera *= 2
	if e.espera > w.cfg.PollMaxDelay {
		e.espera = w.cfg.PollMaxDelay
	}
}

func (w *Worker) olvidar(loteID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.agenda, loteID)
}
