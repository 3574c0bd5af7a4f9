package sifen_test

import (
	"context"
	"crypto/tls"
	"fmt"
	"sort"
	"sync"
	"time"

	appsifen "github.com/facturape/sifen-api/internal/application/sifen"
	"github.com/facturape/sifen-api/internal/domain"
	"github.com/facturape/sifen-api/internal/domain/entity"
	"github.com/facturape/sifen-api/internal/domain/repository"
	"github.com/facturape/sifen-api/pkg/logger"
)

// Fakes en memoria para los puertos del pipeline. Réplicas mínimas de la
// semántica de postgres/: los repos devuelven nil, nil cuando no encuentran.

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Env: "development", Level: "error"})
}

// ──────────────────────────────────────────────────────────────────────────────
// DocumentoRepository
// ──────────────────────────────────────────────────────────────────────────────

type fakeDocumentoRepo struct {
	mu    sync.Mutex
	docs  map[string]*entity.Documento
	items map[string][]*entity.DocumentoItem

	// Para CountByTimbrado, que en Postgres es un JOIN contra timbrados.
	timbrados *fakeTimbradoRepo
}

func newFakeDocumentoRepo() *fakeDocumentoRepo {
	return &fakeDocumentoRepo{
		docs:  make(map[string]*entity.Documento),
		items: make(map[string][]*entity.DocumentoItem),
	}
}

func (r *fakeDocumentoRepo) Create(_ context.Context, doc *entity.Documento) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copia := *doc
	r.docs[doc.ID] = &copia
	return nil
}

func (r *fakeDocumentoRepo) CreateItem(_ context.Context, item *entity.DocumentoItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copia := *item
	r.items[item.DocumentoID] = append(r.items[item.DocumentoID], &copia)
	return nil
}

func (r *fakeDocumentoRepo) Update(_ context.Context, doc *entity.Documento) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[doc.ID]; !ok {
		return domain.ErrNotFound
	}
	copia := *doc
	r.docs[doc.ID] = &copia
	return nil
}

func (r *fakeDocumentoRepo) GetByID(_ context.Context, id string) (*entity.Documento, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.docs[id]
	if !ok {
		return nil, nil
	}
	copia := *d
	return &copia, nil
}

func (r *fakeDocumentoRepo) GetByCDC(_ context.Context, tenantID, cdc string) (*entity.Documento, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.docs {
		if d.TenantID == tenantID && d.CDC == cdc {
			copia := *d
			return &copia, nil
		}
	}
	return nil, nil
}

func (r *fakeDocumentoRepo) GetItems(_ context.Context, documentoID string) ([]*entity.DocumentoItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items[documentoID], nil
}

func (r *fakeDocumentoRepo) List(_ context.Context, tenantID string, f repository.DocumentoFilter) ([]*entity.Documento, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Documento
	for _, d := range r.docs {
		if d.TenantID != tenantID {
			continue
		}
		if f.Estado != "" && d.Estado != f.Estado {
			continue
		}
		copia := *d
		out = append(out, &copia)
	}
	return out, len(out), nil
}

func (r *fakeDocumentoRepo) ListElegiblesParaLote(_ context.Context, tenantID string, limit int) ([]*entity.Documento, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Documento
	for _, d := range r.docs {
		if d.TenantID != tenantID {
			continue
		}
		if d.Estado != entity.EstadoDESigned && d.Estado != entity.EstadoDEEnqueued {
			continue
		}
		copia := *d
		out = append(out, &copia)
	}
	// FIFO por fecha de creación, como el ORDER BY created_at ASC real
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeDocumentoRepo) CountByTimbrado(ctx context.Context, timbradoID string) (int, error) {
	if r.timbrados == nil {
		return 0, nil
	}
	tb, err := r.timbrados.GetByID(ctx, timbradoID)
	if err != nil || tb == nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, d := range r.docs {
		if d.TenantID == tb.TenantID && d.Timbrado == tb.NumeroTimbrado &&
			d.TipoDE == tb.TipoDE && d.Establecimiento == tb.Establecimiento &&
			d.PuntoExpedicion == tb.PuntoExpedicion {
			n++
		}
	}
	return n, nil
}

func (r *fakeDocumentoRepo) Metrics(_ context.Context, tenantID string, _, _ time.Time) (map[string]int, map[string]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	porEstado := make(map[string]int)
	porTipo := make(map[string]int)
	for _, d := range r.docs {
		if d.TenantID != tenantID {
			continue
		}
		porEstado[d.Estado]++
		porTipo[d.TipoDE]++
	}
	return porEstado, porTipo, nil
}

func (r *fakeDocumentoRepo) ListRecent(_ context.Context, tenantID string, limit int) ([]*entity.Documento, error) {
	docs, _, err := r.List(context.Background(), tenantID, repository.DocumentoFilter{Limit: limit})
	return docs, err
}

// estadoDe consulta directa para asserts.
func (r *fakeDocumentoRepo) estadoDe(id string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.docs[id]; ok {
		return d.Estado
	}
	return ""
}

// ──────────────────────────────────────────────────────────────────────────────
// LoteRepository
// ──────────────────────────────────────────────────────────────────────────────

type fakeLoteRepo struct {
	mu    sync.Mutex
	lotes map[string]*entity.Lote
}

func newFakeLoteRepo() *fakeLoteRepo {
	return &fakeLoteRepo{lotes: make(map[string]*entity.Lote)}
}

func clonarLote(l *entity.Lote) *entity.Lote {
	copia := *l
	copia.Items = make([]*entity.LoteItem, len(l.Items))
	for i, it := range l.Items {
		c := *it
		copia.Items[i] = &c
	}
	return &copia
}

func (r *fakeLoteRepo) Create(_ context.Context, lote *entity.Lote) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lotes[lote.ID] = clonarLote(lote)
	return nil
}

func (r *fakeLoteRepo) Update(_ context.Context, lote *entity.Lote) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existente, ok := r.lotes[lote.ID]
	if !ok {
		return domain.ErrNotFound
	}
	actual := clonarLote(lote)
	if len(actual.Items) == 0 {
		actual.Items = existente.Items
	}
	r.lotes[lote.ID] = actual
	return nil
}

func (r *fakeLoteRepo) UpdateItem(_ context.Context, item *entity.LoteItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.lotes[item.LoteID]
	if !ok {
		return domain.ErrNotFound
	}
	for i, it := range l.Items {
		if it.ID == item.ID {
			c := *item
			l.Items[i] = &c
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *fakeLoteRepo) GetByID(_ context.Context, id string) (*entity.Lote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.lotes[id]
	if !ok {
		return nil, nil
	}
	return clonarLote(l), nil
}

func (r *fakeLoteRepo) List(_ context.Context, tenantID string, _, _ int) ([]*entity.Lote, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Lote
	for _, l := range r.lotes {
		if l.TenantID == tenantID {
			out = append(out, clonarLote(l))
		}
	}
	return out, len(out), nil
}

func (r *fakeLoteRepo) ListByEstado(_ context.Context, tenantID, estado string) ([]*entity.Lote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Lote
	for _, l := range r.lotes {
		if l.TenantID == tenantID && l.Estado == estado {
			out = append(out, clonarLote(l))
		}
	}
	return out, nil
}

func (r *fakeLoteRepo) ListCreatedBefore(_ context.Context, t time.Time) ([]*entity.Lote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Lote
	for _, l := range r.lotes {
		if l.Estado == entity.EstadoLoteCreated && l.CreatedAt.Before(t) {
			out = append(out, clonarLote(l))
		}
	}
	return out, nil
}

func (r *fakeLoteRepo) TenantsConActividad(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := make(map[string]bool)
	for _, l := range r.lotes {
		if !l.EsTerminal() {
			set[l.TenantID] = true
		}
	}
	var out []string
	for t := range set {
		out = append(out, t)
	}
	return out, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// TimbradoRepository
// ──────────────────────────────────────────────────────────────────────────────

type fakeTimbradoRepo struct {
	mu     sync.Mutex
	series map[string]*entity.Timbrado
}

func newFakeTimbradoRepo() *fakeTimbradoRepo {
	return &fakeTimbradoRepo{series: make(map[string]*entity.Timbrado)}
}

func (r *fakeTimbradoRepo) Allocate(_ context.Context, tenantID, tipoDE, est, punto string) (*repository.Asignacion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for _, tb := range r.series {
		if tb.TenantID != tenantID || tb.TipoDE != tipoDE ||
			tb.Establecimiento != est || tb.PuntoExpedicion != punto {
			continue
		}
		if !tb.Activo || !tb.Vigente(now) || tb.Agotado(9_999_999) {
			continue
		}
		tb.UltimoNumero++
		return &repository.Asignacion{
			TimbradoID:     tb.ID,
			NumeroTimbrado: tb.NumeroTimbrado,
			Numero:         fmt.Sprintf("%07d", tb.UltimoNumero),
		}, nil
	}
	return nil, domain.ErrNoActiveSeries
}

func (r *fakeTimbradoRepo) Create(_ context.Context, tb *entity.Timbrado) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Misma regla que el índice único parcial: una sola serie activa por
	// (tenant, tipo, establecimiento, punto), sin importar el número de timbrado.
	for _, existente := range r.series {
		if existente.Activo && existente.TenantID == tb.TenantID &&
			existente.TipoDE == tb.TipoDE &&
			existente.Establecimiento == tb.Establecimiento &&
			existente.PuntoExpedicion == tb.PuntoExpedicion {
			return fmt.Errorf("%w: ya existe una serie abierta para esta clave", domain.ErrConflict)
		}
	}
	copia := *tb
	r.series[tb.ID] = &copia
	return nil
}

func (r *fakeTimbradoRepo) GetByID(_ context.Context, id string) (*entity.Timbrado, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tb, ok := r.series[id]
	if !ok {
		return nil, nil
	}
	copia := *tb
	return &copia, nil
}

func (r *fakeTimbradoRepo) ListByTenant(_ context.Context, tenantID string) ([]*entity.Timbrado, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Timbrado
	for _, tb := range r.series {
		if tb.TenantID == tenantID {
			copia := *tb
			out = append(out, &copia)
		}
	}
	return out, nil
}

func (r *fakeTimbradoRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.series, id)
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// ConfigRepository
// ──────────────────────────────────────────────────────────────────────────────

type fakeConfigRepo struct {
	mu      sync.Mutex
	configs map[string]*entity.TenantSifenConfig
}

func newFakeConfigRepo() *fakeConfigRepo {
	return &fakeConfigRepo{configs: make(map[string]*entity.TenantSifenConfig)}
}

func (r *fakeConfigRepo) Get(_ context.Context, tenantID string) (*entity.TenantSifenConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.configs[tenantID]
	if !ok {
		return nil, nil
	}
	copia := *c
	return &copia, nil
}

func (r *fakeConfigRepo) Upsert(_ context.Context, cfg *entity.TenantSifenConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copia := *cfg
	r.configs[cfg.TenantID] = &copia
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// TxRunners: en los tests no hay transacción real, se reusa el mismo repo.
// ──────────────────────────────────────────────────────────────────────────────

type fakeTxRunner struct {
	docRepo      *fakeDocumentoRepo
	timbradoRepo *fakeTimbradoRepo
	loteRepo     *fakeLoteRepo
}

func (tx *fakeTxRunner) RunEmision(ctx context.Context, fn func(
	repository.DocumentoRepository, repository.TimbradoRepository) error) error {
	return fn(tx.docRepo, tx.timbradoRepo)
}

func (tx *fakeTxRunner) RunLote(ctx context.Context, fn func(
	repository.DocumentoRepository, repository.LoteRepository) error) error {
	return fn(tx.docRepo, tx.loteRepo)
}

// ──────────────────────────────────────────────────────────────────────────────
// Puertos de infraestructura
// ──────────────────────────────────────────────────────────────────────────────

type fakeXMLBuilder struct{}

func (fakeXMLBuilder) BuildRDE(doc *entity.Documento, _ *entity.TenantSifenConfig) ([]byte, error) {
	return []byte(`<rDE><DE Id="` + doc.CDC + `"/></rDE>`), nil
}

func (fakeXMLBuilder) BuildEventoCancelacion(doc *entity.Documento, _ *entity.TenantSifenConfig, motivo string) ([]byte, error) {
	return []byte(`<gGroupGesEve><rGeVeCan Id="` + doc.CDC + `"><mOtEve>` + motivo + `</mOtEve></rGeVeCan></gGroupGesEve>`), nil
}

type fakeSigner struct {
	err error
}

func (s *fakeSigner) Sign(xmlBytes []byte, _ tls.Certificate) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return append(xmlBytes, []byte("<!--firmado-->")...), nil
}

type fakeCertProvider struct {
	errCert error
}

func (p *fakeCertProvider) Certificado(_ context.Context, _ *entity.TenantSifenConfig) (tls.Certificate, error) {
	if p.errCert != nil {
		return tls.Certificate{}, p.errCert
	}
	return tls.Certificate{}, nil
}

func (p *fakeCertProvider) CSC(_ context.Context, _ *entity.TenantSifenConfig) (string, string, error) {
	return "0001", "ABCD0000000000000000000000000000", nil
}

// fakeSifenClient registra cada llamada para verificar idempotencia.
type fakeSifenClient struct {
	mu sync.Mutex

	recibeLoteCalls   int
	consultaLoteCalls int
	consultaDECalls   int
	eventoCalls       int

	recibeResp   *appsifen.RecibeLoteResult
	recibeErr    error
	consultaResp *appsifen.ConsultaLoteResult
	consultaErr  error
	consultaDE   *appsifen.ConsultaDEResult
	eventoResp   *appsifen.EventoResult
	eventoErr    error
}

func (c *fakeSifenClient) RecibeLote(_ context.Context, _ appsifen.Endpoints, _ [][]byte) (*appsifen.RecibeLoteResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recibeLoteCalls++
	if c.recibeErr != nil {
		return nil, c.recibeErr
	}
	if c.recibeResp != nil {
		return c.recibeResp, nil
	}
	return &appsifen.RecibeLoteResult{Aceptado: true, NumeroLote: "123456789", Codigo: "0300"}, nil
}

func (c *fakeSifenClient) ConsultaLote(_ context.Context, _ appsifen.Endpoints, _ string) (*appsifen.ConsultaLoteResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.consultaLoteCalls++
	if c.consultaErr != nil {
		return nil, c.consultaErr
	}
	if c.consultaResp != nil {
		return c.consultaResp, nil
	}
	return &appsifen.ConsultaLoteResult{EnProceso: true}, nil
}

func (c *fakeSifenClient) ConsultaDE(_ context.Context, _ appsifen.Endpoints, _ string) (*appsifen.ConsultaDEResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.consultaDECalls++
	if c.consultaDE != nil {
		return c.consultaDE, nil
	}
	return &appsifen.ConsultaDEResult{Encontrado: false}, nil
}

func (c *fakeSifenClient) EnviarEvento(_ context.Context, _ appsifen.Endpoints, _ []byte) (*appsifen.EventoResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.eventoCalls++
	if c.eventoErr != nil {
		return nil, c.eventoErr
	}
	if c.eventoResp != nil {
		return c.eventoResp, nil
	}
	return &appsifen.EventoResult{Aceptado: true, Codigo: "0600"}, nil
}

type fakeCipher struct{}

func (fakeCipher) Encrypt(plaintext []byte) ([]byte, error) {
	return append([]byte("enc:"), plaintext...), nil
}

type fakeKude struct{}

func (fakeKude) GenerateKude(_ context.Context, doc *entity.Documento, _ *entity.TenantSifenConfig) ([]byte, error) {
	return []byte("%PDF-1.7 " + doc.CDC), nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Config de emisor lista para usar
// ──────────────────────────────────────────────────────────────────────────────

func configDePrueba(tenantID string) *entity.TenantSifenConfig {
	return &entity.TenantSifenConfig{
		TenantID:        tenantID,
		Ambiente:        "HOMOLOGACION",
		RUC:             "80012345",
		DV:              0,
		RazonSocial:     "Empresa Demo S.A.",
		Establecimiento: "001",
		PuntoExpedicion: "001",
		IDCSC:           "0001",
		CSCEnc:          []byte("enc:csc"),
		CertPEM:         []byte("cert"),
		PrivateKeyEnc:   []byte("enc:key"),
	}
}

func timbradoDePrueba(tenantID, tipoDE string) *entity.Timbrado {
	now := time.Now()
	return &entity.Timbrado{
		ID:              "tb-" + tipoDE,
		TenantID:        tenantID,
		TipoDE:          tipoDE,
		Establecimiento: "001",
		PuntoExpedicion: "001",
		NumeroTimbrado:  "12345678",
		UltimoNumero:    0,
		InicioVigencia:  now.AddDate(0, -1, 0),
		FinVigencia:     now.AddDate(1, 0, 0),
		Activo:          true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}
