package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/facturape/sifen-api/internal/domain/entity"
	"github.com/facturape/sifen-api/internal/domain/repository"
)

var _ repository.ConfigRepository = (*ConfigRepo)(nil)

// ConfigRepo implementación de ConfigRepository. Los campos secretos llegan
// ya cifrados; se guardan como BYTEA tal cual.
type ConfigRepo struct {
	q Querier
}

// NewConfigRepository construye el adaptador. Pasar pool o tx (Querier).
func NewConfigRepository(q Querier) *ConfigRepo {
	return &ConfigRepo{q: q}
}

// Get obtiene la configuración del tenant. nil, nil si nunca configuró.
func (r *ConfigRepo) Get(ctx context.Context, tenantID string) (*entity.TenantSifenConfig, error) {
	const q = `
		SELECT tenant_id, ambiente, ruc, dv, razon_social, establecimiento, punto_expedicion,
		       id_csc, csc_enc, cert_pem, private_key_enc, passphrase_enc,
		       url_recibe_lote, url_consulta_lote, url_consulta_de, url_evento, updated_at
		FROM tenant_sifen_config WHERE tenant_id = $1`
	var c entity.TenantSifenConfig
	var ruc, razonSocial, est, punto, idCSC *string
	var urlRecibe, urlConsulta, urlConsultaDE, urlEvento *string
	err := r.q.QueryRow(ctx, q, tenantID).Scan(
		&c.TenantID, &c.Ambiente, &ruc, &c.DV, &razonSocial, &est, &punto,
		&idCSC, &c.CSCEnc, &c.CertPEM, &c.PrivateKeyEnc, &c.PassphraseEnc,
		&urlRecibe, &urlConsulta, &urlConsultaDE, &urlEvento, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get configuración: %w", err)
	}
	c.RUC = derefStr(ruc)
	c.RazonSocial = derefStr(razonSocial)
	c.Establecimiento = derefStr(est)
	c.PuntoExpedicion = derefStr(punto)
	c.IDCSC = derefStr(idCSC)
	c.URLRecibeLote = derefStr(urlRecibe)
	c.URLConsultaLote = derefStr(urlConsulta)
	c.URLConsultaDE = derefStr(urlConsultaDE)
	c.URLEvento = derefStr(urlEvento)
	return &c, nil
}

// Upsert crea o reemplaza la configuración completa del tenant.
func (r *ConfigRepo) Upsert(ctx context.Context, cfg *entity.TenantSifenConfig) error {
	const q = `
		INSERT INTO tenant_sifen_config
			(tenant_id, ambiente, ruc, dv, razon_social, establecimiento, punto_expedicion,
			 id_csc, csc_enc, cert_pem, private_key_enc, passphrase_enc,
			 url_recibe_lote, url_consulta_lote, url_consulta_de, url_evento, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		ON CONFLICT (tenant_id) DO UPDATE SET
			ambiente          = EXCLUDED.ambiente,
			ruc               = EXCLUDED.ruc,
			dv                = EXCLUDED.dv,
			razon_social      = EXCLUDED.razon_social,
			establecimiento   = EXCLUDED.establecimiento,
			punto_expedicion  = EXCLUDED.punto_expedicion,
			id_csc            = EXCLUDED.id_csc,
			csc_enc           = EXCLUDED.csc_enc,
			cert_pem          = EXCLUDED.cert_pem,
			private_key_enc   = EXCLUDED.private_key_enc,
			passphrase_enc    = EXCLUDED.passphrase_enc,
			url_recibe_lote   = EXCLUDED.url_recibe_lote,
			url_consulta_lote = EXCLUDED.url_consulta_lote,
			url_consulta_de   = EXCLUDED.url_consulta_de,
			url_evento        = EXCLUDED.url_evento,
			updated_at        = EXCLUDED.updated_at`
	_, err := r.q.Exec(ctx, q,
		cfg.TenantID, cfg.Ambiente, nullIfEmpty(cfg.RUC), cfg.DV, nullIfEmpty(cfg.RazonSocial),
		nullIfEmpty(cfg.Establecimiento), nullIfEmpty(cfg.PuntoExpedicion),
		nullIfEmpty(cfg.IDCSC), cfg.CSCEnc, cfg.CertPEM, cfg.PrivateKeyEnc, cfg.PassphraseEnc,
		nullIfEmpty(cfg.URLRecibeLote), nullIfEmpty(cfg.URLConsultaLote),
		nullIfEmpty(cfg.URLConsultaDE), nullIfEmpty(cfg.URLEvento), cfg.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert configuración: %w", err)
	}
	return nil
}
