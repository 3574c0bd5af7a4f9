package sifen

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/facturape/sifen-api/internal/application/dto"
	"github.com/facturape/sifen-api/internal/domain"
	"github.com/facturape/sifen-api/internal/domain/entity"
	"github.com/facturape/sifen-api/internal/domain/repository"
	"github.com/facturape/sifen-api/pkg/logger"
	pkgsifen "github.com/facturape/sifen-api/pkg/sifen"
)

var reCodigo3 = regexp.MustCompile(`^\d{3}$`)

// ConfigUseCase lee y actualiza la configuración SIFEN del tenant. Los campos
// secretos (CSC, llave privada, passphrase) son write-only: entran en texto
// claro por la API, se cifran aquí y nunca vuelven a salir.
type ConfigUseCase struct {
	configRepo repository.ConfigRepository
	cipher     SecretCipher
	log        *logger.Logger
}

// NewConfigUseCase construye el caso de uso de configuración.
func NewConfigUseCase(configRepo repository.ConfigRepository, cipher SecretCipher, log *logger.Logger) *ConfigUseCase {
	return &ConfigUseCase{
		configRepo: configRepo,
		cipher:     cipher,
		log:        log.Component("config"),
	}
}

// Get proyección pública de la configuración (flags de presencia, sin secretos).
func (uc *ConfigUseCase) Get(ctx context.Context, tenantID string) (*entity.ConfigPublica, error) {
	cfg, err := uc.configRepo.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		// Tenant sin configuración: proyección vacía en homologación.
		cfg = &entity.TenantSifenConfig{TenantID: tenantID, Ambiente: pkgsifen.AmbienteHomologacion}
	}
	pub := cfg.Publica()
	return &pub, nil
}

// Update aplica un parche sobre la configuración: campos vacíos conservan el
// valor actual. Pasar a PRODUCCION exige confirmación explícita.
func (uc *ConfigUseCase) Update(ctx context.Context, tenantID string, req *dto.UpdateConfigRequest) (*entity.ConfigPublica, error) {
	cfg, err := uc.configRepo.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = &entity.TenantSifenConfig{TenantID: tenantID, Ambiente: pkgsifen.AmbienteHomologacion}
	}

	if req.Ambiente != "" {
		if req.Ambiente != pkgsifen.AmbienteHomologacion && req.Ambiente != pkgsifen.AmbienteProduccion {
			return nil, fmt.Errorf("%w: ambiente inválido: %q", domain.ErrValidation, req.Ambiente)
		}
		if req.Ambiente == pkgsifen.AmbienteProduccion && cfg.Ambiente != pkgsifen.AmbienteProduccion && !req.ConfirmarProduccion {
			return nil, fmt.Errorf("%w: pasar a PRODUCCION emite documentos con efecto legal; requiere confirmar_produccion=true",
				domain.ErrValidation)
		}
		cfg.Ambiente = req.Ambiente
	}

	if req.RUC != "" {
		if req.DV == nil {
			return nil, fmt.Errorf("%w: el RUC requiere su dígito verificador", domain.ErrValidation)
		}
		if err := pkgsifen.ValidateRUC(req.RUC, *req.DV); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
		}
		cfg.RUC = pkgsifen.OnlyDigits(req.RUC)
		cfg.DV = *req.DV
	}
	if req.RazonSocial != "" {
		cfg.RazonSocial = req.RazonSocial
	}
	if req.Establecimiento != "" {
		if !reCodigo3.MatchString(req.Establecimiento) {
			return nil, fmt.Errorf("%w: establecimiento debe tener 3 dígitos", domain.ErrValidation)
		}
		cfg.Establecimiento = req.Establecimiento
	}
	if req.PuntoExpedicion != "" {
		if !reCodigo3.MatchString(req.PuntoExpedicion) {
			return nil, fmt.Errorf("%w: punto de expedición debe tener 3 dígitos", domain.ErrValidation)
		}
		cfg.PuntoExpedicion = req.PuntoExpedicion
	}

	if req.IDCSC != "" {
		cfg.IDCSC = req.IDCSC
	}
	if req.CSC != "" {
		enc, err := uc.cipher.Encrypt([]byte(req.CSC))
		if err != nil {
			return nil, fmt.Errorf("cifrar CSC: %w", err)
		}
		cfg.CSCEnc = enc
	}
	if req.CertPEM != "" {
		cfg.CertPEM = []byte(req.CertPEM)
	}
	if req.PrivateKey != "" {
		enc, err := uc.cipher.Encrypt([]byte(req.PrivateKey))
		if err != nil {
			return nil, fmt.Errorf("cifrar llave privada: %w", err)
		}
		cfg.PrivateKeyEnc = enc
	}
	if req.Passphrase != "" {
		enc, err := uc.cipher.Encrypt([]byte(req.Passphrase))
		if err != nil {
			return nil, fmt.Errorf("cifrar passphrase: %w", err)
		}
		cfg.PassphraseEnc = enc
	}

	// URLs explícitas de los WS (vacío = oficiales del ambiente).
	if req.URLRecibeLote != "" {
		cfg.URLRecibeLote = req.URLRecibeLote
	}
	if req.URLConsultaLote != "" {
		cfg.URLConsultaLote = req.URLConsultaLote
	}
	if req.URLConsultaDE != "" {
		cfg.URLConsultaDE = req.URLConsultaDE
	}
	if req.URLEvento != "" {
		cfg.URLEvento = req.URLEvento
	}

	cfg.UpdatedAt = time.Now()
	if err := uc.configRepo.Upsert(ctx, cfg); err != nil {
		return nil, fmt.Errorf("persistir configuración: %w", err)
	}

	uc.log.Info().Str("tenant_id", tenantID).Str("ambiente", cfg.Ambiente).Msg("configuración SIFEN actualizada")
	pub := cfg.Publica()
	return &pub, nil
}
