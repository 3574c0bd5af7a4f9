package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	_ "github.com/facturape/sifen-api/docs"
	appsifen "github.com/facturape/sifen-api/internal/application/sifen"
	"github.com/facturape/sifen-api/internal/infrastructure/pdf"
	"github.com/facturape/sifen-api/internal/infrastructure/postgres"
	infrasifen "github.com/facturape/sifen-api/internal/infrastructure/sifen"
	"github.com/facturape/sifen-api/internal/infrastructure/sifen/signer"
	"github.com/facturape/sifen-api/internal/infrastructure/vault"
	httpRouter "github.com/facturape/sifen-api/internal/interfaces/http"
	"github.com/facturape/sifen-api/pkg/config"
	"github.com/facturape/sifen-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("ambiente_sifen", cfg.SIFEN.Ambiente).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	docRepo := postgres.NewDocumentoRepository(pool)
	loteRepo := postgres.NewLoteRepository(pool)
	timbradoRepo := postgres.NewTimbradoRepository(pool)
	configRepo := postgres.NewConfigRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Vault: cifra CSC, llave privada y passphrase de cada tenant con la master key.
	secretVault, err := vault.New(cfg.SIFEN.MasterKey)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar vault de secretos")
	}

	xmlBuilder := infrasifen.NewXMLBuilderService()
	signerSvc := signer.NewDigitalSignatureService()
	soapClient := infrasifen.NewSOAPClient()
	kudeGenerator := pdf.NewMarotoKudeGenerator()

	crearDocumentoUC := appsifen.NewCrearDocumentoUseCase(txRunner, docRepo, configRepo, xmlBuilder)
	emitirOrch := appsifen.NewEmitirOrchestrator(docRepo, configRepo, secretVault, signerSvc, log)
	loteUC := appsifen.NewLoteUseCase(docRepo, loteRepo, configRepo, soapClient, txRunner, cfg.SIFEN.LoteMax, log)
	anularUC := appsifen.NewAnularUseCase(docRepo, configRepo, xmlBuilder, secretVault, signerSvc, soapClient, log)
	documentoUC := appsifen.NewDocumentoUseCase(docRepo, configRepo, kudeGenerator, log)
	numeracionUC := appsifen.NewNumeracionUseCase(timbradoRepo, docRepo, log)
	configUC := appsifen.NewConfigUseCase(configRepo, secretVault, log)

	// Worker de fondo: arma, envía y consulta lotes sin intervención manual.
	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()
	if cfg.Worker.Enabled {
		worker := appsifen.NewWorker(loteUC, loteRepo, cfg.Worker, log)
		go worker.Run(workerCtx)
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "FacturaPE SIFEN API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		CrearDocumento: crearDocumentoUC,
		Emitir:         emitirOrch,
		Anular:         anularUC,
		DocumentoUC:    documentoUC,
		LoteUC:         loteUC,
		NumeracionUC:   numeracionUC,
		ConfigUC:       configUC,
		JWTSecret:      cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")
	stopWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
