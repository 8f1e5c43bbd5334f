package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	pkgerrors "github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/puestito/ventas-pos/app/catalog"
	"github.com/puestito/ventas-pos/app/client"
	"github.com/puestito/ventas-pos/app/config"
	"github.com/puestito/ventas-pos/app/database"
	"github.com/puestito/ventas-pos/app/endpoint"
	"github.com/puestito/ventas-pos/app/export"
	"github.com/puestito/ventas-pos/app/logging"
	"github.com/puestito/ventas-pos/app/sales"
	"github.com/puestito/ventas-pos/app/server"
	"github.com/puestito/ventas-pos/models"
)

// setup loads the configuration and builds the logger shared by every command.
func setup(c *cli.Context) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(c.StringSlice("env-file")...)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.IsDevelopment(), cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP API",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "port", Usage: "override PORT"},
		},
		Action: func(c *cli.Context) error {
			cfg, logger, err := setup(c)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			if c.IsSet("port") {
				cfg.Port = c.Int("port")
			}

			if cfg.Database.AutoMigrate {
				if err := database.Migrate(cfg.Database, logger); err != nil {
					return err
				}
			}

			db, err := database.Open(cfg.Database, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := database.Close(db); err != nil {
					logger.Warn("failed to close database", zap.Error(err))
				}
			}()
			logger.Info("connected to database",
				zap.String("driver", cfg.Database.Driver),
				zap.String("host", cfg.Database.Host),
				zap.String("db_name", cfg.Database.Name))

			products := models.NewProductsRepository(db)
			routes := server.Routes{
				Catalog: catalog.NewCatalogHandler(products, logger),
				Ledgers: make(map[models.Ledger]*sales.SalesHandler, len(models.Ledgers)),
				Health: server.PingFunc(func(ctx context.Context) error {
					return database.Ping(ctx, db)
				}),
			}
			for _, l := range models.Ledgers {
				routes.Ledgers[l] = sales.NewSalesHandler(l, models.NewSalesRepository(db, l), products, logger)
			}

			handler := server.NewRouter(routes, server.RouterOptions{AllowedOrigins: cfg.CORSOrigins}, logger)

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.New(cfg.Addr(), handler, logger).Run(ctx)
		},
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "apply the database migrations",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "down", Usage: "roll back every migration instead"},
		},
		Action: func(c *cli.Context) error {
			cfg, logger, err := setup(c)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			if c.Bool("down") {
				return database.MigrateDown(cfg.Database, logger)
			}
			return database.Migrate(cfg.Database, logger)
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "download a ledger from the API into an xlsx workbook",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "ledger", Value: models.PrimaryLedger.Name, Usage: "primary or secondary"},
			&cli.StringFlag{Name: "out", Value: "ventas.xlsx", Usage: "output file"},
		},
		Action: func(c *cli.Context) error {
			cfg, logger, err := setup(c)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ledger, err := models.LedgerByName(c.String("ledger"))
			if err != nil {
				return err
			}

			resolver := endpoint.NewResolver(cfg.API.URLs, endpoint.HTTPProber{
				Path:    cfg.API.ProbePath,
				Timeout: cfg.API.Timeout,
			}, logger)
			apiClient := client.New(resolver, nil, logger)

			res, err := apiClient.ListSales(c.Context, ledger)
			if err != nil {
				return err
			}

			return writeWorkbookFile(c.String("out"), res, logger)
		},
	}
}

func writeWorkbookFile(path string, res []models.Sale, logger *zap.Logger) error {
	f, err := os.Create(path)
	if err != nil {
		return pkgerrors.Wrapf(err, "create %s", path)
	}
	if err := export.WriteWorkbook(f, res); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return pkgerrors.Wrapf(err, "close %s", path)
	}
	logger.Info("workbook written", zap.String("path", path), zap.Int("sales", len(res)))
	return nil
}
