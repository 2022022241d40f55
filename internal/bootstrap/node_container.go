package bootstrap

import (
	"fmt"

	"notevault/internal/config"
	"notevault/internal/controller"
	"notevault/internal/pkg/logger"
	"notevault/internal/repository"
	"notevault/internal/repository/unitofwork"
	"notevault/pkg/database"
	"notevault/pkg/identity"
	"notevault/pkg/ledger/node"

	"gorm.io/gorm"
)

type NodeContainer struct {
	LedgerController controller.ILedgerController
	Program          *node.Program
	Logger           logger.ILogger

	db *gorm.DB
}

// NewNodeContainer builds a ledger node over the storage named by
// cfg.Node.Storage.
func NewNodeContainer(cfg *config.Config) (*NodeContainer, error) {
	sysLogger := logger.NewZapLogger(cfg.Node.LogFilePath, cfg.IsProduction())

	programID, err := identity.PublicKeyFromBase58(cfg.Ledger.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("program id: %w", err)
	}

	var (
		store node.AccountStore
		db    *gorm.DB
	)
	switch cfg.Node.Storage {
	case "memory", "":
		store = node.NewMemoryStore()
	case "postgres":
		if cfg.Node.DSN == "" {
			return nil, fmt.Errorf("DB_CONNECTION_STRING is required for postgres storage")
		}
		db, err = database.NewGormDBFromDSN(cfg.Node.DSN, !cfg.IsProduction())
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		if err := repository.Migrate(db); err != nil {
			return nil, fmt.Errorf("migrate ledger tables: %w", err)
		}
		store = repository.NewAccountStore(unitofwork.NewRepositoryFactory(db))
	default:
		return nil, fmt.Errorf("unknown node storage %q", cfg.Node.Storage)
	}

	sysLogger.Info("Bootstrap", "Ledger node storage ready", map[string]interface{}{
		"storage": cfg.Node.Storage,
		"program": programID.String(),
	})

	program := node.NewProgram(programID, store, sysLogger)
	return &NodeContainer{
		LedgerController: controller.NewLedgerController(program, sysLogger),
		Program:          program,
		Logger:           sysLogger,
		db:               db,
	}, nil
}

func (c *NodeContainer) Close() {
	if c.db != nil {
		if sqlDB, err := c.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	_ = c.Logger.Sync()
}
