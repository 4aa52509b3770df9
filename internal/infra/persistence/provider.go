// Package persistence selects the storage backend for the credential and OTP stores.
package persistence

import (
	"log/slog"

	"chatty/config"
	"chatty/internal/domain/repository"
	"chatty/internal/infra/persistence/memory"
	"chatty/internal/infra/persistence/postgres"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// Params holds dependencies for the repositories, injected by Fx.
type Params struct {
	fx.In

	Lc     fx.Lifecycle
	Config *config.Config
	Logger *slog.Logger
}

// Repositories is the set of stores shared by the usecases.
type Repositories struct {
	fx.Out

	UserRepo  repository.UserRepository
	OTPRepo   repository.OTPRepository
	TxManager repository.TransactionManager
}

// NewRepositories builds the stores for the configured driver.
func NewRepositories(params Params) (Repositories, error) {
	driver := params.Config.Persistence.Driver
	logger := params.Logger

	switch driver {
	case config.PersistenceDriverPostgres, "":
		db, err := postgres.New(postgres.Params{
			Lifecycle: params.Lc,
			Config:    params.Config,
			Logger:    logger,
		})
		if err != nil {
			return Repositories{}, err
		}
		logger.Info("Using Postgres persistence")

		return Repositories{
			UserRepo:  postgres.NewUserRepository(db),
			OTPRepo:   postgres.NewOTPRepository(db),
			TxManager: postgres.NewTransactionManager(db),
		}, nil

	case config.PersistenceDriverMemory:
		logger.Warn("Using in-memory persistence, data is lost on restart")
		store := memory.NewStore()

		return Repositories{
			UserRepo:  store.UserRepo(),
			OTPRepo:   store.OTPRepo(),
			TxManager: store.TransactionManager(),
		}, nil

	default:
		return Repositories{}, errors.Errorf("unknown persistence driver: %s", driver)
	}
}

// Module provides the persistence FX module
//
//nolint:gochecknoglobals
var Module = fx.Options(
	fx.Provide(NewRepositories),
)
