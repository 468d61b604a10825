package repository

import (
	"context"
	"log/slog"
	"time"

	"github.com/foxseedlab/kikitori/internal/config"
	"github.com/foxseedlab/kikitori/internal/repository"
	"github.com/samber/do/v2"
)

const openTimeout = 15 * time.Second

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (repository.Repository, error) {
		c := do.MustInvoke[*config.Config](i)
		if c.DatabaseURL == "" {
			slog.Info("DATABASE_URL not set; utterance history disabled")
			return nopRepository{}, nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), openTimeout)
		defer cancel()
		repo, err := Open(ctx, c.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return repo, nil
	})
}
