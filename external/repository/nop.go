package repository

import (
	"context"

	"github.com/foxseedlab/kikitori/internal/repository"
)

// nopRepository is used when no database is configured.
type nopRepository struct{}

func (nopRepository) InsertUtterance(context.Context, repository.InsertUtteranceInput) error {
	return nil
}

func (nopRepository) ListRecentUtterances(context.Context, int) ([]repository.Utterance, error) {
	return nil, nil
}
