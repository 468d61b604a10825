package repository

import (
	"context"
	"time"
)

type InsertUtteranceInput struct {
	ID             string
	SessionID      string
	Strategy       string
	Backend        string
	Status         UtteranceStatus
	Text           string
	ErrorMessage   string
	SampleCount    int
	DurationMillis int64
	StartedAt      time.Time
	EndedAt        time.Time
}

type Repository interface {
	InsertUtterance(ctx context.Context, input InsertUtteranceInput) error
	ListRecentUtterances(ctx context.Context, limit int) ([]Utterance, error)
}
