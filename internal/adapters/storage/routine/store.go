package routine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	domain "routineos/internal/domain/routine"
)

// Store persists routine entries. One row per (user, date).
type Store interface {
	// GetByUserAndDate returns (nil, nil) when the user has no entry for date.
	GetByUserAndDate(ctx context.Context, userID, date string) (*domain.Entry, error)
	// ListByUser returns entries newest first. A limit of 0 returns all of them.
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.Entry, error)
	// Upsert inserts or fully replaces the entry for (entry.UserID, entry.Date).
	Upsert(ctx context.Context, entry domain.Entry) (domain.Entry, error)
	// DeleteByUser removes every entry for the user and returns how many went.
	DeleteByUser(ctx context.Context, userID string) (int, error)
}

// timeNow is the clock used for created_at/updated_at. Tests replace it.
var timeNow = time.Now

const timeLayout = time.RFC3339Nano

func encodeFocusAreas(areas []domain.FocusArea) (string, error) {
	if areas == nil {
		areas = []domain.FocusArea{}
	}
	b, err := json.Marshal(areas)
	if err != nil {
		return "", fmt.Errorf("encode focus areas: %w", err)
	}
	return string(b), nil
}

func decodeFocusAreas(raw string) ([]domain.FocusArea, error) {
	areas := []domain.FocusArea{}
	if raw == "" {
		return areas, nil
	}
	if err := json.Unmarshal([]byte(raw), &areas); err != nil {
		return nil, fmt.Errorf("decode focus areas: %w", err)
	}
	return areas, nil
}
