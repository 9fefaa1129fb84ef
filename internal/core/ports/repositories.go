package ports

import (
	"context"

	"github.com/samirrijal/wayfinder/internal/core/domain"
)

// GazetteerRepository persists the offline place table.
type GazetteerRepository interface {
	List(ctx context.Context) ([]domain.GazetteerEntry, error)
	Upsert(ctx context.Context, entry *domain.GazetteerEntry) error
}
