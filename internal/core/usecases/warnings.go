package usecases

import (
	"context"
	"log/slog"
)

// WarningFunc receives recovered failures (provider errors, geolocation
// fallbacks) that are not returned to the caller.
type WarningFunc func(ctx context.Context, err error)

func logWarning(component string) WarningFunc {
	return func(ctx context.Context, err error) {
		slog.WarnContext(ctx, "recovered failure", "component", component, "error", err)
	}
}
