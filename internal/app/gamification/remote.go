package gamification

import (
	"context"
	"fmt"

	"github.com/squadplanner/squadxp/internal/domain"
)

// ProfileSource fetches the authoritative profile row.
// Returns domain.ErrProfileNotFound when the row does not exist.
type ProfileSource interface {
	FetchProfile(ctx context.Context, profileID string) (domain.RemoteProfile, error)
}

// Pull fetches the remote profile and folds it in with SyncFromDB.
// Reports whether the remote values were adopted.
func (e *Engine) Pull(ctx context.Context, src ProfileSource, profileID string) (bool, error) {
	remote, err := src.FetchProfile(ctx, profileID)
	if err != nil {
		return false, fmt.Errorf("fetch profile %s: %w", profileID, err)
	}
	return e.SyncFromDB(remote), nil
}
