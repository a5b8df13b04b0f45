package identity

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/quizbattle/go/internal/game"
)

// Guard checks that a usable local identity exists for the session being
// viewed before any connection is attempted
type Guard struct {
	store Store
}

// NewGuard creates a guard over store
func NewGuard(store Store) *Guard {
	return &Guard{store: store}
}

// Verify returns the identity for pin. Any failure wraps game.ErrIdentityMissing;
// a record for another session, or one without a token, is forgotten when the
// store supports it.
func (g *Guard) Verify(pin string) (game.Identity, error) {
	id, err := g.store.Load()
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return game.Identity{}, fmt.Errorf("no local player record: %w", game.ErrIdentityMissing)
		}
		return game.Identity{}, fmt.Errorf("%v: %w", err, game.ErrIdentityMissing)
	}

	var reason string
	switch {
	case !game.SamePin(id.Pin, pin):
		reason = fmt.Sprintf("record is for session %q", id.Pin)
	case id.PlayerID <= 0:
		reason = "record has no player id"
	case id.PlayerToken == "":
		reason = "record has no player token"
	}
	if reason == "" {
		return id, nil
	}

	if f, ok := g.store.(Forgetter); ok {
		if err := f.Forget(); err != nil {
			log.Warn().Err(err).Msg("failed to forget invalid identity")
		}
	}
	log.Warn().Str("pin", pin).Str("reason", reason).Msg("identity rejected")
	return game.Identity{}, fmt.Errorf("%s: %w", reason, game.ErrIdentityMissing)
}
