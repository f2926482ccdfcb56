package repository

import "github.com/cuscogo/huntd/internal/adapters/notify"

// Option applies a configuration option to the SQLStore.
type Option func(*SQLStore)

// WithBroadcaster wires the change broadcaster fired after every mutation,
// so score displays can recompute.
func WithBroadcaster(b *notify.Broadcaster) Option {
	return func(s *SQLStore) {
		s.broadcaster = b
	}
}
