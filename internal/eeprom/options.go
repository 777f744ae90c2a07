package eeprom

import "go.eeprom/internal/logger"

type Option func(*Store)

// WithLogger routes recovery and transfer events to log.
func WithLogger(log *logger.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}
