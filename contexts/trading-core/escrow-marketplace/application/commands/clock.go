package commands

import (
	"time"

	"curio/contexts/trading-core/escrow-marketplace/ports"
)

func resolveNow(clock ports.Clock) time.Time {
	if clock == nil {
		return time.Now().UTC()
	}
	return clock.Now().UTC()
}
