package strategy

import "time"

// Sentinel debounces order-book imbalance. A route becomes stable once it
// has been continuously favorable for at least cooldown.
type Sentinel struct {
	cooldown      time.Duration
	favorableFrom time.Time
	favorable     bool
}

func NewSentinel(cooldown time.Duration) *Sentinel {
	return &Sentinel{cooldown: cooldown}
}

func (s *Sentinel) Observe(favorable bool, now time.Time) bool {
	if !favorable {
		s.favorable = false
		s.favorableFrom = time.Time{}
		return false
	}
	if !s.favorable {
		s.favorable = true
		s.favorableFrom = now
	}
	return now.Sub(s.favorableFrom) >= s.cooldown
}
