package strategy

// Tiers holds the lower net-basis bounds of each tier above Noise.
type Tiers struct {
	Acceptable float64
	GreatEntry float64
	Sniper     float64
}

func (t Tiers) Classify(net float64) Tier {
	switch {
	case net < t.Acceptable:
		return TierNoise
	case net < t.GreatEntry:
		return TierAcceptable
	case net < t.Sniper:
		return TierGreatEntry
	default:
		return TierSniper
	}
}
