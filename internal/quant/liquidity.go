package quant

import "xarb-scanner/internal/market"

const obiDepth = 5

// VWAP returns the average price paid to fill targetNotional against levels in
// the given order. The crossing level is filled partially. When the book is too
// thin the deepest level price is returned.
func VWAP(levels []market.Level, targetNotional float64) float64 {
	if len(levels) == 0 {
		return 0
	}
	var notional, qty float64
	for _, lvl := range levels {
		value := lvl.Price * lvl.Qty
		if notional+value >= targetNotional {
			needed := targetNotional - notional
			qty += needed / lvl.Price
			if qty <= 0 {
				return lvl.Price
			}
			return targetNotional / qty
		}
		notional += value
		qty += lvl.Qty
	}
	return levels[len(levels)-1].Price
}

// WeightedOBI is the depth-weighted order book imbalance over the top levels,
// in [-1, 1]. Level i carries weight 5-i.
func WeightedOBI(bids, asks []market.Level) float64 {
	bidVol := weightedVolume(bids)
	askVol := weightedVolume(asks)
	total := bidVol + askVol
	if total == 0 {
		return 0
	}
	return (bidVol - askVol) / total
}

func weightedVolume(levels []market.Level) float64 {
	var vol float64
	for i, lvl := range levels {
		if i >= obiDepth {
			break
		}
		vol += lvl.Qty * float64(obiDepth-i)
	}
	return vol
}
