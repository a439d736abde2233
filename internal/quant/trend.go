package quant

import "math"

const minSlopePoints = 10

// RegressionSlope is the OLS slope of the series against its index.
func RegressionSlope(series []float64) float64 {
	if len(series) < minSlopePoints {
		return 0
	}
	n := float64(len(series))
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range series {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	denominator := n*sumXX - sumX*sumX
	if denominator == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denominator
}

// StdDev is the population standard deviation of the series.
func StdDev(series []float64) float64 {
	if len(series) < 2 {
		return 0
	}
	n := float64(len(series))
	var sum float64
	for _, v := range series {
		sum += v
	}
	mean := sum / n
	var variance float64
	for _, v := range series {
		d := v - mean
		variance += d * d
	}
	return math.Sqrt(variance / n)
}

type Trend string

const (
	TrendUp   Trend = "UP"
	TrendDown Trend = "DN"
	TrendFlat Trend = "FLAT"
)

// ClassifyTrend labels a slope relative to the series volatility.
func ClassifyTrend(slope, vol float64) Trend {
	band := vol * 0.01
	switch {
	case slope > band:
		return TrendUp
	case slope < -band:
		return TrendDown
	default:
		return TrendFlat
	}
}
