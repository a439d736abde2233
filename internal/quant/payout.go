package quant

import (
	"math"
	"strings"
	"time"
)

// Schedule describes how often an exchange settles funding.
type Schedule string

const (
	ScheduleHourly    Schedule = "hourly"
	ScheduleEightHour Schedule = "8h"
	// ScheduleAdaptive settles hourly once |funding| reaches AdaptiveThreshold,
	// otherwise every 8 hours.
	ScheduleAdaptive Schedule = "adaptive"
)

const AdaptiveThreshold = 0.03

var defaultSchedules = map[string]Schedule{
	"hyperliquid": ScheduleHourly,
	"bybit":       ScheduleAdaptive,
}

// PayoutTable maps exchange ids to settlement schedules. Unknown exchanges
// settle every 8 hours.
type PayoutTable map[string]Schedule

func DefaultPayoutTable() PayoutTable {
	out := make(PayoutTable, len(defaultSchedules))
	for k, v := range defaultSchedules {
		out[k] = v
	}
	return out
}

func (t PayoutTable) Schedule(exchange string) Schedule {
	if s, ok := t[strings.ToLower(exchange)]; ok {
		return s
	}
	return ScheduleEightHour
}

// SecondsToPayout returns the seconds until the exchange's next funding
// boundary. It is an urgency hint only.
func (t PayoutTable) SecondsToPayout(exchange string, fundingRate float64, now time.Time) float64 {
	return SecondsToPayout(t.Schedule(exchange), fundingRate, now)
}

func SecondsToPayout(schedule Schedule, fundingRate float64, now time.Time) float64 {
	interval := 8 * time.Hour
	switch schedule {
	case ScheduleHourly:
		interval = time.Hour
	case ScheduleAdaptive:
		if math.Abs(fundingRate) >= AdaptiveThreshold {
			interval = time.Hour
		}
	}
	now = now.UTC()
	next := now.Truncate(interval).Add(interval)
	return next.Sub(now).Seconds()
}
