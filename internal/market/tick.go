package market

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrMalformedTick = errors.New("malformed tick")

// Tick is one normalized exchange update:
//
//	<exchange>:<symbol>:<bidPx>,<bidQty>[,...]|<askPx>,<askQty>[,...]:<funding>
type Tick struct {
	Exchange string
	Symbol   string
	Bids     []Level
	Asks     []Level
	Funding  float64
}

func ParseTick(raw string) (Tick, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 4 {
		return Tick{}, fmt.Errorf("%w: expected 4 fields, got %d", ErrMalformedTick, len(parts))
	}
	exchange := strings.ToLower(strings.TrimSpace(parts[0]))
	symbol := strings.ToUpper(strings.TrimSpace(parts[1]))
	if exchange == "" || symbol == "" {
		return Tick{}, fmt.Errorf("%w: missing exchange or symbol", ErrMalformedTick)
	}
	sides := strings.Split(parts[2], "|")
	if len(sides) != 2 {
		return Tick{}, fmt.Errorf("%w: expected bids|asks", ErrMalformedTick)
	}
	bids, err := parseLevels(sides[0], true)
	if err != nil {
		return Tick{}, fmt.Errorf("%w: bids: %v", ErrMalformedTick, err)
	}
	asks, err := parseLevels(sides[1], false)
	if err != nil {
		return Tick{}, fmt.Errorf("%w: asks: %v", ErrMalformedTick, err)
	}
	funding, err := parseDecimal(parts[3])
	if err != nil {
		return Tick{}, fmt.Errorf("%w: funding: %v", ErrMalformedTick, err)
	}
	return Tick{
		Exchange: exchange,
		Symbol:   symbol,
		Bids:     bids,
		Asks:     asks,
		Funding:  funding,
	}, nil
}

// parseLevels decodes one book side. Bids must not rise and asks must not
// fall from one level to the next.
func parseLevels(raw string, bids bool) ([]Level, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	fields := strings.Split(raw, ",")
	if len(fields)%2 != 0 {
		return nil, fmt.Errorf("odd number of depth fields (%d)", len(fields))
	}
	levels := make([]Level, 0, len(fields)/2)
	for i := 0; i < len(fields); i += 2 {
		price, err := parseDecimal(fields[i])
		if err != nil {
			return nil, err
		}
		qty, err := parseDecimal(fields[i+1])
		if err != nil {
			return nil, err
		}
		if price <= 0 {
			return nil, fmt.Errorf("non-positive price %v", price)
		}
		if qty < 0 {
			return nil, fmt.Errorf("negative quantity %v", qty)
		}
		if n := len(levels); n > 0 {
			prev := levels[n-1].Price
			if (bids && price > prev) || (!bids && price < prev) {
				return nil, fmt.Errorf("level %d out of order (%v after %v)", n, price, prev)
			}
		}
		levels = append(levels, Level{Price: price, Qty: qty})
	}
	return levels, nil
}

func parseDecimal(raw string) (float64, error) {
	raw = strings.Trim(strings.TrimSpace(raw), `"`)
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, err
	}
	f, _ := d.Float64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("value %q out of range", raw)
	}
	return f, nil
}

// FormatTick renders a tick in wire form.
func FormatTick(t Tick) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(t.Exchange))
	b.WriteByte(':')
	b.WriteString(strings.ToUpper(t.Symbol))
	b.WriteByte(':')
	writeLevels(&b, t.Bids)
	b.WriteByte('|')
	writeLevels(&b, t.Asks)
	b.WriteByte(':')
	b.WriteString(decimal.NewFromFloat(t.Funding).String())
	return b.String()
}

func writeLevels(b *strings.Builder, levels []Level) {
	for i, lvl := range levels {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(decimal.NewFromFloat(lvl.Price).String())
		b.WriteByte(',')
		b.WriteString(decimal.NewFromFloat(lvl.Qty).String())
	}
}
