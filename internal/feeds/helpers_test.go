package feeds

import (
	"math"
	"time"

	"go.uber.org/zap"
)

func closeEnough(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func testOptions(restURL string) Options {
	return Options{
		RESTURL:        restURL,
		Symbols:        []string{"BTC", "ETH"},
		ReconnectDelay: 10 * time.Millisecond,
		RESTTimeout:    time.Second,
	}
}

var nopLog = zap.NewNop()
