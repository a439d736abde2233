package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrUnknownCommand = errors.New("unknown command")

type Kind string

const (
	KindOpen  Kind = "OPEN"
	KindClose Kind = "CLOSE"
)

// TradeCommand is an instruction for the execution side. ID is a local
// correlation id and is not part of the wire form.
type TradeCommand struct {
	ID     string
	Kind   Kind
	Symbol string
	Short  string
	Long   string
	Basis  float64
	Tier   string
}

// Encode renders the command in wire form:
//
//	CMD:OPEN|SYMBOL:<sym>|S:<short>|L:<long>|BASIS:<value>[|T:<tier>]
//	CMD:CLOSE|SYM:<sym>|S:<short>|L:<long>
func (c TradeCommand) Encode() string {
	switch c.Kind {
	case KindOpen:
		out := fmt.Sprintf("CMD:OPEN|SYMBOL:%s|S:%s|L:%s|BASIS:%s",
			c.Symbol, c.Short, c.Long, strconv.FormatFloat(c.Basis, 'f', -1, 64))
		if c.Tier != "" {
			out += "|T:" + c.Tier
		}
		return out
	case KindClose:
		return fmt.Sprintf("CMD:CLOSE|SYM:%s|S:%s|L:%s", c.Symbol, c.Short, c.Long)
	default:
		return ""
	}
}

func (c TradeCommand) String() string {
	return c.Encode()
}

// Parse decodes a wire command.
func Parse(raw string) (TradeCommand, error) {
	fields := strings.Split(strings.TrimSpace(raw), "|")
	values := make(map[string]string, len(fields))
	for _, field := range fields {
		key, val, ok := strings.Cut(field, ":")
		if !ok {
			return TradeCommand{}, fmt.Errorf("invalid field %q", field)
		}
		values[key] = val
	}
	cmd := TradeCommand{
		Short: values["S"],
		Long:  values["L"],
		Tier:  values["T"],
	}
	switch Kind(values["CMD"]) {
	case KindOpen:
		cmd.Kind = KindOpen
		cmd.Symbol = values["SYMBOL"]
		basis, err := strconv.ParseFloat(values["BASIS"], 64)
		if err != nil {
			return TradeCommand{}, fmt.Errorf("invalid basis: %w", err)
		}
		cmd.Basis = basis
	case KindClose:
		cmd.Kind = KindClose
		cmd.Symbol = values["SYM"]
	default:
		return TradeCommand{}, fmt.Errorf("%w: %q", ErrUnknownCommand, values["CMD"])
	}
	if cmd.Symbol == "" || cmd.Short == "" || cmd.Long == "" {
		return TradeCommand{}, errors.New("command missing symbol or legs")
	}
	return cmd, nil
}
