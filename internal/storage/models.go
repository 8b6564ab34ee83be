package storage

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Direction selects which side of the threshold a rule watches.
type Direction int

const (
	// DirectionSellAtOrAbove fires once the price reaches or exceeds the
	// threshold (remind_type "0", 卖出提醒).
	DirectionSellAtOrAbove Direction = iota
	// DirectionBuyAtOrBelow fires once the price reaches or drops below the
	// threshold (remind_type "1", 买入提醒).
	DirectionBuyAtOrBelow
)

// String returns the human-readable direction label.
func (d Direction) String() string {
	switch d {
	case DirectionSellAtOrAbove:
		return "sell"
	case DirectionBuyAtOrBelow:
		return "buy"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// Column returns the persisted remind_type representation.
func (d Direction) Column() string {
	if d == DirectionBuyAtOrBelow {
		return "1"
	}
	return "0"
}

// ParseDirection maps the stored remind_type column onto a Direction.
func ParseDirection(remindType string) (Direction, error) {
	switch remindType {
	case "0":
		return DirectionSellAtOrAbove, nil
	case "1":
		return DirectionBuyAtOrBelow, nil
	default:
		return 0, fmt.Errorf("unknown remind_type %q", remindType)
	}
}

// WatchRule represents one operator-configured alert condition. Rules are
// created outside the daemon; the evaluator only ever flips Closed to true.
type WatchRule struct {
	ID          int64
	Code        string
	RemindPrice decimal.Decimal
	Direction   Direction
	Closed      bool
}
