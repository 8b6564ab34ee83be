package alerting

import (
	"fmt"

	"github.com/shopspring/decimal"

	"goldwatcher/internal/storage"
)

const (
	sellSubject = "卖出提醒"
	buySubject  = "买入提醒"
)

// NewTriggerMessage renders the alert mail for a fired rule.
func NewTriggerMessage(code string, direction storage.Direction, price decimal.Decimal) AlertMessage {
	subject := sellSubject
	if direction == storage.DirectionBuyAtOrBelow {
		subject = buySubject
	}

	return AlertMessage{
		Subject: subject,
		Body:    fmt.Sprintf("黄金:%s    当前价格%s", code, price.String()),
	}
}
