package enums

import (
	"fmt"
	"strings"
)

// OrderStatus tracks an order through the kitchen. Wire values are the
// labels the ordering frontends render directly.
type OrderStatus string

const (
	OrderStatusWaiting   OrderStatus = "대기중"
	OrderStatusPreparing OrderStatus = "준비중"
	OrderStatusCompleted OrderStatus = "완료"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusWaiting,
	OrderStatusPreparing,
	OrderStatusCompleted,
}

var orderStatusAliases = map[string]OrderStatus{
	"waiting":   OrderStatusWaiting,
	"preparing": OrderStatusPreparing,
	"completed": OrderStatusCompleted,
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is allowed.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted
}

// ParseOrderStatus accepts either the wire label or its English alias.
func ParseOrderStatus(value string) (OrderStatus, error) {
	trimmed := strings.TrimSpace(value)
	for _, candidate := range validOrderStatuses {
		if string(candidate) == trimmed {
			return candidate, nil
		}
	}
	if alias, ok := orderStatusAliases[strings.ToLower(trimmed)]; ok {
		return alias, nil
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
