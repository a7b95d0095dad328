package service

import (
	"strings"
	"time"

	"github.com/kedai-next/internal/constants"
)

var allowedTransitions = map[string]map[string]bool{
	constants.OrderStatusPending: {
		constants.OrderStatusPaid:      true,
		constants.OrderStatusCancelled: true,
	},
	constants.OrderStatusPaid: {
		constants.OrderStatusProcessed: true,
		constants.OrderStatusCancelled: true,
	},
	constants.OrderStatusProcessed: {
		constants.OrderStatusCompleted: true,
	},
}

// 各状态对应的生命周期时间列
var statusTimestampColumns = map[string]string{
	constants.OrderStatusPaid:      "paid_at",
	constants.OrderStatusProcessed: "processed_at",
	constants.OrderStatusCompleted: "completed_at",
	constants.OrderStatusCancelled: "canceled_at",
}

func normalizeOrderStatus(status string) string {
	return strings.ToLower(strings.TrimSpace(status))
}

// IsKnownOrderStatus 是否为合法状态值
func IsKnownOrderStatus(status string) bool {
	switch normalizeOrderStatus(status) {
	case constants.OrderStatusPending,
		constants.OrderStatusPaid,
		constants.OrderStatusProcessed,
		constants.OrderStatusCompleted,
		constants.OrderStatusCancelled:
		return true
	}
	return false
}

// IsTerminalOrderStatus 终态不再流转
func IsTerminalOrderStatus(status string) bool {
	_, ok := allowedTransitions[normalizeOrderStatus(status)]
	return IsKnownOrderStatus(status) && !ok
}

func isTransitionAllowed(current, target string) bool {
	nexts, ok := allowedTransitions[current]
	if !ok {
		return false
	}
	return nexts[target]
}

// NextOrderStatuses 当前状态可流转的目标状态，顺序固定
func NextOrderStatuses(current string) []string {
	order := []string{
		constants.OrderStatusPaid,
		constants.OrderStatusProcessed,
		constants.OrderStatusCompleted,
		constants.OrderStatusCancelled,
	}
	nexts := allowedTransitions[normalizeOrderStatus(current)]
	result := make([]string, 0, len(nexts))
	for _, status := range order {
		if nexts[status] {
			result = append(result, status)
		}
	}
	return result
}

func statusTransitionUpdates(target string, now time.Time) map[string]interface{} {
	updates := map[string]interface{}{}
	if column, ok := statusTimestampColumns[target]; ok {
		updates[column] = now
	}
	return updates
}
