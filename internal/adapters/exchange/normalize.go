package exchange

import (
	"strconv"
	"strings"

	"tradeHive/internal/domain"
)

// formatFloat renders a float the way exchange REST APIs expect: plain
// decimal notation without an exponent and without trailing zeros.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// capitalize upper-cases the first letter (buy -> Buy).
func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// normalizeOrderStatus maps exchange-specific order states onto the uniform
// domain set. Unknown states fall through to OrderNew so callers never see an
// empty status.
func normalizeOrderStatus(status string) domain.OrderStatus {
	switch strings.ToLower(status) {
	case "filled", "closed":
		return domain.OrderFilled
	case "partially_filled", "partiallyfilled", "partial":
		return domain.OrderPartiallyFilled
	case "canceled", "cancelled", "mmp_canceled":
		return domain.OrderCanceled
	case "rejected", "expired", "expired_in_match":
		return domain.OrderRejected
	default:
		return domain.OrderNew
	}
}
