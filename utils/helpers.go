package utils

func IsValidTimeframe(timeframe string) bool {
	switch timeframe {
	case "week", "month", "year":
		return true
	default:
		return false
	}
}
