package room

// Direction tokens accepted on move events.
const (
	DirectionUp    = "up"
	DirectionDown  = "down"
	DirectionLeft  = "left"
	DirectionRight = "right"
)

// parseDirection maps a direction token to an axis and a signed step. The Y
// axis grows downward, matching screen coordinates.
func parseDirection(direction string, step int) (Axis, int, bool) {
	switch direction {
	case DirectionUp:
		return AxisY, -step, true
	case DirectionDown:
		return AxisY, step, true
	case DirectionLeft:
		return AxisX, -step, true
	case DirectionRight:
		return AxisX, step, true
	default:
		return AxisX, 0, false
	}
}

// truncateRunes bounds user-supplied text without splitting a rune.
func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
