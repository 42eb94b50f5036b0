package lobby

// Countdown durations per game mode, in seconds.
const (
	timeLimitQuick  = 60
	timeLimitNormal = 180
	timeLimitLong   = 300
)

// TimeLimitForMode maps a client-supplied mode to a countdown duration.
// Unrecognized modes keep the default.
func TimeLimitForMode(mode string) int {
	switch mode {
	case "quick":
		return timeLimitQuick
	case "normal":
		return timeLimitNormal
	case "long":
		return timeLimitLong
	default:
		return timeLimitNormal
	}
}
