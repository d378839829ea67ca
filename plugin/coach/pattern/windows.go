// Package pattern builds rolling behavioral profiles and short trend
// snapshots from historical logs.
package pattern

// TimeWindow is one of six named parts of the day.
type TimeWindow string

const (
	WindowEarlyMorning TimeWindow = "early_morning"
	WindowMorning      TimeWindow = "morning"
	WindowMidday       TimeWindow = "midday"
	WindowAfternoon    TimeWindow = "afternoon"
	WindowEvening      TimeWindow = "evening"
	WindowNight        TimeWindow = "night"
)

// AllWindows lists the windows in day order.
var AllWindows = []TimeWindow{
	WindowEarlyMorning,
	WindowMorning,
	WindowMidday,
	WindowAfternoon,
	WindowEvening,
	WindowNight,
}

// WorkoutWindow buckets an hour for workout timing. Boundaries differ
// from meals because typical training times skew later.
func WorkoutWindow(hour int) TimeWindow {
	switch {
	case hour >= 5 && hour < 8:
		return WindowEarlyMorning
	case hour >= 8 && hour < 11:
		return WindowMorning
	case hour >= 11 && hour < 14:
		return WindowMidday
	case hour >= 14 && hour < 17:
		return WindowAfternoon
	case hour >= 17 && hour < 21:
		return WindowEvening
	default:
		return WindowNight
	}
}

// MealWindow buckets an hour for meal timing.
func MealWindow(hour int) TimeWindow {
	switch {
	case hour >= 5 && hour < 7:
		return WindowEarlyMorning
	case hour >= 7 && hour < 10:
		return WindowMorning
	case hour >= 10 && hour < 13:
		return WindowMidday
	case hour >= 13 && hour < 16:
		return WindowAfternoon
	case hour >= 16 && hour < 20:
		return WindowEvening
	default:
		return WindowNight
	}
}
