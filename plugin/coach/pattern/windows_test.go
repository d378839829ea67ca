package pattern

import (
	"testing"
)

func TestWorkoutWindow(t *testing.T) {
	tests := []struct {
		hour     int
		expected TimeWindow
	}{
		{4, WindowNight},
		{5, WindowEarlyMorning},
		{7, WindowEarlyMorning},
		{8, WindowMorning},
		{10, WindowMorning},
		{11, WindowMidday},
		{13, WindowMidday},
		{14, WindowAfternoon},
		{16, WindowAfternoon},
		{17, WindowEvening},
		{20, WindowEvening},
		{21, WindowNight},
		{23, WindowNight},
		{0, WindowNight},
	}

	for _, tt := range tests {
		if got := WorkoutWindow(tt.hour); got != tt.expected {
			t.Errorf("WorkoutWindow(%d) = %s, want %s", tt.hour, got, tt.expected)
		}
	}
}

func TestMealWindow(t *testing.T) {
	tests := []struct {
		hour     int
		expected TimeWindow
	}{
		{4, WindowNight},
		{5, WindowEarlyMorning},
		{6, WindowEarlyMorning},
		{7, WindowMorning},
		{9, WindowMorning},
		{10, WindowMidday},
		{12, WindowMidday},
		{13, WindowAfternoon},
		{15, WindowAfternoon},
		{16, WindowEvening},
		{19, WindowEvening},
		{20, WindowNight},
		{2, WindowNight},
	}

	for _, tt := range tests {
		if got := MealWindow(tt.hour); got != tt.expected {
			t.Errorf("MealWindow(%d) = %s, want %s", tt.hour, got, tt.expected)
		}
	}
}

func TestTopWindowTieResolvesInDayOrder(t *testing.T) {
	p := &Profile{
		WorkoutWindowScores: map[TimeWindow]float64{
			WindowEvening: 0.5,
			WindowMorning: 0.5,
		},
	}
	w, score := p.TopWorkoutWindow()
	if w != WindowMorning {
		t.Errorf("expected morning to win the tie, got %s", w)
	}
	if score != 0.5 {
		t.Errorf("expected score 0.5, got %f", score)
	}
}

func TestTopWindowEmpty(t *testing.T) {
	p := EmptyProfile()
	if w, score := p.TopWorkoutWindow(); w != "" || score != 0 {
		t.Errorf("expected empty result, got %s/%f", w, score)
	}
}
