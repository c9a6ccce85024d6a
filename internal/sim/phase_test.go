package sim

import (
	"math"
	"testing"
)

func TestPhaseThresholds(t *testing.T) {
	cases := []struct {
		time float64
		want GamePhase
	}{
		{0, PhaseStableOperations},
		{119.95, PhaseStableOperations},
		{120, PhaseAnomaliesDetected},
		{239.95, PhaseAnomaliesDetected},
		{240, PhaseCascadeWarning},
		{389.95, PhaseCascadeWarning},
		{390, PhaseCriticalMeltdown},
		{540, PhaseFinalCountdown},
		{600, PhaseFinalCountdown},
	}

	for _, c := range cases {
		s := NewGameState("test", 4)
		s.GameTime = c.time
		UpdatePhase(s)
		if s.Phase != c.want {
			t.Errorf("Expected phase %s at t=%v, got %s", PhaseNames[c.want], c.time, PhaseNames[s.Phase])
		}
	}
}

func TestUpdatePhaseReportsChange(t *testing.T) {
	s := NewGameState("test", 4)

	s.GameTime = 60
	if UpdatePhase(s) {
		t.Error("Expected no phase change at t=60")
	}

	s.GameTime = 120
	if !UpdatePhase(s) {
		t.Error("Expected phase change at t=120")
	}
	if UpdatePhase(s) {
		t.Error("Expected no repeat change at same time")
	}
}

func TestSeverityWeightsSumToOne(t *testing.T) {
	phases := []GamePhase{
		PhaseStableOperations, PhaseAnomaliesDetected, PhaseCascadeWarning,
		PhaseCriticalMeltdown, PhaseFinalCountdown,
	}
	for _, p := range phases {
		w := SeverityWeights(p)
		sum := w[0] + w[1] + w[2] + w[3]
		if math.Abs(sum-1) > 1e-9 {
			t.Errorf("Expected weights for %s to sum to 1, got %v", PhaseNames[p], sum)
		}
	}
}

func TestEventFrequencyPerPhase(t *testing.T) {
	cases := map[GamePhase]float64{
		PhaseStableOperations:  0.5,
		PhaseAnomaliesDetected: 1.5,
		PhaseCascadeWarning:    3,
		PhaseCriticalMeltdown:  5,
		PhaseFinalCountdown:    4,
	}
	for phase, want := range cases {
		if got := EventFrequency(phase); got != want {
			t.Errorf("Expected frequency %v for %s, got %v", want, PhaseNames[phase], got)
		}
	}
}

func TestPhaseProgress(t *testing.T) {
	s := NewGameState("test", 4)
	s.GameTime = 60
	if got := PhaseProgress(s); got != 0.5 {
		t.Errorf("Expected progress 0.5 midway through phase 1, got %v", got)
	}

	s.GameTime = 570
	s.Phase = PhaseFinalCountdown
	if got := PhaseProgress(s); got != 0.5 {
		t.Errorf("Expected progress 0.5 midway through final countdown, got %v", got)
	}

	s.GameTime = 700
	if got := PhaseProgress(s); got != 1 {
		t.Errorf("Expected progress capped at 1, got %v", got)
	}
}
