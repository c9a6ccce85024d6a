package sim

// UpdatePhase advances the difficulty phase from elapsed game time and
// reports whether the phase changed. Phases never move backwards because
// game time never does.
func UpdatePhase(s *GameState) bool {
	previous := s.Phase

	switch {
	case s.GameTime >= PhaseTimes[PhaseFinalCountdown]:
		s.Phase = PhaseFinalCountdown
	case s.GameTime >= PhaseTimes[PhaseCriticalMeltdown]:
		s.Phase = PhaseCriticalMeltdown
	case s.GameTime >= PhaseTimes[PhaseCascadeWarning]:
		s.Phase = PhaseCascadeWarning
	case s.GameTime >= PhaseTimes[PhaseAnomaliesDetected]:
		s.Phase = PhaseAnomaliesDetected
	default:
		s.Phase = PhaseStableOperations
	}

	return s.Phase != previous
}

// PhaseProgress returns fractional progress (0-1) within the current phase.
func PhaseProgress(s *GameState) float64 {
	start := PhaseTimes[s.Phase]
	end := GameDuration
	if s.Phase < PhaseFinalCountdown {
		end = PhaseTimes[s.Phase+1]
	}

	progress := (s.GameTime - start) / (end - start)
	if progress > 1 {
		return 1
	}
	return progress
}

// EventFrequency returns the base incident rate for a phase, in events per
// minute. The final countdown spawns slightly fewer but far nastier events.
func EventFrequency(phase GamePhase) float64 {
	switch phase {
	case PhaseStableOperations:
		return 0.5
	case PhaseAnomaliesDetected:
		return 1.5
	case PhaseCascadeWarning:
		return 3
	case PhaseCriticalMeltdown:
		return 5
	default:
		return 4
	}
}

// SeverityWeights returns the severity distribution for a phase as
// probabilities for [low, medium, high, critical], summing to 1.
func SeverityWeights(phase GamePhase) [4]float64 {
	switch phase {
	case PhaseStableOperations:
		return [4]float64{0.7, 0.3, 0, 0}
	case PhaseAnomaliesDetected:
		return [4]float64{0.3, 0.5, 0.2, 0}
	case PhaseCascadeWarning:
		return [4]float64{0.1, 0.3, 0.4, 0.2}
	case PhaseCriticalMeltdown:
		return [4]float64{0, 0.2, 0.4, 0.4}
	default:
		return [4]float64{0, 0.1, 0.3, 0.6}
	}
}
