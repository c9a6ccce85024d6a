package sim

import "math"

// TickReactor integrates the reactor variables over one fixed tick.
// Update order matters: later equations read freshly-updated earlier fields.
// Runs subsystem side effects, the critical-temperature timer, and the
// game-over check at the end of the pass.
func TickReactor(s *GameState) {
	r := &s.Reactor
	dt := TickDelta
	phaseFactor := 1 + float64(s.Phase)*0.15

	// Power output chases the inverse rod position (0 = max power).
	targetPower := 100 - r.ControlRodPosition
	r.PowerOutput += (targetPower - r.PowerOutput) * 0.1 * dt * 20
	r.PowerOutput = clamp(r.PowerOutput, 0, 100)

	// Temperature rises with power, falls with coolant throughput.
	heatGeneration := r.PowerOutput * 8 * phaseFactor
	coolantEfficiency := (r.CoolantLevel / 100) * (r.CoolantFlow / 100)
	heatRemoval := coolantEfficiency * 600
	const ambientCooling = 20.0

	r.Temperature += (heatGeneration - heatRemoval - ambientCooling) * dt
	r.Temperature = clamp(r.Temperature, 20, 1000)

	// Pressure correlates with temperature.
	targetPressure := (r.Temperature / 1000) * 100
	r.Pressure += (targetPressure - r.Pressure) * 0.3 * dt * 20
	r.Pressure = clamp(r.Pressure, 0, 100)

	// Coolant depletes slowly, faster when the core runs hot.
	coolantDepletion := (0.5 + (r.Temperature/1000)*2) * phaseFactor
	r.CoolantLevel -= coolantDepletion * dt
	r.CoolantLevel = clamp(r.CoolantLevel, 0, 100)

	// Radiation climbs when containment is low or the core is hot.
	containmentLeakage := math.Max(0, (50-r.Containment)/50)
	tempRadiation := math.Max(0, (r.Temperature-500)/500) * 30
	targetRadiation := containmentLeakage*60 + tempRadiation
	r.Radiation += (targetRadiation - r.Radiation) * 0.2 * dt * 20
	r.Radiation = clamp(r.Radiation, 0, 100)

	// Containment degrades under thermal/pressure stress and regenerates
	// only when the core is fully under control.
	if r.Temperature > 700 || r.Pressure > 70 {
		stressFactor := math.Max((r.Temperature-700)/300, (r.Pressure-70)/30)
		r.Containment -= stressFactor * 3 * phaseFactor * dt
	}
	if r.Temperature < 500 && r.Pressure < 50 {
		r.Containment += 0.5 * dt
	}
	r.Containment = clamp(r.Containment, 0, 100)

	// Shields wear down absorbing radiation.
	if r.Radiation > 20 {
		r.ShieldStrength -= ((r.Radiation - 20) / 80) * 2 * dt
	}
	if r.Radiation < 10 {
		r.ShieldStrength += 0.3 * dt
	}
	r.ShieldStrength = clamp(r.ShieldStrength, 0, 100)

	// Stability aggregates every stressor past its safe threshold.
	tempFactor := excess(r.Temperature, 700, 300)
	pressureFactor := excess(r.Pressure, 70, 30)
	containFactor := excess(50-r.Containment, 0, 50)
	radFactor := excess(r.Radiation, 50, 50)

	instability := (tempFactor + pressureFactor + containFactor + radFactor) * 5 * phaseFactor
	recovery := 0.0
	if r.Temperature < 500 && r.Pressure < 50 {
		recovery = 2
	}
	r.Stability += (recovery - instability) * dt
	r.Stability = clamp(r.Stability, 0, 100)

	updateSubsystemEffects(s)

	// Time spent at-or-above critical temperature accrues; it decays at
	// double rate once the core cools back down.
	if r.Temperature >= CriticalTemp {
		s.CriticalTempTimer += dt
	} else {
		s.CriticalTempTimer = math.Max(0, s.CriticalTempTimer-dt*2)
	}

	checkGameOver(s)
}

// excess returns how far v sits beyond threshold, normalized by span,
// or 0 when within bounds.
func excess(v, threshold, span float64) float64 {
	if v > threshold {
		return (v - threshold) / span
	}
	return 0
}

func updateSubsystemEffects(s *GameState) {
	r := &s.Reactor

	for _, sub := range s.Subsystems {
		if !sub.Operational {
			switch sub.ID {
			case "primary-coolant":
				r.CoolantFlow = math.Max(0, r.CoolantFlow-5*TickDelta)
			case "secondary-coolant":
				r.CoolantFlow = math.Max(0, r.CoolantFlow-3*TickDelta)
			case "turbine-generator":
				r.PowerOutput = math.Min(r.PowerOutput, 60)
			case "containment-field":
				r.Containment -= 2 * TickDelta
			case "shield-generator":
				r.ShieldStrength -= 3 * TickDelta
			}
		}

		if sub.OnFire {
			sub.Health -= 5 * TickDelta
			if sub.Health <= 0 {
				sub.Health = 0
				sub.Operational = false
			}
		}
	}
}

// checkGameOver evaluates terminal conditions in priority order. The first
// satisfied condition wins and the check never fires twice.
func checkGameOver(s *GameState) {
	if s.GameOver {
		return
	}

	r := &s.Reactor

	if s.GameTime >= GameDuration && s.Phase == PhaseFinalCountdown {
		s.GameOver = true
		s.Won = true
		s.GameOverReason = "Reactor stabilized! The Dyson sphere is saved!"
		return
	}

	if s.CriticalTempTimer >= CriticalTempHold {
		s.GameOver = true
		s.Won = false
		s.GameOverReason = "Core temperature exceeded critical threshold for too long - MELTDOWN!"
		return
	}

	if r.Containment <= 0 {
		s.GameOver = true
		s.Won = false
		s.GameOverReason = "Containment breach - catastrophic radiation release!"
		return
	}

	if r.Stability <= 0 {
		s.GameOver = true
		s.Won = false
		s.GameOverReason = "Reactor destabilized - cascade failure!"
	}
}
