// Package main - balance-sim
// Headless deterministic runner: plays out a full session with no crew
// input and reports phase transitions, incident pressure, and the outcome.
// Used to probe balance changes without standing up a server.
package main

import (
	"flag"
	"fmt"

	"github.com/meltdownclowns/server/internal/sim"
)

func main() {
	seed := flag.Uint("seed", 1, "RNG seed (32-bit)")
	players := flag.Int("players", 4, "simulated crew size (2-6)")
	rods := flag.Float64("rods", 50, "fixed control rod position (0-100)")
	maxSeconds := flag.Float64("max-seconds", sim.GameDuration+60, "hard stop for the run")
	verbose := flag.Bool("v", false, "log every incident")
	flag.Parse()

	state := sim.NewGameState("balance-sim", *players)
	state.Reactor.ControlRodPosition = *rods
	rng := sim.NewRNG(uint32(*seed))
	engine := sim.NewEventEngine()

	seen := make(map[string]bool)
	maxTicks := int64(*maxSeconds / sim.TickDelta)

	for tick := int64(0); tick < maxTicks && !state.GameOver; tick++ {
		state.GameTime += sim.TickDelta
		state.TickCount++

		if sim.UpdatePhase(state) {
			fmt.Printf("t=%6.1fs  phase -> %s\n", state.GameTime, sim.PhaseNames[state.Phase])
		}

		sim.TickReactor(state)
		engine.Tick(state, rng)

		if *verbose {
			for _, e := range state.ActiveEvents {
				if !seen[e.ID] {
					seen[e.ID] = true
					fmt.Printf("t=%6.1fs  [%s] %s (deadline t=%.1fs, role %s)\n",
						state.GameTime, e.Severity, e.Title, e.Deadline, e.TargetRole)
				}
			}
		}
	}

	spawned, consequences := engine.Stats()
	r := state.Reactor

	fmt.Println()
	fmt.Printf("seed=%d players=%d rods=%.0f\n", *seed, *players, *rods)
	fmt.Printf("outcome: gameOver=%t won=%t reason=%q\n", state.GameOver, state.Won, state.GameOverReason)
	fmt.Printf("survived: %.1fs (%d ticks), final phase %s\n", state.GameTime, state.TickCount, sim.PhaseNames[state.Phase])
	fmt.Printf("incidents: %d spawned, %d consequences, %d resolved\n", spawned, consequences, state.ResolvedEventCount)
	fmt.Printf("reactor: temp=%.1f pressure=%.1f power=%.1f coolant=%.1f/%.1f rad=%.1f contain=%.1f stab=%.1f shield=%.1f\n",
		r.Temperature, r.Pressure, r.PowerOutput, r.CoolantLevel, r.CoolantFlow,
		r.Radiation, r.Containment, r.Stability, r.ShieldStrength)
}
