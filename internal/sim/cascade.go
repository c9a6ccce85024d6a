package sim

import (
	"fmt"
	"math"
	"strings"
)

// cascadeEdge is a probabilistic causal link: when a `from` incident's
// consequence fires, a `to` incident may spawn after a delay.
type cascadeEdge struct {
	from        EventType
	to          EventType
	probability float64
	delay       float64 // seconds
}

// cascadeGraph is the fixed directed graph of cascade dependencies.
var cascadeGraph = []cascadeEdge{
	{EventTemperatureSpike, EventPressureSurge, 0.6, 5},
	{EventTemperatureSpike, EventFireBreakout, 0.3, 8},
	{EventPressureSurge, EventCoolantLeak, 0.5, 4},
	{EventCoolantLeak, EventTemperatureSpike, 0.7, 6},
	{EventSubsystemFailure, EventSensorMalfunction, 0.4, 3},
	{EventFireBreakout, EventSubsystemFailure, 0.5, 5},
	{EventRadiationLeak, EventShieldDegradation, 0.6, 4},
	{EventContainmentBreach, EventRadiationLeak, 0.8, 2},
	{EventPowerSurge, EventTemperatureSpike, 0.7, 3},
	{EventShieldDegradation, EventContainmentBreach, 0.4, 7},
}

// eventRoles maps each incident type to the station responsible for it.
var eventRoles = map[EventType]Role{
	EventTemperatureSpike:  RoleReactorOperator,
	EventPressureSurge:     RoleSafetyOfficer,
	EventCoolantLeak:       RoleEngineer,
	EventRadiationLeak:     RoleSafetyOfficer,
	EventSubsystemFailure:  RoleEngineer,
	EventSensorMalfunction: RoleTechnician,
	EventContainmentBreach: RoleSafetyOfficer,
	EventPowerSurge:        RoleReactorOperator,
	EventFireBreakout:      RoleEngineer,
	EventShieldDegradation: RoleSafetyOfficer,
}

var eventTitles = map[EventType]string{
	EventTemperatureSpike:  "Temperature Spike",
	EventPressureSurge:     "Pressure Surge",
	EventCoolantLeak:       "Coolant Leak",
	EventRadiationLeak:     "Radiation Leak",
	EventSubsystemFailure:  "Subsystem Failure",
	EventSensorMalfunction: "Sensor Malfunction",
	EventContainmentBreach: "Containment Breach",
	EventPowerSurge:        "Power Surge",
	EventFireBreakout:      "Fire Breakout",
	EventShieldDegradation: "Shield Degradation",
}

// eventActions maps each incident type to the command that resolves it.
var eventActions = map[EventType]ActionKind{
	EventTemperatureSpike:  ActionSetControlRods,
	EventPressureSurge:     ActionVentPressure,
	EventCoolantLeak:       ActionRepairSubsystem,
	EventRadiationLeak:     ActionSetShieldPower,
	EventSubsystemFailure:  ActionRepairSubsystem,
	EventSensorMalfunction: ActionCalibrateSensor,
	EventContainmentBreach: ActionAuthorizeProtocol,
	EventPowerSurge:        ActionSetControlRods,
	EventFireBreakout:      ActionToggleFireSuppression,
	EventShieldDegradation: ActionSetShieldPower,
}

var eventDescriptions = map[EventType]string{
	EventTemperatureSpike:  "Core temperature rising abnormally. Adjust control rods.",
	EventPressureSurge:     "Pressure building in primary loop. Vent immediately.",
	EventCoolantLeak:       "Coolant leak detected. Repair the affected loop.",
	EventRadiationLeak:     "Radiation levels spiking. Boost shields.",
	EventSubsystemFailure:  "A subsystem has failed. Dispatch repair.",
	EventSensorMalfunction: "Sensor readings unreliable. Recalibrate.",
	EventContainmentBreach: "Containment integrity compromised! Authorize emergency protocol.",
	EventPowerSurge:        "Power output surging. Reduce control rod position.",
	EventFireBreakout:      "Fire detected in a subsystem. Activate suppression.",
	EventShieldDegradation: "Shield generators losing power. Boost shield output.",
}

func eventDescription(t EventType, severity Severity) string {
	return fmt.Sprintf("[%s] %s", strings.ToUpper(string(severity)), eventDescriptions[t])
}

// EventEngine spawns and resolves incidents for one session. Each session
// owns its own instance so concurrent rooms cannot corrupt each other's
// incident ids or spawn timing.
type EventEngine struct {
	counter       int
	lastEventTime float64
	spawned       int
	consequences  int
}

// NewEventEngine creates an engine with fresh counters.
func NewEventEngine() *EventEngine {
	return &EventEngine{}
}

// Stats returns lifetime totals of incidents spawned and consequences
// applied by this engine.
func (en *EventEngine) Stats() (spawned, consequences int) {
	return en.spawned, en.consequences
}

// Tick spawns new incidents per the phase frequency, applies consequences
// for expired unresolved incidents, triggers cascades, and prunes old
// completed incidents.
func (en *EventEngine) Tick(s *GameState, rng *RNG) {
	dt := TickDelta
	difficulty := DifficultyFor(s.PlayerCount)

	eventsPerSecond := EventFrequency(s.Phase) / 60 * difficulty.EventMultiplier
	timeSinceLast := s.GameTime - en.lastEventTime
	minInterval := 3 / difficulty.EventMultiplier

	if timeSinceLast >= minInterval && rng.Chance(eventsPerSecond*dt) {
		if e := en.generateEvent(s, rng, difficulty.ResolutionTimeMultiplier); e != nil {
			s.ActiveEvents = append(s.ActiveEvents, e)
			s.TotalEventCount++
			en.spawned++
			en.lastEventTime = s.GameTime
		}
	}

	for _, e := range s.ActiveEvents {
		if e.Completed() {
			continue
		}
		if s.GameTime >= e.Deadline {
			en.applyConsequence(s, e, rng)
			e.ConsequenceApplied = true
			en.consequences++
		}
	}

	en.pruneCompleted(s)
}

// generateEvent rolls a fresh incident, or nil when the chosen type is
// already saturated (two unresolved of the same type).
func (en *EventEngine) generateEvent(s *GameState, rng *RNG, resolutionMultiplier float64) *GameEvent {
	t := Pick(rng, AllEventTypes)

	if countUnresolved(s, t) >= 2 {
		return nil
	}

	severity := pickSeverity(rng, SeverityWeights(s.Phase))
	deadline := severityDeadlines[severity] * resolutionMultiplier

	en.counter++
	return &GameEvent{
		ID:             fmt.Sprintf("evt-%d", en.counter),
		Type:           t,
		TargetRole:     eventRoles[t],
		Title:          eventTitles[t],
		Description:    eventDescription(t, severity),
		Severity:       severity,
		StartTime:      s.GameTime,
		Deadline:       s.GameTime + deadline,
		RequiredAction: string(eventActions[t]),
	}
}

// pickSeverity does a cumulative-probability scan over the phase weights,
// defaulting to medium on fallthrough.
func pickSeverity(rng *RNG, weights [4]float64) Severity {
	severities := [4]Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
	roll := rng.Next()
	cumulative := 0.0
	for i, w := range weights {
		cumulative += w
		if roll < cumulative {
			return severities[i]
		}
	}
	return SeverityMedium
}

// applyConsequence mutates state for an incident whose deadline elapsed
// unresolved, then consults the cascade graph for follow-up incidents.
func (en *EventEngine) applyConsequence(s *GameState, e *GameEvent, rng *RNG) {
	r := &s.Reactor
	mult := e.Severity.Multiplier()

	switch e.Type {
	case EventTemperatureSpike:
		r.Temperature += 50 * mult
	case EventPressureSurge:
		r.Pressure += 15 * mult
	case EventCoolantLeak:
		r.CoolantLevel -= 20 * mult
	case EventRadiationLeak:
		r.Radiation += 15 * mult
	case EventSubsystemFailure:
		var operational []*SubsystemStatus
		for _, sub := range s.Subsystems {
			if sub.Operational {
				operational = append(operational, sub)
			}
		}
		if len(operational) > 0 {
			sub := Pick(rng, operational)
			sub.Health -= 30 * mult
			if sub.Health <= 0 {
				sub.Health = 0
				sub.Operational = false
			}
		}
	case EventSensorMalfunction:
		// Readings go wonky client-side; no server state change.
	case EventContainmentBreach:
		r.Containment -= 15 * mult
	case EventPowerSurge:
		r.PowerOutput = math.Min(100, r.PowerOutput+20*mult)
		r.Temperature += 30 * mult
	case EventFireBreakout:
		var candidates []*SubsystemStatus
		for _, sub := range s.Subsystems {
			if !sub.OnFire && sub.Operational {
				candidates = append(candidates, sub)
			}
		}
		if len(candidates) > 0 {
			Pick(rng, candidates).OnFire = true
		}
	case EventShieldDegradation:
		r.ShieldStrength -= 20 * mult
	}

	for _, edge := range cascadeGraph {
		if edge.from != e.Type {
			continue
		}
		if rng.Chance(edge.probability * (mult / 2)) {
			if cascaded := en.generateCascadeEvent(s, edge.to, e.Severity, edge.delay); cascaded != nil {
				s.ActiveEvents = append(s.ActiveEvents, cascaded)
				s.TotalEventCount++
				en.spawned++
			}
		}
	}
}

// generateCascadeEvent spawns a follow-up incident delayed by the edge,
// one severity step down from a critical parent, capped at three concurrent
// unresolved incidents of the target type.
func (en *EventEngine) generateCascadeEvent(s *GameState, t EventType, parentSeverity Severity, delay float64) *GameEvent {
	if countUnresolved(s, t) >= 3 {
		return nil
	}

	severity := parentSeverity
	if severity == SeverityCritical {
		severity = SeverityHigh
	}

	en.counter++
	return &GameEvent{
		ID:             fmt.Sprintf("evt-%d", en.counter),
		Type:           t,
		TargetRole:     eventRoles[t],
		Title:          "[CASCADE] " + eventTitles[t],
		Description:    eventDescription(t, severity),
		Severity:       severity,
		StartTime:      s.GameTime + delay,
		Deadline:       s.GameTime + delay + severityDeadlines[severity],
		RequiredAction: string(eventActions[t]),
	}
}

// pruneCompleted keeps at most 10 completed incidents for display, dropping
// the oldest first. Unresolved incidents are never pruned.
func (en *EventEngine) pruneCompleted(s *GameState) {
	completed := 0
	for _, e := range s.ActiveEvents {
		if e.Completed() {
			completed++
		}
	}
	if completed <= 10 {
		return
	}

	toRemove := completed - 10
	kept := s.ActiveEvents[:0]
	for _, e := range s.ActiveEvents {
		if toRemove > 0 && e.Completed() {
			toRemove--
			continue
		}
		kept = append(kept, e)
	}
	s.ActiveEvents = kept
}

func countUnresolved(s *GameState, t EventType) int {
	n := 0
	for _, e := range s.ActiveEvents {
		if e.Type == t && !e.Completed() {
			n++
		}
	}
	return n
}
