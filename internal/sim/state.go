// Package sim contains the authoritative reactor simulation: physics,
// difficulty phases, the cascading incident engine, and command
// validation/application. Everything here is deterministic given a seed;
// the session loop in internal/game drives it at a fixed tick rate.
package sim

import "time"

// Simulation timing constants.
const (
	TickRate         = 20                            // Hz
	TickInterval     = time.Second / TickRate        // 50ms
	TickDelta        = 1.0 / float64(TickRate)       // seconds per tick
	KeyframeInterval = 60                            // full keyframe every 3s at 20Hz
	GameDuration     = 600.0                         // seconds
	CriticalTemp     = 900.0                         // meltdown threshold
	CriticalTempHold = 10.0                          // seconds at critical temp before meltdown
	MaxPlayers       = 6
	MinPlayers       = 2
)

// Role identifies one of the four crew stations.
type Role string

const (
	RoleReactorOperator Role = "reactor-operator"
	RoleEngineer        Role = "engineer"
	RoleTechnician      Role = "technician"
	RoleSafetyOfficer   Role = "safety-officer"
)

// AllRoles lists every station in assignment order.
var AllRoles = []Role{RoleReactorOperator, RoleEngineer, RoleTechnician, RoleSafetyOfficer}

// RoleLabels maps roles to display names.
var RoleLabels = map[Role]string{
	RoleReactorOperator: "Reactor Operator",
	RoleEngineer:        "Engineer",
	RoleTechnician:      "Technician",
	RoleSafetyOfficer:   "Safety Officer",
}

// RoleCombinations defines which stations each player covers when fewer
// than four players share the reactor.
var RoleCombinations = map[int][][]Role{
	2: {
		{RoleReactorOperator, RoleEngineer},
		{RoleTechnician, RoleSafetyOfficer},
	},
	3: {
		{RoleReactorOperator},
		{RoleEngineer, RoleTechnician},
		{RoleSafetyOfficer},
	},
	4: {
		{RoleReactorOperator},
		{RoleEngineer},
		{RoleTechnician},
		{RoleSafetyOfficer},
	},
}

// GamePhase is a time-gated difficulty tier. Phases only ever advance.
type GamePhase int

const (
	PhaseStableOperations GamePhase = iota
	PhaseAnomaliesDetected
	PhaseCascadeWarning
	PhaseCriticalMeltdown
	PhaseFinalCountdown
)

// PhaseNames maps phases to display names.
var PhaseNames = map[GamePhase]string{
	PhaseStableOperations:  "Stable Operations",
	PhaseAnomaliesDetected: "Anomalies Detected",
	PhaseCascadeWarning:    "Cascade Warning",
	PhaseCriticalMeltdown:  "Critical Meltdown",
	PhaseFinalCountdown:    "Final Countdown",
}

// PhaseTimes holds the game-time (seconds) at which each phase begins.
var PhaseTimes = [...]float64{
	PhaseStableOperations:  0,
	PhaseAnomaliesDetected: 120,
	PhaseCascadeWarning:    240,
	PhaseCriticalMeltdown:  390,
	PhaseFinalCountdown:    540,
}

// Severity grades an incident.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// severityDeadlines holds the base resolution window in seconds.
var severityDeadlines = map[Severity]float64{
	SeverityLow:      30,
	SeverityMedium:   20,
	SeverityHigh:     12,
	SeverityCritical: 8,
}

// Multiplier scales an incident's consequence by its severity.
func (s Severity) Multiplier() float64 {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 1.5
	default:
		return 1
	}
}

// EventType categorizes an incident.
type EventType string

const (
	EventTemperatureSpike  EventType = "temperature-spike"
	EventPressureSurge     EventType = "pressure-surge"
	EventCoolantLeak       EventType = "coolant-leak"
	EventRadiationLeak     EventType = "radiation-leak"
	EventSubsystemFailure  EventType = "subsystem-failure"
	EventSensorMalfunction EventType = "sensor-malfunction"
	EventContainmentBreach EventType = "containment-breach"
	EventPowerSurge        EventType = "power-surge"
	EventFireBreakout      EventType = "fire-breakout"
	EventShieldDegradation EventType = "shield-degradation"
)

// AllEventTypes lists the closed set of incident categories.
var AllEventTypes = []EventType{
	EventTemperatureSpike,
	EventPressureSurge,
	EventCoolantLeak,
	EventRadiationLeak,
	EventSubsystemFailure,
	EventSensorMalfunction,
	EventContainmentBreach,
	EventPowerSurge,
	EventFireBreakout,
	EventShieldDegradation,
}

// Difficulty scales incident pressure with crew size.
type Difficulty struct {
	EventMultiplier          float64 `yaml:"event_multiplier"`
	ResolutionTimeMultiplier float64 `yaml:"resolution_time_multiplier"`
}

// DifficultyScale maps player count to difficulty. Entries may be overridden
// at startup from the balance file; sessions read it only through
// DifficultyFor once they are running.
var DifficultyScale = map[int]Difficulty{
	2: {EventMultiplier: 0.6, ResolutionTimeMultiplier: 1.5},
	3: {EventMultiplier: 0.8, ResolutionTimeMultiplier: 1.25},
	4: {EventMultiplier: 1.0, ResolutionTimeMultiplier: 1.0},
	5: {EventMultiplier: 1.15, ResolutionTimeMultiplier: 0.9},
	6: {EventMultiplier: 1.3, ResolutionTimeMultiplier: 0.8},
}

// DifficultyFor returns the difficulty for a crew size, defaulting to the
// 4-player baseline for out-of-range counts.
func DifficultyFor(playerCount int) Difficulty {
	if d, ok := DifficultyScale[playerCount]; ok {
		return d
	}
	return DifficultyScale[4]
}

// ReactorState holds the ten continuous reactor variables. Every field is
// clamped back into its documented range after every mutation.
type ReactorState struct {
	Temperature        float64 `json:"temperature"`        // 20-1000, critical at 900
	Pressure           float64 `json:"pressure"`           // 0-100
	PowerOutput        float64 `json:"powerOutput"`        // 0-100
	CoolantLevel       float64 `json:"coolantLevel"`       // 0-100
	CoolantFlow        float64 `json:"coolantFlow"`        // 0-100
	Radiation          float64 `json:"radiation"`          // 0-100
	Containment        float64 `json:"containment"`        // 0-100, breach at 0
	Stability          float64 `json:"stability"`          // 0-100, lose at 0
	ControlRodPosition float64 `json:"controlRodPosition"` // 0-100, 100 = fully inserted
	ShieldStrength     float64 `json:"shieldStrength"`     // 0-100
}

// SubsystemStatus tracks one piece of reactor hardware.
type SubsystemStatus struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Health       float64 `json:"health"` // 0-100
	Operational  bool    `json:"operational"`
	OnFire       bool    `json:"onFire"`
	AssignedRole Role    `json:"assignedRole"`
}

// GameEvent is a time-boxed incident requiring a crew action. Exactly one of
// Resolved or ConsequenceApplied ever becomes true; after that the incident
// is inert and is only retained briefly for display.
type GameEvent struct {
	ID                 string    `json:"id"`
	Type               EventType `json:"type"`
	TargetRole         Role      `json:"targetRole"`
	Title              string    `json:"title"`
	Description        string    `json:"description"`
	Severity           Severity  `json:"severity"`
	StartTime          float64   `json:"startTime"`
	Deadline           float64   `json:"deadline"`
	Resolved           bool      `json:"resolved"`
	ConsequenceApplied bool      `json:"consequenceApplied"`
	RequiredAction     string    `json:"requiredAction"`
}

// Completed reports whether the incident reached either terminal flag.
func (e *GameEvent) Completed() bool {
	return e.Resolved || e.ConsequenceApplied
}

// GameState is the full authoritative state of one session. It is owned by
// exactly one session loop and never shared across sessions.
type GameState struct {
	SessionID          string            `json:"sessionId"`
	Phase              GamePhase         `json:"phase"`
	GameTime           float64           `json:"gameTime"`
	TickCount          int64             `json:"tickCount"`
	Reactor            ReactorState      `json:"reactor"`
	Subsystems         []*SubsystemStatus `json:"subsystems"`
	ActiveEvents       []*GameEvent      `json:"activeEvents"`
	ResolvedEventCount int               `json:"resolvedEventCount"`
	TotalEventCount    int               `json:"totalEventCount"`
	PlayerCount        int               `json:"playerCount"`
	GameOver           bool              `json:"gameOver"`
	Won                bool              `json:"won"`
	GameOverReason     string            `json:"gameOverReason,omitempty"`
	CriticalTempTimer  float64           `json:"criticalTempTimer"`
}

// NewReactorState returns the stable startup operating point.
func NewReactorState() ReactorState {
	return ReactorState{
		Temperature:        350,
		Pressure:           40,
		PowerOutput:        50,
		CoolantLevel:       100,
		CoolantFlow:        60,
		Radiation:          5,
		Containment:        100,
		Stability:          100,
		ControlRodPosition: 50,
		ShieldStrength:     100,
	}
}

// NewGameState builds the initial state for a session.
func NewGameState(sessionID string, playerCount int) *GameState {
	return &GameState{
		SessionID:    sessionID,
		Phase:        PhaseStableOperations,
		Reactor:      NewReactorState(),
		Subsystems:   defaultSubsystems(),
		ActiveEvents: make([]*GameEvent, 0),
		PlayerCount:  playerCount,
	}
}

func defaultSubsystems() []*SubsystemStatus {
	return []*SubsystemStatus{
		{ID: "primary-coolant", Name: "Primary Coolant Loop", Health: 100, Operational: true, AssignedRole: RoleEngineer},
		{ID: "secondary-coolant", Name: "Secondary Coolant Loop", Health: 100, Operational: true, AssignedRole: RoleEngineer},
		{ID: "turbine-generator", Name: "Turbine Generator", Health: 100, Operational: true, AssignedRole: RoleEngineer},
		{ID: "control-system", Name: "Control System", Health: 100, Operational: true, AssignedRole: RoleReactorOperator},
		{ID: "sensor-array", Name: "Sensor Array", Health: 100, Operational: true, AssignedRole: RoleTechnician},
		{ID: "containment-field", Name: "Containment Field", Health: 100, Operational: true, AssignedRole: RoleSafetyOfficer},
		{ID: "shield-generator", Name: "Shield Generator", Health: 100, Operational: true, AssignedRole: RoleSafetyOfficer},
		{ID: "ventilation", Name: "Ventilation System", Health: 100, Operational: true, AssignedRole: RoleEngineer},
	}
}

// Subsystem looks up a subsystem by id, or nil.
func (s *GameState) Subsystem(id string) *SubsystemStatus {
	for _, sub := range s.Subsystems {
		if sub.ID == id {
			return sub
		}
	}
	return nil
}

// Event looks up an active incident by id, or nil.
func (s *GameState) Event(id string) *GameEvent {
	for _, e := range s.ActiveEvents {
		if e.ID == id {
			return e
		}
	}
	return nil
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
