package sim

import (
	"fmt"
	"math"
)

// ActionKind tags a crew command. The set is closed; validation and
// application are total over it.
type ActionKind string

const (
	ActionSetControlRods        ActionKind = "set-control-rods"
	ActionSetPower              ActionKind = "set-power"
	ActionScram                 ActionKind = "scram"
	ActionRepairSubsystem       ActionKind = "repair-subsystem"
	ActionToggleFireSuppression ActionKind = "toggle-fire-suppression"
	ActionRefillCoolant         ActionKind = "refill-coolant"
	ActionSetCoolantFlow        ActionKind = "set-coolant-flow"
	ActionCalibrateSensor       ActionKind = "calibrate-sensor"
	ActionRunDiagnostic         ActionKind = "run-diagnostic"
	ActionSetShieldPower        ActionKind = "set-shield-power"
	ActionVentPressure          ActionKind = "vent-pressure"
	ActionEmergencyCoolant      ActionKind = "emergency-coolant"
	ActionAuthorizeProtocol     ActionKind = "authorize-protocol"
	ActionResolveEvent          ActionKind = "resolve-event"
)

// Action is a crew command. Only the fields relevant to Kind are read.
type Action struct {
	Kind        ActionKind `json:"kind"`
	Position    float64    `json:"position,omitempty"`
	Level       float64    `json:"level,omitempty"`
	SubsystemID string     `json:"subsystemId,omitempty"`
	SensorID    string     `json:"sensorId,omitempty"`
	ProtocolID  string     `json:"protocolId,omitempty"`
	EventID     string     `json:"eventId,omitempty"`
}

// actionPermissions maps each command to the stations allowed to issue it.
var actionPermissions = map[ActionKind][]Role{
	ActionSetControlRods:        {RoleReactorOperator},
	ActionSetPower:              {RoleReactorOperator},
	ActionScram:                 {RoleReactorOperator, RoleSafetyOfficer},
	ActionRepairSubsystem:       {RoleEngineer},
	ActionToggleFireSuppression: {RoleEngineer},
	ActionRefillCoolant:         {RoleEngineer},
	ActionSetCoolantFlow:        {RoleEngineer},
	ActionCalibrateSensor:       {RoleTechnician},
	ActionRunDiagnostic:         {RoleTechnician},
	ActionSetShieldPower:        {RoleSafetyOfficer},
	ActionVentPressure:          {RoleSafetyOfficer},
	ActionEmergencyCoolant:      {RoleSafetyOfficer},
	ActionAuthorizeProtocol:     {RoleSafetyOfficer},
	ActionResolveEvent:          {RoleReactorOperator, RoleEngineer, RoleTechnician, RoleSafetyOfficer},
}

// ValidateAction checks permission and per-kind preconditions. A nil return
// means the action may be applied; otherwise the error carries the
// human-readable rejection reason sent back to the player. Unknown kinds are
// rejected, never fatal.
func ValidateAction(a Action, playerRoles []Role, s *GameState) error {
	allowed, known := actionPermissions[a.Kind]
	if !known {
		return fmt.Errorf("Unknown action: %s", a.Kind)
	}

	if !hasAnyRole(playerRoles, allowed) {
		return fmt.Errorf("None of your roles can perform %s", a.Kind)
	}

	switch a.Kind {
	case ActionSetControlRods:
		if a.Position < 0 || a.Position > 100 {
			return fmt.Errorf("Control rod position must be 0-100")
		}
	case ActionSetPower:
		if a.Level < 0 || a.Level > 100 {
			return fmt.Errorf("Power level must be 0-100")
		}
	case ActionSetShieldPower:
		if a.Level < 0 || a.Level > 100 {
			return fmt.Errorf("Shield power must be 0-100")
		}
	case ActionSetCoolantFlow:
		if a.Level < 0 || a.Level > 100 {
			return fmt.Errorf("Coolant flow must be 0-100")
		}
	case ActionRepairSubsystem, ActionToggleFireSuppression:
		if s.Subsystem(a.SubsystemID) == nil {
			return fmt.Errorf("Unknown subsystem")
		}
	case ActionResolveEvent:
		e := s.Event(a.EventID)
		if e == nil {
			return fmt.Errorf("Unknown event")
		}
		if e.Resolved {
			return fmt.Errorf("Event already resolved")
		}
		if e.ConsequenceApplied {
			return fmt.Errorf("Event already ran its course")
		}
		if !hasRole(playerRoles, e.TargetRole) {
			return fmt.Errorf("This event requires a different role")
		}
	}

	return nil
}

// ApplyAction performs the deterministic state mutation for a validated
// command. Values land wherever the player set them; the next physics tick
// re-clamps everything.
func ApplyAction(a Action, s *GameState) {
	r := &s.Reactor

	switch a.Kind {
	case ActionSetControlRods:
		r.ControlRodPosition = a.Position
	case ActionSetPower:
		// Power is steered through the rods, inversely.
		r.ControlRodPosition = 100 - a.Level
	case ActionScram:
		// Emergency shutdown: slam all rods in.
		r.ControlRodPosition = 100
	case ActionRepairSubsystem:
		if sub := s.Subsystem(a.SubsystemID); sub != nil {
			sub.Health = math.Min(100, sub.Health+30)
			sub.OnFire = false
			if sub.Health > 0 {
				sub.Operational = true
			}
		}
	case ActionToggleFireSuppression:
		if sub := s.Subsystem(a.SubsystemID); sub != nil {
			sub.OnFire = false
		}
	case ActionRefillCoolant:
		r.CoolantLevel = math.Min(100, r.CoolantLevel+25)
	case ActionSetCoolantFlow:
		r.CoolantFlow = a.Level
	case ActionCalibrateSensor, ActionRunDiagnostic:
		// Client-rendered effects only; accepted as no-ops here.
	case ActionSetShieldPower:
		r.ShieldStrength = math.Min(100, a.Level)
	case ActionVentPressure:
		r.Pressure = math.Max(0, r.Pressure-15)
		r.Containment = math.Max(0, r.Containment-2)
	case ActionEmergencyCoolant:
		r.CoolantLevel = 100
		r.Temperature = math.Max(200, r.Temperature-200)
	case ActionAuthorizeProtocol:
		r.Containment = math.Min(100, r.Containment+20)
	case ActionResolveEvent:
		if e := s.Event(a.EventID); e != nil && !e.Completed() {
			e.Resolved = true
			s.ResolvedEventCount++
		}
	}
}

func hasRole(roles []Role, want Role) bool {
	for _, r := range roles {
		if r == want {
			return true
		}
	}
	return false
}

func hasAnyRole(roles, allowed []Role) bool {
	for _, r := range roles {
		if hasRole(allowed, r) {
			return true
		}
	}
	return false
}
