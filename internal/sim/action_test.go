package sim

import (
	"strings"
	"testing"
)

func TestActionPermissions(t *testing.T) {
	s := NewGameState("test", 4)

	cases := []struct {
		action  Action
		roles   []Role
		allowed bool
	}{
		{Action{Kind: ActionSetControlRods, Position: 50}, []Role{RoleReactorOperator}, true},
		{Action{Kind: ActionSetControlRods, Position: 50}, []Role{RoleEngineer}, false},
		{Action{Kind: ActionScram}, []Role{RoleSafetyOfficer}, true},
		{Action{Kind: ActionScram}, []Role{RoleTechnician}, false},
		{Action{Kind: ActionRefillCoolant}, []Role{RoleEngineer}, true},
		{Action{Kind: ActionVentPressure}, []Role{RoleSafetyOfficer}, true},
		{Action{Kind: ActionVentPressure}, []Role{RoleEngineer}, false},
		{Action{Kind: ActionCalibrateSensor}, []Role{RoleTechnician}, true},
		// Combined stations from small crews keep both permission sets.
		{Action{Kind: ActionSetControlRods, Position: 50}, []Role{RoleReactorOperator, RoleEngineer}, true},
		{Action{Kind: ActionRefillCoolant}, []Role{RoleReactorOperator, RoleEngineer}, true},
	}

	for _, c := range cases {
		err := ValidateAction(c.action, c.roles, s)
		if c.allowed && err != nil {
			t.Errorf("Expected %s to be allowed for %v, got %v", c.action.Kind, c.roles, err)
		}
		if !c.allowed && err == nil {
			t.Errorf("Expected %s to be rejected for %v", c.action.Kind, c.roles)
		}
	}
}

func TestUnknownActionRejected(t *testing.T) {
	s := NewGameState("test", 4)
	err := ValidateAction(Action{Kind: "self-destruct"}, AllRoles, s)
	if err == nil || !strings.Contains(err.Error(), "Unknown action") {
		t.Errorf("Expected unknown action rejection, got %v", err)
	}
}

func TestRangeValidation(t *testing.T) {
	s := NewGameState("test", 4)

	if err := ValidateAction(Action{Kind: ActionSetControlRods, Position: 150}, AllRoles, s); err == nil {
		t.Error("Expected rod position 150 to be rejected")
	}
	if err := ValidateAction(Action{Kind: ActionSetCoolantFlow, Level: -5}, AllRoles, s); err == nil {
		t.Error("Expected coolant flow -5 to be rejected")
	}
	if err := ValidateAction(Action{Kind: ActionSetShieldPower, Level: 100}, AllRoles, s); err != nil {
		t.Errorf("Expected shield power 100 to be accepted, got %v", err)
	}
}

func TestUnknownSubsystemRejected(t *testing.T) {
	s := NewGameState("test", 4)
	err := ValidateAction(Action{Kind: ActionRepairSubsystem, SubsystemID: "warp-core"}, AllRoles, s)
	if err == nil {
		t.Error("Expected unknown subsystem to be rejected")
	}
}

func TestSetPowerSteersRods(t *testing.T) {
	s := NewGameState("test", 4)
	ApplyAction(Action{Kind: ActionSetPower, Level: 80}, s)
	if s.Reactor.ControlRodPosition != 20 {
		t.Errorf("Expected rods at 20 for power 80, got %v", s.Reactor.ControlRodPosition)
	}
}

func TestScramInsertsAllRods(t *testing.T) {
	s := NewGameState("test", 4)
	ApplyAction(Action{Kind: ActionScram}, s)
	if s.Reactor.ControlRodPosition != 100 {
		t.Errorf("Expected rods at 100 after scram, got %v", s.Reactor.ControlRodPosition)
	}
}

func TestRepairRestoresSubsystem(t *testing.T) {
	s := NewGameState("test", 4)
	sub := s.Subsystem("sensor-array")
	sub.Health = 40
	sub.OnFire = true
	sub.Operational = false

	ApplyAction(Action{Kind: ActionRepairSubsystem, SubsystemID: "sensor-array"}, s)

	if sub.Health != 70 {
		t.Errorf("Expected health 70 after repair, got %v", sub.Health)
	}
	if sub.OnFire {
		t.Error("Expected repair to put the fire out")
	}
	if !sub.Operational {
		t.Error("Expected repaired subsystem to be operational")
	}

	sub.Health = 90
	ApplyAction(Action{Kind: ActionRepairSubsystem, SubsystemID: "sensor-array"}, s)
	if sub.Health != 100 {
		t.Errorf("Expected health capped at 100, got %v", sub.Health)
	}
}

func TestRefillCoolantCaps(t *testing.T) {
	s := NewGameState("test", 4)
	s.Reactor.CoolantLevel = 60
	ApplyAction(Action{Kind: ActionRefillCoolant}, s)
	if s.Reactor.CoolantLevel != 85 {
		t.Errorf("Expected coolant 85, got %v", s.Reactor.CoolantLevel)
	}
	ApplyAction(Action{Kind: ActionRefillCoolant}, s)
	if s.Reactor.CoolantLevel != 100 {
		t.Errorf("Expected coolant capped at 100, got %v", s.Reactor.CoolantLevel)
	}
}

func TestVentPressureTradesContainment(t *testing.T) {
	s := NewGameState("test", 4)
	ApplyAction(Action{Kind: ActionVentPressure}, s)
	if s.Reactor.Pressure != 25 {
		t.Errorf("Expected pressure 25 after venting, got %v", s.Reactor.Pressure)
	}
	if s.Reactor.Containment != 98 {
		t.Errorf("Expected containment 98 after venting, got %v", s.Reactor.Containment)
	}
}

func TestEmergencyCoolantFloorsAt200(t *testing.T) {
	s := NewGameState("test", 4)
	s.Reactor.Temperature = 800
	ApplyAction(Action{Kind: ActionEmergencyCoolant}, s)
	if s.Reactor.Temperature != 600 {
		t.Errorf("Expected temperature 600, got %v", s.Reactor.Temperature)
	}
	if s.Reactor.CoolantLevel != 100 {
		t.Errorf("Expected full coolant, got %v", s.Reactor.CoolantLevel)
	}

	s.Reactor.Temperature = 250
	ApplyAction(Action{Kind: ActionEmergencyCoolant}, s)
	if s.Reactor.Temperature != 200 {
		t.Errorf("Expected temperature floored at 200, got %v", s.Reactor.Temperature)
	}
}

func TestAuthorizeProtocolBoostsContainment(t *testing.T) {
	s := NewGameState("test", 4)
	s.Reactor.Containment = 70
	ApplyAction(Action{Kind: ActionAuthorizeProtocol}, s)
	if s.Reactor.Containment != 90 {
		t.Errorf("Expected containment 90, got %v", s.Reactor.Containment)
	}
	ApplyAction(Action{Kind: ActionAuthorizeProtocol}, s)
	if s.Reactor.Containment != 100 {
		t.Errorf("Expected containment capped at 100, got %v", s.Reactor.Containment)
	}
}

func TestResolveEventLifecycle(t *testing.T) {
	s := NewGameState("test", 4)
	e := &GameEvent{ID: "evt-1", Type: EventCoolantLeak, TargetRole: RoleEngineer, Deadline: 100}
	s.ActiveEvents = append(s.ActiveEvents, e)

	resolve := Action{Kind: ActionResolveEvent, EventID: "evt-1"}

	// Wrong station.
	err := ValidateAction(resolve, []Role{RoleTechnician}, s)
	if err == nil || !strings.Contains(err.Error(), "different role") {
		t.Errorf("Expected role mismatch rejection, got %v", err)
	}

	if err := ValidateAction(resolve, []Role{RoleEngineer}, s); err != nil {
		t.Fatalf("Expected the engineer to resolve a coolant leak, got %v", err)
	}
	ApplyAction(resolve, s)

	if !e.Resolved {
		t.Fatal("Expected incident marked resolved")
	}
	if s.ResolvedEventCount != 1 {
		t.Errorf("Expected resolved count 1, got %d", s.ResolvedEventCount)
	}

	err = ValidateAction(resolve, []Role{RoleEngineer}, s)
	if err == nil || !strings.Contains(err.Error(), "already resolved") {
		t.Errorf("Expected double-resolve rejection, got %v", err)
	}
}

func TestResolveAfterConsequenceRejected(t *testing.T) {
	s := NewGameState("test", 4)
	e := &GameEvent{ID: "evt-1", Type: EventFireBreakout, TargetRole: RoleEngineer, ConsequenceApplied: true}
	s.ActiveEvents = append(s.ActiveEvents, e)

	err := ValidateAction(Action{Kind: ActionResolveEvent, EventID: "evt-1"}, []Role{RoleEngineer}, s)
	if err == nil || !strings.Contains(err.Error(), "ran its course") {
		t.Errorf("Expected expired incident rejection, got %v", err)
	}
}

func TestResolveUnknownEventRejected(t *testing.T) {
	s := NewGameState("test", 4)
	err := ValidateAction(Action{Kind: ActionResolveEvent, EventID: "evt-ghost"}, AllRoles, s)
	if err == nil || !strings.Contains(err.Error(), "Unknown event") {
		t.Errorf("Expected unknown event rejection, got %v", err)
	}
}
