package mapper

import (
	"strings"
	"testing"

	"panelsound/internal/panel"
)

func TestDefaultRulesAreValid(t *testing.T) {
	table, err := NewTable(DefaultRules())
	if err != nil {
		t.Fatalf("default rules: %v", err)
	}
	for _, c := range []string{"key", "switch-31", "switch-07", "switch-42-49", "controller01", "controller02"} {
		if _, ok := table[c]; !ok {
			t.Errorf("default table missing %q", c)
		}
	}
}

func TestRuleValidate(t *testing.T) {
	cases := []struct {
		name    string
		rule    Rule
		wantErr string
	}{
		{"no component", Rule{Strategy: StrategyDirect}, "component is required"},
		{"unknown strategy", Rule{Component: "a", Strategy: "tree"}, "unknown strategy"},
		{"direct needs one value", Rule{Component: "a", Strategy: StrategyDirect}, "exactly one value"},
		{"multi needs values", Rule{Component: "a", Strategy: StrategyMulti}, "needs values"},
		{"value without sound", Rule{Component: "a", Strategy: StrategyMulti, Values: []ValueSound{{Value: "1"}}}, "needs value and sound"},
		{"bad key status", Rule{Component: "a", Strategy: StrategyKey, Values: []ValueSound{{Value: "1", Sound: "s", Key: "MAYBE"}}}, "unknown key status"},
		{"substate needs tokens", Rule{Component: "a", Strategy: StrategySubState}, "needs tokens"},
		{"token with colon", Rule{Component: "a", Strategy: StrategySubState, Tokens: []TokenSound{{Token: "A:1", Sound: "s"}}}, "invalid token"},
		{"loop incomplete", Rule{Component: "a", Strategy: StrategyLoop, Sound: "s"}, "needs sound"},
		{"loop same values", Rule{Component: "a", Strategy: StrategyLoop, Sound: "s", PlayValue: "1", StopValue: "1"}, "must differ"},
		{"readiness needs sound", Rule{Component: "a", Strategy: StrategyReadiness}, "needs a sound"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.rule.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("got %v, want error containing %q", err, tc.wantErr)
			}
		})
	}
}

func TestNewTable_DuplicateComponent(t *testing.T) {
	rules := []Rule{
		{Component: "a", Strategy: StrategyReadiness, Sound: "x"},
		{Component: "a", Strategy: StrategyReadiness, Sound: "y"},
	}
	if _, err := NewTable(rules); err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if _, err := New(panel.NewState(nil, nil), rules, "", nil); err == nil {
		t.Fatalf("New must reject an invalid table")
	}
}

func TestRuleGated(t *testing.T) {
	for _, s := range []Strategy{StrategyDirect, StrategyMulti, StrategySubState, StrategyLoop} {
		if !(Rule{Strategy: s}).gated() {
			t.Errorf("%s should be gated", s)
		}
	}
	for _, s := range []Strategy{StrategyKey, StrategyReadiness} {
		if (Rule{Strategy: s}).gated() {
			t.Errorf("%s should not be gated", s)
		}
	}
}
