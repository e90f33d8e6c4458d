package main

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/google/uuid"
)

// This file implements the color-rule evaluation engine. Evaluation is a
// pure function over a snapshot of a region's rule set; rule mutations are
// always whole-collection replaces, so an evaluation never observes a
// half-edited set.

// defaultColor is the "unclassified" token returned when no rule matches,
// and the fallback a region degrades to when its data fetch fails.
const defaultColor = "#94a3b8"

// Operators accepted in a ColorRule.
const (
	opEqual        = "="
	opLess         = "<"
	opGreater      = ">"
	opLessEqual    = "<="
	opGreaterEqual = ">="
)

var validOperators = map[string]bool{
	opEqual:        true,
	opLess:         true,
	opGreater:      true,
	opLessEqual:    true,
	opGreaterEqual: true,
}

// applyColorRules returns the color of the first matching rule, with rules
// ordered by threshold ascending. The sort is stable, so rules with equal
// thresholds keep their insertion order. If nothing matches (including the
// empty rule set) the default token is returned.
//
// The "=" operator compares floats exactly. That is inherited behavior:
// values arriving from range averaging will rarely satisfy it, and callers
// defining equality rules should be aware of it.
func applyColorRules(value float64, rules []ColorRule) string {
	sorted := make([]ColorRule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Threshold < sorted[j].Threshold
	})

	for _, rule := range sorted {
		matches := false
		switch rule.Operator {
		case opEqual:
			matches = value == rule.Threshold
		case opLess:
			matches = value < rule.Threshold
		case opGreater:
			matches = value > rule.Threshold
		case opLessEqual:
			matches = value <= rule.Threshold
		case opGreaterEqual:
			matches = value >= rule.Threshold
		}
		if matches {
			return rule.Color
		}
	}

	return defaultColor
}

// defaultColorRules returns the rule set applied to a region created
// without explicit rules: blue below freezing, then green/amber/red bands.
func defaultColorRules() []ColorRule {
	return []ColorRule{
		{ID: uuid.NewString(), Operator: opLess, Threshold: 0, Color: "#3b82f6"},
		{ID: uuid.NewString(), Operator: opGreaterEqual, Threshold: 0, Color: "#10b981"},
		{ID: uuid.NewString(), Operator: opGreaterEqual, Threshold: 15, Color: "#f59e0b"},
		{ID: uuid.NewString(), Operator: opGreaterEqual, Threshold: 25, Color: "#ef4444"},
	}
}

// validateRules checks a replacement rule set before it is stored. Rules
// without an id get one assigned so later edits can address them.
func validateRules(rules []ColorRule) ([]ColorRule, error) {
	checked := make([]ColorRule, len(rules))
	for i, rule := range rules {
		if !validOperators[rule.Operator] {
			return nil, fmt.Errorf("rule %d: unknown operator %q", i, rule.Operator)
		}
		if math.IsNaN(rule.Threshold) || math.IsInf(rule.Threshold, 0) {
			return nil, fmt.Errorf("rule %d: threshold must be finite", i)
		}
		if rule.Color == "" {
			return nil, fmt.Errorf("rule %d: color must not be empty", i)
		}
		if rule.ID == "" {
			rule.ID = uuid.NewString()
		}
		checked[i] = rule
	}
	return checked, nil
}

// hexToHSL converts a "#rrggbb" color token to a CSS hsl() string. The UI
// uses it to derive hover shades from rule colors.
func hexToHSL(hex string) (string, error) {
	if len(hex) != 7 || hex[0] != '#' {
		return "", fmt.Errorf("invalid hex color: %q", hex)
	}
	parse := func(s string) (float64, error) {
		v, err := strconv.ParseUint(s, 16, 8)
		if err != nil {
			return 0, fmt.Errorf("invalid hex color %q: %w", hex, err)
		}
		return float64(v) / 255, nil
	}
	r, err := parse(hex[1:3])
	if err != nil {
		return "", err
	}
	g, err := parse(hex[3:5])
	if err != nil {
		return "", err
	}
	b, err := parse(hex[5:7])
	if err != nil {
		return "", err
	}

	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	diff := max - min
	sum := max + min
	l := sum / 2

	if diff == 0 {
		return fmt.Sprintf("hsl(0, 0%%, %d%%)", int(math.Round(l*100))), nil
	}

	var s float64
	if l > 0.5 {
		s = diff / (2 - sum)
	} else {
		s = diff / sum
	}

	var h float64
	switch max {
	case r:
		h = (g - b) / diff
		if g < b {
			h += 6
		}
	case g:
		h = (b-r)/diff + 2
	case b:
		h = (r-g)/diff + 4
	}
	h /= 6

	return fmt.Sprintf("hsl(%d, %d%%, %d%%)",
		int(math.Round(h*360)), int(math.Round(s*100)), int(math.Round(l*100))), nil
}
