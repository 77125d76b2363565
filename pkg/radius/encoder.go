package radius

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Default base rates applied when a package carries no explicit speeds.
const (
	DefaultSpeedUp   = "5M"
	DefaultSpeedDown = "20M"

	defaultBurstTime = "30/30"
	defaultPriority  = 8
)

var (
	bandwidthPattern = regexp.MustCompile(`^[0-9]+[kMGkmg]?$`)
	timePattern      = regexp.MustCompile(`^[0-9]+[s]?(/[0-9]+[s]?)?$`)
)

// Policy holds the QoS fields of a package in attribute form. Bandwidth
// fields are tokens like "512k", "5M" or "1G"; empty means unset.
// Priority 0 means unset.
type Policy struct {
	SpeedUp   string `json:"speed_up"`
	SpeedDown string `json:"speed_down"`

	BurstLimitUp       string `json:"burst_limit_up,omitempty"`
	BurstLimitDown     string `json:"burst_limit_down,omitempty"`
	BurstThresholdUp   string `json:"burst_threshold_up,omitempty"`
	BurstThresholdDown string `json:"burst_threshold_down,omitempty"`
	BurstTime          string `json:"burst_time,omitempty"`

	Priority int `json:"priority,omitempty"`

	MinLimitUp   string `json:"min_limit_up,omitempty"`
	MinLimitDown string `json:"min_limit_down,omitempty"`
}

// hasBurst reports whether any of the four burst/threshold fields is set.
// BurstTime alone does not trigger the burst segment.
func (p Policy) hasBurst() bool {
	return p.BurstLimitUp != "" || p.BurstLimitDown != "" ||
		p.BurstThresholdUp != "" || p.BurstThresholdDown != ""
}

// hasCIR reports whether a committed-rate field is set.
func (p Policy) hasCIR() bool {
	return p.MinLimitUp != "" || p.MinLimitDown != ""
}

// Validate checks every set field against its token grammar. Encoding is
// refused for invalid policies so a malformed attribute is never pushed to
// network equipment.
func (p Policy) Validate() error {
	bandwidth := map[string]string{
		"speed_up":             p.SpeedUp,
		"speed_down":           p.SpeedDown,
		"burst_limit_up":       p.BurstLimitUp,
		"burst_limit_down":     p.BurstLimitDown,
		"burst_threshold_up":   p.BurstThresholdUp,
		"burst_threshold_down": p.BurstThresholdDown,
		"min_limit_up":         p.MinLimitUp,
		"min_limit_down":       p.MinLimitDown,
	}
	for field, token := range bandwidth {
		if token == "" {
			continue
		}
		if !bandwidthPattern.MatchString(token) {
			return fmt.Errorf("%s %q: %w", field, token, ErrInvalidBandwidthToken)
		}
	}

	if p.BurstTime != "" && !timePattern.MatchString(p.BurstTime) {
		return fmt.Errorf("burst_time %q: %w", p.BurstTime, ErrInvalidTimeToken)
	}

	if p.Priority != 0 && (p.Priority < 1 || p.Priority > 8) {
		return fmt.Errorf("priority %d: %w", p.Priority, ErrInvalidPriority)
	}

	return nil
}

// Encode builds the positional rate-limit attribute value for a policy.
//
// The builder runs in four gated stages:
//
//  1. base: rx/tx is always emitted, falling back to DefaultSpeedUp/Down
//  2. burst: emitted iff any burst or threshold field is set; missing
//     burst/threshold values default to the base rates, missing time
//     defaults to 30/30
//  3. priority: emitted iff the burst segment was emitted and either an
//     explicit priority or a committed-rate field is set; defaults to 8
//  4. cir: min-rx/min-tx emitted iff both committed rates are set
func Encode(p Policy) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}

	up := p.SpeedUp
	if up == "" {
		up = DefaultSpeedUp
	}
	down := p.SpeedDown
	if down == "" {
		down = DefaultSpeedDown
	}

	var b strings.Builder
	b.WriteString(up)
	b.WriteByte('/')
	b.WriteString(down)

	if !p.hasBurst() {
		return b.String(), nil
	}

	burstUp := fallback(p.BurstLimitUp, up)
	burstDown := fallback(p.BurstLimitDown, down)
	thresholdUp := fallback(p.BurstThresholdUp, up)
	thresholdDown := fallback(p.BurstThresholdDown, down)
	burstTime := fallback(p.BurstTime, defaultBurstTime)

	fmt.Fprintf(&b, " %s/%s %s/%s %s", burstUp, burstDown, thresholdUp, thresholdDown, burstTime)

	if p.Priority == 0 && !p.hasCIR() {
		return b.String(), nil
	}

	priority := p.Priority
	if priority == 0 {
		priority = defaultPriority
	}
	b.WriteByte(' ')
	b.WriteString(strconv.Itoa(priority))

	if p.MinLimitUp != "" && p.MinLimitDown != "" {
		fmt.Fprintf(&b, " %s/%s", p.MinLimitUp, p.MinLimitDown)
	}

	return b.String(), nil
}

func fallback(value, def string) string {
	if value == "" {
		return def
	}
	return value
}
