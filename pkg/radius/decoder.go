package radius

import (
	"fmt"
	"strconv"
	"strings"
)

// Decode parses a positional rate-limit attribute value back into a Policy.
// The result is normalized: every tier present in the attribute has all its
// fields populated, so Decode(Encode(p)) yields p with defaults filled in.
func Decode(value string) (*Policy, error) {
	fields := strings.Fields(value)
	if strings.Join(fields, " ") != strings.TrimSpace(value) {
		return nil, fmt.Errorf("%w: irregular whitespace in %q", ErrMalformedPolicy, value)
	}

	switch len(fields) {
	case 1, 4, 5, 6:
	default:
		return nil, fmt.Errorf("%w: %d segments in %q", ErrMalformedPolicy, len(fields), value)
	}

	var p Policy
	var err error

	if p.SpeedUp, p.SpeedDown, err = splitPair(fields[0]); err != nil {
		return nil, err
	}

	if len(fields) == 1 {
		return &p, nil
	}

	if p.BurstLimitUp, p.BurstLimitDown, err = splitPair(fields[1]); err != nil {
		return nil, err
	}
	if p.BurstThresholdUp, p.BurstThresholdDown, err = splitPair(fields[2]); err != nil {
		return nil, err
	}
	if !timePattern.MatchString(fields[3]) {
		return nil, fmt.Errorf("burst time %q: %w", fields[3], ErrInvalidTimeToken)
	}
	p.BurstTime = fields[3]

	if len(fields) == 4 {
		return &p, nil
	}

	priority, err := strconv.Atoi(fields[4])
	if err != nil || priority < 1 || priority > 8 {
		return nil, fmt.Errorf("priority %q: %w", fields[4], ErrInvalidPriority)
	}
	p.Priority = priority

	if len(fields) == 6 {
		if p.MinLimitUp, p.MinLimitDown, err = splitPair(fields[5]); err != nil {
			return nil, err
		}
	}

	return &p, nil
}

// splitPair parses an "rx/tx" bandwidth pair.
func splitPair(segment string) (string, string, error) {
	rx, tx, ok := strings.Cut(segment, "/")
	if !ok {
		return "", "", fmt.Errorf("%w: expected rx/tx pair, got %q", ErrMalformedPolicy, segment)
	}
	if !bandwidthPattern.MatchString(rx) {
		return "", "", fmt.Errorf("%q: %w", rx, ErrInvalidBandwidthToken)
	}
	if !bandwidthPattern.MatchString(tx) {
		return "", "", fmt.Errorf("%q: %w", tx, ErrInvalidBandwidthToken)
	}
	return rx, tx, nil
}
