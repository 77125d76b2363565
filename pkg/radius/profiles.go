package radius

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Profile describes how one NAS vendor consumes the rate-limit policy:
// which RADIUS attribute carries it and what base rates apply when a
// package leaves them unset.
type Profile struct {
	Vendor    string `yaml:"vendor"`
	Attribute string `yaml:"attribute"`

	Defaults struct {
		SpeedUp   string `yaml:"speed_up"`
		SpeedDown string `yaml:"speed_down"`
	} `yaml:"defaults"`
}

// ProfileSet is the parsed NAS profile file.
type ProfileSet struct {
	Profiles []Profile `yaml:"profiles"`
}

// DefaultProfiles returns the built-in profile set used when no profile
// file is configured.
func DefaultProfiles() *ProfileSet {
	set := &ProfileSet{
		Profiles: []Profile{{Vendor: "mikrotik", Attribute: "Mikrotik-Rate-Limit"}},
	}
	set.Profiles[0].Defaults.SpeedUp = DefaultSpeedUp
	set.Profiles[0].Defaults.SpeedDown = DefaultSpeedDown
	return set
}

// LoadProfiles reads a NAS profile file from disk.
func LoadProfiles(path string) (*ProfileSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile file: %w", err)
	}

	var set ProfileSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("failed to parse profile file: %w", err)
	}

	if err := set.validate(); err != nil {
		return nil, err
	}
	return &set, nil
}

func (s *ProfileSet) validate() error {
	if len(s.Profiles) == 0 {
		return fmt.Errorf("profile file defines no profiles")
	}
	seen := make(map[string]bool, len(s.Profiles))
	for _, p := range s.Profiles {
		vendor := strings.ToLower(p.Vendor)
		if vendor == "" {
			return fmt.Errorf("profile with empty vendor")
		}
		if p.Attribute == "" {
			return fmt.Errorf("profile %s: attribute is required", p.Vendor)
		}
		if seen[vendor] {
			return fmt.Errorf("duplicate profile for vendor %s", p.Vendor)
		}
		seen[vendor] = true

		if p.Defaults.SpeedUp != "" && !bandwidthPattern.MatchString(p.Defaults.SpeedUp) {
			return fmt.Errorf("profile %s speed_up %q: %w", p.Vendor, p.Defaults.SpeedUp, ErrInvalidBandwidthToken)
		}
		if p.Defaults.SpeedDown != "" && !bandwidthPattern.MatchString(p.Defaults.SpeedDown) {
			return fmt.Errorf("profile %s speed_down %q: %w", p.Vendor, p.Defaults.SpeedDown, ErrInvalidBandwidthToken)
		}
	}
	return nil
}

// Lookup finds a profile by vendor name (case-insensitive).
func (s *ProfileSet) Lookup(vendor string) (*Profile, error) {
	vendor = strings.ToLower(vendor)
	for i := range s.Profiles {
		if strings.ToLower(s.Profiles[i].Vendor) == vendor {
			return &s.Profiles[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, vendor)
}

// EncodeFor encodes a policy applying the profile's default base rates when
// the policy leaves them unset.
func (p *Profile) EncodeFor(policy Policy) (string, error) {
	if policy.SpeedUp == "" && p.Defaults.SpeedUp != "" {
		policy.SpeedUp = p.Defaults.SpeedUp
	}
	if policy.SpeedDown == "" && p.Defaults.SpeedDown != "" {
		policy.SpeedDown = p.Defaults.SpeedDown
	}
	return Encode(policy)
}
