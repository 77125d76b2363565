// Package radius encodes package QoS settings into the positional rate-limit
// attribute consumed by network access equipment.
//
// # Overview
//
// MikroTik (and compatible) NAS devices accept a single space-separated
// attribute value describing a subscriber session's bandwidth policy:
//
//	rx/tx [burst-rx/burst-tx threshold-rx/threshold-tx time [priority [min-rx/min-tx]]]
//
// Each tier gates the next: the burst segment only appears when a burst or
// threshold field is set, priority only appears after the burst segment, and
// the committed-rate segment only appears after priority.
//
// # Usage Example
//
// Encode a policy:
//
//	value, err := radius.Encode(radius.Policy{
//		SpeedUp:   "5M",
//		SpeedDown: "20M",
//	})
//	// value == "5M/20M"
//
// Decode an attribute back into a policy:
//
//	policy, err := radius.Decode("5M/20M 10M/40M 3M/15M 30/30")
//
// Vendor attribute names and site-wide defaults are loaded from a YAML
// profile file, see LoadProfiles.
package radius
