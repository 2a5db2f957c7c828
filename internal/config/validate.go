package config

import (
	"fmt"
	"strings"
)

// ValidationError lists every problem found in a registry.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return "invalid config: " + e.Problems[0]
	}
	return fmt.Sprintf("invalid config (%d problems):\n  - %s", len(e.Problems), strings.Join(e.Problems, "\n  - "))
}

// Validate checks every device entry. Problems are collected rather than
// returned one at a time.
func (r *Registry) Validate() error {
	var problems []string

	if r.Version != 1 {
		problems = append(problems, fmt.Sprintf("unsupported version %d (expected 1)", r.Version))
	}
	if r.Radio != nil {
		if r.Radio.HCIDevice < 0 {
			problems = append(problems, fmt.Sprintf("radio.hci_device %d is negative", r.Radio.HCIDevice))
		}
		if r.Radio.Interval != 0 && (r.Radio.Interval < 0x20 || r.Radio.Interval > 0x4000) {
			problems = append(problems, fmt.Sprintf("radio.interval 0x%04x outside [0x0020, 0x4000]", r.Radio.Interval))
		}
	}

	for _, name := range r.Names() {
		d := r.Devices[name]
		if d == nil {
			problems = append(problems, fmt.Sprintf("%s: empty device entry", name))
			continue
		}
		prefix := name + ": "

		switch d.Kind {
		case KindLight:
			cold, warm := d.EffectiveMireds()
			if cold >= warm {
				problems = append(problems, fmt.Sprintf("%scold_white_mireds %.0f must be below warm_white_mireds %.0f", prefix, cold, warm))
			}
			if d.GammaCorrect != nil && *d.GammaCorrect < 0 {
				problems = append(problems, fmt.Sprintf("%sgamma_correct %g is negative", prefix, *d.GammaCorrect))
			}
		case KindFan:
			if d.ColdWhiteMireds != 0 || d.WarmWhiteMireds != 0 || d.ConstantBrightness || d.GammaCorrect != nil {
				problems = append(problems, prefix+"color settings only apply to lights")
			}
		case "":
			problems = append(problems, prefix+"kind is required (light or fan)")
		default:
			problems = append(problems, fmt.Sprintf("%sunknown kind %q (expected light or fan)", prefix, d.Kind))
		}

		if d.GroupID > MaxGroupID {
			problems = append(problems, fmt.Sprintf("%sgroup_id %d exceeds %d", prefix, d.GroupID, MaxGroupID))
		}
		if d.TxDuration < 0 {
			problems = append(problems, fmt.Sprintf("%stx_duration %s is negative", prefix, d.TxDuration))
		}
		if d.TxDuration > MaxTxDuration {
			problems = append(problems, fmt.Sprintf("%stx_duration %s exceeds %s", prefix, d.TxDuration, MaxTxDuration))
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// SharedStableIDs returns explicit stable ids configured on more than one
// device, mapped to the device names using them. Sharing an id is allowed
// (several fixtures can answer one remote) but is usually a copy-paste slip.
func (r *Registry) SharedStableIDs() map[uint32][]string {
	seen := make(map[uint32][]string)
	for _, name := range r.Names() {
		d := r.Devices[name]
		if d == nil || d.StableID == nil {
			continue
		}
		seen[*d.StableID] = append(seen[*d.StableID], name)
	}
	for id, names := range seen {
		if len(names) < 2 {
			delete(seen, id)
		}
	}
	return seen
}
