package input

// LinkState is the state of the receiver link.
type LinkState int

// Link states.
const (
	LinkLost LinkState = iota
	LinkValid
)

func (s LinkState) String() string {
	if s == LinkValid {
		return "valid"
	}
	return "lost"
}

// Failsafe tracks the link state and substitutes configured values
// while the link is lost.
type Failsafe struct {
	Config *Config

	state   LinkState
	alerted bool
}

// State returns the current link state.
func (f *Failsafe) State() LinkState {
	return f.state
}

// Apply overrides every channel not in FailsafeHold with its failsafe
// value.
func (f *Failsafe) Apply(out *ControlVector) {
	for n := range f.Config.Channels {
		ch := &f.Config.Channels[n]
		if ch.Failsafe == FailsafeHold {
			continue
		}
		out.Pulses[n] = ch.FailsafeValue
		out.Values[n] = ch.Scale(float64(ch.FailsafeValue))
	}
}

// Fail applies failsafe values and moves to LinkLost. It returns true
// on the first failure since Begin or since the last recovery, which
// is when the RX-lost alert is due. A link that never became valid
// still reports its first failure.
func (f *Failsafe) Fail(out *ControlVector) bool {
	f.Apply(out)
	f.state = LinkLost
	if f.alerted {
		return false
	}
	f.alerted = true
	return true
}

// Recover moves to LinkValid, it returns true on the transition.
func (f *Failsafe) Recover() bool {
	f.alerted = false
	if f.state == LinkValid {
		return false
	}
	f.state = LinkValid
	return true
}
