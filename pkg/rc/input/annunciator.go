package input

// AlertKind tags an alert raised by the input pipeline.
type AlertKind int

// Alert kinds.
const (
	AlertRxLost AlertKind = iota + 1
)

func (k AlertKind) String() string {
	switch k {
	case AlertRxLost:
		return "rx-lost"
	}
	return "unknown"
}

// Annunciator signals alerts to the pilot (buzzer, LEDs, telemetry).
type Annunciator interface {
	Alert(AlertKind)
}

// AnnunciatorFunc is the func form of Annunciator.
type AnnunciatorFunc func(AlertKind)

// Alert implements Annunciator.
func (f AnnunciatorFunc) Alert(kind AlertKind) {
	f(kind)
}
