package device

// LED is a single status light.
type LED interface {
	Write(high bool) error
}

// StatusLEDs drives the two panel lights. The first signals readiness, the
// second signals activity or a pending shutdown.
type StatusLEDs struct {
	ready    LED
	activity LED
}

// NewStatusLEDs builds the panel from two lines. Either may be nil, which
// turns the corresponding light into a no-op.
func NewStatusLEDs(ready, activity LED) *StatusLEDs {
	return &StatusLEDs{ready: ready, activity: activity}
}

// Idle shows the ready light only.
func (l *StatusLEDs) Idle() {
	l.write(l.ready, true)
	l.write(l.activity, false)
}

// Busy lights the activity LED while a capture is in flight.
func (l *StatusLEDs) Busy() {
	l.write(l.ready, true)
	l.write(l.activity, true)
}

// ShutdownPending drops the ready light and keeps activity lit so the user
// can see the press registered.
func (l *StatusLEDs) ShutdownPending() {
	l.write(l.ready, false)
	l.write(l.activity, true)
}

// Off extinguishes both lights.
func (l *StatusLEDs) Off() {
	l.write(l.ready, false)
	l.write(l.activity, false)
}

func (l *StatusLEDs) write(led LED, high bool) {
	if l == nil || led == nil {
		return
	}
	_ = led.Write(high)
}
