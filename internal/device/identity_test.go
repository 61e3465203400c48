package device

import (
	"net"
	"testing"
)

func TestFirstIPv4PrefersFirstUsableAddress(t *testing.T) {
	addrs := []net.Addr{
		&net.IPNet{IP: net.ParseIP("127.0.0.1"), Mask: net.CIDRMask(8, 32)},
		&net.IPNet{IP: net.ParseIP("fe80::1"), Mask: net.CIDRMask(64, 128)},
		&net.IPNet{IP: net.ParseIP("192.168.1.20"), Mask: net.CIDRMask(24, 32)},
		&net.IPNet{IP: net.ParseIP("10.0.0.7"), Mask: net.CIDRMask(24, 32)},
	}
	if got := firstIPv4(addrs, "Unknown"); got != "192.168.1.20" {
		t.Fatalf("firstIPv4 = %q, want 192.168.1.20", got)
	}
}

func TestFirstIPv4HandlesIPAddr(t *testing.T) {
	addrs := []net.Addr{&net.IPAddr{IP: net.ParseIP("172.16.0.4")}}
	if got := firstIPv4(addrs, "Unknown"); got != "172.16.0.4" {
		t.Fatalf("firstIPv4 = %q, want 172.16.0.4", got)
	}
}

func TestFirstIPv4FallsBackWithoutIPv4(t *testing.T) {
	addrs := []net.Addr{
		&net.IPNet{IP: net.ParseIP("::1"), Mask: net.CIDRMask(128, 128)},
		&net.IPNet{IP: net.ParseIP("fd00::2"), Mask: net.CIDRMask(64, 128)},
	}
	if got := firstIPv4(addrs, "Unknown"); got != "Unknown" {
		t.Fatalf("firstIPv4 = %q, want Unknown", got)
	}
}

func TestResolveDeviceIDMissingInterface(t *testing.T) {
	if got := ResolveDeviceID("definitely-not-a-real-interface0", ""); got != "Unknown" {
		t.Fatalf("ResolveDeviceID = %q, want Unknown", got)
	}
}

type recordLED struct {
	states []bool
}

func (r *recordLED) Write(high bool) error {
	r.states = append(r.states, high)
	return nil
}

func TestStatusLEDStates(t *testing.T) {
	ready := &recordLED{}
	activity := &recordLED{}
	leds := NewStatusLEDs(ready, activity)

	leds.Idle()
	leds.Busy()
	leds.ShutdownPending()
	leds.Off()

	wantReady := []bool{true, true, false, false}
	wantActivity := []bool{false, true, true, false}
	for i := range wantReady {
		if ready.states[i] != wantReady[i] {
			t.Fatalf("ready state %d = %v, want %v", i, ready.states[i], wantReady[i])
		}
		if activity.states[i] != wantActivity[i] {
			t.Fatalf("activity state %d = %v, want %v", i, activity.states[i], wantActivity[i])
		}
	}
}

func TestStatusLEDsTolerateNilLines(t *testing.T) {
	leds := NewStatusLEDs(nil, nil)
	leds.Idle()
	leds.Busy()
	leds.Off()
}
