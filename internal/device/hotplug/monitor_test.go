package hotplug

import (
	"testing"

	"github.com/pilebones/go-udev/netlink"
)

func TestBuildMatcherAcceptsVideoEvents(t *testing.T) {
	m := NewMonitor(nil, nil)
	matcher := m.buildMatcher()

	add := netlink.UEvent{
		Action: netlink.ADD,
		Env:    map[string]string{"SUBSYSTEM": "video4linux", "DEVNAME": "video0"},
	}
	if !matcher.Evaluate(add) {
		t.Error("expected matcher to accept video4linux add event")
	}

	remove := netlink.UEvent{
		Action: netlink.REMOVE,
		Env:    map[string]string{"SUBSYSTEM": "video4linux", "DEVNAME": "video0"},
	}
	if !matcher.Evaluate(remove) {
		t.Error("expected matcher to accept video4linux remove event")
	}

	block := netlink.UEvent{
		Action: netlink.ADD,
		Env:    map[string]string{"SUBSYSTEM": "block", "DEVNAME": "sda"},
	}
	if matcher.Evaluate(block) {
		t.Error("expected matcher to reject non-video event")
	}

	change := netlink.UEvent{
		Action: netlink.CHANGE,
		Env:    map[string]string{"SUBSYSTEM": "video4linux", "DEVNAME": "video0"},
	}
	if matcher.Evaluate(change) {
		t.Error("expected matcher to reject change action")
	}
}

func TestHandleEventInvokesHandler(t *testing.T) {
	var gotAction, gotDevice string
	m := NewMonitor(nil, func(action, device string) {
		gotAction = action
		gotDevice = device
	})

	m.handleEvent(netlink.UEvent{
		Action: netlink.REMOVE,
		Env:    map[string]string{"SUBSYSTEM": "video4linux", "DEVNAME": "video0"},
	})

	if gotAction != "remove" || gotDevice != "/dev/video0" {
		t.Fatalf("handler got (%q, %q)", gotAction, gotDevice)
	}
}

func TestHandleEventIgnoresAnonymousEvents(t *testing.T) {
	var called bool
	m := NewMonitor(nil, func(string, string) { called = true })

	m.handleEvent(netlink.UEvent{Action: netlink.ADD, Env: map[string]string{}})
	if called {
		t.Fatal("handler should not run without a device name")
	}
}

func TestStopIsSafeWithoutStart(t *testing.T) {
	m := NewMonitor(nil, nil)
	m.Stop()
	m.Stop()
	if m.Running() {
		t.Fatal("unstarted monitor should not report running")
	}

	var nilMonitor *Monitor
	nilMonitor.Stop()
	if nilMonitor.Running() {
		t.Fatal("nil monitor should not report running")
	}
}
