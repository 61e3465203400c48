package device

import (
	"context"
	"errors"
	"testing"

	"mnemosyne/internal/camera"
	"mnemosyne/internal/uploader"
)

type fakeCamera struct {
	frame    camera.Frame
	err      error
	acquires int
	resets   int
}

func (f *fakeCamera) Acquire(context.Context) (camera.Frame, error) {
	f.acquires++
	if f.err != nil {
		return camera.Frame{}, f.err
	}
	return f.frame, nil
}

func (f *fakeCamera) Reset()       { f.resets++ }
func (f *fakeCamera) Close() error { return nil }

type fakeProvider struct {
	description string
	err         error
	calls       int
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Describe(context.Context, string) (string, error) {
	f.calls++
	return f.description, f.err
}

type fakeUploads struct {
	err      error
	uploads  int
	lastDesc string
	lastDev  string
}

func (f *fakeUploads) Upload(_ context.Context, _, description, deviceID string) (uploader.Ack, error) {
	f.uploads++
	f.lastDesc = description
	f.lastDev = deviceID
	if f.err != nil {
		return uploader.Ack{}, f.err
	}
	return uploader.Ack{StatusCode: 201, Message: "Content added successfully"}, nil
}

func newTestController(t *testing.T, cam *fakeCamera, provider *fakeProvider, uploads *fakeUploads, shutdowns *int) *Controller {
	t.Helper()
	ctrl, err := NewController(ControllerOptions{
		Camera:          cam,
		Provider:        provider,
		Uploads:         uploads,
		ResolveID:       func() string { return "192.168.1.20" },
		ShutdownPresses: 3,
		Shutdown: func() error {
			if shutdowns != nil {
				*shutdowns++
			}
			return nil
		},
	})
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	return ctrl
}

func TestCaptureUploadsFrameWithDescription(t *testing.T) {
	cam := &fakeCamera{frame: camera.Frame{Base64: "aW1hZ2U="}}
	provider := &fakeProvider{description: "a desk"}
	uploads := &fakeUploads{}
	ctrl := newTestController(t, cam, provider, uploads, nil)

	ctrl.HandleCapture(context.Background())

	if uploads.uploads != 1 {
		t.Fatalf("uploads = %d, want 1", uploads.uploads)
	}
	if uploads.lastDesc != "a desk" {
		t.Fatalf("description = %q", uploads.lastDesc)
	}
	if uploads.lastDev != "192.168.1.20" {
		t.Fatalf("deviceid = %q", uploads.lastDev)
	}
	if cam.resets != 0 {
		t.Fatalf("camera should not reset on success, resets = %d", cam.resets)
	}
}

func TestCaptureFailureResetsCameraAndContinues(t *testing.T) {
	cam := &fakeCamera{err: camera.ErrCaptureFailed}
	uploads := &fakeUploads{}
	ctrl := newTestController(t, cam, &fakeProvider{}, uploads, nil)

	ctrl.HandleCapture(context.Background())

	if uploads.uploads != 0 {
		t.Fatalf("failed capture should not upload, got %d", uploads.uploads)
	}
	if cam.resets != 1 {
		t.Fatalf("camera resets = %d, want 1", cam.resets)
	}
}

func TestDescriptionFailureSkipsUpload(t *testing.T) {
	cam := &fakeCamera{frame: camera.Frame{Base64: "aW1hZ2U="}}
	provider := &fakeProvider{err: errors.New("api down")}
	uploads := &fakeUploads{}
	ctrl := newTestController(t, cam, provider, uploads, nil)

	ctrl.HandleCapture(context.Background())

	if uploads.uploads != 0 {
		t.Fatalf("failed description should not upload, got %d", uploads.uploads)
	}
	if cam.resets != 1 {
		t.Fatalf("camera resets = %d, want 1", cam.resets)
	}
}

func TestUploadFailureResetsCamera(t *testing.T) {
	cam := &fakeCamera{frame: camera.Frame{Base64: "aW1hZ2U="}}
	uploads := &fakeUploads{err: uploader.ErrUploadFailed}
	ctrl := newTestController(t, cam, &fakeProvider{}, uploads, nil)

	ctrl.HandleCapture(context.Background())

	if cam.resets != 1 {
		t.Fatalf("camera resets = %d, want 1", cam.resets)
	}
}

func TestCaptureWithOverrideProvider(t *testing.T) {
	cam := &fakeCamera{frame: camera.Frame{Base64: "aW1hZ2U="}}
	base := &fakeProvider{description: "base"}
	alt := &fakeProvider{description: "alt"}
	uploads := &fakeUploads{}
	ctrl := newTestController(t, cam, base, uploads, nil)

	ctrl.HandleCaptureWith(context.Background(), alt)

	if base.calls != 0 || alt.calls != 1 {
		t.Fatalf("provider calls base=%d alt=%d", base.calls, alt.calls)
	}
	if uploads.lastDesc != "alt" {
		t.Fatalf("description = %q", uploads.lastDesc)
	}
}

func TestShutdownFiresOnThirdUninterruptedPress(t *testing.T) {
	var shutdowns int
	ctrl := newTestController(t, &fakeCamera{frame: camera.Frame{Base64: "aW1n"}}, &fakeProvider{}, &fakeUploads{}, &shutdowns)
	ctx := context.Background()

	if ctrl.HandleShutdownPress(ctx) {
		t.Fatal("first press should not shut down")
	}
	if ctrl.HandleShutdownPress(ctx) {
		t.Fatal("second press should not shut down")
	}
	if !ctrl.HandleShutdownPress(ctx) {
		t.Fatal("third press should shut down")
	}
	if shutdowns != 1 {
		t.Fatalf("shutdown commands = %d, want exactly 1", shutdowns)
	}
}

func TestCapturePressRearmsShutdownCounter(t *testing.T) {
	var shutdowns int
	ctrl := newTestController(t, &fakeCamera{frame: camera.Frame{Base64: "aW1n"}}, &fakeProvider{}, &fakeUploads{}, &shutdowns)
	ctx := context.Background()

	ctrl.HandleShutdownPress(ctx)
	if got := ctrl.Remaining(); got != 2 {
		t.Fatalf("remaining after one press = %d, want 2", got)
	}
	ctrl.HandleCapture(ctx)
	if got := ctrl.Remaining(); got != 3 {
		t.Fatalf("remaining after capture = %d, want 3", got)
	}

	// The counter restarted, so three more presses are needed.
	if ctrl.HandleShutdownPress(ctx) {
		t.Fatal("press after rearm should not shut down")
	}
	if ctrl.HandleShutdownPress(ctx) {
		t.Fatal("second press after rearm should not shut down")
	}
	if !ctrl.HandleShutdownPress(ctx) {
		t.Fatal("third press after rearm should shut down")
	}
	if shutdowns != 1 {
		t.Fatalf("shutdown commands = %d, want exactly 1", shutdowns)
	}
}

func TestDeviceIDResolvedOnce(t *testing.T) {
	var resolutions int
	ctrl, err := NewController(ControllerOptions{
		Camera:   &fakeCamera{frame: camera.Frame{Base64: "aW1n"}},
		Uploads:  &fakeUploads{},
		Provider: &fakeProvider{},
		ResolveID: func() string {
			resolutions++
			return "10.0.0.5"
		},
	})
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}

	ctrl.HandleCapture(context.Background())
	ctrl.HandleCapture(context.Background())

	if ctrl.DeviceID() != "10.0.0.5" {
		t.Fatalf("device id = %q", ctrl.DeviceID())
	}
	if resolutions != 1 {
		t.Fatalf("identity resolutions = %d, want 1", resolutions)
	}
}

func TestResolveIDFallsBackToUnknown(t *testing.T) {
	ctrl, err := NewController(ControllerOptions{
		Camera:    &fakeCamera{},
		Uploads:   &fakeUploads{},
		ResolveID: func() string { return "  " },
	})
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	if got := ctrl.DeviceID(); got != "Unknown" {
		t.Fatalf("device id = %q, want Unknown", got)
	}
}
