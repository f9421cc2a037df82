package audio

import (
	"fmt"
	"strings"
	"testing"

	"github.com/gordonklaus/portaudio"
)

func setupPortAudio(t *testing.T) {
	t.Helper()
	if err := Initialize(); err != nil {
		t.Skipf("PortAudio unavailable: %v", err)
	}
	t.Cleanup(func() {
		if err := Terminate(); err != nil {
			t.Fatalf("Failed to terminate PortAudio: %v", err)
		}
	})
}

func TestHostDevices(t *testing.T) {
	setupPortAudio(t)

	devices, err := HostDevices()
	if err != nil {
		t.Fatalf("HostDevices error: %v", err)
	}
	if len(devices) == 0 {
		t.Skip("No audio devices found on system")
	}
	for i, d := range devices {
		if d.ID != i {
			t.Errorf("Device ID mismatch: got %d, want %d", d.ID, i)
		}
		if d.Name == "" {
			t.Errorf("Device %d has empty name", i)
		}
		if d.DefaultSampleRate <= 0 {
			t.Errorf("Device %d has invalid sample rate: %f", i, d.DefaultSampleRate)
		}
	}
}

func TestHostDevices_paDevicesError(t *testing.T) {
	orig := paDevicesFunc
	defer func() { paDevicesFunc = orig }()
	paDevicesFunc = func() ([]*portaudio.DeviceInfo, error) {
		return nil, fmt.Errorf("mock error")
	}

	_, err := HostDevices()
	if err == nil || !strings.Contains(err.Error(), "mock error") {
		t.Errorf("expected mock error, got %v", err)
	}
}

func TestInputDeviceInvalidID(t *testing.T) {
	orig := paDevicesFunc
	defer func() { paDevicesFunc = orig }()
	paDevicesFunc = func() ([]*portaudio.DeviceInfo, error) {
		return []*portaudio.DeviceInfo{{Name: "mock input", MaxInputChannels: 2}}, nil
	}

	if _, err := InputDevice(5); err == nil {
		t.Error("expected error for out-of-range device ID")
	}
	if _, err := InputDevice(-2); err == nil {
		t.Error("expected error for negative device ID")
	}
}
