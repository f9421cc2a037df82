// SPDX-License-Identifier: MIT
package audio

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
)

var testRecordingDir string

func init() {
	var err error
	testRecordingDir, err = os.MkdirTemp("", "test_recording")
	if err != nil {
		panic("Failed to create temp dir for recording tests: " + err.Error())
	}
}

func newTestEngine() *Engine {
	cfg := testConfig()
	cfg.Recording.BitDepth = 16
	return bareEngine(cfg, nil)
}

func TestRecordingStartStopHotPath(t *testing.T) {
	filename := filepath.Join(testRecordingDir, "test_recording.wav")
	engine := newTestEngine()

	if err := engine.StartRecording(filename); err != nil {
		t.Fatalf("Failed to start recording: %v", err)
	}

	if atomic.LoadInt32(&engine.isRecording) != 1 {
		t.Error("Engine should be in recording state")
	}

	if engine.outputFile == nil {
		t.Error("Output file should be initialized")
	}

	if engine.wavEncoder == nil {
		t.Error("WAV encoder should be initialized")
	}

	if engine.sampleBuf == nil {
		t.Error("Sample buffer should be initialized")
	}

	if engine.sampleBuf.Format.NumChannels != engine.config.Audio.Channels {
		t.Errorf("Buffer channels mismatch: got %d, want %d",
			engine.sampleBuf.Format.NumChannels, engine.config.Audio.Channels)
	}

	if engine.sampleBuf.Format.SampleRate != int(engine.config.Audio.SampleRate) {
		t.Errorf("Buffer sample rate mismatch: got %d, want %d",
			engine.sampleBuf.Format.SampleRate, int(engine.config.Audio.SampleRate))
	}

	wantLen := engine.config.Audio.FramesPerBuffer * engine.config.Audio.Channels
	if len(engine.sampleBuf.Data) != wantLen {
		t.Errorf("Buffer size mismatch: got %d, want %d",
			len(engine.sampleBuf.Data), wantLen)
	}

	if engine.recScale != 32767 {
		t.Errorf("16-bit scale mismatch: got %f, want 32767", engine.recScale)
	}

	// Store reference to check file closure.
	outputFile := engine.outputFile

	if err := engine.StopRecording(); err != nil {
		t.Fatalf("Failed to stop recording: %v", err)
	}

	if atomic.LoadInt32(&engine.isRecording) != 0 {
		t.Error("Engine should not be in recording state after stopping")
	}

	if engine.outputFile != nil {
		t.Error("Output file should be nil after stopping")
	}

	if engine.wavEncoder != nil {
		t.Error("WAV encoder should be nil after stopping")
	}

	if err := outputFile.Close(); err == nil {
		t.Error("File should already be closed")
	}

	if _, err := os.Stat(filename); os.IsNotExist(err) {
		t.Error("Recording file was not created")
	}
}

func TestRecordingDoubleStart(t *testing.T) {
	filename := filepath.Join(testRecordingDir, "double_start.wav")
	engine := newTestEngine()

	if err := engine.StartRecording(filename); err != nil {
		t.Fatalf("Failed to start recording: %v", err)
	}
	defer engine.StopRecording()

	if err := engine.StartRecording(filename); err == nil {
		t.Error("Second StartRecording should fail while recording")
	}
}

func TestRecordingStopIdempotent(t *testing.T) {
	engine := newTestEngine()

	if err := engine.StopRecording(); err != nil {
		t.Errorf("StopRecording without an active recording should be a no-op, got %v", err)
	}
}

func TestRecordingInvalidBitDepthFallsBack(t *testing.T) {
	filename := filepath.Join(testRecordingDir, "bad_depth.wav")
	engine := newTestEngine()
	engine.config.Recording.BitDepth = 99

	if err := engine.StartRecording(filename); err != nil {
		t.Fatalf("Failed to start recording: %v", err)
	}
	defer engine.StopRecording()

	if engine.sampleBuf.SourceBitDepth != 16 {
		t.Errorf("Invalid bit depth should fall back to 16, got %d", engine.sampleBuf.SourceBitDepth)
	}
}

func TestRecordingCapturesCallbackData(t *testing.T) {
	filename := filepath.Join(testRecordingDir, "captured.wav")
	engine := newTestEngine()

	if err := engine.StartRecording(filename); err != nil {
		t.Fatalf("Failed to start recording: %v", err)
	}

	buffer := make([]float32, testFrameSize*2)
	for i := range buffer {
		buffer[i] = 0.5
	}
	engine.processInputStream(buffer)

	if err := engine.StopRecording(); err != nil {
		t.Fatalf("Failed to stop recording: %v", err)
	}

	info, err := os.Stat(filename)
	if err != nil {
		t.Fatalf("Recording file missing: %v", err)
	}
	// 44-byte header plus one buffer of 16-bit samples.
	if info.Size() <= 44 {
		t.Errorf("Recording file holds no sample data: %d bytes", info.Size())
	}
}
