package audio

import (
	"fmt"
	"os"
	"sync/atomic"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func (e *Engine) StartRecording(filename string) error {
	if atomic.LoadInt32(&e.isRecording) == 1 {
		return fmt.Errorf("already recording")
	}

	bitDepth := e.config.Recording.BitDepth
	if bitDepth != 16 && bitDepth != 24 {
		bitDepth = 16
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	e.outputFile = file

	e.wavEncoder = wav.NewEncoder(file, int(e.config.Audio.SampleRate),
		bitDepth, e.config.Audio.Channels, 1)

	e.sampleBuf = &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: e.config.Audio.Channels,
			SampleRate:  int(e.config.Audio.SampleRate),
		},
		SourceBitDepth: bitDepth,
		Data:           make([]int, e.config.Audio.FramesPerBuffer*e.config.Audio.Channels),
	}
	e.recScale = float64(int64(1)<<(bitDepth-1)) - 1

	atomic.StoreInt32(&e.isRecording, 1)

	return nil
}

func (e *Engine) StopRecording() error {
	if atomic.LoadInt32(&e.isRecording) == 0 {
		return nil
	}

	atomic.StoreInt32(&e.isRecording, 0)

	if e.wavEncoder != nil {
		if err := e.wavEncoder.Close(); err != nil {
			return err
		}
		e.wavEncoder = nil
	}

	if e.outputFile != nil {
		if err := e.outputFile.Close(); err != nil {
			return err
		}
		e.outputFile = nil
	}

	return nil
}

func (e *Engine) Close() error {
	if atomic.LoadInt32(&e.isRecording) == 1 {
		if err := e.StopRecording(); err != nil {
			return err
		}
	}

	return e.StopInputStream()
}
