package otoout

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ebitengine/oto/v3"
	"github.com/gruntwork-io/go-commons/errors"

	"github.com/robmorgan/tempo/audio"
)

// Backend plays voices through the system audio device.
type Backend struct {
	ctx        *oto.Context
	sampleRate int
}

// New opens the audio device for mono 16 bit output at sampleRate. Only one Backend may exist per process.
func New(sampleRate int) (*Backend, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return nil, errors.WithStackTrace(err)
	}
	<-ready

	return &Backend{ctx: ctx, sampleRate: sampleRate}, nil
}

// NewVoice encodes samples and wraps them in a player.
func (b *Backend) NewVoice(samples []float32, sampleRate int) (audio.Voice, error) {
	if sampleRate != b.sampleRate {
		return nil, fmt.Errorf("voice rendered at %d Hz, device runs at %d Hz", sampleRate, b.sampleRate)
	}
	return &voice{player: b.ctx.NewPlayer(bytes.NewReader(EncodeInt16LE(samples, nil)))}, nil
}

// Suspend pauses the device, for example while the console is backgrounded.
func (b *Backend) Suspend() error {
	return errors.WithStackTrace(b.ctx.Suspend())
}

// Resume restarts a suspended device.
func (b *Backend) Resume() error {
	return errors.WithStackTrace(b.ctx.Resume())
}

type voice struct {
	player *oto.Player
}

func (v *voice) Play() error {
	if v.player.IsPlaying() {
		v.player.Pause()
	}
	if _, err := v.player.Seek(0, io.SeekStart); err != nil {
		return errors.WithStackTrace(err)
	}
	v.player.Play()
	return v.player.Err()
}

func (v *voice) Close() error {
	return v.player.Close()
}

// EncodeInt16LE converts samples in [-1, 1] to signed 16 bit little endian PCM, appending to dst.
func EncodeInt16LE(samples []float32, dst []byte) []byte {
	for _, s := range samples {
		if s > 1 {
			s = 1
		}
		if s < -1 {
			s = -1
		}
		dst = binary.LittleEndian.AppendUint16(dst, uint16(int16(s*32767)))
	}
	return dst
}
