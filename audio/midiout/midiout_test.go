package midiout

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2"

	"github.com/robmorgan/tempo/audio"
	"github.com/robmorgan/tempo/rhythm"
)

type recorder struct {
	msgs []midi.Message
	err  error
}

func (r *recorder) send(msg midi.Message) error {
	r.msgs = append(r.msgs, msg)
	return r.err
}

func TestPlaySendsPercussionNotes(t *testing.T) {
	t.Parallel()

	r := &recorder{}
	d := New(r.send)
	require.NoError(t, audio.PreloadAll(d, "woodfish"))

	require.NoError(t, d.Play(rhythm.Accent))
	require.NoError(t, d.Play(rhythm.Muted))
	require.Len(t, r.msgs, 2)

	var ch, key, vel uint8
	require.True(t, r.msgs[0].GetNoteOn(&ch, &key, &vel))
	assert.Equal(t, PercussionChannel, ch)
	assert.Equal(t, uint8(76), key)
	assert.Equal(t, accentVelocity, vel)
	assert.True(t, r.msgs[1].GetNoteOff(&ch, &key, &vel))

	require.NoError(t, d.Play(rhythm.Normal))
	require.True(t, r.msgs[2].GetNoteOn(&ch, &key, &vel))
	assert.Equal(t, uint8(77), key)
	assert.Equal(t, normalVelocity, vel)
}

func TestSecondaryAccentUsesSofterVelocity(t *testing.T) {
	t.Parallel()

	r := &recorder{}
	d := New(r.send)
	require.NoError(t, audio.PreloadAll(d, "woodfish"))

	require.NoError(t, d.Play(rhythm.SecondaryAccent))
	require.Len(t, r.msgs, 2)

	var ch, key, vel uint8
	require.True(t, r.msgs[0].GetNoteOn(&ch, &key, &vel))
	assert.Equal(t, uint8(76), key)
	assert.Equal(t, secondaryVelocity, vel)
	assert.True(t, vel < accentVelocity)
	assert.True(t, vel > normalVelocity)
}

func TestEverySoundHasKeys(t *testing.T) {
	t.Parallel()

	d := New((&recorder{}).send)
	for id := range gmNotes {
		assert.NoError(t, d.Preload(rhythm.Accent, id))
	}
	assert.ErrorIs(t, d.Preload(rhythm.Accent, "kazoo"), audio.ErrUnknownSound)
	assert.NoError(t, d.Close())
}

func TestSendFailureSurfaces(t *testing.T) {
	t.Parallel()

	boom := errors.New("port gone")
	d := New((&recorder{err: boom}).send)
	assert.ErrorIs(t, d.Play(rhythm.Accent), boom)
}
