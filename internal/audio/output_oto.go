// Copyright (c) 2025 Azad Mehtiyev
// SPDX-License-Identifier: MIT

package audio

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/ebitengine/oto/v3"
	mp3 "github.com/hajimehoshi/go-mp3"
)

// DeviceOutput plays MP3 clips on the system audio device.
//
// oto allows one context per process with a fixed sample rate, so the
// context is created lazily at the first clip and reused. ElevenLabs
// streams are consistently 44.1kHz stereo, which keeps later clips on
// the same rate.
type DeviceOutput struct {
	mu         sync.Mutex
	ctx        *oto.Context
	sampleRate int
}

// NewDeviceOutput creates an output on the default audio device. The
// device itself is opened at first play.
func NewDeviceOutput() *DeviceOutput {
	return &DeviceOutput{}
}

// Play decodes the MP3 clip and starts it on the device.
func (o *DeviceOutput) Play(mp3Data []byte) (Playback, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(mp3Data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode mp3: %w", err)
	}

	ctx, err := o.context(dec.SampleRate())
	if err != nil {
		return nil, err
	}

	player := ctx.NewPlayer(dec)
	player.Play()
	return &devicePlayback{player: player}, nil
}

// context returns the process-wide audio context, creating it on first
// use with the given sample rate.
func (o *DeviceOutput) context(sampleRate int) (*oto.Context, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.ctx != nil {
		// The device cannot be reopened at a new rate. A clip with a
		// different rate plays anyway, with the pitch off.
		return o.ctx, nil
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open audio device: %w", err)
	}
	<-ready

	o.ctx = ctx
	o.sampleRate = sampleRate
	return ctx, nil
}

type devicePlayback struct {
	mu     sync.Mutex
	player *oto.Player
}

func (p *devicePlayback) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.player != nil {
		p.player.Close()
		p.player = nil
	}
}
