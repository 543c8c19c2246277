// Copyright (c) 2025 Azad Mehtiyev
// SPDX-License-Identifier: MIT

// Package audio plays synthesized speech clips.
//
// Clips arrive as data: URLs carrying base64 MP3, or occasionally as
// plain http(s) URLs. One clip plays at a time; starting a new clip
// stops whatever is playing. Playback failures never disturb the chat,
// they are logged and dropped.
package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNoAudio indicates an empty or unusable audio locator.
	ErrNoAudio = errors.New("no audio data")

	// ErrUnsupportedLocator indicates a locator scheme the player
	// cannot fetch.
	ErrUnsupportedLocator = errors.New("unsupported audio locator")
)

// maxClipSize caps fetched audio at a size no speech clip should reach.
const maxClipSize = 32 * 1024 * 1024 // 32MB

// =============================================================================
// OUTPUT
// =============================================================================

// Playback is a clip in progress.
type Playback interface {
	// Stop halts playback. Safe to call more than once.
	Stop()
}

// Output turns MP3 bytes into sound. The real implementation sits on
// the system audio device; tests substitute a fake.
type Output interface {
	Play(mp3Data []byte) (Playback, error)
}

// =============================================================================
// PLAYER
// =============================================================================

// Player fetches and plays speech clips, one at a time.
type Player struct {
	mu      sync.Mutex
	current Playback

	output Output
	http   *http.Client
	log    *logrus.Logger
}

// NewPlayer creates a player on the given output.
func NewPlayer(output Output, log *logrus.Logger) *Player {
	return &Player{
		output: output,
		http:   &http.Client{Timeout: 30 * time.Second},
		log:    log,
	}
}

// Play fetches the clip behind locator and starts it, stopping any clip
// already playing. It returns once playback has started.
func (p *Player) Play(ctx context.Context, locator string) error {
	data, err := p.fetch(ctx, locator)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return ErrNoAudio
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current != nil {
		p.current.Stop()
		p.current = nil
	}

	playback, err := p.output.Play(data)
	if err != nil {
		return fmt.Errorf("failed to start playback: %w", err)
	}
	p.current = playback

	p.log.WithField("bytes", len(data)).Debug("playback started")
	return nil
}

// Stop halts the current clip, if any.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current != nil {
		p.current.Stop()
		p.current = nil
	}
}

// fetch resolves a locator to MP3 bytes.
func (p *Player) fetch(ctx context.Context, locator string) ([]byte, error) {
	switch {
	case locator == "":
		return nil, ErrNoAudio
	case isDataURL(locator):
		return decodeDataURL(locator)
	case isHTTPURL(locator):
		return p.fetchHTTP(ctx, locator)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLocator, preview(locator))
	}
}

func (p *Player) fetchHTTP(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("audio fetch returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxClipSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read audio: %w", err)
	}
	if int64(len(data)) == maxClipSize {
		return nil, fmt.Errorf("audio clip exceeded %d bytes", int64(maxClipSize))
	}
	return data, nil
}

// preview shortens a locator for error messages. Data URLs can be
// megabytes long.
func preview(locator string) string {
	const n = 40
	if len(locator) <= n {
		return locator
	}
	return locator[:n] + "..."
}
