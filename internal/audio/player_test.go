// Copyright (c) 2025 Azad Mehtiyev
// SPDX-License-Identifier: MIT

package audio

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AzazMehtiyev/DARK-AI/internal/logging"
)

// =============================================================================
// FAKES
// =============================================================================

type fakePlayback struct {
	stopped bool
}

func (f *fakePlayback) Stop() { f.stopped = true }

type fakeOutput struct {
	clips     [][]byte
	playbacks []*fakePlayback
	err       error
}

func (f *fakeOutput) Play(mp3Data []byte) (Playback, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.clips = append(f.clips, mp3Data)
	pb := &fakePlayback{}
	f.playbacks = append(f.playbacks, pb)
	return pb, nil
}

func dataURL(payload []byte) string {
	return "data:audio/mpeg;base64," + base64.StdEncoding.EncodeToString(payload)
}

// =============================================================================
// PLAYER TESTS
// =============================================================================

func TestPlayDataURL(t *testing.T) {
	out := &fakeOutput{}
	p := NewPlayer(out, logging.Discard())

	if err := p.Play(context.Background(), dataURL([]byte("mp3-bytes"))); err != nil {
		t.Fatalf("Play failed: %v", err)
	}

	if len(out.clips) != 1 {
		t.Fatalf("played %d clips, want 1", len(out.clips))
	}
	if string(out.clips[0]) != "mp3-bytes" {
		t.Errorf("clip = %q", out.clips[0])
	}
}

func TestPlayPreemptsCurrentClip(t *testing.T) {
	out := &fakeOutput{}
	p := NewPlayer(out, logging.Discard())

	p.Play(context.Background(), dataURL([]byte("first")))
	p.Play(context.Background(), dataURL([]byte("second")))

	if len(out.playbacks) != 2 {
		t.Fatalf("playbacks = %d, want 2", len(out.playbacks))
	}
	if !out.playbacks[0].stopped {
		t.Error("first clip should be stopped when the second starts")
	}
	if out.playbacks[1].stopped {
		t.Error("second clip should still be playing")
	}
}

func TestStop(t *testing.T) {
	out := &fakeOutput{}
	p := NewPlayer(out, logging.Discard())

	p.Play(context.Background(), dataURL([]byte("clip")))
	p.Stop()

	if !out.playbacks[0].stopped {
		t.Error("Stop should halt the current clip")
	}
	// Stop with nothing playing is harmless.
	p.Stop()
}

func TestPlayHTTPLocator(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("remote-mp3"))
	}))
	defer srv.Close()

	out := &fakeOutput{}
	p := NewPlayer(out, logging.Discard())

	if err := p.Play(context.Background(), srv.URL+"/clip.mp3"); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if string(out.clips[0]) != "remote-mp3" {
		t.Errorf("clip = %q", out.clips[0])
	}
}

func TestPlayRejectsBadLocators(t *testing.T) {
	out := &fakeOutput{}
	p := NewPlayer(out, logging.Discard())
	ctx := context.Background()

	if err := p.Play(ctx, ""); !errors.Is(err, ErrNoAudio) {
		t.Errorf("empty locator: err = %v, want ErrNoAudio", err)
	}
	if err := p.Play(ctx, "file:///etc/passwd"); !errors.Is(err, ErrUnsupportedLocator) {
		t.Errorf("file locator: err = %v, want ErrUnsupportedLocator", err)
	}
	if err := p.Play(ctx, "data:audio/mpeg;base64,!!!"); !errors.Is(err, ErrNoAudio) {
		t.Errorf("bad base64: err = %v, want ErrNoAudio", err)
	}
	if len(out.clips) != 0 {
		t.Errorf("output should not have been touched, got %d clips", len(out.clips))
	}
}

func TestPlayOutputFailure(t *testing.T) {
	out := &fakeOutput{err: errors.New("no audio device")}
	p := NewPlayer(out, logging.Discard())

	if err := p.Play(context.Background(), dataURL([]byte("clip"))); err == nil {
		t.Error("expected error when output fails")
	}
}

// =============================================================================
// DATA URL TESTS
// =============================================================================

func TestDecodeDataURL(t *testing.T) {
	data, err := decodeDataURL(dataURL([]byte{0xFF, 0xFB, 0x90}))
	if err != nil {
		t.Fatalf("decodeDataURL failed: %v", err)
	}
	if len(data) != 3 || data[0] != 0xFF {
		t.Errorf("data = %v", data)
	}
}

func TestDecodeDataURLRejectsNonBase64(t *testing.T) {
	if _, err := decodeDataURL("data:text/plain,hello"); err == nil {
		t.Error("expected error for non-base64 data URL")
	}
	if _, err := decodeDataURL("data:audio/mpeg;base64"); err == nil {
		t.Error("expected error for data URL without payload")
	}
}
