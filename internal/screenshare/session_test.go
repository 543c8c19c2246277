// Copyright (c) 2025 Azad Mehtiyev
// SPDX-License-Identifier: MIT

package screenshare

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pion/webrtc/v4"

	"github.com/AzazMehtiyev/DARK-AI/internal/logging"
)

// =============================================================================
// FAKES
// =============================================================================

type fakeStream struct {
	mu      sync.Mutex
	stops   int
	onEnded func()
}

func (f *fakeStream) Track() webrtc.TrackLocal { return nil }

func (f *fakeStream) OnEnded(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onEnded = fn
}

func (f *fakeStream) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
}

func (f *fakeStream) stopCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stops
}

func (f *fakeStream) end() {
	f.mu.Lock()
	fn := f.onEnded
	f.mu.Unlock()
	if fn != nil {
		fn()
	}
}

type fakeCapture struct {
	stream *fakeStream
	err    error
	calls  int
}

func (f *fakeCapture) Capture(ctx context.Context) (Stream, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.stream, nil
}

type fakePeer struct {
	mu          sync.Mutex
	closes      int
	offerErr    error
	onConnected func()
}

func (f *fakePeer) Offer(ctx context.Context) (SignalPayload, error) {
	if f.offerErr != nil {
		return SignalPayload{}, f.offerErr
	}
	return SignalPayload{Type: "offer", SDP: "v=0..."}, nil
}

func (f *fakePeer) OnConnected(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onConnected = fn
}

func (f *fakePeer) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	return nil
}

func (f *fakePeer) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closes
}

func newTestSession(capture *fakeCapture, peer *fakePeer, peerErr error) *Session {
	factory := func(stream Stream) (Peer, error) {
		if peerErr != nil {
			return nil, peerErr
		}
		return peer, nil
	}
	return NewSession(capture, factory, logging.Discard())
}

func waitEvent(t *testing.T, s *Session, kind EventKind) Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-s.Events():
			if ev.Kind == kind {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for event %d", kind)
		}
	}
}

// =============================================================================
// SESSION TESTS
// =============================================================================

func TestStartEmitsOffer(t *testing.T) {
	stream := &fakeStream{}
	peer := &fakePeer{}
	s := newTestSession(&fakeCapture{stream: stream}, peer, nil)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !s.Active() {
		t.Error("session should be active")
	}

	ev := waitEvent(t, s, EventSignalReady)
	if ev.Payload.Type != "offer" || ev.Payload.SDP == "" {
		t.Errorf("payload = %+v", ev.Payload)
	}
}

func TestStartWhileActive(t *testing.T) {
	stream := &fakeStream{}
	s := newTestSession(&fakeCapture{stream: stream}, &fakePeer{}, nil)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := s.Start(context.Background()); !errors.Is(err, ErrAlreadySharing) {
		t.Errorf("err = %v, want ErrAlreadySharing", err)
	}
}

func TestStartCaptureFailureLeavesSessionStartable(t *testing.T) {
	capture := &fakeCapture{err: errors.New("no display")}
	s := newTestSession(capture, &fakePeer{}, nil)

	if err := s.Start(context.Background()); !errors.Is(err, ErrCaptureFailed) {
		t.Fatalf("err = %v, want ErrCaptureFailed", err)
	}
	if s.Active() {
		t.Error("session must stay inactive after capture failure")
	}

	// A later attempt must be allowed through.
	capture.err = nil
	capture.stream = &fakeStream{}
	if err := s.Start(context.Background()); err != nil {
		t.Errorf("second Start failed: %v", err)
	}
}

func TestStartPeerFailureStopsStream(t *testing.T) {
	stream := &fakeStream{}
	s := newTestSession(&fakeCapture{stream: stream}, nil, errors.New("webrtc down"))

	if err := s.Start(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if stream.stopCount() != 1 {
		t.Errorf("stream stops = %d, want 1", stream.stopCount())
	}
	if s.Active() {
		t.Error("session must stay inactive")
	}
}

func TestStopTearsDownOnce(t *testing.T) {
	stream := &fakeStream{}
	peer := &fakePeer{}
	s := newTestSession(&fakeCapture{stream: stream}, peer, nil)

	s.Start(context.Background())
	s.Stop()
	s.Stop()

	if stream.stopCount() != 1 {
		t.Errorf("stream stops = %d, want 1", stream.stopCount())
	}
	if peer.closeCount() != 1 {
		t.Errorf("peer closes = %d, want 1", peer.closeCount())
	}
	if s.Active() {
		t.Error("session should be inactive after Stop")
	}

	waitEvent(t, s, EventClosed)
}

func TestConcurrentStops(t *testing.T) {
	stream := &fakeStream{}
	peer := &fakePeer{}
	s := newTestSession(&fakeCapture{stream: stream}, peer, nil)
	s.Start(context.Background())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Stop()
		}()
	}
	wg.Wait()

	if stream.stopCount() != 1 {
		t.Errorf("stream stops = %d, want 1", stream.stopCount())
	}
	if peer.closeCount() != 1 {
		t.Errorf("peer closes = %d, want 1", peer.closeCount())
	}
}

func TestCaptureEndingStopsSession(t *testing.T) {
	stream := &fakeStream{}
	peer := &fakePeer{}
	s := newTestSession(&fakeCapture{stream: stream}, peer, nil)
	s.Start(context.Background())

	stream.end()

	waitEvent(t, s, EventClosed)
	if s.Active() {
		t.Error("session should be inactive after capture ended")
	}
	if peer.closeCount() != 1 {
		t.Errorf("peer closes = %d, want 1", peer.closeCount())
	}
}

func TestOfferFailureStopsSession(t *testing.T) {
	stream := &fakeStream{}
	peer := &fakePeer{offerErr: errors.New("ice failed")}
	s := newTestSession(&fakeCapture{stream: stream}, peer, nil)
	s.Start(context.Background())

	ev := waitEvent(t, s, EventFailed)
	if ev.Err == nil {
		t.Error("EventFailed should carry the error")
	}
	waitEvent(t, s, EventClosed)
	if s.Active() {
		t.Error("session should be inactive after offer failure")
	}
}

func TestPeerConnectedEvent(t *testing.T) {
	stream := &fakeStream{}
	peer := &fakePeer{}
	s := newTestSession(&fakeCapture{stream: stream}, peer, nil)
	s.Start(context.Background())

	// Simulate the connection coming up.
	peer.mu.Lock()
	fn := peer.onConnected
	peer.mu.Unlock()
	if fn == nil {
		t.Fatal("session should register an OnConnected callback")
	}
	fn()

	waitEvent(t, s, EventConnected)
}

func TestRestartAfterStop(t *testing.T) {
	stream := &fakeStream{}
	capture := &fakeCapture{stream: stream}
	s := newTestSession(capture, &fakePeer{}, nil)

	s.Start(context.Background())
	s.Stop()

	capture.stream = &fakeStream{}
	if err := s.Start(context.Background()); err != nil {
		t.Errorf("restart failed: %v", err)
	}
	if !s.Active() {
		t.Error("session should be active after restart")
	}
}
