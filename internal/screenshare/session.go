// Copyright (c) 2025 Azad Mehtiyev
// SPDX-License-Identifier: MIT

// Package screenshare manages the screen sharing session.
//
// A session captures the screen with ffmpeg, feeds the frames into a
// WebRTC peer connection, and produces an SDP offer for the remote
// side. At most one share is active at a time; stopping tears down the
// capture and the peer connection in that order, exactly once, no
// matter how many paths race to stop it (user toggle, capture ending,
// peer failure).
package screenshare

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/sirupsen/logrus"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrAlreadySharing indicates Start was called while a share is active.
	ErrAlreadySharing = errors.New("screen share already active")

	// ErrCaptureFailed indicates the screen could not be captured.
	ErrCaptureFailed = errors.New("screen capture failed")
)

// offerTimeout bounds ICE gathering for the SDP offer.
const offerTimeout = 15 * time.Second

// =============================================================================
// INTERFACES
// =============================================================================

// Stream is live captured media.
type Stream interface {
	// Track returns the WebRTC track carrying the capture.
	Track() webrtc.TrackLocal
	// OnEnded registers a callback fired when the capture ends on its
	// own, e.g. the capture process exits.
	OnEnded(fn func())
	// Stop halts the capture. Safe to call more than once.
	Stop()
}

// CaptureSource produces capture streams.
type CaptureSource interface {
	Capture(ctx context.Context) (Stream, error)
}

// SignalPayload is the SDP half of the WebRTC handshake.
type SignalPayload struct {
	Type string `json:"type"`
	SDP  string `json:"sdp"`
}

// Peer is one WebRTC peer connection.
type Peer interface {
	// Offer creates the local SDP offer, waiting for ICE gathering.
	Offer(ctx context.Context) (SignalPayload, error)
	// OnConnected registers a callback fired when the connection is up.
	OnConnected(fn func())
	Close() error
}

// PeerFactory builds a peer connection around a capture stream.
type PeerFactory func(stream Stream) (Peer, error)

// =============================================================================
// EVENTS
// =============================================================================

// EventKind identifies a session event.
type EventKind int

const (
	// EventSignalReady carries the SDP offer for the remote side.
	EventSignalReady EventKind = iota
	// EventConnected fires when the peer connection is established.
	EventConnected
	// EventClosed fires after teardown completes.
	EventClosed
	// EventFailed fires when the share died on its own.
	EventFailed
)

// Event is a session state change.
type Event struct {
	Kind    EventKind
	Payload SignalPayload
	Err     error
}

// =============================================================================
// SESSION
// =============================================================================

// Session is the screen sharing state machine.
type Session struct {
	mu       sync.Mutex
	active   bool
	stream   Stream
	peer     Peer
	stopOnce *sync.Once

	capture CaptureSource
	newPeer PeerFactory
	events  chan Event
	log     *logrus.Logger
}

// NewSession creates an inactive session.
func NewSession(capture CaptureSource, newPeer PeerFactory, log *logrus.Logger) *Session {
	return &Session{
		capture: capture,
		newPeer: newPeer,
		events:  make(chan Event, 8),
		log:     log,
	}
}

// Events delivers session state changes. The channel is never closed.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Active reports whether a share is running.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Start begins a share: capture first, then the peer connection, then
// the offer. A capture failure leaves the session inactive and
// startable again. The offer is produced asynchronously and arrives as
// an EventSignalReady.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		return ErrAlreadySharing
	}
	s.mu.Unlock()

	stream, err := s.capture.Capture(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCaptureFailed, err)
	}

	peer, err := s.newPeer(stream)
	if err != nil {
		stream.Stop()
		return fmt.Errorf("failed to create peer connection: %w", err)
	}

	s.mu.Lock()
	if s.active {
		// Lost the race to another Start.
		s.mu.Unlock()
		stream.Stop()
		peer.Close()
		return ErrAlreadySharing
	}
	s.active = true
	s.stream = stream
	s.peer = peer
	s.stopOnce = new(sync.Once)
	s.mu.Unlock()

	// The capture ending (process death, display gone) tears the whole
	// share down.
	stream.OnEnded(func() {
		s.emit(Event{Kind: EventFailed, Err: errors.New("capture ended")})
		s.Stop()
	})
	peer.OnConnected(func() {
		s.emit(Event{Kind: EventConnected})
	})

	go s.produceOffer(peer)

	s.log.Info("screen share started")
	return nil
}

// Stop tears the share down. Idempotent; concurrent callers share one
// teardown.
func (s *Session) Stop() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	once := s.stopOnce
	s.mu.Unlock()

	once.Do(s.teardown)
}

func (s *Session) teardown() {
	s.mu.Lock()
	stream, peer := s.stream, s.peer
	s.stream, s.peer = nil, nil
	s.active = false
	s.mu.Unlock()

	if stream != nil {
		stream.Stop()
	}
	if peer != nil {
		if err := peer.Close(); err != nil {
			s.log.WithError(err).Warn("failed to close peer connection")
		}
	}

	s.emit(Event{Kind: EventClosed})
	s.log.Info("screen share stopped")
}

func (s *Session) produceOffer(peer Peer) {
	ctx, cancel := context.WithTimeout(context.Background(), offerTimeout)
	defer cancel()

	payload, err := peer.Offer(ctx)
	if err != nil {
		s.log.WithError(err).Error("failed to create offer")
		s.emit(Event{Kind: EventFailed, Err: err})
		s.Stop()
		return
	}
	s.emit(Event{Kind: EventSignalReady, Payload: payload})
}

// emit delivers an event without ever blocking the state machine.
func (s *Session) emit(ev Event) {
	select {
	case s.events <- ev:
	default:
		s.log.WithField("kind", ev.Kind).Warn("dropped session event")
	}
}
