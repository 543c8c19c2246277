// Copyright (c) 2025 Azad Mehtiyev
// SPDX-License-Identifier: MIT

package screenshare

import (
	"context"
	"fmt"
	"sync"

	"github.com/pion/webrtc/v4"
	"github.com/sirupsen/logrus"
)

// NewPeerFactory returns a PeerFactory backed by pion. Each call builds
// a fresh peer connection carrying the stream's video track.
func NewPeerFactory(log *logrus.Logger) PeerFactory {
	return func(stream Stream) (Peer, error) {
		pc, err := webrtc.NewPeerConnection(webrtc.Configuration{
			ICEServers: []webrtc.ICEServer{
				{URLs: []string{"stun:stun.l.google.com:19302"}},
			},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create peer connection: %w", err)
		}

		p := &pionPeer{pc: pc, log: log}

		if track := stream.Track(); track != nil {
			sender, err := pc.AddTrack(track)
			if err != nil {
				pc.Close()
				return nil, fmt.Errorf("failed to add track: %w", err)
			}
			// Drain incoming RTCP so the interceptors keep running.
			go func() {
				buf := make([]byte, 1500)
				for {
					if _, _, err := sender.Read(buf); err != nil {
						return
					}
				}
			}()
		}

		pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
			log.WithField("state", state.String()).Debug("peer connection state")
			if state == webrtc.PeerConnectionStateConnected {
				p.fireConnected()
			}
		})

		return p, nil
	}
}

type pionPeer struct {
	pc  *webrtc.PeerConnection
	log *logrus.Logger

	mu          sync.Mutex
	onConnected func()
}

// Offer creates the SDP offer and waits for ICE gathering to finish so
// the payload carries the candidates inline.
func (p *pionPeer) Offer(ctx context.Context) (SignalPayload, error) {
	offer, err := p.pc.CreateOffer(nil)
	if err != nil {
		return SignalPayload{}, fmt.Errorf("failed to create offer: %w", err)
	}

	gathered := webrtc.GatheringCompletePromise(p.pc)
	if err := p.pc.SetLocalDescription(offer); err != nil {
		return SignalPayload{}, fmt.Errorf("failed to set local description: %w", err)
	}

	select {
	case <-gathered:
	case <-ctx.Done():
		return SignalPayload{}, ctx.Err()
	}

	local := p.pc.LocalDescription()
	if local == nil {
		return SignalPayload{}, fmt.Errorf("no local description after gathering")
	}
	return SignalPayload{Type: local.Type.String(), SDP: local.SDP}, nil
}

func (p *pionPeer) OnConnected(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onConnected = fn
}

func (p *pionPeer) fireConnected() {
	p.mu.Lock()
	fn := p.onConnected
	p.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (p *pionPeer) Close() error {
	return p.pc.Close()
}
