// Copyright (c) 2025 Azad Mehtiyev
// SPDX-License-Identifier: MIT

package screenshare

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"
	"github.com/pion/webrtc/v4/pkg/media/ivfreader"
	"github.com/sirupsen/logrus"
)

// FFmpegSource captures an X11 display with ffmpeg, encoding to VP8 in
// an IVF container on stdout.
type FFmpegSource struct {
	ffmpegPath string
	display    string
	frameRate  int
	log        *logrus.Logger
}

// NewFFmpegSource creates a capture source for the given display.
func NewFFmpegSource(ffmpegPath, display string, frameRate int, log *logrus.Logger) *FFmpegSource {
	return &FFmpegSource{
		ffmpegPath: ffmpegPath,
		display:    display,
		frameRate:  frameRate,
		log:        log,
	}
}

// Capture starts ffmpeg and returns the live stream. The context only
// governs startup; the stream runs until Stop or process exit.
func (f *FFmpegSource) Capture(ctx context.Context) (Stream, error) {
	if _, err := exec.LookPath(f.ffmpegPath); err != nil {
		return nil, fmt.Errorf("ffmpeg not found: %w", err)
	}

	// VP8 keeps the pipeline simple: IVF frames pass straight through
	// to the track without transcoding on the way out.
	cmd := exec.Command(f.ffmpegPath,
		"-f", "x11grab",
		"-framerate", strconv.Itoa(f.frameRate),
		"-i", f.display,
		"-c:v", "libvpx",
		"-b:v", "1M",
		"-deadline", "realtime",
		"-f", "ivf",
		"pipe:1",
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open ffmpeg pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	track, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8},
		"screen", "darkai-screen",
	)
	if err != nil {
		cmd.Process.Kill()
		cmd.Wait()
		return nil, fmt.Errorf("failed to create video track: %w", err)
	}

	stream := &ffmpegStream{
		cmd:   cmd,
		track: track,
		log:   f.log,
	}
	go stream.pump(stdout, time.Second/time.Duration(f.frameRate))

	f.log.WithFields(logrus.Fields{
		"display":    f.display,
		"frame_rate": f.frameRate,
	}).Info("screen capture started")
	return stream, nil
}

// ffmpegStream feeds IVF frames from a running ffmpeg into a VP8 track.
type ffmpegStream struct {
	cmd   *exec.Cmd
	track *webrtc.TrackLocalStaticSample
	log   *logrus.Logger

	mu       sync.Mutex
	onEnded  func()
	done     bool
	stopped  bool
	stopOnce sync.Once
}

func (s *ffmpegStream) Track() webrtc.TrackLocal {
	return s.track
}

func (s *ffmpegStream) OnEnded(fn func()) {
	s.mu.Lock()
	alreadyEnded := s.done && !s.stopped
	if !alreadyEnded {
		s.onEnded = fn
	}
	s.mu.Unlock()

	// ffmpeg can die before the hook lands. The callback still has to
	// fire so the teardown path runs.
	if alreadyEnded {
		fn()
	}
}

func (s *ffmpegStream) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.stopped = true
		s.mu.Unlock()

		if s.cmd.Process != nil {
			s.cmd.Process.Kill()
		}
		s.cmd.Wait()
	})
}

// pump reads IVF frames from ffmpeg and writes them to the track until
// the pipe closes.
func (s *ffmpegStream) pump(r io.ReadCloser, frameDuration time.Duration) {
	defer s.ended()

	ivf, _, err := ivfreader.NewWith(r)
	if err != nil {
		s.log.WithError(err).Error("failed to read capture header")
		return
	}

	for {
		frame, _, err := ivf.ParseNextFrame()
		if err != nil {
			if err != io.EOF && !s.wasStopped() {
				s.log.WithError(err).Warn("capture read failed")
			}
			return
		}

		err = s.track.WriteSample(media.Sample{
			Data:     frame,
			Duration: frameDuration,
		})
		if err != nil {
			s.log.WithError(err).Warn("failed to write video sample")
			return
		}
	}
}

// ended fires the OnEnded callback unless Stop already ran. When no hook
// is registered yet, the done flag makes a late OnEnded fire immediately.
func (s *ffmpegStream) ended() {
	s.mu.Lock()
	s.done = true
	fn := s.onEnded
	stopped := s.stopped
	s.mu.Unlock()

	if stopped || fn == nil {
		return
	}
	fn()
}

func (s *ffmpegStream) wasStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

var _ CaptureSource = (*FFmpegSource)(nil)
