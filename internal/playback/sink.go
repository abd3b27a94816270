// /internal/playback/sink.go
package playback

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"layeh.com/gopus"
)

const (
	channels   = 2
	sampleRate = 48000
	frameSize  = 960 // 20ms at 48kHz
)

var (
	ErrAssetMissing = errors.New("sound file is missing on disk")
	ErrBusy         = errors.New("another sound is currently playing")
)

// Voice is the subset of a voice connection the sink streams to.
type Voice interface {
	Speaking(b bool) error
	OpusSend() chan<- []byte
}

// Sink is the single shared audio output of the process. Only one clip can
// be audibly playing at a time, whatever guild it belongs to; that is an
// accepted limitation of the design.
type Sink struct {
	mu       sync.Mutex
	busy     bool
	stop     chan struct{}
	stopOnce *sync.Once
}

func NewSink() *Sink {
	return &Sink{}
}

// Play starts streaming the file at path to vc and returns a channel that
// is closed exactly once when playback ends, whether by reaching the end of
// the clip, by Stop, or by a streaming error.
func (s *Sink) Play(vc Voice, path string) (<-chan struct{}, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, ErrAssetMissing
	}

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	s.busy = true
	stop := make(chan struct{})
	s.stop = stop
	s.stopOnce = &sync.Once{}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() {
			s.mu.Lock()
			s.busy = false
			s.mu.Unlock()
		}()

		if err := streamFile(vc, path, stop); err != nil {
			log.Printf("[Sink] Playback of %s ended with error: %v", path, err)
		}
	}()

	return done, nil
}

// Stop cuts the current clip early. Safe to call at any time, any number
// of times.
func (s *Sink) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopOnce == nil {
		return
	}
	stop := s.stop
	s.stopOnce.Do(func() { close(stop) })
}

// Busy reports whether a clip is currently streaming.
func (s *Sink) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// streamFile decodes the file to PCM, encodes 20ms Opus frames and feeds
// them to the connection until EOF or stop.
func streamFile(vc Voice, path string, stop <-chan struct{}) error {
	pcm, cleanup, err := decodePCM(path)
	if err != nil {
		return fmt.Errorf("decode error: %w", err)
	}
	defer cleanup()
	defer pcm.Close()

	encoder, err := gopus.NewEncoder(sampleRate, channels, gopus.Audio)
	if err != nil {
		return fmt.Errorf("encoder error: %w", err)
	}

	if err := vc.Speaking(true); err != nil {
		return fmt.Errorf("speaking error: %w", err)
	}
	defer func() { _ = vc.Speaking(false) }()

	pcmBuf := make([]byte, frameSize*channels*2)
	intBuf := make([]int16, frameSize*channels)

	for {
		select {
		case <-stop:
			return nil
		default:
			_, err := io.ReadFull(pcm, pcmBuf)
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil // clip finished
			}
			if err != nil {
				return fmt.Errorf("read error: %w", err)
			}

			for i := range intBuf {
				intBuf[i] = int16(binary.LittleEndian.Uint16(pcmBuf[i*2 : i*2+2]))
			}

			opus, err := encoder.Encode(intBuf, frameSize, len(pcmBuf))
			if err != nil {
				return fmt.Errorf("encode error: %w", err)
			}

			select {
			case vc.OpusSend() <- opus:
			case <-stop:
				return nil
			}
		}
	}
}
