package scan

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
)

// ErrNotArmed is returned by Next when the previous symbol has been
// delivered and Arm has not been called since.
var ErrNotArmed = errors.New("scanner not armed")

// Symbol is one decoded barcode.
type Symbol struct {
	Symbology string
	Data      string
}

// Scanner delivers decoded lines from a keyboard-wedge scanner or manual
// entry. Each armed session yields at most one symbol. Lines read while
// disarmed are queued in order and delivered one per session, so a burst
// of input or a piped file is never lost.
type Scanner struct {
	ready chan struct{}
	done  chan struct{}

	mu       sync.Mutex
	queue    []Symbol
	armed    bool
	finished bool
	err      error
}

// NewScanner starts reading r. The scanner starts disarmed.
func NewScanner(r io.Reader) *Scanner {
	s := &Scanner{
		ready: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
	go s.pump(r)
	return s
}

func (s *Scanner) pump(r io.Reader) {
	defer close(s.done)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		data := strings.TrimSpace(sc.Text())
		if data == "" {
			continue
		}
		s.mu.Lock()
		s.queue = append(s.queue, Symbol{Symbology: Symbology(data), Data: data})
		s.mu.Unlock()
		select {
		case s.ready <- struct{}{}:
		default:
		}
	}
	s.mu.Lock()
	s.finished = true
	s.err = sc.Err()
	s.mu.Unlock()
}

// Arm opens a new scan session.
func (s *Scanner) Arm() {
	s.mu.Lock()
	s.armed = true
	s.mu.Unlock()
}

// Armed reports whether a session is open.
func (s *Scanner) Armed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.armed
}

// Next blocks until the armed session yields a symbol, taking the oldest
// queued line first. The session closes as soon as a symbol is captured.
// It returns io.EOF once the input is exhausted and the queue drained.
func (s *Scanner) Next(ctx context.Context) (Symbol, error) {
	for {
		s.mu.Lock()
		if !s.armed {
			s.mu.Unlock()
			return Symbol{}, ErrNotArmed
		}
		if len(s.queue) > 0 {
			sym := s.queue[0]
			s.queue = s.queue[1:]
			s.armed = false
			s.mu.Unlock()
			return sym, nil
		}
		if s.finished {
			err := s.err
			s.mu.Unlock()
			if err == nil {
				err = io.EOF
			}
			return Symbol{}, err
		}
		s.mu.Unlock()

		select {
		case <-s.ready:
		case <-s.done:
		case <-ctx.Done():
			return Symbol{}, ctx.Err()
		}
	}
}

// Symbology guesses the barcode family from the decoded payload.
func Symbology(data string) string {
	for _, r := range data {
		if r < '0' || r > '9' {
			return "code128"
		}
	}
	switch len(data) {
	case 8:
		return "ean8"
	case 12:
		return "upca"
	case 13:
		return "ean13"
	default:
		return "code128"
	}
}
