package serial

import (
	"bytes"
	"io"
	"sync"
)

// Loopback is an in-memory Port for tests. Data queued with Feed comes
// back out of Read; Write collects into a buffer the test can inspect
// with Sent. Read blocks until data arrives or the port closes, the
// same shape a blocking device read has.
type Loopback struct {
	mu     sync.Mutex
	cond   *sync.Cond
	rx     bytes.Buffer
	tx     bytes.Buffer
	closed bool
}

// NewLoopback creates an open Loopback.
func NewLoopback() *Loopback {
	l := &Loopback{}
	l.cond = sync.NewCond(&l.mu)
	return l
}

// Feed queues data for subsequent Reads.
func (l *Loopback) Feed(data []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rx.Write(data)
	l.cond.Broadcast()
}

func (l *Loopback) Read(b []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for l.rx.Len() == 0 && !l.closed {
		l.cond.Wait()
	}
	if l.rx.Len() == 0 {
		return 0, io.ErrClosedPipe
	}
	return l.rx.Read(b)
}

func (l *Loopback) Write(b []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return 0, io.ErrClosedPipe
	}
	return l.tx.Write(b)
}

// Sent returns a copy of everything written to the port.
func (l *Loopback) Sent() []byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]byte(nil), l.tx.Bytes()...)
}

// Close unblocks pending Reads, which drain remaining data and then
// return io.ErrClosedPipe.
func (l *Loopback) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	l.cond.Broadcast()
	return nil
}

// Flush discards queued input.
func (l *Loopback) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rx.Reset()
	return nil
}
