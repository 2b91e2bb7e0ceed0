package editor

import (
	"os"
	"os/signal"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// SigwinchWatcher records terminal resize notifications. The signal is never
// acted on from the handler goroutine; the editor loop polls Notified once
// per iteration so all state mutation stays single-owner.
type SigwinchWatcher struct {
	notified atomic.Bool
	ch       chan os.Signal
}

func NewSigwinchWatcher() *SigwinchWatcher {
	w := &SigwinchWatcher{
		ch: make(chan os.Signal, 1),
	}
	signal.Notify(w.ch, unix.SIGWINCH)
	go func() {
		for range w.ch {
			w.notified.Store(true)
		}
	}()
	return w
}

// Notified reports whether a resize happened since the last call and clears
// the flag. Never blocks.
func (w *SigwinchWatcher) Notified() bool {
	return w.notified.Swap(false)
}

// Stop unsubscribes from the signal and ends the watcher goroutine.
func (w *SigwinchWatcher) Stop() {
	signal.Stop(w.ch)
	close(w.ch)
}
