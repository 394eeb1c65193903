package engine

import (
	"time"
)

// Start begins playback with the first beat firing immediately. Starting while running does nothing.
func (e *Engine) Start() error {
	return e.update(func(now time.Time) error {
		return e.startLocked(now)
	}, wakeLoop)
}

// Stop ends playback and cancels every pending task.
func (e *Engine) Stop() error {
	return e.update(func(time.Time) error {
		e.stopLocked()
		return nil
	}, wakeLoop)
}

// Toggle starts a stopped engine and stops a running one. It returns whether the engine is now running.
func (e *Engine) Toggle() (bool, error) {
	var running bool
	err := e.update(func(now time.Time) error {
		if e.main.Running() {
			e.stopLocked()
			return nil
		}
		err := e.startLocked(now)
		running = e.main.Running()
		return err
	}, wakeLoop)
	return running, err
}

// Running reports whether the main clock is playing.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.main.Running()
}

// StopAfter stops playback d from now unless playback is stopped or restarted first.
func (e *Engine) StopAfter(d time.Duration) error {
	return e.update(func(now time.Time) error {
		e.tasks.Schedule(taskAutoStop, now.Add(d), func(time.Time) {
			e.log.WithField("after", d).Info("auto stop")
			e.stopLocked()
		})
		return nil
	}, wakeLoop)
}

func (e *Engine) startLocked(now time.Time) error {
	if e.main.Running() {
		return nil
	}
	e.tasks.Cancel(taskAutoStop)
	e.tempo.SetPlaying(true)
	if err := e.main.Start(now, true); err != nil {
		e.tempo.SetPlaying(false)
		return err
	}
	e.dirty = true
	return nil
}

// stopLocked stops the main clock. Every debounce and auto stop is cancelled with it so no
// stale task can act after playback ended.
func (e *Engine) stopLocked() {
	wasRunning := e.main.Stop()
	e.tempo.SetPlaying(false)
	e.cancelTasksLocked()
	if wasRunning {
		e.dirty = true
	}
}

func (e *Engine) cancelTasksLocked() {
	if e.tasks.Cancel(taskCommitBPM) && !e.tempo.Dragging() {
		e.tempo.CancelPending()
	}
	e.tasks.Cancel(taskAutoStop)
	if e.tasks.Cancel(taskPreviewStop) {
		e.preview.Stop()
	}
}
