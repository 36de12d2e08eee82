package server

import "github.com/voxelhq/voxd/internal/engine"

// The daemon-state handle: the single resident project, the lock guarding
// it, and the engine facilities handlers need.
//
// Exactly one State exists per daemon process. The project field is read and
// written only by handlers running under the lock; the lock itself is
// acquired and released exclusively by the dispatcher.
type State struct {
	lock     projectLock
	project  *engine.Project
	renderer engine.Renderer // nil when offscreen rendering is disabled.
	backups  string          // Backup directory, empty to disable backups.
}

// Creates the daemon state.
func NewState(renderer engine.Renderer, backupDir string) *State {
	return &State{
		renderer: renderer,
		backups:  backupDir,
	}
}

// Returns the resident project, or nil when none exists. Intended for
// inspection from tests; handlers access the field under the lock.
func (s *State) Project() *engine.Project {
	return s.project
}
