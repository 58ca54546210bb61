package core

import "errors"

// Engine errors. Callers match these with errors.Is; the engine wraps them
// with per-operation context.
var (
	ErrTaskNotFound    = errors.New("task not found")
	ErrProjectNotFound = errors.New("project not found")

	// ErrDependencyNotFound rejects task creation that references a
	// nonexistent dependency. No partial task is persisted.
	ErrDependencyNotFound = errors.New("dependency not found")

	// ErrDuplicatePrefix rejects project creation with an already-used prefix.
	ErrDuplicatePrefix = errors.New("project prefix already in use")

	// ErrConcurrentModification means a patch or delete affected zero rows
	// because the target vanished between lookup and mutation. Never retried
	// here; retry semantics are the caller's call.
	ErrConcurrentModification = errors.New("task modified or removed concurrently")
)
