// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"context"
	"sync"
)

// =============================================================================
// CANCEL FUNCTION MANAGEMENT (THREAD-SAFE)
// =============================================================================

// cancelManager holds the cancel function of the in-flight reply. Stop runs on
// the UI goroutine while the reply runs on its own, so access is locked.
type cancelManager struct {
	mu         sync.Mutex
	cancelFunc context.CancelCauseFunc
}

func newCancelManager() *cancelManager {
	return &cancelManager{}
}

// set stores the cancel function for a new reply.
func (cm *cancelManager) set(fn context.CancelCauseFunc) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.cancelFunc = fn
}

// cancel invokes the stored cancel function with cause and clears it.
// Reports whether a reply was cancelled. Safe to call repeatedly.
func (cm *cancelManager) cancel(cause error) bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.cancelFunc == nil {
		return false
	}
	cm.cancelFunc(cause)
	cm.cancelFunc = nil
	return true
}

// clear releases the context of a finished reply.
func (cm *cancelManager) clear() {
	cm.cancel(context.Canceled)
}
