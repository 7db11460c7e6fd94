// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package repl

import (
	"os"

	"github.com/peterh/liner"
)

// LineReader reads one line of user input. *Liner implements it.
type LineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(line string)
}

// Liner is a liner.State with history persisted to a file.
type Liner struct {
	*liner.State
	historyFile string
}

// NewLiner creates a line editor. Ctrl+C aborts the prompt. History is read
// from historyFile when it exists; an empty path disables persistence.
func NewLiner(historyFile string) *Liner {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	l := &Liner{State: line, historyFile: historyFile}
	if historyFile != "" {
		if f, err := os.Open(historyFile); err == nil {
			l.ReadHistory(f)
			f.Close()
		}
	}
	return l
}

// Close saves history with owner-only permissions and restores the terminal.
func (l *Liner) Close() error {
	if l.historyFile != "" {
		if f, err := os.OpenFile(l.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			l.WriteHistory(f)
			f.Close()
		}
	}
	return l.State.Close()
}
