// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package repl

import (
	"os"
	"os/signal"
)

func notifyInterrupt(ch chan<- os.Signal) { signal.Notify(ch, os.Interrupt) }

func stopNotify(ch chan<- os.Signal) { signal.Stop(ch) }
