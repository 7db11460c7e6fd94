// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import "time"

// DefaultInterval is the repaint period while a reply streams.
const DefaultInterval = 200 * time.Millisecond

// Ticker is the repaint clock. *time.Ticker satisfies it through wallTicker;
// tests substitute a manual one.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory creates a running Ticker with period d.
type TickerFactory func(d time.Duration) Ticker

type wallTicker struct {
	t *time.Ticker
}

func (w wallTicker) C() <-chan time.Time { return w.t.C }
func (w wallTicker) Stop()               { w.t.Stop() }

// NewWallTicker is the default TickerFactory.
func NewWallTicker(d time.Duration) Ticker {
	return wallTicker{t: time.NewTicker(d)}
}
