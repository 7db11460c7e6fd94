// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream turns a model's fragment stream into throttled repaints.
//
// Fragments may arrive far faster than a terminal can usefully redraw. The
// Coordinator accumulates them and repaints the bot message on a fixed
// interval (200ms by default), skipping repaints that would show nothing new.
//
// # Lifecycle of one reply
//
//  1. typing indicator on, input off
//  2. the prompt is issued; if it fails to start, input comes back and no
//     message is created
//  3. a streaming bot message container is created
//  4. fragments are appended while a ticker repaints changed text
//  5. on every exit (completion, stop, error) the ticker stops, a final
//     repaint runs and the indicator hides
//  6. the coordinator is freed, the caller's BeforeRelease hook runs, and
//     input is re-enabled last
//
// Ticks and fragment appends are handled by a single select loop, so the
// accumulated text has exactly one writer.
package stream
