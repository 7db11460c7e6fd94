// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat wires the view, the capability check, the model session and
// the streaming coordinator into one controller.
//
// # States
//
//   - Unopened: Init has run, the window has not been opened yet
//   - Ready: requirements met, input enabled, sends accepted
//   - Generating: a reply is streaming, sends rejected until it ends
//   - Degraded: requirements unmet, the report is shown and input disabled
//
// Every open re-runs the capability check, so a user who fixes the problem
// (starts the model server, pulls the model) only has to reopen the window.
//
// The model session is created in the background by Init; opens wait for it.
// A reply leaves Generating before the coordinator re-enables input, so a
// line submitted the moment input returns is accepted.
package chat
