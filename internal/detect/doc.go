// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package detect checks whether the host can run the chat widget.
//
// The result is a Report: an ordered list of human-readable problems. An
// empty report means the widget is ready. The checks mirror what a user can
// fix: run in a capable terminal, start the local model server, pull the
// configured model, and keep the endpoint on this machine. A Snapshot also
// carries the model check's error, which narrows the first model line to the
// cause (server down, model missing, timeout).
//
// # Key Types
//
//   - Environment: The facts the report is computed from
//   - Snapshot: An Environment gathered once by Probe
//   - Static: A fixed Environment for tests and scripted hosts
//   - Messages: Localized report text (pt, en)
//
// # Usage
//
//	snap := detect.Probe(ctx, detect.ProbeOptions{
//	    Endpoint: cfg.Model.URL,
//	    Check:    detect.OllamaCheck(client, cfg.Model.Name),
//	})
//	report := detect.CheckRequirements(snap, detect.MessagesFor("pt", cfg.Model.Name))
package detect
