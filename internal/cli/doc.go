// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli parses the trxchat command line and inspects the terminal.
//
// # Usage
//
//	opts, err := cli.Parse(os.Args[1:])
//	if err != nil {
//	    cli.Usage(os.Stderr)
//	    os.Exit(2)
//	}
//	opts.Apply(cfg)
//	mode := cli.ResolveMode(cfg.UI.Mode, cli.IsTTY(), cli.IsStdoutTTY())
package cli
