// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package widget

import "github.com/jeranaias/trxchat/internal/detect"

// Labels are the fixed strings of the window chrome.
type Labels struct {
	Placeholder string
	Stop        string
	Generating  string
	Disabled    string
	Close       string
}

var labels = map[string]Labels{
	"pt": {
		Placeholder: "Digite sua mensagem...",
		Stop:        "■ Parar (esc)",
		Generating:  "Gerando resposta...",
		Disabled:    "Chat indisponível",
		Close:       "esc ✕",
	},
	"en": {
		Placeholder: "Type a message...",
		Stop:        "■ Stop (esc)",
		Generating:  "Generating reply...",
		Disabled:    "Chat unavailable",
		Close:       "esc ✕",
	},
}

// LabelsFor returns the labels for locale, falling back to Portuguese.
func LabelsFor(locale string) Labels {
	if l, ok := labels[detect.Language(locale)]; ok {
		return l
	}
	return labels[detect.DefaultLocale]
}
