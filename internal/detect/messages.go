// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package detect

import "strings"

// Messages is the localized report text.
type Messages struct {
	HostUnsupported  string
	ModelUnavailable []string
	RemoteEndpoint   string

	// Headlines that replace the first ModelUnavailable line when the
	// probe knows why the model did not answer.
	ServerNotRunning  string
	ModelNotInstalled string
	ModelTimeout      string

	// SessionFailed is shown when the environment passed but the model
	// session could not be created.
	SessionFailed string
}

var catalog = map[string]Messages{
	"pt": {
		HostUnsupported: "⚠️ Este recurso só funciona em um terminal interativo com suporte a cores.",
		ModelUnavailable: []string{
			"⚠️ O modelo de linguagem local não está ativo.",
			"Inicie o servidor de modelos e instale o modelo configurado:",
			"- ollama serve && ollama pull {model}",
			"Depois reinicie o trxchat e tente novamente.",
		},
		RemoteEndpoint:    "⚠️ O modelo precisa rodar neste computador. Configure um endereço local (localhost ou 127.0.0.1).",
		ServerNotRunning:  "⚠️ O servidor de modelos não está em execução.",
		ModelNotInstalled: "⚠️ O modelo {model} não está instalado.",
		ModelTimeout:      "⚠️ O servidor de modelos não respondeu a tempo.",
		SessionFailed:     "⚠️ Não foi possível iniciar a conversa com o modelo. Reinicie o trxchat e tente novamente.",
	},
	"en": {
		HostUnsupported: "⚠️ This feature only works in an interactive, colour-capable terminal.",
		ModelUnavailable: []string{
			"⚠️ The local language model is not active.",
			"Start the model server and install the configured model:",
			"- ollama serve && ollama pull {model}",
			"Then restart trxchat and try again.",
		},
		RemoteEndpoint:    "⚠️ The model must run on this computer. Configure a local address (localhost or 127.0.0.1).",
		ServerNotRunning:  "⚠️ The model server is not running.",
		ModelNotInstalled: "⚠️ The model {model} is not installed.",
		ModelTimeout:      "⚠️ The model server did not answer in time.",
		SessionFailed:     "⚠️ Could not start a conversation with the model. Restart trxchat and try again.",
	},
}

// DefaultLocale is used for unknown locales.
const DefaultLocale = "pt"

// MessagesFor returns the catalog for locale with {model} filled in.
// Region suffixes are ignored ("pt-BR" uses "pt").
func MessagesFor(locale, model string) Messages {
	m, ok := catalog[Language(locale)]
	if !ok {
		m = catalog[DefaultLocale]
	}

	r := strings.NewReplacer("{model}", model)
	out := Messages{
		HostUnsupported:   m.HostUnsupported,
		RemoteEndpoint:    m.RemoteEndpoint,
		ModelUnavailable:  make([]string, len(m.ModelUnavailable)),
		ServerNotRunning:  m.ServerNotRunning,
		ModelNotInstalled: r.Replace(m.ModelNotInstalled),
		ModelTimeout:      m.ModelTimeout,
		SessionFailed:     m.SessionFailed,
	}
	for i, line := range m.ModelUnavailable {
		out.ModelUnavailable[i] = r.Replace(line)
	}
	return out
}

// Language reduces a locale such as "pt-BR" or "en_US" to its lowercase
// language code.
func Language(locale string) string {
	lang := strings.ToLower(locale)
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		lang = lang[:i]
	}
	return lang
}
