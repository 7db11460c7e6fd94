// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package widget is the full-screen chat window, built on Bubble Tea.

Closed, the widget shows a launcher in the bottom-right corner with an
unread badge and, once RenderWelcomeBubble has been called, a welcome bubble
above it. Opened, it shows a header, the scrollable conversation, a typing
indicator and the input line.

# Keys

	enter      open the window / send the message
	space, o   open the window
	esc        stop the reply while one is streaming, otherwise close
	pgup/pgdn  scroll the conversation
	q          quit while the window is closed
	ctrl+c     quit

Widget implements view.View. Calls made before Run are applied to the model
directly; afterwards they are delivered to the event loop with Program.Send.
User events are handed to view.Handlers from tea.Cmd goroutines, never from
Update, so handlers may call back into the widget.
*/
package widget
