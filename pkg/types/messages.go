// Package types holds the HTTP bodies shared with clients. The websocket
// protocol is summarized below; frames are defined in internal/types.
package types

// Client -> Server (GET /ws?code=&user=&name=)
// Join: {}
//
// Press:
//   control: string   // e.g. "lobby:start", "teams:random", "replay:yes"
//   values: string[]  // select menu values, if any
//
// Server -> Client
// Welcome:
//   code: string
//   conn_id: string
//
// Message | Edit:
//   scope: "board" | "private"
//   message_id: string
//   payload: { content, embeds, rows, mentions, deadline }
//
// Delete:
//   scope: "board"
//   message_id: string
//
// Closed:
//   code: string
//
// Error:
//   error: string
