// Package domain defines the core value types shared by the zkmesh client.
//
// The types here carry no IO dependencies:
//
//   - ClientState: client-visible lifecycle state machine
//   - Event: session and znode notifications delivered by the event handler
//   - Errors: structured error definitions with stable codes
package domain
