// Package command provides the zkmesh-cli commands, built on urfave/cli/v2.
//
//   - root.go: application, global flags and their resolution against the
//     CLI config file
//   - session.go: opening and closing a client for one command
//   - node.go: get, ls and stat
//   - watch.go: watch a znode until interrupted
//   - status.go: client and session summary
//   - shell.go: interactive loop over one shared session
//
// Every command opens its own session and closes it before returning,
// except inside shell, where the commands share the shell's session.
package command
