// Package adminsock serves local management commands for zkmesh-agent on a
// Unix domain socket. Access is controlled by file system permissions; the
// socket is created mode 0600.
//
// The protocol is line based. Each request line is a command and its
// arguments; each reply is one line, JSON for status and "ok" or
// "error: ..." otherwise.
//
//	status            client snapshot as JSON
//	reopen [timeout]  drop the session and connect again
//	shutdown          stop the agent
//	help              list commands
package adminsock
