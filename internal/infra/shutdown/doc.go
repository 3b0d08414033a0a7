// Package shutdown coordinates process termination.
//
// Components register named hooks; on SIGINT, SIGTERM, context
// cancellation or an explicit Trigger, the hooks run in reverse
// registration order under a shared deadline. The agent registers its HTTP
// server first and the ZooKeeper client last, so the client is closed before
// the listener goes away.
package shutdown
