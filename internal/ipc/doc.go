// Package ipc exposes daemon control over JSON-RPC on a Unix domain
// socket. The CLI dials the socket to operate on the live queue; without
// it, commands issued while the daemon runs would only touch the persisted
// snapshot and be overwritten on the next persist.
package ipc
