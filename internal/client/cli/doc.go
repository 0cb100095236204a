// Package cli is the terminal front end of sabo.
//
// NewApp wires the local store, the classifier chain, the mirror client and
// the sign-in lifecycle. App.Run restores a persisted sign-in and then reads
// commands from stdin until EOF or "quit". See runREPL for the command set.
package cli
