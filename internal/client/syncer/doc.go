// Package syncer reconciles the local item collection with the per-user
// document held by the remote mirror.
//
// Reconciliation is an id-keyed union where the copy with the strictly
// greater createdAt wins. Both sides are always written as a whole
// collection. Deletions are not tracked, so an item deleted locally comes
// back when the remote copy still holds it. A deleted-id set merged
// alongside the items would close that gap.
//
// A Session exists for as long as a user is signed in. Every local mutation
// enqueues a snapshot on the session; one worker goroutine writes snapshots
// to the mirror in the order they were enqueued.
package syncer
