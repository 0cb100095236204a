// Package client contains the client side of the mirror transport and the
// local database bootstrap.
//
// GRPCClient implements the mirror contract used by the sync engine: it
// attaches the access token to every call, encodes item collections as the
// JSON payload of the well-known BytesValue message, and maps gRPC status
// codes to the sentinel errors of internal/common.
//
// InitDatabase opens the SQLite file and applies the embedded goose
// migrations.
package client
