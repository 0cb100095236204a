// Package common contains shared constants and sentinel errors used across
// the SABO client and mirror server.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// identity provider token on mirror requests.
const AccessTokenHeaderName = "access_token"

// ItemsStorageKey is the fixed metadata key under which the local item
// collection is persisted.
const ItemsStorageKey = "sabo_os_items"
