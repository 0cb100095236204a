// Package services holds the client application services: note capture and
// classification, item mutations, the AI credential and the signed-in
// identity.
package services
