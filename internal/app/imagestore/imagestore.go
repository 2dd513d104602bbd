// Package imagestore hosts offer and avatar images on an S3-compatible
// object store. Keys are grouped in per-resource folders (offers/<id>/...,
// users/<id>/avatar) so a whole resource can be removed by prefix.
package imagestore

import (
	"context"

	"github.com/FACorreiaa/go-secondhand-market/internal/types"
)

// Store is the contract the services depend on.
type Store interface {
	// Upload stores data under folder/name and returns the hosted descriptor.
	Upload(ctx context.Context, folder, name string, img *types.ImageUpload) (*types.ImageDescriptor, error)
	// DeleteByPrefix removes every object whose key starts with prefix.
	DeleteByPrefix(ctx context.Context, prefix string) error
}

// OfferFolder returns the storage folder for one offer's images.
func OfferFolder(offerID string) string {
	return "offers/" + offerID
}

// AvatarFolder returns the storage folder for one user's avatar.
func AvatarFolder(userID string) string {
	return "users/" + userID + "/avatar"
}
