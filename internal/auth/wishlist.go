package auth

import gonanoid "github.com/matoous/go-nanoid/v2"

// NewWishlistToken generates the opaque, URL-safe token behind a shared
// wishlist link.
func NewWishlistToken() (string, error) {
	return gonanoid.New()
}
