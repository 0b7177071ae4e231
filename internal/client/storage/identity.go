package storage

import (
	"context"

	"github.com/dmitrijs2005/qrattend/internal/client/models"
	"github.com/dmitrijs2005/qrattend/internal/client/repositories/metadata"
)

// IdentityCache keeps the last known identity and the re-authentication
// credential. Cached values only help to build requests; they never prove
// that the user is authenticated.
type IdentityCache struct {
	store *Store
}

func NewIdentityCache(store *Store) *IdentityCache {
	return &IdentityCache{store: store}
}

// Load returns the cached identity. ok is false unless both a user id and a
// valid role are cached.
func (c *IdentityCache) Load(ctx context.Context) (models.Identity, bool) {
	userID, ok := c.store.Get(ctx, KeyUserID)
	if !ok || userID == "" {
		return models.Identity{}, false
	}

	rawRole, ok := c.store.Get(ctx, KeyRole)
	if !ok || rawRole == "" {
		rawRole, _ = c.store.Get(ctx, legacyKeyRole)
	}
	role, ok := models.ParseRole(rawRole)
	if !ok {
		return models.Identity{}, false
	}

	first, _ := c.store.Get(ctx, KeyFirstName)
	last, _ := c.store.Get(ctx, KeyLastName)

	return models.Identity{UserID: userID, Role: role, FirstName: first, LastName: last}, true
}

// Merge writes the fields present in p and leaves the others untouched.
func (c *IdentityCache) Merge(ctx context.Context, p models.IdentityPatch) bool {
	if p.Empty() {
		return true
	}
	return c.store.Batch(ctx, func(ctx context.Context, w metadata.Repository) error {
		fields := []struct {
			key   string
			value *string
		}{
			{KeyUserID, p.UserID},
			{KeyFirstName, p.FirstName},
			{KeyLastName, p.LastName},
		}
		for _, f := range fields {
			if f.value == nil {
				continue
			}
			if err := w.Set(ctx, f.key, []byte(*f.value)); err != nil {
				return err
			}
		}
		if p.Role != nil {
			if err := w.Set(ctx, KeyRole, []byte(*p.Role)); err != nil {
				return err
			}
		}
		return nil
	})
}

// SetCredential stores the secret used for the basic-auth retry.
func (c *IdentityCache) SetCredential(ctx context.Context, secret string) bool {
	return c.store.Set(ctx, KeyCredential, secret)
}

// Credentials returns the persisted user id and credential pair.
func (c *IdentityCache) Credentials(ctx context.Context) (string, string, bool) {
	userID, ok := c.store.Get(ctx, KeyUserID)
	if !ok || userID == "" {
		return "", "", false
	}
	secret, ok := c.store.Get(ctx, KeyCredential)
	if !ok || secret == "" {
		return "", "", false
	}
	return userID, secret, true
}

// Clear forgets the identity, the credential and session-scoped keys.
func (c *IdentityCache) Clear(ctx context.Context) bool {
	return c.store.Clear(ctx)
}
