package myvault

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MarcGrol/shopfront/lib/mystore"
	"github.com/MarcGrol/shopfront/lib/mytime"
)

const (
	CurrentToken = "access_token"
)

// ErrExpired is returned by Get for a credential that outlived its removal deadline. The
// credential is removed; its value is still returned so the caller can tell whose it was.
var ErrExpired = errors.New("credential past its removal deadline")

// Credential is the persisted bearer token. ExpiresAt only drives removal, like the
// expiry of a cookie; token lifetime decisions decode the token itself.
type Credential struct {
	Token     string
	IssuedAt  time.Time
	ExpiresAt *time.Time
}

type VaultReader interface {
	Get(c context.Context, uid string) (Credential, bool, error)
}

type VaultReadWriter interface {
	VaultReader
	Put(c context.Context, uid string, value Credential) error
	Delete(c context.Context, uid string) error
}

type vault struct {
	store mystore.Store[Credential]
	nower mytime.Nower
}

func New(store mystore.Store[Credential], nower mytime.Nower) VaultReadWriter {
	return &vault{
		store: store,
		nower: nower,
	}
}

func (v *vault) Get(c context.Context, uid string) (Credential, bool, error) {
	cred, exists, err := v.store.Get(c, uid)
	if err != nil {
		return Credential{}, false, fmt.Errorf("error fetching credential %s: %w", uid, err)
	}
	if !exists {
		return Credential{}, false, nil
	}

	if cred.ExpiresAt != nil && !v.nower.Now().Before(*cred.ExpiresAt) {
		err = v.store.Delete(c, uid)
		if err != nil {
			return Credential{}, false, fmt.Errorf("error removing expired credential %s: %w", uid, err)
		}
		return cred, false, fmt.Errorf("credential %s expired at %s: %w", uid, cred.ExpiresAt.Format(time.RFC3339), ErrExpired)
	}

	return cred, true, nil
}

func (v *vault) Put(c context.Context, uid string, value Credential) error {
	err := v.store.Put(c, uid, value)
	if err != nil {
		return fmt.Errorf("error storing credential %s: %w", uid, err)
	}
	return nil
}

func (v *vault) Delete(c context.Context, uid string) error {
	err := v.store.Delete(c, uid)
	if err != nil {
		return fmt.Errorf("error deleting credential %s: %w", uid, err)
	}
	return nil
}
