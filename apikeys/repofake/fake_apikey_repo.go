package repofake

import (
	"context"
	"sort"
	"sync"

	"github.com/alexchoi0/driftwatch/apikeys"
	apperrors "github.com/alexchoi0/driftwatch/internal/errors"
)

var _ apikeys.Repo = (*FakeAPIKeyRepo)(nil)

type FakeAPIKeyRepo struct {
	keys map[string]*apikeys.APIKey // id to key
	lock sync.RWMutex
}

func NewFakeAPIKeyRepo() *FakeAPIKeyRepo {
	return &FakeAPIKeyRepo{
		keys: make(map[string]*apikeys.APIKey),
	}
}

func (r *FakeAPIKeyRepo) Upsert(_ context.Context, key *apikeys.APIKey) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.keys[key.ID] = key
	return nil
}

func (r *FakeAPIKeyRepo) GetByHash(_ context.Context, hash string) (*apikeys.APIKey, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	for _, k := range r.keys {
		if k.KeyHash == hash {
			return k, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *FakeAPIKeyRepo) ListByUser(_ context.Context, userID string) ([]*apikeys.APIKey, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	keys := make([]*apikeys.APIKey, 0)
	for _, k := range r.keys {
		if k.UserID == userID {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].CreatedAt.Before(keys[j].CreatedAt)
	})
	return keys, nil
}

func (r *FakeAPIKeyRepo) Delete(_ context.Context, id string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.keys[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.keys, id)
	return nil
}
