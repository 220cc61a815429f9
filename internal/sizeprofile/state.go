package sizeprofile

//
// Persisting the profile into a key-value store.
//

import (
	"encoding/json"
	"errors"

	"github.com/immuni/upload-client/internal/kvstore"
	"github.com/immuni/upload-client/internal/model"
)

// StateKey is the key under which we store the profile.
const StateKey = "sizeprofile.state"

// state is the persisted form of a [Profile].
type state struct {
	Shapes []Shape `json:"shapes"`
}

// Save writes the profile into kvs.
func (p *Profile) Save(kvs model.KeyValueStore) error {
	data, err := json.Marshal(&state{Shapes: p.Shapes()})
	if err != nil {
		return err
	}
	return kvs.Set(StateKey, data)
}

// Load reads a profile with the given capacity from kvs. When there is
// no saved profile, we return a new profile seeded with seed.
func Load(kvs model.KeyValueStore, capacity int, seed []Shape) (*Profile, error) {
	data, err := kvs.Get(StateKey)
	if errors.Is(err, kvstore.ErrNoSuchKey) {
		return New(capacity, seed)
	}
	if err != nil {
		return nil, err
	}
	var st state
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, err
	}
	if len(st.Shapes) <= 0 {
		return New(capacity, seed)
	}
	return New(capacity, st.Shapes)
}
