package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/msomdec/contact-book/internal/domain"
)

// load decodes key into dst. It reports false when the key is absent.
func load(ctx context.Context, store domain.Store, key string, dst any) (bool, error) {
	raw, err := store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("%w: read %s: %w", domain.ErrStorage, key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// encode builds a mutation that stores v as JSON under key.
func encode(key string, v any) (domain.Mutation, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return domain.Mutation{}, fmt.Errorf("encode %s: %w", key, err)
	}
	return domain.Mutation{Key: key, Value: raw}, nil
}

// persist mirrors one slice of state into the store. A single mutation maps to
// Set or Remove; several go through Apply so the slice lands all-or-nothing.
// Callers commit their in-memory state only after persist succeeds.
func persist(ctx context.Context, store domain.Store, mutations ...domain.Mutation) error {
	var err error
	switch {
	case len(mutations) == 1 && mutations[0].Value == nil:
		err = store.Remove(ctx, mutations[0].Key)
	case len(mutations) == 1:
		err = store.Set(ctx, mutations[0].Key, mutations[0].Value)
	default:
		err = store.Apply(ctx, mutations...)
	}
	if err != nil {
		keys := make([]string, len(mutations))
		for i, m := range mutations {
			keys[i] = m.Key
		}
		slog.Warn("persist state", "keys", keys, "error", err)
		return fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}
	return nil
}
