// Copyright (c) 2025 Assettrack
// Licensed under the MIT License. See LICENSE file in the project root for details.

package rowstore

import (
	"context"
	"time"

	"github.com/cenkalti/backoff"

	aterrors "assettrack/cli/internal/errors"
)

// Retrying wraps a Store and retries FetchAll on transport failures.
// Mutations pass through untouched: a lost response does not prove the
// mutation was not applied, and repeating a create or a positional delete
// could duplicate or shift rows.
type Retrying struct {
	Store
	// MaxRetries bounds the number of extra read attempts.
	MaxRetries uint64
	// InitialInterval is the first backoff delay.
	InitialInterval time.Duration
	// MaxElapsed caps the total time spent retrying one read.
	MaxElapsed time.Duration
}

// WithReadRetries wraps s with default retry settings.
func WithReadRetries(s Store) *Retrying {
	return &Retrying{
		Store:           s,
		MaxRetries:      3,
		InitialInterval: 250 * time.Millisecond,
		MaxElapsed:      10 * time.Second,
	}
}

// FetchAll retries the underlying read while it fails with TransportFailure.
func (r *Retrying) FetchAll(ctx context.Context, table string) ([]Fields, error) {
	eb := backoff.NewExponentialBackOff()
	if r.InitialInterval > 0 {
		eb.InitialInterval = r.InitialInterval
	}
	if r.MaxElapsed > 0 {
		eb.MaxElapsedTime = r.MaxElapsed
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, r.MaxRetries), ctx)

	var rows []Fields
	err := backoff.Retry(func() error {
		out, err := r.Store.FetchAll(ctx, table)
		if err != nil {
			if aterrors.Retryable(err) && ctx.Err() == nil {
				return err
			}
			return backoff.Permanent(err)
		}
		rows = out
		return nil
	}, policy)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Close releases the wrapped store.
func (r *Retrying) Close() error { return Close(r.Store) }
