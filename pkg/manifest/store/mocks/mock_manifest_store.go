// SPDX-License-Identifier: Apache-2.0

package mocks

import (
	"context"

	"github.com/lakesift/lakesift/pkg/manifest"
)

type Store struct {
	AppendFn    func(context.Context, *manifest.Entry) error
	LatestFn    func(ctx context.Context, batchID string) (*manifest.Entry, error)
	appendCalls uint
}

func (m *Store) Append(ctx context.Context, entry *manifest.Entry) error {
	m.appendCalls++
	return m.AppendFn(ctx, entry)
}

func (m *Store) Latest(ctx context.Context, batchID string) (*manifest.Entry, error) {
	return m.LatestFn(ctx, batchID)
}

func (m *Store) AppendCalls() uint {
	return m.appendCalls
}

func (m *Store) Close() error {
	return nil
}
