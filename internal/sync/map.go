// SPDX-License-Identifier: Apache-2.0

package sync

import "sync"

type Map[T comparable, K any] struct {
	m     map[T]K
	mutex *sync.RWMutex
}

func NewMap[T comparable, K any]() *Map[T, K] {
	return &Map[T, K]{
		m:     make(map[T]K),
		mutex: &sync.RWMutex{},
	}
}

func (m *Map[T, K]) Get(key T) (K, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	value, ok := m.m[key]
	return value, ok
}

func (m *Map[T, K]) Set(key T, value K) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.m[key] = value
}

// SetIfAbsent sets the value for the key only when the key is not already
// present, returning whether the value was set.
func (m *Map[T, K]) SetIfAbsent(key T, value K) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if _, found := m.m[key]; found {
		return false
	}
	m.m[key] = value
	return true
}
