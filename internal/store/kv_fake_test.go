package store

import (
	"context"
	"errors"
	"sync"
)

// fakeKV is an in-memory KV for unit tests, with switches to simulate a
// failing backend and pre-seeded corrupt slices.
type fakeKV struct {
	mu      sync.Mutex
	data    map[string][]byte
	failAll bool
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: make(map[string][]byte)}
}

func (f *fakeKV) Load(_ context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return nil, false, errors.New("backend down")
	}
	value, ok := f.data[key]
	return value, ok, nil
}

func (f *fakeKV) Save(_ context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return errors.New("backend down")
	}
	f.data[key] = value
	return nil
}

func (f *fakeKV) seed(key, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = []byte(value)
}
