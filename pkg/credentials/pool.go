// Package credentials holds the ordered set of interchangeable API keys used
// against the inference service, the cursor selecting the active key, and
// the store that persists the key list between sessions.
package credentials

import (
	"errors"
	"strings"
	"sync"
)

var (
	// ErrMissing is returned when no credential is configured.
	ErrMissing = errors.New("no credential configured")

	// ErrExhausted is returned when every credential in the pool has failed.
	ErrExhausted = errors.New("credentials exhausted")
)

// Pool is an ordered list of credentials with a cursor. Failures never
// remove or reorder entries; exhaustion is purely positional.
// Pool is safe for concurrent use.
type Pool struct {
	mu     sync.Mutex
	keys   []string
	cursor int
}

// NewPool creates a pool over keys. Blank entries are dropped, order is kept.
func NewPool(keys []string) *Pool {
	p := &Pool{}
	p.Replace(keys)
	return p
}

// Replace swaps the key list and moves the cursor back to the first key.
func (p *Pool) Replace(keys []string) {
	cleaned := make([]string, 0, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			cleaned = append(cleaned, k)
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = cleaned
	p.cursor = 0
}

// Current returns the active credential, or ErrMissing for an empty pool.
func (p *Pool) Current() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.keys) == 0 {
		return "", ErrMissing
	}
	return p.keys[p.cursor], nil
}

// Advance moves the cursor to the next credential. It returns ErrExhausted,
// leaving the cursor in place, when the cursor is already on the last one.
func (p *Pool) Advance() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.keys) == 0 {
		return ErrMissing
	}
	if p.cursor+1 >= len(p.keys) {
		return ErrExhausted
	}
	p.cursor++
	return nil
}

// Reset moves the cursor back to the first credential.
func (p *Pool) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cursor = 0
}

// Index returns the cursor position.
func (p *Pool) Index() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cursor
}

// Len returns the number of credentials.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.keys)
}

// Keys returns a copy of the credential list.
func (p *Pool) Keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.keys...)
}
