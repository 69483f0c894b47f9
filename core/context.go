package core

import "sync"

// Context is the key/value store carried by a Session. Besides plain values it
// keeps cumulative lists: SetCumulative appends instead of overwriting, which
// lets successive tasks collect results under a single key.
type Context struct {
	mu         sync.RWMutex
	values     map[string]any
	cumulative map[string][]any
}

// NewContext creates an empty context.
func NewContext() *Context {
	return &Context{values: map[string]any{}, cumulative: map[string][]any{}}
}

// NewContextFrom seeds a context with a copy of other's plain values.
func NewContextFrom(values map[string]any) *Context {
	c := NewContext()
	for k, v := range values {
		c.values[k] = v
	}
	return c
}

// Get returns the value stored under key.
func (c *Context) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok
}

// Set stores value under key, replacing any previous value.
func (c *Context) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
}

// Remove deletes key. Removing an absent key is a no-op.
func (c *Context) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, key)
}

// Values returns a copy of all plain values.
func (c *Context) Values() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]any, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

// SetCumulative appends value to the list stored under key.
func (c *Context) SetCumulative(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cumulative[key] = append(c.cumulative[key], value)
}

// GetCumulative returns a copy of the list stored under key (nil when absent).
func (c *Context) GetCumulative(key string) []any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, ok := c.cumulative[key]; !ok {
		return nil
	}
	return append([]any(nil), c.cumulative[key]...)
}

// Clone performs a copy of both maps so the clone can diverge freely.
func (c *Context) Clone() *Context {
	c.mu.RLock()
	defer c.mu.RUnlock()
	nc := NewContext()
	for k, v := range c.values {
		nc.values[k] = v
	}
	for k, v := range c.cumulative {
		nc.cumulative[k] = append([]any(nil), v...)
	}
	return nc
}
