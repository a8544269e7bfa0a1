package hook

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
)

// ErrInterrupt signals that a Hook handler wants to stop further processing.
// Before-craft hooks return it to veto the craft.
var ErrInterrupt = errors.New("hook interrupted")

// Hook event names.
const (
	BeforeCraft = "before_craft"
	AfterCraft  = "after_craft"
)

// Attempt is the payload of BeforeCraft. Order is the caller's request as
// received; hooks inspect it and veto with ErrInterrupt.
type Attempt struct {
	AccountID int64
	Family    string
	Order     interface{}
}

// Crafted is the payload of AfterCraft.
type Crafted struct {
	AccountID int64
	Family    string
	Item      interface{}
}

// HookFn is a hook handler function.
// Returns (modified data, nil) to continue, or (data, ErrInterrupt) to stop.
type HookFn func(ctx context.Context, event string, data interface{}) (interface{}, error)

type hookEntry struct {
	priority int
	seq      int
	fn       HookFn
	name     string
}

// HookCenter manages event hook registrations.
type HookCenter struct {
	mu    sync.RWMutex
	seq   int
	hooks map[string][]*hookEntry
}

// NewHookCenter creates a new HookCenter.
func NewHookCenter() *HookCenter {
	return &HookCenter{hooks: make(map[string][]*hookEntry)}
}

// Register adds a HookFn for the given event with the given priority (lower
// runs first; equal priorities run in registration order).
func (hc *HookCenter) Register(event string, priority int, name string, fn HookFn) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.seq++
	entries := append(hc.hooks[event], &hookEntry{priority: priority, seq: hc.seq, fn: fn, name: name})
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].priority != entries[j].priority {
			return entries[i].priority < entries[j].priority
		}
		return entries[i].seq < entries[j].seq
	})
	hc.hooks[event] = entries
}

// Unregister removes every hook registered under name, for all events.
func (hc *HookCenter) Unregister(name string) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	for event, entries := range hc.hooks {
		hc.hooks[event] = slices.DeleteFunc(entries, func(e *hookEntry) bool { return e.name == name })
	}
}

// Names returns the registered hook names for event in run order.
func (hc *HookCenter) Names(event string) []string {
	hc.mu.RLock()
	defer hc.mu.RUnlock()
	out := make([]string, 0, len(hc.hooks[event]))
	for _, e := range hc.hooks[event] {
		out = append(out, e.name)
	}
	return out
}

// Trigger executes all registered hooks for event in priority order.
// Data flows through each handler. A handler returning ErrInterrupt stops the
// chain and its error is returned; other errors are wrapped with the hook name
// and also stop the chain.
func (hc *HookCenter) Trigger(ctx context.Context, event string, data interface{}) (interface{}, error) {
	if hc == nil {
		return data, nil
	}
	hc.mu.RLock()
	entries := slices.Clone(hc.hooks[event])
	hc.mu.RUnlock()

	for _, e := range entries {
		out, err := e.fn(ctx, event, data)
		if err != nil {
			if errors.Is(err, ErrInterrupt) {
				return out, err
			}
			return data, fmt.Errorf("hook %s: %w", e.name, err)
		}
		data = out
	}
	return data, nil
}

// DisableFamilies returns a BeforeCraft hook that vetoes the listed families.
func DisableFamilies(families ...string) HookFn {
	off := make(map[string]struct{}, len(families))
	for _, f := range families {
		off[f] = struct{}{}
	}
	return func(_ context.Context, _ string, data interface{}) (interface{}, error) {
		a, ok := data.(*Attempt)
		if !ok {
			return data, nil
		}
		if _, blocked := off[a.Family]; blocked {
			return data, fmt.Errorf("%w: %s crafting is disabled", ErrInterrupt, a.Family)
		}
		return data, nil
	}
}
