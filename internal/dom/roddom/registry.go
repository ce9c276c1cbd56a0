package roddom

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/ysmood/gson"
)

type handler struct {
	once bool
	fn   func()
}

// registry maps the ids the page reports through the exposed binding to Go
// callbacks. Entries expire after ttl so callbacks of documents that were
// navigated away do not pile up.
type registry struct {
	handlers *cache.Cache
}

func newRegistry(ttl time.Duration) *registry {
	if ttl <= 0 {
		return &registry{handlers: cache.New(cache.NoExpiration, 0)}
	}
	return &registry{handlers: cache.New(ttl, ttl/2)}
}

func (r *registry) add(once bool, fn func()) string {
	id := uuid.NewString()
	r.handlers.SetDefault(id, handler{once: once, fn: fn})
	return id
}

func (r *registry) remove(id string) {
	r.handlers.Delete(id)
}

func (r *registry) len() int {
	return r.handlers.ItemCount()
}

// fire runs the callback registered under id on its own goroutine, so the
// browser event loop is never blocked by it.
func (r *registry) fire(id string) bool {
	v, ok := r.handlers.Get(id)
	if !ok {
		return false
	}

	h := v.(handler)
	if h.once {
		r.handlers.Delete(id)
	}
	go h.fn()
	return true
}

// dispatch is the Go side of the exposed page binding.
func (r *registry) dispatch(payload gson.JSON) (interface{}, error) {
	return r.fire(payload.Str()), nil
}
