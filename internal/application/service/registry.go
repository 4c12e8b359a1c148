package service

import (
	"sort"
	"sync"

	"form-agent/internal/application/port/output"
	"form-agent/internal/domain/entity"
)

var _ output.ActionRegistry = (*ActionRegistryImpl)(nil)

type ActionRegistryImpl struct {
	mu       sync.RWMutex
	handlers map[entity.ActionKind]output.ActionHandler
}

func NewActionRegistry(handlers ...output.ActionHandler) *ActionRegistryImpl {
	r := &ActionRegistryImpl{
		handlers: make(map[entity.ActionKind]output.ActionHandler, len(handlers)),
	}
	for _, h := range handlers {
		r.Register(h)
	}
	return r
}

func (r *ActionRegistryImpl) Register(handler output.ActionHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[handler.Kind()] = handler
}

func (r *ActionRegistryImpl) Get(kind entity.ActionKind) (output.ActionHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[kind]
	return h, ok
}

// Kinds lists registered action kinds in lexical order.
func (r *ActionRegistryImpl) Kinds() []entity.ActionKind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]entity.ActionKind, 0, len(r.handlers))
	for k := range r.handlers {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
