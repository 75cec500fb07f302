package core

import "sync"

// Change topics published by the services after a successful write.
const (
	TopicTransactions = "transactions"
	TopicCategories   = "categories"
	TopicBudgets      = "budgets"
	TopicSettings     = "settings"
)

type (
	// ChangeEvent signals that a collection changed for an owner.
	ChangeEvent struct {
		Topic   string
		OwnerID string
	}

	// Hub is a minimal observable: subscribers receive every published
	// event until their unsubscribe function runs. Delivery is synchronous
	// and in subscription order.
	Hub struct {
		mu   sync.Mutex
		next int
		subs map[int]func(ChangeEvent)
	}
)

func NewHub() *Hub {
	return &Hub{subs: make(map[int]func(ChangeEvent))}
}

// Subscribe registers fn and returns its teardown. Calling the teardown more
// than once is harmless.
func (h *Hub) Subscribe(fn func(ChangeEvent)) (unsubscribe func()) {
	h.mu.Lock()
	id := h.next
	h.next++
	h.subs[id] = fn
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
	}
}

func (h *Hub) Publish(e ChangeEvent) {
	h.mu.Lock()
	fns := make([]func(ChangeEvent), 0, len(h.subs))
	for i := 0; i < h.next; i++ {
		if fn, ok := h.subs[i]; ok {
			fns = append(fns, fn)
		}
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
}
