package core

import "testing"

func TestHubSubscribePublishUnsubscribe(t *testing.T) {
	h := NewHub()

	var got []string
	stop := h.Subscribe(func(e ChangeEvent) {
		got = append(got, e.Topic)
	})

	h.Publish(ChangeEvent{Topic: TopicTransactions, OwnerID: "o1"})
	h.Publish(ChangeEvent{Topic: TopicBudgets, OwnerID: "o1"})

	stop()
	stop() // double teardown is a no-op

	h.Publish(ChangeEvent{Topic: TopicSettings, OwnerID: "o1"})

	if len(got) != 2 || got[0] != TopicTransactions || got[1] != TopicBudgets {
		t.Fatalf("got %v", got)
	}
}

func TestHubDeliveryOrder(t *testing.T) {
	h := NewHub()
	var order []int
	h.Subscribe(func(ChangeEvent) { order = append(order, 1) })
	h.Subscribe(func(ChangeEvent) { order = append(order, 2) })

	h.Publish(ChangeEvent{Topic: TopicCategories})

	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("delivery order %v", order)
	}
}
