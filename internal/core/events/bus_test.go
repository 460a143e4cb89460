package events_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/expense-tracker/internal/core/events"
)

func TestEvents(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Events Suite")
}

var _ = Describe("EventBus", func() {
	var bus *events.EventBus

	BeforeEach(func() {
		bus = events.NewEventBus(slog.New(slog.NewTextHandler(io.Discard, nil)))
	})

	It("delivers async events even after the publishing context is cancelled", func() {
		var got atomic.Int64
		bus.Subscribe(events.EventTypeExpenseCreated, func(ctx context.Context, e events.Event) error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			got.Store(e.(*events.ExpenseRecordedEvent).ExpenseID)
			return nil
		})

		ctx, cancel := context.WithCancel(context.Background())
		Expect(bus.Publish(ctx, events.NewExpenseRecordedEvent(events.EventTypeExpenseCreated, 9, 8, 1, "2025-01-10", "12.50"))).To(Succeed())
		cancel()
		bus.Wait()

		Expect(got.Load()).To(Equal(int64(9)))
	})

	It("derives the month from the date", func() {
		e := events.NewExpenseRecordedEvent(events.EventTypeExpenseUpdated, 1, 2, 3, "2025-02-28", "1.00")
		Expect(e.Month).To(Equal("2025-02"))
		Expect(e.EventID()).NotTo(BeEmpty())
		Expect(e.EventType()).To(Equal(events.EventTypeExpenseUpdated))
	})

	It("returns handler errors from PublishSync", func() {
		bus.Subscribe("x", func(context.Context, events.Event) error { return errors.New("boom") })
		err := bus.PublishSync(context.Background(), events.BaseEvent{Type: "x", ID: "1"})
		Expect(err).To(MatchError(ContainSubstring("boom")))
	})

	It("ignores events nobody listens to", func() {
		Expect(bus.Publish(context.Background(), events.BaseEvent{Type: "none"})).To(Succeed())
		bus.Wait()
	})
})
