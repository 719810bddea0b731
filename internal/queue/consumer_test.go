package queue_test

import (
	"github.com/redis/go-redis/v9"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"taskdeck.app/botlink/internal/queue"
)

var _ = Describe("ParseMessage", func() {
	fullMessage := func() redis.XMessage {
		return redis.XMessage{
			ID: "1700000000000-0",
			Values: map[string]any{
				"event_id":   "Ev1",
				"event_type": "app_home_opened",
				"team_id":    "T1",
				"user_id":    "U1",
				"app_id":     "A1",
				"payload":    `{"event":{"channel":"D1"}}`,
				"attempt":    "2",
			},
		}
	}

	It("parses a complete message", func() {
		msg, err := queue.ParseMessage(fullMessage())

		Expect(err).NotTo(HaveOccurred())
		Expect(msg.ID).To(Equal("1700000000000-0"))
		Expect(msg.Event.EventID).To(Equal("Ev1"))
		Expect(msg.Event.EventType).To(Equal("app_home_opened"))
		Expect(msg.Event.TeamID).To(Equal("T1"))
		Expect(msg.Event.UserID).To(Equal("U1"))
		Expect(msg.Event.AppID).To(Equal("A1"))
		Expect(string(msg.Event.Payload)).To(ContainSubstring("channel"))
		Expect(msg.Attempt).To(Equal(2))
	})

	It("defaults attempt to 1 when absent", func() {
		raw := fullMessage()
		delete(raw.Values, "attempt")

		msg, err := queue.ParseMessage(raw)

		Expect(err).NotTo(HaveOccurred())
		Expect(msg.Attempt).To(Equal(1))
	})

	It("rejects a message without required identifiers", func() {
		for _, key := range []string{"event_id", "event_type", "team_id"} {
			raw := fullMessage()
			delete(raw.Values, key)

			_, err := queue.ParseMessage(raw)
			Expect(err).To(HaveOccurred(), "expected error when %s is missing", key)
		}
	})

	It("rejects a non-numeric attempt", func() {
		raw := fullMessage()
		raw.Values["attempt"] = "soon"

		_, err := queue.ParseMessage(raw)
		Expect(err).To(HaveOccurred())
	})

	It("tolerates a missing payload", func() {
		raw := fullMessage()
		delete(raw.Values, "payload")

		msg, err := queue.ParseMessage(raw)

		Expect(err).NotTo(HaveOccurred())
		Expect(msg.Event.Payload).To(BeEmpty())
	})
})
