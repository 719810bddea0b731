package webhook_test

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"taskdeck.app/botlink/internal/bot/slack"
	"taskdeck.app/botlink/internal/http/handler/webhook"
	"taskdeck.app/botlink/internal/http/middleware"
	"taskdeck.app/botlink/internal/queue"
)

const signingSecret = "test-signing-secret"

type mockDeduper struct {
	seenFn    func(ctx context.Context, eventID string) (bool, error)
	forgetFn  func(ctx context.Context, eventID string) error
	forgotten []string
}

func (m *mockDeduper) Seen(ctx context.Context, eventID string) (bool, error) {
	if m.seenFn != nil {
		return m.seenFn(ctx, eventID)
	}
	return false, nil
}

func (m *mockDeduper) Forget(ctx context.Context, eventID string) error {
	m.forgotten = append(m.forgotten, eventID)
	if m.forgetFn != nil {
		return m.forgetFn(ctx, eventID)
	}
	return nil
}

type mockProducer struct {
	enqueueFn func(ctx context.Context, msg queue.EventMessage) error
	enqueued  []queue.EventMessage
}

func (m *mockProducer) Enqueue(ctx context.Context, msg queue.EventMessage) error {
	m.enqueued = append(m.enqueued, msg)
	if m.enqueueFn != nil {
		return m.enqueueFn(ctx, msg)
	}
	return nil
}

func (m *mockProducer) Close() error { return nil }

func sign(body []byte, timestamp string) string {
	mac := hmac.New(sha256.New, []byte(signingSecret))
	mac.Write([]byte("v0:" + timestamp + ":"))
	mac.Write(body)
	return "v0=" + hex.EncodeToString(mac.Sum(nil))
}

var _ = Describe("SlackEventHandler", func() {
	var (
		router   *gin.Engine
		deduper  *mockDeduper
		producer *mockProducer
	)

	signedPost := func(path string, body []byte, contentType string) *httptest.ResponseRecorder {
		ts := strconv.FormatInt(time.Now().Unix(), 10)
		req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("X-Slack-Request-Timestamp", ts)
		req.Header.Set("X-Slack-Signature", sign(body, ts))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		deduper = &mockDeduper{}
		producer = &mockProducer{}

		verifier, err := slack.NewVerifier(signingSecret)
		Expect(err).NotTo(HaveOccurred())

		h := webhook.NewSlackEventHandler(deduper, producer)
		signed := router.Group("", middleware.VerifySlackSignature(verifier))
		signed.POST("/link/events", h.Events)
		signed.POST("/link/interactions", h.Interactions)
	})

	Describe("Events", func() {
		It("rejects an unsigned request", func() {
			body := []byte(`{"type":"event_callback"}`)
			req := httptest.NewRequest(http.MethodPost, "/link/events", bytes.NewReader(body))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusUnauthorized))
			Expect(producer.enqueued).To(BeEmpty())
		})

		It("rejects a signature from another secret", func() {
			body := []byte(`{"type":"event_callback"}`)
			ts := strconv.FormatInt(time.Now().Unix(), 10)
			req := httptest.NewRequest(http.MethodPost, "/link/events", bytes.NewReader(body))
			req.Header.Set("X-Slack-Request-Timestamp", ts)
			req.Header.Set("X-Slack-Signature", "v0="+strings.Repeat("ab", 32))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusUnauthorized))
		})

		It("echoes the url_verification challenge", func() {
			body := []byte(`{"type":"url_verification","challenge":"ch-42"}`)
			w := signedPost("/link/events", body, "application/json")

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp map[string]string
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["challenge"]).To(Equal("ch-42"))
			Expect(producer.enqueued).To(BeEmpty())
		})

		It("enqueues an event_callback with the raw payload", func() {
			body := []byte(`{"type":"event_callback","team_id":"T1","api_app_id":"A1","event_id":"Ev1","event":{"type":"app_home_opened","user":"U1","channel":"D1"}}`)
			w := signedPost("/link/events", body, "application/json")

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(producer.enqueued).To(HaveLen(1))

			event := producer.enqueued[0].Event
			Expect(event.EventID).To(Equal("Ev1"))
			Expect(event.EventType).To(Equal("app_home_opened"))
			Expect(event.TeamID).To(Equal("T1"))
			Expect(event.UserID).To(Equal("U1"))
			Expect(event.AppID).To(Equal("A1"))
			Expect(event.Payload).To(MatchJSON(`{"type":"app_home_opened","user":"U1","channel":"D1"}`))
		})

		It("drops a duplicate delivery without enqueueing", func() {
			deduper.seenFn = func(_ context.Context, eventID string) (bool, error) {
				Expect(eventID).To(Equal("Ev1"))
				return true, nil
			}

			body := []byte(`{"type":"event_callback","team_id":"T1","event_id":"Ev1","event":{"type":"app_home_opened"}}`)
			w := signedPost("/link/events", body, "application/json")

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(producer.enqueued).To(BeEmpty())
		})

		It("enqueues anyway when the dedupe check fails", func() {
			deduper.seenFn = func(_ context.Context, _ string) (bool, error) {
				return false, errors.New("redis down")
			}

			body := []byte(`{"type":"event_callback","team_id":"T1","event_id":"Ev1","event":{"type":"app_home_opened"}}`)
			w := signedPost("/link/events", body, "application/json")

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(producer.enqueued).To(HaveLen(1))
		})

		It("acknowledges unknown envelope types without enqueueing", func() {
			body := []byte(`{"type":"app_rate_limited"}`)
			w := signedPost("/link/events", body, "application/json")

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(producer.enqueued).To(BeEmpty())
		})

		It("returns 500 when the stream is unavailable", func() {
			producer.enqueueFn = func(_ context.Context, _ queue.EventMessage) error {
				return errors.New("stream full")
			}

			body := []byte(`{"type":"event_callback","team_id":"T1","event_id":"Ev1","event":{"type":"app_home_opened"}}`)
			w := signedPost("/link/events", body, "application/json")

			Expect(w.Code).To(Equal(http.StatusInternalServerError))
		})

		It("clears the dedupe marker when the enqueue fails so the retry goes through", func() {
			attempts := 0
			producer.enqueueFn = func(_ context.Context, _ queue.EventMessage) error {
				attempts++
				if attempts == 1 {
					return errors.New("stream full")
				}
				return nil
			}
			seen := map[string]bool{}
			deduper.seenFn = func(_ context.Context, eventID string) (bool, error) {
				was := seen[eventID]
				seen[eventID] = true
				return was, nil
			}
			deduper.forgetFn = func(_ context.Context, eventID string) error {
				delete(seen, eventID)
				return nil
			}

			body := []byte(`{"type":"event_callback","team_id":"T1","event_id":"Ev1","event":{"type":"app_home_opened"}}`)

			first := signedPost("/link/events", body, "application/json")
			Expect(first.Code).To(Equal(http.StatusInternalServerError))
			Expect(deduper.forgotten).To(Equal([]string{"Ev1"}))

			retry := signedPost("/link/events", body, "application/json")
			Expect(retry.Code).To(Equal(http.StatusOK))
			Expect(attempts).To(Equal(2))
		})
	})

	Describe("Interactions", func() {
		It("clears a submitted view", func() {
			form := url.Values{"payload": {`{"type":"view_submission"}`}}
			body := []byte(form.Encode())
			w := signedPost("/link/interactions", body, "application/x-www-form-urlencoded")

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp map[string]string
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["response_action"]).To(Equal("clear"))
		})

		It("acknowledges other interaction types", func() {
			form := url.Values{"payload": {`{"type":"block_actions"}`}}
			body := []byte(form.Encode())
			w := signedPost("/link/interactions", body, "application/x-www-form-urlencoded")

			Expect(w.Code).To(Equal(http.StatusOK))
		})

		It("rejects a missing payload", func() {
			body := []byte("")
			w := signedPost("/link/interactions", body, "application/x-www-form-urlencoded")

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})
})
