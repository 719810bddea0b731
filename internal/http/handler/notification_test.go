package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"taskdeck.app/botlink/internal/bot"
	"taskdeck.app/botlink/internal/http/handler"
	"taskdeck.app/botlink/internal/service"
)

var _ = Describe("NotificationHandler", func() {
	var (
		router *gin.Engine
		svc    *mockNotificationService
	)

	post := func(body map[string]any) *httptest.ResponseRecorder {
		raw, _ := json.Marshal(body)
		req := httptest.NewRequest(http.MethodPost, "/notifications", bytes.NewBuffer(raw))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		svc = &mockNotificationService{}
		h := handler.NewNotificationHandler(svc)

		router.POST("/notifications", h.Send)
	})

	It("relays the notification to the linked user's workspace", func() {
		var gotUser, gotChannel, gotText string
		svc.sendToLinkedUserFn = func(_ context.Context, taskdeckUserID, channel, text string) error {
			gotUser, gotChannel, gotText = taskdeckUserID, channel, text
			return nil
		}

		w := post(map[string]any{
			"notification":     "task #42 was assigned to you",
			"channel":          "C42",
			"taskdeck_user_id": "9001",
		})

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(gotUser).To(Equal("9001"))
		Expect(gotChannel).To(Equal("C42"))
		Expect(gotText).To(Equal("task #42 was assigned to you"))
	})

	It("rejects a notification over the length limit", func() {
		w := post(map[string]any{
			"notification":     strings.Repeat("x", 1001),
			"channel":          "C42",
			"taskdeck_user_id": "9001",
		})
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("rejects missing fields", func() {
		w := post(map[string]any{"notification": "hello"})
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("returns 404 when no integration is linked", func() {
		svc.sendToLinkedUserFn = func(_ context.Context, _, _, _ string) error {
			return service.ErrNoIntegration
		}

		w := post(map[string]any{
			"notification":     "hello",
			"channel":          "C42",
			"taskdeck_user_id": "9001",
		})
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})

	It("returns 502 when slack rejects the message", func() {
		svc.sendToLinkedUserFn = func(_ context.Context, _, _, _ string) error {
			return &bot.ProviderRejectedError{Reason: "channel_not_found"}
		}

		w := post(map[string]any{
			"notification":     "hello",
			"channel":          "C42",
			"taskdeck_user_id": "9001",
		})
		Expect(w.Code).To(Equal(http.StatusBadGateway))
	})

	It("returns 502 when slack is unreachable", func() {
		svc.sendToLinkedUserFn = func(_ context.Context, _, _, _ string) error {
			return bot.ErrTransport
		}

		w := post(map[string]any{
			"notification":     "hello",
			"channel":          "C42",
			"taskdeck_user_id": "9001",
		})
		Expect(w.Code).To(Equal(http.StatusBadGateway))
	})

	It("returns 500 on unexpected failures", func() {
		svc.sendToLinkedUserFn = func(_ context.Context, _, _, _ string) error {
			return errors.New("boom")
		}

		w := post(map[string]any{
			"notification":     "hello",
			"channel":          "C42",
			"taskdeck_user_id": "9001",
		})
		Expect(w.Code).To(Equal(http.StatusInternalServerError))
	})
})
