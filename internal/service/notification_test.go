package service_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"taskdeck.app/botlink/internal/model"
	"taskdeck.app/botlink/internal/service"
	"taskdeck.app/botlink/internal/store"
)

var _ = Describe("NotificationService", func() {
	var (
		ctx      context.Context
		svc      service.NotificationService
		provider *mockProvider
		stores   *mockStores
	)

	BeforeEach(func() {
		ctx = context.Background()
		provider = &mockProvider{}
		stores = &mockStores{integrations: &mockIntegrationStore{}}
		svc = service.NewNotificationService(provider, stores)
	})

	Describe("SendToLinkedUser", func() {
		It("resolves the linked install and posts with its credential", func() {
			stores.integrations.getByLinkedUserFn = func(_ context.Context, linkedUserID string) (*model.Integration, error) {
				Expect(linkedUserID).To(Equal("9001"))
				return &model.Integration{ID: 1, AccessToken: "xoxb-secret"}, nil
			}

			var gotChannel, gotText, gotToken string
			provider.sendNotificationFn = func(_ context.Context, channel, text, token string) error {
				gotChannel, gotText, gotToken = channel, text, token
				return nil
			}

			err := svc.SendToLinkedUser(ctx, "9001", "C42", "task assigned to you")

			Expect(err).NotTo(HaveOccurred())
			Expect(gotChannel).To(Equal("C42"))
			Expect(gotText).To(Equal("task assigned to you"))
			Expect(gotToken).To(Equal("xoxb-secret"))
		})

		It("returns ErrNoIntegration when the user has no linked install", func() {
			stores.integrations.getByLinkedUserFn = func(_ context.Context, _ string) (*model.Integration, error) {
				return nil, store.ErrNotFound
			}

			err := svc.SendToLinkedUser(ctx, "9001", "C42", "hello")

			Expect(errors.Is(err, service.ErrNoIntegration)).To(BeTrue())
		})

		It("propagates provider failures without retrying", func() {
			stores.integrations.getByLinkedUserFn = func(_ context.Context, _ string) (*model.Integration, error) {
				return &model.Integration{ID: 1, AccessToken: "xoxb"}, nil
			}
			calls := 0
			provider.sendNotificationFn = func(_ context.Context, _, _, _ string) error {
				calls++
				return errors.New("timeout")
			}

			err := svc.SendToLinkedUser(ctx, "9001", "C42", "hello")

			Expect(err).To(HaveOccurred())
			Expect(calls).To(Equal(1))
		})
	})
})
