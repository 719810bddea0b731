package worker_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"taskdeck.app/botlink/internal/bot"
	"taskdeck.app/botlink/internal/model"
	"taskdeck.app/botlink/internal/store"
	"taskdeck.app/botlink/internal/worker"
)

type mockIntegrationStore struct {
	getByExternalIdentityFn func(ctx context.Context, teamID, userID, appID string) (*model.Integration, error)
}

func (m *mockIntegrationStore) Upsert(_ context.Context, _ *model.Integration) error {
	return nil
}

func (m *mockIntegrationStore) GetByExternalIdentity(ctx context.Context, teamID, userID, appID string) (*model.Integration, error) {
	if m.getByExternalIdentityFn != nil {
		return m.getByExternalIdentityFn(ctx, teamID, userID, appID)
	}
	return nil, store.ErrNotFound
}

func (m *mockIntegrationStore) GetByLinkedUser(_ context.Context, _ string) (*model.Integration, error) {
	return nil, store.ErrNotFound
}

type mockStores struct {
	integrations *mockIntegrationStore
}

func (m *mockStores) Integrations() store.IntegrationStore {
	return m.integrations
}

type mockNotifications struct {
	sendFn func(ctx context.Context, channel, text, token string) error
	sends  int
}

func (m *mockNotifications) Send(ctx context.Context, channel, text, token string) error {
	m.sends++
	if m.sendFn != nil {
		return m.sendFn(ctx, channel, text, token)
	}
	return nil
}

func (m *mockNotifications) SendToLinkedUser(_ context.Context, _, _, _ string) error {
	return nil
}

var _ = Describe("SlackEventProcessor", func() {
	var (
		ctx           context.Context
		processor     worker.EventProcessor
		stores        *mockStores
		notifications *mockNotifications
	)

	homeOpened := func() model.SlackEvent {
		return model.SlackEvent{
			EventID:   "Ev1",
			EventType: "app_home_opened",
			TeamID:    "T1",
			UserID:    "U1",
			AppID:     "A1",
			Payload:   []byte(`{"channel":"D1"}`),
		}
	}

	BeforeEach(func() {
		ctx = context.Background()
		stores = &mockStores{integrations: &mockIntegrationStore{}}
		notifications = &mockNotifications{}
		processor = worker.NewSlackEventProcessor(stores, notifications)
	})

	Describe("app_home_opened", func() {
		It("welcomes an unlinked user in their app home channel", func() {
			stores.integrations.getByExternalIdentityFn = func(_ context.Context, _, _, _ string) (*model.Integration, error) {
				return &model.Integration{ID: 1, AccessToken: "xoxb"}, nil
			}

			var gotChannel, gotText, gotToken string
			notifications.sendFn = func(_ context.Context, channel, text, token string) error {
				gotChannel, gotText, gotToken = channel, text, token
				return nil
			}

			Expect(processor.Process(ctx, homeOpened())).To(Succeed())
			Expect(gotChannel).To(Equal("D1"))
			Expect(gotText).To(ContainSubstring("/link-with-taskdeck"))
			Expect(gotToken).To(Equal("xoxb"))
		})

		It("stays quiet for a linked user", func() {
			linked := "9001"
			stores.integrations.getByExternalIdentityFn = func(_ context.Context, _, _, _ string) (*model.Integration, error) {
				return &model.Integration{ID: 1, LinkedUserID: &linked}, nil
			}

			Expect(processor.Process(ctx, homeOpened())).To(Succeed())
			Expect(notifications.sends).To(BeZero())
		})

		It("ignores users without an install", func() {
			Expect(processor.Process(ctx, homeOpened())).To(Succeed())
			Expect(notifications.sends).To(BeZero())
		})

		It("ignores a payload without a channel", func() {
			event := homeOpened()
			event.Payload = []byte(`{}`)

			Expect(processor.Process(ctx, event)).To(Succeed())
			Expect(notifications.sends).To(BeZero())
		})

		It("drops logical rejections but propagates transport failures", func() {
			stores.integrations.getByExternalIdentityFn = func(_ context.Context, _, _, _ string) (*model.Integration, error) {
				return &model.Integration{ID: 1, AccessToken: "xoxb"}, nil
			}

			notifications.sendFn = func(_ context.Context, _, _, _ string) error {
				return &bot.ProviderRejectedError{Reason: "channel_not_found"}
			}
			Expect(processor.Process(ctx, homeOpened())).To(Succeed())

			notifications.sendFn = func(_ context.Context, _, _, _ string) error {
				return bot.ErrTransport
			}
			err := processor.Process(ctx, homeOpened())
			Expect(errors.Is(err, bot.ErrTransport)).To(BeTrue())
		})
	})

	It("records app_uninstalled without touching the store", func() {
		event := model.SlackEvent{EventID: "Ev2", EventType: "app_uninstalled", TeamID: "T1", AppID: "A1"}
		Expect(processor.Process(ctx, event)).To(Succeed())
	})

	It("ignores unsupported event types", func() {
		event := model.SlackEvent{EventID: "Ev3", EventType: "reaction_added", TeamID: "T1"}
		Expect(processor.Process(ctx, event)).To(Succeed())
	})
})
