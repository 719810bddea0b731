package service

import (
	"github.com/redis/go-redis/v9"

	"taskdeck.app/botlink/core/config"
	"taskdeck.app/botlink/internal/bot"
	"taskdeck.app/botlink/internal/store"
)

type Services struct {
	stores   *store.Stores
	provider bot.Provider
	redis    *redis.Client
	tx       TxRunner
	slackCfg config.SlackConfig
}

func NewServices(stores *store.Stores, provider bot.Provider, redisClient *redis.Client, tx TxRunner, slackCfg config.SlackConfig) *Services {
	return &Services{
		stores:   stores,
		provider: provider,
		redis:    redisClient,
		tx:       tx,
		slackCfg: slackCfg,
	}
}

func (s *Services) Link() LinkService {
	return NewLinkService(s.provider, s.stores, s.LinkTokens(), s.tx, s.slackCfg)
}

func (s *Services) Authorize() AuthorizeService {
	return NewAuthorizeService(s.stores)
}

func (s *Services) Notifications() NotificationService {
	return NewNotificationService(s.provider, s.stores)
}

func (s *Services) LinkTokens() LinkTokenService {
	return NewLinkTokenService(s.redis)
}

func (s *Services) Provider() bot.Provider {
	return s.provider
}

func (s *Services) EventDeduper() EventDeduper {
	return NewEventDeduper(s.redis)
}
