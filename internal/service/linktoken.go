package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	linkTokenTTL    = 5 * time.Minute
	linkTokenPrefix = "link_token:"
)

// ErrLinkTokenInvalid is returned when a handoff token is unknown, expired or
// already consumed.
var ErrLinkTokenInvalid = errors.New("link token invalid or expired")

// LinkTokenIdentity is the Slack identity a handoff token stands for.
type LinkTokenIdentity struct {
	TeamID string
	UserID string
	AppID  string
}

// LinkTokenService mints short-lived one-time tokens that carry a Slack
// identity to the Taskdeck web app during the link-with-taskdeck flow. Tokens
// are opaque and single use; Redis expiry bounds their lifetime.
type LinkTokenService interface {
	Mint(ctx context.Context, identity LinkTokenIdentity) (string, error)
	// Consume returns the identity for a token and invalidates it.
	Consume(ctx context.Context, token string) (*LinkTokenIdentity, error)
}

type linkTokenService struct {
	redis *redis.Client
}

func NewLinkTokenService(redisClient *redis.Client) LinkTokenService {
	return &linkTokenService{redis: redisClient}
}

func (s *linkTokenService) Mint(ctx context.Context, identity LinkTokenIdentity) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating link token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(b)

	value := identity.TeamID + "|" + identity.UserID + "|" + identity.AppID
	if err := s.redis.Set(ctx, linkTokenPrefix+token, value, linkTokenTTL).Err(); err != nil {
		return "", fmt.Errorf("storing link token: %w", err)
	}
	return token, nil
}

func (s *linkTokenService) Consume(ctx context.Context, token string) (*LinkTokenIdentity, error) {
	value, err := s.redis.GetDel(ctx, linkTokenPrefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrLinkTokenInvalid
		}
		return nil, fmt.Errorf("consuming link token: %w", err)
	}

	parts := strings.Split(value, "|")
	if len(parts) != 3 {
		return nil, ErrLinkTokenInvalid
	}

	return &LinkTokenIdentity{TeamID: parts[0], UserID: parts[1], AppID: parts[2]}, nil
}
