package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"taskdeck.app/botlink/common/logger"
	"taskdeck.app/botlink/internal/http/dto"
	"taskdeck.app/botlink/internal/model"
	"taskdeck.app/botlink/internal/service"
)

// Denial messages sent back as ephemeral command responses. Each case tells
// the user exactly what to do next.
const (
	msgNotInstalled = "Please install the Taskdeck app in your workspace first."
	msgUnlinked     = "Please link your Slack account with Taskdeck first. Run /link-with-taskdeck to get started."
)

// PromptOpener is the slice of the bot provider the command handler needs.
type PromptOpener interface {
	OpenPrompt(ctx context.Context, triggerID, token string) error
}

type CommandHandler struct {
	authorize   service.AuthorizeService
	linkTokens  service.LinkTokenService
	prompts     PromptOpener
	taskdeckURL string
}

func NewCommandHandler(authorize service.AuthorizeService, linkTokens service.LinkTokenService, prompts PromptOpener, taskdeckURL string) *CommandHandler {
	return &CommandHandler{
		authorize:   authorize,
		linkTokens:  linkTokens,
		prompts:     prompts,
		taskdeckURL: taskdeckURL,
	}
}

// NewTask handles the /new-task slash command: fully linked users get the
// task creation modal, everyone else gets a corrective message.
func (h *CommandHandler) NewTask(c *gin.Context) {
	req, integration, ok := h.gate(c, service.DecisionAuthorized)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if err := h.prompts.OpenPrompt(ctx, req.TriggerID, integration.AccessToken); err != nil {
		slog.ErrorContext(ctx, "failed to open task modal", "error", err)
		ephemeral(c, "Something went wrong opening the task form. Please try again.")
		return
	}

	ephemeral(c, "Thanks for using Taskdeck!")
}

// LinkWithTaskdeck handles the /link-with-taskdeck slash command: it mints a
// one-time handoff token and points the user at Taskdeck to finish linking.
func (h *CommandHandler) LinkWithTaskdeck(c *gin.Context) {
	req, _, ok := h.gate(c, service.DecisionUnlinked)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	token, err := h.linkTokens.Mint(ctx, service.LinkTokenIdentity{
		TeamID: req.TeamID,
		UserID: req.UserID,
		AppID:  req.APIAppID,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to mint link token", "error", err)
		ephemeral(c, "Something went wrong. Please try again.")
		return
	}

	linkURL := h.taskdeckURL + "/integrations/slack/link?" + url.Values{"token": {token}}.Encode()
	ephemeral(c, "Connect your Slack account to Taskdeck: "+linkURL)
}

// gate binds the command payload and runs the authorization decision.
// minimum is the weakest decision allowed through: DecisionUnlinked admits
// installed-but-unlinked users, DecisionAuthorized requires a full link.
func (h *CommandHandler) gate(c *gin.Context, minimum service.Decision) (*dto.SlashCommandRequest, *model.Integration, bool) {
	ctx := c.Request.Context()

	var req dto.SlashCommandRequest
	if err := c.ShouldBind(&req); err != nil {
		slog.WarnContext(ctx, "missing required slack identifiers in command", "error", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid slack request format"})
		return nil, nil, false
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		TeamID:      logger.Ptr(req.TeamID),
		SlackUserID: logger.Ptr(req.UserID),
		AppID:       logger.Ptr(req.APIAppID),
	})
	c.Request = c.Request.WithContext(ctx)

	decision, integration, err := h.authorize.Authorize(ctx, req.TeamID, req.UserID, req.APIAppID)
	if err != nil {
		slog.ErrorContext(ctx, "authorization check failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to validate slack integration"})
		return nil, nil, false
	}

	switch decision {
	case service.DecisionNotInstalled:
		slog.WarnContext(ctx, "command from identity without install")
		ephemeral(c, msgNotInstalled)
		return nil, nil, false
	case service.DecisionUnlinked:
		if minimum == service.DecisionAuthorized {
			slog.WarnContext(ctx, "command from unlinked identity")
			ephemeral(c, msgUnlinked)
			return nil, nil, false
		}
	}

	return &req, integration, true
}

// ephemeral responds 200 with a message only the invoking user sees. Slash
// command errors must not be HTTP errors or Slack shows a generic failure.
func ephemeral(c *gin.Context, text string) {
	c.JSON(http.StatusOK, gin.H{
		"response_type": "ephemeral",
		"text":          text,
	})
}
