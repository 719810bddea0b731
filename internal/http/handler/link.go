package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"taskdeck.app/botlink/internal/bot"
	"taskdeck.app/botlink/internal/http/dto"
	"taskdeck.app/botlink/internal/service"
	"taskdeck.app/botlink/internal/store"
)

type LinkHandler struct {
	linkService      service.LinkService
	errorRedirectURL string
}

func NewLinkHandler(linkService service.LinkService, errorRedirectURL string) *LinkHandler {
	return &LinkHandler{
		linkService:      linkService,
		errorRedirectURL: errorRedirectURL,
	}
}

// Install redirects the browser to Slack's authorize page. A signed-in
// Taskdeck user arrives with ?user=<id>; anonymous installs omit it.
func (h *LinkHandler) Install(c *gin.Context) {
	ctx := c.Request.Context()

	var taskdeckUserID *string
	if user := c.Query("user"); user != "" {
		taskdeckUserID = &user
	}

	authURL, err := h.linkService.InstallURL(taskdeckUserID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to build install url", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to initiate install"})
		return
	}

	slog.InfoContext(ctx, "redirecting to slack authorization page", "anonymous", taskdeckUserID == nil)
	c.Redirect(http.StatusTemporaryRedirect, authURL)
}

// Callback handles the OAuth redirect from Slack after the user authorizes
// the app. Success lands the user back in their workspace; failure redirects
// to the error page with a human-readable reason.
func (h *LinkHandler) Callback(c *gin.Context) {
	ctx := c.Request.Context()

	code := c.Query("code")
	state := c.Query("state")

	if errParam := c.Query("error"); errParam != "" {
		slog.WarnContext(ctx, "slack authorization denied", "error", errParam)
		h.redirectError(c, errParam)
		return
	}

	integration, err := h.linkService.CompleteLink(ctx, code, state)
	if err != nil {
		slog.ErrorContext(ctx, "link callback failed", "error", err)
		h.redirectError(c, callbackFailureReason(err))
		return
	}

	c.Redirect(http.StatusTemporaryRedirect, "https://app.slack.com/client/"+integration.TeamID)
}

// AssociateAccount completes the link-with-taskdeck handoff initiated from a
// slash command. Called by the Taskdeck web app, not by Slack.
func (h *LinkHandler) AssociateAccount(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.AssociateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	integration, err := h.linkService.AssociateAccount(ctx, req.Token, req.TaskdeckUserID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrLinkTokenInvalid):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "link token invalid or expired"})
		case errors.Is(err, store.ErrLinkedUserTaken):
			c.JSON(http.StatusConflict, gin.H{"error": "account already linked to another workspace install"})
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "install no longer exists"})
		default:
			slog.ErrorContext(ctx, "failed to associate account", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to link account"})
		}
		return
	}

	c.JSON(http.StatusOK, integration)
}

func (h *LinkHandler) redirectError(c *gin.Context, reason string) {
	target := h.errorRedirectURL + "?" + url.Values{"reason": {reason}}.Encode()
	c.Redirect(http.StatusTemporaryRedirect, target)
}

// callbackFailureReason maps internal failures to a message safe to show the
// user. Provider rejections surface Slack's own reason; everything else stays
// generic.
func callbackFailureReason(err error) string {
	var rejected *bot.ProviderRejectedError
	switch {
	case errors.As(err, &rejected):
		return "slack rejected the authorization: " + rejected.Reason
	case errors.Is(err, bot.ErrInvalidRequest):
		return "missing authorization code"
	case errors.Is(err, bot.ErrTransport):
		return "could not reach slack, please try again"
	default:
		return "authentication failed"
	}
}
