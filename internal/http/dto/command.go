package dto

// SlashCommandRequest is the form-encoded payload Slack posts for slash
// commands. Field names follow Slack's wire format.
type SlashCommandRequest struct {
	TeamID    string `form:"team_id" binding:"required"`
	UserID    string `form:"user_id" binding:"required"`
	APIAppID  string `form:"api_app_id"`
	TriggerID string `form:"trigger_id"`
	Command   string `form:"command"`
	Text      string `form:"text"`
	ChannelID string `form:"channel_id"`
}
