package dto

// SendNotificationRequest is the host-side request to post a message into the
// workspace of a linked Taskdeck user.
type SendNotificationRequest struct {
	Notification   string `json:"notification" binding:"required,min=1,max=1000"`
	Channel        string `json:"channel" binding:"required,min=1,max=255"`
	TaskdeckUserID string `json:"taskdeck_user_id" binding:"required,min=1,max=255"`
}

// AssociateAccountRequest completes the link-with-taskdeck handoff.
type AssociateAccountRequest struct {
	Token          string `json:"token" binding:"required"`
	TaskdeckUserID string `json:"taskdeck_user_id" binding:"required,min=1,max=255"`
}
