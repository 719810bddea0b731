package slack

// notificationBlocks wraps plain notification text in a single mrkdwn section.
func notificationBlocks(text string) []map[string]any {
	return []map[string]any{
		{
			"type": "section",
			"text": map[string]any{
				"type": "mrkdwn",
				"text": text,
			},
		},
	}
}

// newTaskView is the modal presented by the new-task slash command.
func newTaskView() map[string]any {
	return map[string]any{
		"type":        "modal",
		"callback_id": "taskdeck_task_modal",
		"title":       plainText("New Taskdeck Task"),
		"submit":      plainText("Create"),
		"close":       plainText("Cancel"),
		"blocks": []map[string]any{
			inputBlock("task_name", "Task Name", map[string]any{
				"type":      "plain_text_input",
				"action_id": "input",
			}, false),
			inputBlock("assignee", "Assignee", map[string]any{
				"type":      "users_select",
				"action_id": "user",
			}, true),
			inputBlock("due_date", "Due Date", map[string]any{
				"type":      "datepicker",
				"action_id": "date",
			}, true),
			inputBlock("description", "Description", map[string]any{
				"type":      "plain_text_input",
				"multiline": true,
				"action_id": "desc",
			}, true),
		},
	}
}

func plainText(text string) map[string]any {
	return map[string]any{"type": "plain_text", "text": text}
}

func inputBlock(blockID, label string, element map[string]any, optional bool) map[string]any {
	block := map[string]any{
		"type":     "input",
		"block_id": blockID,
		"label":    plainText(label),
		"element":  element,
	}
	if optional {
		block["optional"] = true
	}
	return block
}
