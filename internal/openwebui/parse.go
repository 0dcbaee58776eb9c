package openwebui

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
)

// ParseChats decodes an Open WebUI chat import file.
func ParseChats(data []byte) ([]*Chat, error) {
	var chats []*Chat
	if err := json.Unmarshal(data, &chats); err != nil {
		return nil, errors.Wrap(err, "parse chats")
	}
	return chats, nil
}

// ValidateChat checks that a chat's messages form one chronological chain
// and that the history mapping agrees with the list.
func ValidateChat(c *Chat) []string {
	issues := []string{}
	msgs := c.Chat.Messages
	if len(msgs) == 0 {
		return append(issues, "chat has no messages")
	}

	seen := map[string]struct{}{}
	for i, m := range msgs {
		if m == nil {
			issues = append(issues, fmt.Sprintf("message %d is null", i))
			continue
		}
		if _, dup := seen[m.ID]; dup {
			issues = append(issues, fmt.Sprintf("duplicate message id %q", m.ID))
		}
		seen[m.ID] = struct{}{}
		if m.Content == "" {
			issues = append(issues, fmt.Sprintf("message %q has empty content", m.ID))
		}
		if i == 0 {
			if m.ParentID != nil {
				issues = append(issues, fmt.Sprintf("root message %q has parent %q", m.ID, *m.ParentID))
			}
		} else {
			prev := msgs[i-1]
			if prev == nil {
				continue
			}
			if m.Timestamp < prev.Timestamp {
				issues = append(issues, fmt.Sprintf("message %q is older than its predecessor", m.ID))
			}
			if m.ParentID == nil || *m.ParentID != prev.ID {
				issues = append(issues, fmt.Sprintf("message %q is not linked to %q", m.ID, prev.ID))
			}
		}
		switch {
		case i == len(msgs)-1 && len(m.ChildrenIDs) != 0:
			issues = append(issues, fmt.Sprintf("last message %q has children", m.ID))
		case i < len(msgs)-1 && msgs[i+1] != nil && (len(m.ChildrenIDs) != 1 || m.ChildrenIDs[0] != msgs[i+1].ID):
			issues = append(issues, fmt.Sprintf("message %q does not point at its successor", m.ID))
		}
		if h, ok := c.Chat.History.Messages[m.ID]; !ok || h == nil {
			issues = append(issues, fmt.Sprintf("message %q missing from history", m.ID))
		}
	}
	if len(c.Chat.History.Messages) != len(seen) {
		issues = append(issues, "history size does not match message list")
	}
	last := msgs[len(msgs)-1]
	if last != nil && (c.Chat.History.CurrentID == nil || *c.Chat.History.CurrentID != last.ID) {
		issues = append(issues, "currentId does not point at the last message")
	}
	return issues
}
