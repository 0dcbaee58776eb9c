package openwebui

import (
	"sort"
	"strings"

	"gpt2webui/internal/ir"
	"gpt2webui/internal/util"
)

const (
	DefaultModel = "openai/chatgpt-4o-latest"
	DefaultTitle = "Chat"
)

// Options are fixed for a whole batch.
type Options struct {
	UserID string
	Model  string
	NewID  func() string
}

// BuildChat turns a conversation into an Open WebUI chat record. It returns
// nil when no message survives extraction.
func BuildChat(conv *ir.Conversation, opts Options) *Chat {
	model := fallbackString(opts.Model, DefaultModel)
	newID := opts.NewID
	if newID == nil {
		newID = util.NewUUID
	}

	messages := make([]*Message, 0, len(conv.Messages))
	for _, m := range conv.Messages {
		messages = append(messages, messageFromIR(m, model))
	}
	Linearize(messages)
	if len(messages) == 0 {
		return nil
	}

	byID := make(map[string]*Message, len(messages))
	for _, m := range messages {
		byID[m.ID] = m
	}
	var currentID *string
	if last := messages[len(messages)-1]; last != nil {
		id := last.ID
		currentID = &id
	}

	title := TitleOrDefault(conv.Title)
	return &Chat{
		ID:     newID(),
		UserID: opts.UserID,
		Title:  title,
		Chat: ChatBody{
			ID:     "",
			Title:  title,
			Models: []string{model},
			Params: map[string]any{},
			History: History{
				Messages:  byID,
				CurrentID: currentID,
			},
			Messages:  messages,
			Tags:      []string{},
			Timestamp: conv.CreatedAt * 1000,
			Files:     []any{},
		},
		UpdatedAt: conv.UpdatedAt,
		CreatedAt: conv.CreatedAt,
		Meta:      map[string]any{},
	}
}

// Linearize orders messages by timestamp and relinks them into a single
// chain. Equal timestamps keep their input order. Any branching in the
// source tree is discarded.
func Linearize(messages []*Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Timestamp < messages[j].Timestamp
	})
	for _, m := range messages {
		m.ChildrenIDs = []string{}
	}
	for i, m := range messages {
		if i == 0 {
			m.ParentID = nil
			continue
		}
		prev := messages[i-1]
		parent := prev.ID
		m.ParentID = &parent
		prev.ChildrenIDs = append(prev.ChildrenIDs, m.ID)
	}
}

func TitleOrDefault(title string) string {
	if title == "" {
		return DefaultTitle
	}
	return title
}

// LastSentence is the text after the final line break, or the whole content.
func LastSentence(content string) string {
	if i := strings.LastIndex(content, "\n"); i >= 0 {
		return content[i+1:]
	}
	return content
}

func messageFromIR(m ir.Message, model string) *Message {
	out := &Message{
		ID:          m.ID,
		ChildrenIDs: []string{},
		Role:        m.Role,
		Content:     m.Content,
		Timestamp:   m.Timestamp,
	}
	if m.ParentID != "" {
		parent := m.ParentID
		out.ParentID = &parent
	}
	if m.Role == "assistant" {
		out.AssistantInfo = &AssistantInfo{
			Model:        model,
			ModelName:    model,
			ModelIdx:     0,
			LastSentence: LastSentence(m.Content),
			Done:         true,
		}
		return out
	}
	out.Models = []string{model}
	return out
}

func fallbackString(v, d string) string {
	if strings.TrimSpace(v) == "" {
		return d
	}
	return v
}
