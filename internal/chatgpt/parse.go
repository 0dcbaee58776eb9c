package chatgpt

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"gpt2webui/internal/ir"
	"gpt2webui/internal/util"
)

// Conversation is one entry of a ChatGPT conversations.json export. The
// mapping is kept raw so nodes can be walked in document order.
type Conversation struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	CreateTime  float64         `json:"create_time"`
	UpdateTime  float64         `json:"update_time"`
	CurrentNode string          `json:"current_node"`
	Mapping     json.RawMessage `json:"mapping"`
}

type message struct {
	ID     *string `json:"id"`
	Author *struct {
		Role *string `json:"role"`
	} `json:"author"`
	Content *struct {
		Parts []json.RawMessage `json:"parts"`
	} `json:"content"`
	CreateTime *float64 `json:"create_time"`
}

// MalformedMessageError reports a mapping node whose message lacks a field
// the target format cannot do without.
type MalformedMessageError struct {
	ConversationID string
	NodeID         string
	Field          string
	Err            error
}

func (e *MalformedMessageError) Error() string {
	msg := fmt.Sprintf("malformed message in node %q", e.NodeID)
	if e.ConversationID != "" {
		msg = fmt.Sprintf("conversation %q: %s", e.ConversationID, msg)
	}
	msg += ": " + e.Field
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedMessageError) Unwrap() error { return e.Err }

// ParseExport decodes a conversations.json payload. Each conversation is
// decoded on its own so a bad entry is reported by index.
func ParseExport(data []byte) ([]Conversation, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, errors.Wrap(err, "parse export: expected a JSON array of conversations")
	}
	out := make([]Conversation, 0, len(items))
	for i, raw := range items {
		var conv Conversation
		if err := json.Unmarshal(raw, &conv); err != nil {
			return nil, errors.Wrapf(err, "parse export: conversation %d", i)
		}
		out = append(out, conv)
	}
	return out, nil
}

// HasMapping reports whether the conversation carries at least one node.
func (c Conversation) HasMapping() bool {
	m := gjson.ParseBytes(c.Mapping)
	if !m.IsObject() {
		return false
	}
	has := false
	m.ForEach(func(_, _ gjson.Result) bool {
		has = true
		return false
	})
	return has
}

// ToIR extracts the conversation's messages in mapping order. Nodes without
// a message or with empty content are dropped. Nodes whose message is
// malformed are dropped too and returned as errors; the caller decides
// whether they are fatal.
func ToIR(c Conversation, now func() time.Time) (*ir.Conversation, []*MalformedMessageError) {
	createdAt := secondsOr(c.CreateTime, now)
	updatedAt := createdAt
	if c.UpdateTime != 0 {
		updatedAt = int64(c.UpdateTime)
	}
	conv := &ir.Conversation{
		ID:        c.ID,
		Title:     c.Title,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
		Messages:  []ir.Message{},
	}

	var malformed []*MalformedMessageError
	m := gjson.ParseBytes(c.Mapping)
	if !m.IsObject() {
		return conv, nil
	}
	m.ForEach(func(key, value gjson.Result) bool {
		msg, ok, err := extractMessage(key.String(), value, now)
		if err != nil {
			err.ConversationID = c.ID
			malformed = append(malformed, err)
			return true
		}
		if ok {
			conv.Messages = append(conv.Messages, msg)
		}
		return true
	})
	return conv, malformed
}

func extractMessage(nodeID string, value gjson.Result, now func() time.Time) (ir.Message, bool, *MalformedMessageError) {
	if !value.IsObject() {
		return ir.Message{}, false, &MalformedMessageError{NodeID: nodeID, Field: "node"}
	}
	rawMsg := value.Get("message")
	if isFalsy(rawMsg) {
		return ir.Message{}, false, nil
	}
	if !rawMsg.IsObject() {
		return ir.Message{}, false, &MalformedMessageError{NodeID: nodeID, Field: "message"}
	}
	var msg message
	if err := json.Unmarshal([]byte(rawMsg.Raw), &msg); err != nil {
		return ir.Message{}, false, &MalformedMessageError{NodeID: nodeID, Field: "message", Err: err}
	}
	if msg.Author == nil || msg.Author.Role == nil {
		return ir.Message{}, false, &MalformedMessageError{NodeID: nodeID, Field: "author.role"}
	}
	if msg.ID == nil {
		return ir.Message{}, false, &MalformedMessageError{NodeID: nodeID, Field: "id"}
	}

	var parts []json.RawMessage
	if msg.Content != nil {
		parts = msg.Content.Parts
	}
	content := strings.TrimSpace(strings.Join(FlattenParts(parts), "\n"))
	if content == "" {
		return ir.Message{}, false, nil
	}

	out := ir.Message{
		NodeID:    nodeID,
		ID:        *msg.ID,
		Role:      *msg.Author.Role,
		Content:   content,
		Timestamp: now().Unix(),
	}
	if parent := value.Get("parent"); parent.Type == gjson.String {
		out.ParentID = parent.Str
	}
	if msg.CreateTime != nil {
		out.Timestamp = secondsOr(*msg.CreateTime, now)
	}
	return out, true, nil
}

// FlattenParts renders content parts as text. Strings are taken as-is, any
// other JSON value becomes its compact JSON text.
func FlattenParts(parts []json.RawMessage) []string {
	out := make([]string, 0, len(parts))
	for _, raw := range parts {
		if gjson.ParseBytes(raw).Type == gjson.String {
			var s string
			if err := json.Unmarshal(raw, &s); err == nil {
				out = append(out, s)
				continue
			}
		}
		out = append(out, util.CompactJSON(raw))
	}
	return out
}

func secondsOr(v float64, now func() time.Time) int64 {
	if v == 0 {
		return now().Unix()
	}
	return int64(v)
}

// isFalsy matches the export's "no message here" encodings: absent, null,
// false, 0, "" and empty containers.
func isFalsy(r gjson.Result) bool {
	switch r.Type {
	case gjson.Null:
		return true
	case gjson.False:
		return true
	case gjson.Number:
		return r.Num == 0
	case gjson.String:
		return r.Str == ""
	case gjson.JSON:
		empty := true
		r.ForEach(func(_, _ gjson.Result) bool {
			empty = false
			return false
		})
		return empty
	}
	return false
}
