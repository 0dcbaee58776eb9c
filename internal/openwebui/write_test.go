package openwebui

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"gpt2webui/internal/ir"
)

func fixedID() string { return "chat-1" }

func TestBuildChat_SingleMessageScenario(t *testing.T) {
	conv := &ir.Conversation{
		ID:        "c1",
		Title:     "T",
		CreatedAt: 50,
		UpdatedAt: 60,
		Messages:  []ir.Message{{NodeID: "a", ID: "m1", Role: "user", Content: "hi", Timestamp: 100}},
	}
	chat := BuildChat(conv, Options{UserID: "u1", NewID: fixedID})
	require.NotNil(t, chat)
	require.Equal(t, "chat-1", chat.ID)
	require.Equal(t, "u1", chat.UserID)
	require.Equal(t, "T", chat.Title)
	require.Equal(t, int64(50000), chat.Chat.Timestamp)
	require.Equal(t, []string{DefaultModel}, chat.Chat.Models)
	require.Len(t, chat.Chat.Messages, 1)

	m := chat.Chat.Messages[0]
	require.Equal(t, "user", m.Role)
	require.Equal(t, "hi", m.Content)
	require.Nil(t, m.ParentID)
	require.NotNil(t, chat.Chat.History.CurrentID)
	require.Equal(t, "m1", *chat.Chat.History.CurrentID)
	require.Empty(t, ValidateChat(chat))

	b, err := json.Marshal(chat)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"id": "chat-1",
		"user_id": "u1",
		"title": "T",
		"chat": {
			"id": "",
			"title": "T",
			"models": ["openai/chatgpt-4o-latest"],
			"params": {},
			"history": {
				"messages": {
					"m1": {"id": "m1", "parentId": null, "childrenIds": [], "role": "user", "content": "hi", "timestamp": 100, "models": ["openai/chatgpt-4o-latest"]}
				},
				"currentId": "m1"
			},
			"messages": [
				{"id": "m1", "parentId": null, "childrenIds": [], "role": "user", "content": "hi", "timestamp": 100, "models": ["openai/chatgpt-4o-latest"]}
			],
			"tags": [],
			"timestamp": 50000,
			"files": []
		},
		"updated_at": 60,
		"created_at": 50,
		"share_id": null,
		"archived": false,
		"pinned": false,
		"meta": {},
		"folder_id": null
	}`, string(b))
}

func TestBuildChat_AssistantFields(t *testing.T) {
	conv := &ir.Conversation{Messages: []ir.Message{
		{ID: "m1", Role: "assistant", Content: "line one\nline two", Timestamp: 1},
	}}
	chat := BuildChat(conv, Options{Model: "custom/model", NewID: fixedID})
	require.Equal(t, DefaultTitle, chat.Title)

	b, err := json.Marshal(chat.Chat.Messages[0])
	require.NoError(t, err)
	require.JSONEq(t, `{
		"id": "m1",
		"parentId": null,
		"childrenIds": [],
		"role": "assistant",
		"content": "line one\nline two",
		"timestamp": 1,
		"model": "custom/model",
		"modelName": "custom/model",
		"modelIdx": 0,
		"userContext": null,
		"lastSentence": "line two",
		"done": true,
		"context": null,
		"info": {
			"total_duration": 0,
			"load_duration": 0,
			"prompt_eval_count": 0,
			"prompt_eval_duration": 0,
			"eval_count": 0,
			"eval_duration": 0
		}
	}`, string(b))
}

func TestBuildChat_ReordersByTimestamp(t *testing.T) {
	conv := &ir.Conversation{Messages: []ir.Message{
		{ID: "late", ParentID: "x", Role: "assistant", Content: "b", Timestamp: 200},
		{ID: "early", ParentID: "y", Role: "user", Content: "a", Timestamp: 100},
	}}
	chat := BuildChat(conv, Options{NewID: fixedID})
	msgs := chat.Chat.Messages
	require.Equal(t, "early", msgs[0].ID)
	require.Nil(t, msgs[0].ParentID)
	require.Equal(t, []string{"late"}, msgs[0].ChildrenIDs)
	require.Equal(t, "early", *msgs[1].ParentID)
	require.Empty(t, msgs[1].ChildrenIDs)
	require.Equal(t, "late", *chat.Chat.History.CurrentID)
	require.Same(t, msgs[0], chat.Chat.History.Messages["early"])
}

func TestBuildChat_EmptyConversation(t *testing.T) {
	require.Nil(t, BuildChat(&ir.Conversation{ID: "c1"}, Options{}))
}

func TestLinearize_CollapsesBranchesStably(t *testing.T) {
	root := "root"
	msgs := []*Message{
		{ID: "b1", ParentID: &root, ChildrenIDs: []string{"x", "y"}, Timestamp: 10},
		{ID: "b2", ParentID: &root, Timestamp: 10},
		{ID: "root", ChildrenIDs: []string{"b1", "b2"}, Timestamp: 5},
		{ID: "tail", Timestamp: 10},
	}
	Linearize(msgs)

	order := []string{}
	for _, m := range msgs {
		order = append(order, m.ID)
	}
	require.Equal(t, []string{"root", "b1", "b2", "tail"}, order)
	for i, m := range msgs {
		if i == 0 {
			require.Nil(t, m.ParentID)
		} else {
			require.Equal(t, msgs[i-1].ID, *m.ParentID)
		}
		if i == len(msgs)-1 {
			require.Empty(t, m.ChildrenIDs)
		} else {
			require.Equal(t, []string{msgs[i+1].ID}, m.ChildrenIDs)
		}
	}
}

func TestLastSentence(t *testing.T) {
	require.Equal(t, "whole", LastSentence("whole"))
	require.Equal(t, "c", LastSentence("a\nb\nc"))
	require.Equal(t, "", LastSentence("ends with newline\n"))
}

func TestValidateChat_FlagsBrokenChains(t *testing.T) {
	conv := &ir.Conversation{Messages: []ir.Message{
		{ID: "m1", Role: "user", Content: "a", Timestamp: 1},
		{ID: "m2", Role: "assistant", Content: "b", Timestamp: 2},
	}}
	chat := BuildChat(conv, Options{NewID: fixedID})
	require.Empty(t, ValidateChat(chat))

	other := "m1"
	chat.Chat.History.CurrentID = &other
	chat.Chat.Messages[1].ParentID = nil
	issues := ValidateChat(chat)
	require.Contains(t, issues, "currentId does not point at the last message")
	require.Contains(t, issues, `message "m2" is not linked to "m1"`)
}

func TestParseChats_RoundTrip(t *testing.T) {
	conv := &ir.Conversation{Messages: []ir.Message{
		{ID: "m1", Role: "user", Content: "a", Timestamp: 1},
		{ID: "m2", Role: "assistant", Content: "b", Timestamp: 2},
	}}
	chat := BuildChat(conv, Options{NewID: fixedID})
	b, err := json.Marshal([]*Chat{chat})
	require.NoError(t, err)

	parsed, err := ParseChats(b)
	require.NoError(t, err)
	require.Len(t, parsed, 1)
	require.Nil(t, parsed[0].Chat.Messages[0].AssistantInfo)
	require.NotNil(t, parsed[0].Chat.Messages[1].AssistantInfo)
	require.Equal(t, "b", parsed[0].Chat.Messages[1].LastSentence)
}
