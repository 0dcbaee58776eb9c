package openwebui

// Chat is one record of an Open WebUI chat import file.
type Chat struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	Title     string         `json:"title"`
	Chat      ChatBody       `json:"chat"`
	UpdatedAt int64          `json:"updated_at"`
	CreatedAt int64          `json:"created_at"`
	ShareID   *string        `json:"share_id"`
	Archived  bool           `json:"archived"`
	Pinned    bool           `json:"pinned"`
	Meta      map[string]any `json:"meta"`
	FolderID  *string        `json:"folder_id"`
}

type ChatBody struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Models    []string       `json:"models"`
	Params    map[string]any `json:"params"`
	History   History        `json:"history"`
	Messages  []*Message     `json:"messages"`
	Tags      []string       `json:"tags"`
	Timestamp int64          `json:"timestamp"`
	Files     []any          `json:"files"`
}

type History struct {
	Messages  map[string]*Message `json:"messages"`
	CurrentID *string             `json:"currentId"`
}

// Message is shared between History.Messages and ChatBody.Messages so chain
// links stay consistent in both views.
type Message struct {
	ID          string   `json:"id"`
	ParentID    *string  `json:"parentId"`
	ChildrenIDs []string `json:"childrenIds"`
	Role        string   `json:"role"`
	Content     string   `json:"content"`
	Timestamp   int64    `json:"timestamp"`
	Models      []string `json:"models,omitempty"`
	*AssistantInfo
}

// AssistantInfo carries the generation fields Open WebUI expects on
// assistant turns. Nil for every other role.
type AssistantInfo struct {
	Model        string    `json:"model"`
	ModelName    string    `json:"modelName"`
	ModelIdx     int       `json:"modelIdx"`
	UserContext  any       `json:"userContext"`
	LastSentence string    `json:"lastSentence"`
	Done         bool      `json:"done"`
	Context      any       `json:"context"`
	Info         UsageInfo `json:"info"`
}

type UsageInfo struct {
	TotalDuration      int64 `json:"total_duration"`
	LoadDuration       int64 `json:"load_duration"`
	PromptEvalCount    int64 `json:"prompt_eval_count"`
	PromptEvalDuration int64 `json:"prompt_eval_duration"`
	EvalCount          int64 `json:"eval_count"`
	EvalDuration       int64 `json:"eval_duration"`
}
