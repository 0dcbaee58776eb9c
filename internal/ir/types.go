package ir

// Conversation is a source conversation reduced to the fields the target
// format needs. Messages are in mapping order, not yet linearized.
type Conversation struct {
	ID        string    `json:"id,omitempty"`
	Title     string    `json:"title"`
	CreatedAt int64     `json:"createdAt"`
	UpdatedAt int64     `json:"updatedAt"`
	Messages  []Message `json:"messages"`
}

type Message struct {
	NodeID    string `json:"nodeId"`
	ID        string `json:"id"`
	ParentID  string `json:"parentId,omitempty"` // source tree parent, discarded on linearize
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

// Report summarizes one batch run.
type Report struct {
	Inputs     []string      `json:"inputs"`
	Sources    []SourceInfo  `json:"sources,omitempty"`
	Output     string        `json:"output,omitempty"`
	UserID     string        `json:"userId"`
	Model      string        `json:"model"`
	Total      int           `json:"total"`
	Converted  int           `json:"converted"`
	Skipped    []SkipRecord  `json:"skipped,omitempty"`
	Issues     []string      `json:"issues,omitempty"`
	Warnings   []string      `json:"warnings,omitempty"`
	DryRun     bool          `json:"dryRun,omitempty"`
	CreatedAt  string        `json:"createdAt"`
	LedgerPath string        `json:"ledgerPath,omitempty"`
	Converts   []ConvertInfo `json:"conversations,omitempty"`
}

type SkipReason string

const (
	SkipAlreadyImported SkipReason = "already-imported"
	SkipEmptyMapping    SkipReason = "empty-mapping"
	SkipNoMessages      SkipReason = "no-messages"
	SkipDuplicateInput  SkipReason = "duplicate-input"
)

type SkipRecord struct {
	Index        int        `json:"index"`
	ID           string     `json:"id,omitempty"`
	Title        string     `json:"title,omitempty"`
	Reason       SkipReason `json:"reason"`
	ImportedDate string     `json:"importedDate,omitempty"`
}

// SourceInfo describes one input of a batch.
type SourceInfo struct {
	Index         int      `json:"index"`
	Name          string   `json:"name"`
	Format        string   `json:"format"`
	Hints         []string `json:"hints,omitempty"`
	Conversations int      `json:"conversations"`
}

type ConvertInfo struct {
	SourceID string `json:"sourceId,omitempty"`
	ChatID   string `json:"chatId"`
	Title    string `json:"title"`
	Messages int    `json:"messages"`
}
