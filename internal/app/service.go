package app

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pkg/errors"

	"gpt2webui/internal/backup"
	"gpt2webui/internal/chatgpt"
	"gpt2webui/internal/ir"
	"gpt2webui/internal/ledger"
	"gpt2webui/internal/openwebui"
	"gpt2webui/internal/util"
)

// ErrInputNotFound is returned when an input location does not exist.
var ErrInputNotFound = backup.ErrNotFound

type ConvertOptions struct {
	InputPaths []string
	OutputPath string
	Ledger     ledger.Ledger
	UserID     string
	Model      string
	Strict     bool // abort the batch on the first malformed message; ledger written only after the output
	DryRun     bool // no ledger writes, no output file
	Now        func() time.Time
	NewID      func() string
	Logger     *slog.Logger
}

type InputSummary struct {
	Path    string           `json:"path"`
	Format  string           `json:"format"`
	Hints   []string         `json:"hints,omitempty"`
	Summary *chatgpt.Summary `json:"summary"`
}

type InspectResult struct {
	Inputs          []InputSummary `json:"inputs"`
	LedgerPath      string         `json:"ledgerPath"`
	LedgerEntries   int            `json:"ledgerEntries"`
	AlreadyImported int            `json:"alreadyImported"`
	Pending         int            `json:"pending"`
}

type ValidateResult struct {
	Valid    bool       `json:"valid"`
	Issues   []string   `json:"issues"`
	Warnings []string   `json:"warnings,omitempty"`
	Report   *ir.Report `json:"report,omitempty"`
}

// Convert runs one batch: read every input, skip what the ledger already
// knows, convert the rest and write them out in a single file.
func Convert(opts ConvertOptions) (*ir.Report, error) {
	opts = withDefaults(opts)
	if len(normalizeInputPaths(opts.InputPaths)) == 0 {
		return nil, errors.New("input is required")
	}
	if !opts.DryRun && strings.TrimSpace(opts.OutputPath) == "" {
		return nil, errors.New("output is required")
	}
	if opts.Ledger == nil {
		return nil, errors.New("ledger is required")
	}

	chats, pending, report, err := convertBatch(opts)
	if err != nil {
		return report, err
	}
	if opts.DryRun {
		return report, nil
	}
	if err := util.WriteJSONFile(opts.OutputPath, chats); err != nil {
		return report, errors.Wrapf(err, "write output %s", opts.OutputPath)
	}
	for _, rec := range pending {
		if err := recordImported(opts, rec); err != nil {
			return report, err
		}
	}
	opts.Logger.Info("conversion finished", "converted", report.Converted, "output", opts.OutputPath)
	return report, nil
}

// Inspect reports what a batch would see without converting anything.
func Inspect(paths []string, l ledger.Ledger) (*InspectResult, error) {
	paths = normalizeInputPaths(paths)
	if len(paths) == 0 {
		return nil, errors.New("input is required")
	}
	res := &InspectResult{Inputs: make([]InputSummary, 0, len(paths))}
	imported := map[string]ledger.Entry{}
	if l != nil {
		imported = l.Load()
		res.LedgerPath = l.Path()
	}
	res.LedgerEntries = len(imported)

	seen := map[string]struct{}{}
	for _, p := range paths {
		raw, d, err := backup.ReadConversations(p)
		if err != nil {
			return nil, err
		}
		summary, err := chatgpt.Summarize(raw)
		if err != nil {
			return nil, errors.Wrap(err, p)
		}
		res.Inputs = append(res.Inputs, InputSummary{
			Path:    p,
			Format:  string(d.Format),
			Hints:   d.Hints,
			Summary: summary,
		})
		for _, id := range summary.IDs {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			if _, ok := imported[id]; ok {
				res.AlreadyImported++
			} else {
				res.Pending++
			}
		}
		res.Pending += summary.WithoutID
	}
	return res, nil
}

// Validate runs a dry batch and checks every produced chat for chain
// consistency.
func Validate(opts ConvertOptions) (*ValidateResult, error) {
	opts.DryRun = true
	report, err := Convert(opts)
	if err != nil {
		if errors.Is(err, ErrInputNotFound) {
			return nil, err
		}
		res := &ValidateResult{Valid: false, Issues: []string{err.Error()}, Report: report}
		return res, nil
	}
	issues := append([]string{}, report.Issues...)
	return &ValidateResult{
		Valid:    len(issues) == 0,
		Issues:   issues,
		Warnings: report.Warnings,
		Report:   report,
	}, nil
}

type ledgerRecord struct {
	id    string
	title string
}

func recordImported(opts ConvertOptions, rec ledgerRecord) error {
	if err := opts.Ledger.Record(rec.id, rec.title); err != nil {
		return err
	}
	opts.Logger.Info("conversation imported", "title", rec.title)
	return nil
}

// convertBatch converts every pending conversation. Outside strict mode each
// one is recorded in the ledger as soon as it converts; in strict mode the
// records are returned so they land only after the output is written.
func convertBatch(opts ConvertOptions) ([]*openwebui.Chat, []ledgerRecord, *ir.Report, error) {
	log := opts.Logger
	inputs := normalizeInputPaths(opts.InputPaths)
	report := &ir.Report{
		Inputs:     inputs,
		Output:     opts.OutputPath,
		UserID:     opts.UserID,
		Model:      opts.Model,
		DryRun:     opts.DryRun,
		CreatedAt:  opts.Now().UTC().Format(time.RFC3339),
		LedgerPath: opts.Ledger.Path(),
	}

	sources, err := loadSources(inputs)
	if err != nil {
		return nil, nil, report, err
	}
	convs, mergeReport := mergeSources(sources)
	report.Sources = mergeReport.Sources
	report.Skipped = append(report.Skipped, mergeReport.Dropped...)
	report.Warnings = append(report.Warnings, mergeReport.Warnings...)
	report.Total = len(convs)

	snapshot := opts.Ledger.Load()
	buildOpts := openwebui.Options{UserID: opts.UserID, Model: opts.Model, NewID: opts.NewID}
	chats := []*openwebui.Chat{}
	var pending []ledgerRecord

	for i, item := range convs {
		conv := item.Conversation
		if conv.ID != "" {
			if entry, ok := snapshot[conv.ID]; ok {
				log.Info("conversation skipped, already imported",
					"title", titleOr(conv.Title, "Untitled"), "imported_date", entry.ImportedDate)
				report.Skipped = append(report.Skipped, ir.SkipRecord{
					Index: i, ID: conv.ID, Title: entry.Title,
					Reason: ir.SkipAlreadyImported, ImportedDate: entry.ImportedDate,
				})
				continue
			}
		}
		if !conv.HasMapping() {
			report.Skipped = append(report.Skipped, ir.SkipRecord{Index: i, ID: conv.ID, Title: conv.Title, Reason: ir.SkipEmptyMapping})
			continue
		}

		irConv, malformed := chatgpt.ToIR(conv, opts.Now)
		for _, m := range malformed {
			if opts.Strict {
				return nil, nil, report, errors.Wrapf(m, "conversation %d", i)
			}
			log.Warn("message skipped, malformed", "conversation", i, "id", m.ConversationID, "node", m.NodeID, "field", m.Field)
			report.Warnings = append(report.Warnings, fmt.Sprintf("malformed-message:%d:%s:%s", i, m.NodeID, m.Field))
		}

		chat := openwebui.BuildChat(irConv, buildOpts)
		if chat == nil {
			log.Warn("conversation skipped, no valid root message", "conversation", i, "id", conv.ID)
			for _, m := range irConv.Messages {
				log.Warn("message sample", "role", m.Role, "parentId", m.ParentID, "content", truncateRunes(m.Content, 60))
			}
			report.Skipped = append(report.Skipped, ir.SkipRecord{Index: i, ID: conv.ID, Title: conv.Title, Reason: ir.SkipNoMessages})
			continue
		}
		if opts.DryRun {
			for _, issue := range openwebui.ValidateChat(chat) {
				report.Issues = append(report.Issues, fmt.Sprintf("conversation %d: %s", i, issue))
			}
		}

		chats = append(chats, chat)
		report.Converted++
		report.Converts = append(report.Converts, ir.ConvertInfo{
			SourceID: conv.ID,
			ChatID:   chat.ID,
			Title:    chat.Title,
			Messages: len(chat.Chat.Messages),
		})

		if conv.ID == "" || opts.DryRun {
			continue
		}
		rec := ledgerRecord{id: conv.ID, title: chat.Title}
		if opts.Strict {
			pending = append(pending, rec)
			continue
		}
		if err := recordImported(opts, rec); err != nil {
			return nil, nil, report, err
		}
	}
	return chats, pending, report, nil
}

func withDefaults(opts ConvertOptions) ConvertOptions {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = util.NewUUID
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if strings.TrimSpace(opts.UserID) == "" {
		opts.UserID = util.NewUUID()
	}
	if strings.TrimSpace(opts.Model) == "" {
		opts.Model = openwebui.DefaultModel
	}
	return opts
}

func normalizeInputPaths(in []string) []string {
	out := []string{}
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}

func titleOr(title, d string) string {
	if title == "" {
		return d
	}
	return title
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
