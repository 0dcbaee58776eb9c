package app

import (
	"fmt"
	"path/filepath"

	"github.com/pkg/errors"

	"gpt2webui/internal/backup"
	"gpt2webui/internal/chatgpt"
	"gpt2webui/internal/ir"
)

type parsedSource struct {
	Index         int
	Name          string
	Format        string
	Hints         []string
	Conversations []chatgpt.Conversation
}

type mergedConversation struct {
	Conversation chatgpt.Conversation
	SourceIndex  int
}

type MergeReport struct {
	Sources  []ir.SourceInfo
	Dropped  []ir.SkipRecord
	Warnings []string
}

func loadSources(paths []string) ([]parsedSource, error) {
	sources := make([]parsedSource, 0, len(paths))
	for i, p := range paths {
		raw, d, err := backup.ReadConversations(p)
		if err != nil {
			return nil, err
		}
		convs, err := chatgpt.ParseExport(raw)
		if err != nil {
			return nil, errors.Wrap(err, filepath.Base(p))
		}
		sources = append(sources, parsedSource{
			Index:         i + 1,
			Name:          filepath.Base(p),
			Format:        string(d.Format),
			Hints:         cloneStringSlice(d.Hints),
			Conversations: convs,
		})
	}
	return sources, nil
}

// mergeSources concatenates the conversations of every source in input
// order. With more than one source, a conversation id that appears again is
// kept once: the copy with the latest update_time wins, ties go to the
// earlier source, and the winner takes the slot of the first occurrence.
// A single source is passed through untouched.
func mergeSources(sources []parsedSource) ([]mergedConversation, *MergeReport) {
	report := &MergeReport{Sources: make([]ir.SourceInfo, 0, len(sources))}
	for _, src := range sources {
		report.Sources = append(report.Sources, ir.SourceInfo{
			Index:         src.Index,
			Name:          src.Name,
			Format:        src.Format,
			Hints:         cloneStringSlice(src.Hints),
			Conversations: len(src.Conversations),
		})
	}

	out := []mergedConversation{}
	if len(sources) == 1 {
		for _, conv := range sources[0].Conversations {
			out = append(out, mergedConversation{Conversation: conv, SourceIndex: sources[0].Index})
		}
		return out, report
	}

	slotByID := map[string]int{}
	for _, src := range sources {
		for _, conv := range src.Conversations {
			if conv.ID == "" {
				out = append(out, mergedConversation{Conversation: conv, SourceIndex: src.Index})
				continue
			}
			slot, seen := slotByID[conv.ID]
			if !seen {
				slotByID[conv.ID] = len(out)
				out = append(out, mergedConversation{Conversation: conv, SourceIndex: src.Index})
				continue
			}
			kept := out[slot]
			dropped := mergedConversation{Conversation: conv, SourceIndex: src.Index}
			if conv.UpdateTime > kept.Conversation.UpdateTime {
				out[slot], dropped = dropped, kept
			}
			report.Dropped = append(report.Dropped, ir.SkipRecord{
				Index:  slot,
				ID:     dropped.Conversation.ID,
				Title:  dropped.Conversation.Title,
				Reason: ir.SkipDuplicateInput,
			})
			report.Warnings = append(report.Warnings, fmt.Sprintf("merge-duplicate:%s:source=%d", conv.ID, dropped.SourceIndex))
		}
	}
	return out, report
}

func cloneStringSlice(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
