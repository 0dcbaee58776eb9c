package backup

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"gpt2webui/internal/util"
)

// ConversationsFile is the name ChatGPT uses inside a data export.
const ConversationsFile = "conversations.json"

type Format string

const (
	FormatUnknown Format = "unknown"
	FormatJSON    Format = "json"
	FormatZip     Format = "zip"
	FormatDir     Format = "dir"
)

type DetectResult struct {
	Format Format
	Hints  []string
}

// DetectInput classifies an input location: a bare conversations JSON file,
// a ChatGPT export zip, or an extracted export directory.
func DetectInput(path string) DetectResult {
	hints := make([]string, 0, 4)
	if util.DirExists(path) {
		hints = append(hints, "dir")
		if util.FileExists(filepath.Join(path, ConversationsFile)) {
			hints = append(hints, ConversationsFile)
			return DetectResult{Format: FormatDir, Hints: hints}
		}
		return DetectResult{Format: FormatUnknown, Hints: hints}
	}
	if !util.FileExists(path) {
		return DetectResult{Format: FormatUnknown, Hints: hints}
	}

	head := readHead(path, 512)
	if bytes.HasPrefix(head, []byte("PK\x03\x04")) {
		hints = append(hints, "zip-magic")
		return DetectResult{Format: FormatZip, Hints: hints}
	}
	if strings.EqualFold(filepath.Ext(path), ".zip") {
		hints = append(hints, ".zip")
	}
	trimmed := bytes.TrimLeft(head, " \t\r\n\xef\xbb\xbf")
	if len(trimmed) > 0 && (trimmed[0] == '[' || trimmed[0] == '{') {
		hints = append(hints, "json")
		return DetectResult{Format: FormatJSON, Hints: hints}
	}
	return DetectResult{Format: FormatUnknown, Hints: hints}
}

func readHead(path string, n int) []byte {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	buf := make([]byte, n)
	read, _ := f.Read(buf)
	return buf[:read]
}
