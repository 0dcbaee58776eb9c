package backup

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeZip(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	for name, body := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestDetectInput(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		p := filepath.Join(t.TempDir(), "export.json")
		if err := os.WriteFile(p, []byte("\n  [ ]"), 0o644); err != nil {
			t.Fatal(err)
		}
		if res := DetectInput(p); res.Format != FormatJSON {
			t.Fatalf("want json, got %s", res.Format)
		}
	})

	t.Run("zip", func(t *testing.T) {
		p := filepath.Join(t.TempDir(), "export.bin")
		writeZip(t, p, map[string]string{"conversations.json": "[]"})
		if res := DetectInput(p); res.Format != FormatZip {
			t.Fatalf("want zip, got %s", res.Format)
		}
	})

	t.Run("dir", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, ConversationsFile), []byte(`[]`), 0o644); err != nil {
			t.Fatal(err)
		}
		if res := DetectInput(dir); res.Format != FormatDir {
			t.Fatalf("want dir, got %s", res.Format)
		}
	})

	t.Run("unknown", func(t *testing.T) {
		dir := t.TempDir()
		if res := DetectInput(dir); res.Format != FormatUnknown {
			t.Fatalf("want unknown, got %s", res.Format)
		}
		p := filepath.Join(dir, "notes.txt")
		if err := os.WriteFile(p, []byte("hello"), 0o644); err != nil {
			t.Fatal(err)
		}
		if res := DetectInput(p); res.Format != FormatUnknown {
			t.Fatalf("want unknown, got %s", res.Format)
		}
	})
}

func TestReadConversations(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing", func(t *testing.T) {
		_, _, err := ReadConversations(filepath.Join(dir, "nope.json"))
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("want ErrNotFound, got %v", err)
		}
	})

	t.Run("json with bom", func(t *testing.T) {
		p := filepath.Join(dir, "bom.json")
		if err := os.WriteFile(p, []byte("\xef\xbb\xbf[1]"), 0o644); err != nil {
			t.Fatal(err)
		}
		b, d, err := ReadConversations(p)
		if err != nil {
			t.Fatal(err)
		}
		if d.Format != FormatJSON || string(b) != "[1]" {
			t.Fatalf("unexpected result: %s %q", d.Format, b)
		}
	})

	t.Run("zip prefers shallowest entry", func(t *testing.T) {
		p := filepath.Join(dir, "export.zip")
		writeZip(t, p, map[string]string{
			"deep/nested/conversations.json": `["deep"]`,
			"export/conversations.json":      `["top"]`,
			"export/user.json":               `{}`,
		})
		b, d, err := ReadConversations(p)
		if err != nil {
			t.Fatal(err)
		}
		if d.Format != FormatZip || string(b) != `["top"]` {
			t.Fatalf("unexpected result: %s %q", d.Format, b)
		}
	})

	t.Run("zip without conversations", func(t *testing.T) {
		p := filepath.Join(dir, "empty.zip")
		writeZip(t, p, map[string]string{"user.json": `{}`})
		if _, _, err := ReadConversations(p); err == nil {
			t.Fatal("expected error for zip without conversations.json")
		}
	})
}
