package backup

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
)

// ErrNotFound is returned when the input location does not exist.
var ErrNotFound = errors.New("input not found")

// ReadConversations returns the raw conversations JSON held at location,
// whichever of the supported layouts it uses.
func ReadConversations(location string) ([]byte, DetectResult, error) {
	if _, err := os.Stat(location); err != nil {
		if os.IsNotExist(err) {
			return nil, DetectResult{Format: FormatUnknown}, errors.Wrap(ErrNotFound, location)
		}
		return nil, DetectResult{Format: FormatUnknown}, err
	}
	d := DetectInput(location)
	var (
		b   []byte
		err error
	)
	switch d.Format {
	case FormatJSON:
		b, err = os.ReadFile(location)
	case FormatDir:
		b, err = os.ReadFile(filepath.Join(location, ConversationsFile))
	case FormatZip:
		b, err = ReadZipEntry(location, ConversationsFile)
	default:
		return nil, d, errors.Errorf("cannot detect input format: %s", filepath.Base(location))
	}
	if err != nil {
		return nil, d, errors.Wrapf(err, "read %s", location)
	}
	return bytes.TrimPrefix(b, []byte("\xef\xbb\xbf")), d, nil
}

// ReadZipEntry returns the content of the shallowest entry whose base name
// is name. Exports are sometimes re-zipped with a top-level folder.
func ReadZipEntry(srcZip, name string) ([]byte, error) {
	r, err := zip.OpenReader(srcZip)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	candidates := make([]*zip.File, 0, 1)
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if path.Base(filepath.ToSlash(f.Name)) == name {
			candidates = append(candidates, f)
		}
	}
	if len(candidates) == 0 {
		return nil, errors.Errorf("zip has no %s entry", name)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return depth(candidates[i].Name) < depth(candidates[j].Name)
	})

	rc, err := candidates[0].Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func depth(name string) int {
	d := 0
	for _, c := range filepath.ToSlash(name) {
		if c == '/' {
			d++
		}
	}
	return d
}
