// Package snapshot persists the most recent capture batch as a JSON document.
package snapshot

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/sells-group/departures-cli/internal/model"
)

// Encode renders batch as indented JSON. HTML characters are not escaped so
// the file reads the same as the board.
func Encode(batch model.CaptureBatch) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(batch); err != nil {
		return nil, eris.Wrap(err, "snapshot: encode")
	}
	return buf.Bytes(), nil
}

// Write replaces the file at path with batch. The document is written to a
// sibling temp file and renamed into place, so readers never see a partial
// snapshot.
func Write(path string, batch model.CaptureBatch) error {
	data, err := Encode(batch)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return eris.Wrap(err, "snapshot: create temp file")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return eris.Wrap(err, "snapshot: write")
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "snapshot: close")
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return eris.Wrap(err, "snapshot: chmod")
	}
	if err := os.Rename(tmpName, path); err != nil {
		return eris.Wrapf(err, "snapshot: replace %s", path)
	}
	return nil
}

// Read loads a snapshot written by Write.
func Read(path string) (*model.CaptureBatch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "snapshot: read %s", path)
	}
	var batch model.CaptureBatch
	if err := json.Unmarshal(data, &batch); err != nil {
		return nil, eris.Wrapf(err, "snapshot: decode %s", path)
	}
	return &batch, nil
}
