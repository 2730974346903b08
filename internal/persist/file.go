package persist

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"archmine/internal/symtab"
)

// rename is swapped in tests to simulate a failed replace.
var rename = os.Rename

// Load reads the checkpoint at path. A missing file is a first run and yields
// an empty table with an empty ledger.
func Load(path string) (*symtab.Store, []string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return symtab.NewStore(), []string{}, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read checkpoint %s: %w", path, err)
	}
	table, sources, err := Unmarshal(data)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load checkpoint %s: %w", path, err)
	}
	return table, sources, nil
}

// Save writes table and sources as one document. The bytes go to a temporary
// file in the target directory which is synced and then renamed over path,
// so a reader sees either the previous checkpoint or the new one.
func Save(path string, table *symtab.Store, sources []string) error {
	var buf bytes.Buffer
	if err := Encode(&buf, Export(table, sources)); err != nil {
		return err
	}
	return writeAtomic(path, buf.Bytes())
}

func writeAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create checkpoint dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp checkpoint: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp checkpoint: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp checkpoint: %w", err)
	}
	if err := rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace checkpoint: %w", err)
	}
	return nil
}
