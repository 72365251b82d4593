package converter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nconklindev/sheetsync/internal/fileutil"
	"github.com/nconklindev/sheetsync/internal/types"
)

// LoadDataset reads a dataset JSON file.
func LoadDataset(path string) (*types.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var ds types.Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	if len(ds.Sheets) == 0 {
		return nil, ErrEmptyWorkbook
	}
	return &ds, nil
}

// EncodeDataset renders a dataset as two-space indented JSON. Non-ASCII text
// and HTML characters are written as-is.
func EncodeDataset(ds *types.Dataset) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ds); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SaveDataset writes a dataset through a temp file and rename.
func SaveDataset(path string, ds *types.Dataset) error {
	data, err := EncodeDataset(ds)
	if err != nil {
		return err
	}
	return fileutil.WriteFile(path, data, 0o644)
}

// BackupFile copies path into backupDir under the same base name. It returns
// the backup path, or "" when path does not exist yet.
func BackupFile(path, backupDir string) (string, error) {
	in, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	defer in.Close()

	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return "", err
	}
	dest := filepath.Join(backupDir, filepath.Base(path))
	out, err := os.Create(dest)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return "", err
	}
	if err := out.Close(); err != nil {
		return "", err
	}
	return dest, nil
}
