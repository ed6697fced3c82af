package sunshine

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
)

// Sunshine's config is a foreign file: only the output_name line is ours to
// touch, every other byte must survive a rewrite untouched.
var (
	outputNameLine  = regexp.MustCompile(`(?m)^output_name[ \t]*=.*$`)
	outputNameValue = regexp.MustCompile(`(?m)^output_name[ \t]*=[ \t]*(\S+)`)
)

// DefaultConfPath returns ~/.config/sunshine/sunshine.conf.
func DefaultConfPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "sunshine", "sunshine.conf"), nil
}

// CurrentOutputName returns the configured output_name value. A missing
// file or absent key yields "" without error: both mean "no display pinned
// yet", which a reconciliation pass recovers from by writing the key.
func CurrentOutputName(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	m := outputNameValue.FindSubmatch(data)
	if m == nil {
		return "", nil
	}
	return string(m[1]), nil
}

// SetOutputName rewrites the output_name key to id, appending the key when
// absent and creating the file (and its directory) when missing. The write
// is atomic: content goes to a temp file in the same directory which is
// then renamed over the original, so an interrupted run can never leave a
// truncated config behind.
func SetOutputName(path, id string) error {
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	line := []byte("output_name = " + id)
	var content []byte
	if outputNameLine.Match(data) {
		// ReplaceAllFunc keeps the replacement literal; ReplaceAll would
		// expand $ sequences in the identifier.
		content = outputNameLine.ReplaceAllFunc(data, func([]byte) []byte {
			return line
		})
	} else {
		content = data
		if len(content) > 0 && !bytes.HasSuffix(content, []byte("\n")) {
			content = append(content, '\n')
		}
		content = append(content, line...)
		content = append(content, '\n')
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := writeFileAtomic(path, content, confMode(path)); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func confMode(path string) fs.FileMode {
	if info, err := os.Stat(path); err == nil {
		return info.Mode().Perm()
	}
	return 0644
}

// Failure-injection seams for tests.
var (
	syncFile   = func(f *os.File) error { return f.Sync() }
	renameFile = os.Rename
)

func writeFileAtomic(path string, content []byte, mode fs.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		// No-op after a successful rename.
		os.Remove(tmpName)
	}()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return err
	}
	if err := syncFile(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return renameFile(tmpName, path)
}
