package tsemitter

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

type outFile struct {
	rel     string
	content []byte
}

// rename is swapped in tests to simulate a failing filesystem.
var rename = os.Rename

// writeFiles writes every file or none: all contents go to temp files in
// the target directory first and are renamed into place only after every
// temp write succeeded. Existing targets are backed up first and restored
// if a later rename fails. Existing files without the generated header are
// left alone unless force is set.
func writeFiles(outDir string, files []outFile, force bool) error {
	abs, err := filepath.Abs(outDir)
	if err != nil {
		return fmt.Errorf("resolve out dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	if !force {
		for _, f := range files {
			p := filepath.Join(abs, f.rel)
			ok, err := isGenerated(p)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("tsemitter: %q exists and was not generated by swagger2zod (use --force to overwrite)", p)
			}
		}
	}

	temps := make([]string, 0, len(files))
	cleanup := func() {
		for _, t := range temps {
			_ = os.Remove(t)
		}
	}
	for _, f := range files {
		p := filepath.Join(abs, f.rel)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			cleanup()
			return fmt.Errorf("mkdir: %w", err)
		}
		tmp, err := os.CreateTemp(filepath.Dir(p), "."+filepath.Base(p)+".tmp-*")
		if err != nil {
			cleanup()
			return fmt.Errorf("create temp for %s: %w", f.rel, err)
		}
		temps = append(temps, tmp.Name())
		_, werr := tmp.Write(f.content)
		cerr := tmp.Close()
		if werr == nil {
			werr = cerr
		}
		if werr == nil {
			werr = os.Chmod(tmp.Name(), 0o644)
		}
		if werr != nil {
			cleanup()
			return fmt.Errorf("write temp %s: %w", f.rel, werr)
		}
	}
	backups := make([]string, len(files))
	dropBackups := func() {
		for _, b := range backups {
			if b != "" {
				_ = os.Remove(b)
			}
		}
	}
	for i, f := range files {
		b, err := backup(filepath.Join(abs, f.rel))
		if err != nil {
			cleanup()
			dropBackups()
			return err
		}
		backups[i] = b
	}
	for i, f := range files {
		if err := rename(temps[i], filepath.Join(abs, f.rel)); err != nil {
			cleanup()
			restore(abs, files[:i], backups[:i])
			dropBackups()
			return fmt.Errorf("rename %s: %w", f.rel, err)
		}
	}
	dropBackups()
	return nil
}

// backup copies p next to itself and returns the copy's path, or "" when p
// does not exist.
func backup(p string) (string, error) {
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("backup %s: %w", p, err)
	}
	fh, err := os.CreateTemp(filepath.Dir(p), "."+filepath.Base(p)+".bak-*")
	if err != nil {
		return "", fmt.Errorf("backup %s: %w", p, err)
	}
	_, werr := fh.Write(data)
	if cerr := fh.Close(); werr == nil {
		werr = cerr
	}
	if werr == nil {
		werr = os.Chmod(fh.Name(), 0o644)
	}
	if werr != nil {
		_ = os.Remove(fh.Name())
		return "", fmt.Errorf("backup %s: %w", p, werr)
	}
	return fh.Name(), nil
}

// restore undoes the renames of files that already landed: previous
// contents come back from their backups, new files are removed.
func restore(abs string, files []outFile, backups []string) {
	for i, f := range files {
		p := filepath.Join(abs, f.rel)
		if backups[i] == "" {
			_ = os.Remove(p)
			continue
		}
		if err := os.Rename(backups[i], p); err == nil {
			backups[i] = ""
		}
	}
}

// isGenerated reports whether p is absent or starts with GeneratedHeader.
func isGenerated(p string) (bool, error) {
	fh, err := os.Open(p)
	if errors.Is(err, os.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("inspect %s: %w", p, err)
	}
	defer fh.Close()
	buf := make([]byte, len(GeneratedHeader))
	n, err := io.ReadFull(fh, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("inspect %s: %w", p, err)
	}
	return string(buf[:n]) == GeneratedHeader, nil
}
