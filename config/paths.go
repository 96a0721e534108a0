package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const tsvExt = ".tsv"

// CheckSource verifies that path is an existing .tsv file.
func CheckSource(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("source %s does not exist", path)
		}
		return fmt.Errorf("stat source: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("source %s should be a file", path)
	}
	if !strings.EqualFold(filepath.Ext(path), tsvExt) {
		return fmt.Errorf("source %s should be tsv file format", path)
	}
	return nil
}

// ResolveDestination returns the output file path for source. dest may be a
// writable directory, in which case the output is named after the source,
// or a .tsv path inside a writable directory.
func ResolveDestination(source, dest string) (string, error) {
	if dest == "" {
		return "", fmt.Errorf("destination cannot be empty")
	}

	info, err := os.Stat(dest)
	if err == nil && info.IsDir() {
		if err := checkWritable(dest); err != nil {
			return "", fmt.Errorf("cannot write to destination %s: %w", dest, err)
		}
		base := filepath.Base(source)
		name := strings.TrimSuffix(base, filepath.Ext(base)) + "_output" + tsvExt
		return filepath.Join(dest, name), nil
	}
	if err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("stat destination: %w", err)
	}

	if !strings.EqualFold(filepath.Ext(dest), tsvExt) {
		return "", fmt.Errorf("destination %s should be a directory or a tsv file", dest)
	}
	dir := filepath.Dir(dest)
	dirInfo, err := os.Stat(dir)
	if err != nil || !dirInfo.IsDir() {
		return "", fmt.Errorf("destination directory %s does not exist", dir)
	}
	if err := checkWritable(dir); err != nil {
		return "", fmt.Errorf("cannot write to destination %s: %w", dir, err)
	}
	return dest, nil
}
