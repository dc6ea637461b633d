package utils

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
)

// WriteStringFile writes the given file contents to the given path.
func WriteStringFile(path string, content string) error {
	return WriteBytesFile(path, []byte(content))
}

// WriteBytesFile writes the given bytes to the given path, creating parent
// directories as needed.
func WriteBytesFile(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0770); err != nil {
		return err
	}
	return os.WriteFile(path, content, 0644)
}

func ReadStringFile(path string) (string, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(bs), nil
}

func ReadBytesFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// WriteJSONFile writes v as indented JSON to the given path. HTML characters
// are not escaped since URLs and markup fragments appear in extracted data.
func WriteJSONFile(path string, v interface{}) error {
	buf := &bytes.Buffer{}
	encoder := json.NewEncoder(buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return err
	}
	return WriteBytesFile(path, buf.Bytes())
}

func MustEnsureDir(dir string) {
	if err := os.MkdirAll(dir, 0770); err != nil {
		panic(err)
	}
}
