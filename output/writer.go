package output

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/promptcrawl/promptcrawl/utils"
)

// CrawlResult is the complete outcome of one crawl, serialized as the
// program's only stdout payload.
type CrawlResult struct {
	URL          string  `json:"url"`
	Prompt       string  `json:"prompt"`
	Provider     string  `json:"provider"`
	PagesCrawled int     `json:"pages_crawled"`
	Data         Records `json:"data"`
}

type WriterConfig struct {
	Type     string `yaml:"type" env:"WRITER_TYPE" env-default:"stdout"`
	FilePath string `yaml:"filepath" env:"WRITER_FILEPATH"`
}

const (
	StdoutWriterType = "stdout"
	FileWriterType   = "file"
)

// A Writer emits the final crawl result.
type Writer interface {
	Write(result *CrawlResult) error
}

func NewWriter(cfg WriterConfig) (Writer, error) {
	switch cfg.Type {
	case StdoutWriterType, "":
		return &StdoutWriter{Out: os.Stdout}, nil
	case FileWriterType:
		if cfg.FilePath == "" {
			return nil, fmt.Errorf("file writer needs a filepath")
		}
		return &FileWriter{Path: cfg.FilePath}, nil
	default:
		return nil, fmt.Errorf("unknown writer type %q", cfg.Type)
	}
}

// StdoutWriter prints the result JSON to standard output. Diagnostics go to
// standard error, so the payload stays machine-readable.
type StdoutWriter struct {
	Out io.Writer
}

func (w *StdoutWriter) Write(result *CrawlResult) error {
	enc := json.NewEncoder(w.Out)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// FileWriter saves the result JSON to a file, creating parent directories as
// needed.
type FileWriter struct {
	Path string
}

func (w *FileWriter) Write(result *CrawlResult) error {
	if err := utils.WriteJSONFile(w.Path, result); err != nil {
		return err
	}
	slog.Info("wrote results", slog.String("path", w.Path), slog.Int("records", len(result.Data)))
	return nil
}
