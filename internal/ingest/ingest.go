package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spigell/resume-screener/internal/candidate"
	"github.com/spigell/resume-screener/internal/fingerprint"
	"github.com/spigell/resume-screener/internal/logger"
	"go.uber.org/zap"
)

// File is an in-memory resume document. Err records a failed read; such a
// file still yields a record carrying the parse error sentinel.
type File struct {
	Name string
	Data []byte
	Err  error
}

// Ingestor turns resume documents into candidate records.
type Ingestor struct {
	extractors map[Format]Extractor
	logger     *zap.Logger
}

// Option customizes an Ingestor.
type Option func(*Ingestor)

// WithExtractor replaces the extractor used for a format.
func WithExtractor(format Format, extractor Extractor) Option {
	return func(i *Ingestor) {
		if extractor != nil {
			i.extractors[format] = extractor
		}
	}
}

func New(log *zap.Logger, opts ...Option) *Ingestor {
	i := &Ingestor{
		extractors: DefaultExtractors(),
		logger:     logger.WithFields(log),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Dir ingests the regular files directly inside dir. Subdirectories and
// unsupported extensions are skipped. An unreadable file becomes a sentinel
// record. Only a failure to list dir is an error.
func (i *Ingestor) Dir(ctx context.Context, dir string) ([]candidate.Record, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read resumes directory %q: %w", dir, err)
	}

	files := make([]File, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !entry.Type().IsRegular() {
			continue
		}
		if _, ok := FormatOf(entry.Name()); !ok {
			i.logger.Debug("skipping unsupported file", zap.String("file", entry.Name()))
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			files = append(files, File{Name: entry.Name(), Err: fmt.Errorf("read %q: %w", path, err)})
			continue
		}
		files = append(files, File{Name: entry.Name(), Data: data})
	}

	return i.Files(ctx, files)
}

// Files ingests in-memory documents. Records are returned sorted by filename.
func (i *Ingestor) Files(ctx context.Context, files []File) ([]candidate.Record, error) {
	sorted := make([]File, 0, len(files))
	for _, f := range files {
		if _, ok := FormatOf(f.Name); ok {
			sorted = append(sorted, f)
		}
	}
	sort.SliceStable(sorted, func(a, b int) bool { return sorted[a].Name < sorted[b].Name })

	records := make([]candidate.Record, 0, len(sorted))
	for _, f := range sorted {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		records = append(records, i.record(f))
	}

	return records, nil
}

func (i *Ingestor) record(f File) candidate.Record {
	format, _ := FormatOf(f.Name)
	fp := fingerprint.ShortBytes(f.Data)
	log := i.logger.With(logger.ResumeFields(f.Name, fp)...)

	var text string
	err := f.Err
	if err != nil {
		log.Warn("failed to read resume file", zap.Error(err))
	} else if text, err = i.extract(format, f.Data); err != nil {
		log.Warn("failed to extract resume text", zap.String("format", string(format)), zap.Error(err))
	}
	if err != nil {
		text = ParseErrorText(format, err)
	} else {
		log.Debug("extracted resume text", zap.Int("length", len(text)))
	}

	return candidate.Record{
		Filename:    f.Name,
		Fingerprint: fp,
		Text:        text,
	}
}

func (i *Ingestor) extract(format Format, data []byte) (string, error) {
	extractor, ok := i.extractors[format]
	if !ok {
		return "", errors.New("no extractor registered")
	}
	text, err := extractor.Extract(data)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}
