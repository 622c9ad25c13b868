package corpus

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/roosthq/roost/internal/domain"
)

// FileSource reads listings from a JSON-lines file, one record per line.
type FileSource struct {
	path   string
	logger *zap.Logger
}

var _ Source = (*FileSource)(nil)

// NewFileSource creates a file-backed listing source.
func NewFileSource(path string, logger *zap.Logger) *FileSource {
	return &FileSource{path: path, logger: logger}
}

// FetchAll reads every line of the file. Lines that fail to decode are
// counted, logged, and skipped; an unreadable file is a corpus-load failure.
func (s *FileSource) FetchAll(ctx context.Context) ([]RawListing, int, error) {
	f, err := os.Open(filepath.Clean(s.path))
	if err != nil {
		return nil, 0, fmt.Errorf("open listings file %s: %v: %w", s.path, err, domain.ErrCorpusLoad)
	}
	defer func() { _ = f.Close() }()

	var (
		records     []RawListing
		undecodable int
		lineNo      int
	)

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		lineNo++
		if err := ctx.Err(); err != nil {
			return nil, 0, fmt.Errorf("read listings file: %w", err)
		}

		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		var rec RawListing
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			undecodable++
			s.logger.Warn("Skipping undecodable listing record",
				zap.String("path", s.path),
				zap.Int("line", lineNo),
				zap.Error(err),
			)
			continue
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, 0, fmt.Errorf("read listings file %s: %v: %w", s.path, err, domain.ErrCorpusLoad)
	}

	return records, undecodable, nil
}
