package manifest

import (
	"bufio"
	"iter"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/tss-calculator/fleetbuild/pkg/fleetbuild/application/model"
)

const fieldSeparator = "\t"

func NewReader(path string) *Reader {
	return &Reader{path: path}
}

// Reader re-reads the manifest file on every Entries call.
type Reader struct {
	path string
}

// Entries yields one entry per valid line. Malformed lines yield a *model.ManifestLineError
// and iteration continues; any other error ends the sequence.
func (r *Reader) Entries() (iter.Seq2[model.ManifestEntry, error], error) {
	_, err := os.Stat(r.path)
	if os.IsNotExist(err) {
		return nil, errors.Wrapf(model.ErrManifestFileMissing, "manifest %v", r.path)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to stat manifest %v", r.path)
	}
	return r.read, nil
}

func (r *Reader) read(yield func(model.ManifestEntry, error) bool) {
	f, err := os.Open(r.path)
	if err != nil {
		yield(model.ManifestEntry{}, errors.Wrapf(err, "failed to open manifest %v", r.path))
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		entry, ok, err := ParseLine(lineNumber, scanner.Text())
		if !ok && err == nil {
			continue
		}
		if !yield(entry, err) {
			return
		}
	}
	if err = scanner.Err(); err != nil {
		yield(model.ManifestEntry{}, errors.Wrapf(err, "failed to read manifest %v", r.path))
	}
}

// ParseLine parses one manifest line. Blank lines report ok=false without an error.
func ParseLine(lineNumber int, line string) (entry model.ManifestEntry, ok bool, err error) {
	line = strings.TrimRight(line, "\r")
	if strings.TrimSpace(line) == "" {
		return model.ManifestEntry{}, false, nil
	}
	fields := strings.Split(line, fieldSeparator)
	if len(fields) < 2 {
		return model.ManifestEntry{}, false, &model.ManifestLineError{Line: lineNumber, Fields: len(fields)}
	}
	entry = model.ManifestEntry{
		Name:   fields[0],
		GitSrc: fields[1],
	}
	if len(fields) > 2 {
		entry.Registry = fields[2]
	}
	return entry, true, nil
}
