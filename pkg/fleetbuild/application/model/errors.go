package model

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind identifies the category of a failure.
type ErrorKind string

const (
	KindManifestFileMissing   ErrorKind = "manifest_file_missing"
	KindMalformedManifestLine ErrorKind = "malformed_manifest_line"
	KindSyncFailed            ErrorKind = "sync_failed"
	KindBuildContextMissing   ErrorKind = "build_context_missing"
	KindBuildFailed           ErrorKind = "build_failed"
	KindPushFailed            ErrorKind = "push_failed"
	KindImageNotFound         ErrorKind = "image_not_found"
)

var (
	ErrManifestFileMissing   error = kindError(KindManifestFileMissing)
	ErrMalformedManifestLine error = kindError(KindMalformedManifestLine)
	ErrSyncFailed            error = kindError(KindSyncFailed)
	ErrBuildContextMissing   error = kindError(KindBuildContextMissing)
	ErrBuildFailed           error = kindError(KindBuildFailed)
	ErrPushFailed            error = kindError(KindPushFailed)
	ErrImageNotFound         error = kindError(KindImageNotFound)
)

var kinds = []ErrorKind{
	KindManifestFileMissing,
	KindMalformedManifestLine,
	KindSyncFailed,
	KindBuildContextMissing,
	KindBuildFailed,
	KindPushFailed,
	KindImageNotFound,
}

type kindError ErrorKind

func (e kindError) Error() string {
	return string(e)
}

// KindOf returns the kind of the first sentinel found in err's chain, or "" for unclassified errors.
func KindOf(err error) ErrorKind {
	for _, kind := range kinds {
		if errors.Is(err, kindError(kind)) {
			return kind
		}
	}
	return ""
}

// ManifestLineError reports a manifest line with fewer than two fields. Line is 1-based.
type ManifestLineError struct {
	Line   int
	Fields int
}

func (e *ManifestLineError) Error() string {
	return fmt.Sprintf("manifest line %d: expected at least 2 tab-separated fields, got %d", e.Line, e.Fields)
}

func (e *ManifestLineError) Is(target error) bool {
	return target == ErrMalformedManifestLine
}

type PipelineError struct {
	Entry EntryName
	Stage Stage
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("image %q failed at %v: %v", e.Entry, e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// WithKind marks err with a failure kind while keeping its cause chain.
func WithKind(err error, kind ErrorKind) error {
	if err == nil {
		return nil
	}
	return &kindedError{kind: kind, err: err}
}

type kindedError struct {
	kind ErrorKind
	err  error
}

func (e *kindedError) Error() string {
	return e.err.Error()
}

func (e *kindedError) Unwrap() error {
	return e.err
}

func (e *kindedError) Is(target error) bool {
	return target == error(kindError(e.kind))
}
