package flathub

import (
	"encoding/json"
	"fmt"
)

// AppRecord is one parsed appstream entry. Optional fields stay nil when
// the remote payload omits them.
type AppRecord struct {
	AppID       string
	Name        *string
	Summary     *string
	Description *string
	InstallRef  string
	IconURL     *string
	Raw         json.RawMessage
}

// CollectionResult holds the ordered member ids of a curated or category
// collection. TotalHits is the remote-reported count and may exceed the
// number of ids actually returned.
type CollectionResult struct {
	AppIDs    []string
	TotalHits int64
}

type TransportError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("request to %s failed: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

type ParseError struct {
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("malformed catalog response: missing %s", e.Field)
	}
	return fmt.Sprintf("malformed catalog response: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
