// Package model defines the core domain models used throughout the application.
package model

import (
	"fmt"
	"time"
)

// UploadRecord is a single fact that a document of a given type arrived from a source.
type UploadRecord struct {
	UploadDate   time.Time
	CreatedAt    time.Time
	DocumentType DocumentType
	Source       string
	ID           int64
}

// Key returns the (document type, source) identity the upload belongs to.
func (u UploadRecord) Key() PatternKey {
	return PatternKey{DocumentType: u.DocumentType, Source: u.Source}
}

// Validate ensures the upload record carries the fields the detectors rely on.
func (u UploadRecord) Validate() error {
	if u.DocumentType == "" {
		return fmt.Errorf("document type is required")
	}
	if u.Source == "" {
		return fmt.Errorf("source is required")
	}
	if u.UploadDate.IsZero() {
		return fmt.Errorf("upload date is required")
	}
	return nil
}

// PatternKey identifies one upload stream.
type PatternKey struct {
	DocumentType DocumentType
	Source       string
}

func (k PatternKey) String() string {
	return fmt.Sprintf("%s/%s", k.DocumentType, k.Source)
}

// GroupUploads buckets uploads by (document type, source).
func GroupUploads(uploads []UploadRecord) map[PatternKey][]UploadRecord {
	groups := make(map[PatternKey][]UploadRecord)
	for _, u := range uploads {
		groups[u.Key()] = append(groups[u.Key()], u)
	}
	return groups
}
