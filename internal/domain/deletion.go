package domain

import (
	"context"
	"time"
)

// Deletion records an image removed from an album
type Deletion struct {
	ID        int64
	AlbumID   string
	Filename  string
	DeletedAt time.Time
}

// DeletionStats provides statistics about removed images
type DeletionStats struct {
	TotalDeletions int64
	LastDeletedAt  time.Time
}

// DeletionJournal defines the interface for the deletion history
type DeletionJournal interface {
	Notifier

	// Recent retrieves the latest deletions, newest first
	Recent(ctx context.Context, limit int) ([]*Deletion, error)

	// ForFilename retrieves every deletion of a filename
	ForFilename(ctx context.Context, filename string) ([]*Deletion, error)

	// Stats returns overall deletion statistics
	Stats(ctx context.Context) (*DeletionStats, error)
}
