// Package domain holds the gig lifecycle rules.
//
//	LIVE --complete(owner)--> COMPLETED
//	LIVE --report--> LIVE | FLAGGED (once report_count reaches the threshold)
//	FLAGGED --report--> FLAGGED
//	FLAGGED --approve(admin)--> LIVE, report_count = 0
//	LIVE | FLAGGED --delete(admin)--> DELETED
//
// COMPLETED and DELETED are terminal. Public actions against a terminal gig
// fail with ErrNotFound, admin actions with ErrConflict.
package domain

import (
	"fmt"
	"time"
)

type GigStatus string

const (
	StatusLive      GigStatus = "LIVE"
	StatusFlagged   GigStatus = "FLAGGED"
	StatusDeleted   GigStatus = "DELETED"
	StatusCompleted GigStatus = "COMPLETED"
)

func (s GigStatus) Valid() bool {
	switch s {
	case StatusLive, StatusFlagged, StatusDeleted, StatusCompleted:
		return true
	}
	return false
}

func (s GigStatus) Terminal() bool {
	return s == StatusDeleted || s == StatusCompleted
}

const DefaultFlagThreshold = 3

// GigState is the part of a gig the lifecycle reads and writes.
type GigState struct {
	OwnerID     uint
	Status      GigStatus
	ReportCount int
	CreatedAt   time.Time
}

type Lifecycle struct {
	FlagThreshold int
}

func NewLifecycle(threshold int) Lifecycle {
	if threshold < 1 {
		threshold = DefaultFlagThreshold
	}
	return Lifecycle{FlagThreshold: threshold}
}

func (l Lifecycle) threshold() int {
	if l.FlagThreshold < 1 {
		return DefaultFlagThreshold
	}
	return l.FlagThreshold
}

func (l Lifecycle) Create(g *GigState, ownerID uint, now time.Time) {
	g.OwnerID = ownerID
	g.Status = StatusLive
	g.ReportCount = 0
	g.CreatedAt = now
}

func (l Lifecycle) Complete(g *GigState, callerID uint) error {
	if g.Status.Terminal() {
		return fmt.Errorf("complete %s gig: %w", g.Status, ErrNotFound)
	}
	if g.OwnerID != callerID {
		return fmt.Errorf("complete gig owned by someone else: %w", ErrUnauthorized)
	}
	if g.Status != StatusLive {
		return fmt.Errorf("complete %s gig: %w", g.Status, ErrConflict)
	}
	g.Status = StatusCompleted
	return nil
}

// Report increments the report count and reports whether this call moved
// the gig from LIVE to FLAGGED.
func (l Lifecycle) Report(g *GigState) (bool, error) {
	switch g.Status {
	case StatusLive, StatusFlagged:
	case StatusDeleted, StatusCompleted:
		return false, fmt.Errorf("report %s gig: %w", g.Status, ErrNotFound)
	default:
		return false, fmt.Errorf("report gig in unknown status %q: %w", g.Status, ErrConflict)
	}

	g.ReportCount++
	if g.Status == StatusLive && g.ReportCount >= l.threshold() {
		g.Status = StatusFlagged
		return true, nil
	}
	return false, nil
}

func (l Lifecycle) Approve(g *GigState) error {
	if g.Status != StatusFlagged {
		return fmt.Errorf("approve %s gig: %w", g.Status, ErrConflict)
	}
	g.Status = StatusLive
	g.ReportCount = 0
	return nil
}

func (l Lifecycle) Delete(g *GigState) error {
	switch g.Status {
	case StatusLive, StatusFlagged:
		g.Status = StatusDeleted
		return nil
	default:
		return fmt.Errorf("delete %s gig: %w", g.Status, ErrConflict)
	}
}

// Visible reports whether the gig may appear in public reads.
func (l Lifecycle) Visible(g GigState) bool {
	return g.Status == StatusLive
}
