package models

import "time"

// StatusCounts holds application totals per status.
type StatusCounts struct {
	Draft    int64
	Pending  int64
	Approved int64
	Rejected int64
}

// Total sums every status.
func (c StatusCounts) Total() int64 {
	return c.Draft + c.Pending + c.Approved + c.Rejected
}

// Add increments the counter for status by n.
func (c *StatusCounts) Add(status ApplicationStatus, n int64) {
	switch status {
	case StatusDraft:
		c.Draft += n
	case StatusPending:
		c.Pending += n
	case StatusApproved:
		c.Approved += n
	case StatusRejected:
		c.Rejected += n
	}
}

// CourseCounts holds per-course totals.
type CourseCounts struct {
	Course string
	StatusCounts
}

// PendingItem is an application waiting for review.
type PendingItem struct {
	ID          int64
	StudentName string
	Course      string
	DateCreated time.Time
}
