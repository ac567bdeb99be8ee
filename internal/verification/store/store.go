// Package store persists verification sessions. Every implementation
// guarantees at most one active session per user and atomic Execute.
package store

import (
	"time"

	"verifyx/internal/verification/models"
)

// activeStatuses are the statuses counted by the one-active-session rule.
var activeStatuses = []models.Status{models.StatusInitiated, models.StatusInProgress}

// sweepableStatuses never reached a verdict.
var sweepableStatuses = []models.Status{models.StatusInitiated, models.StatusInProgress, models.StatusExpired}

// isSweepable reports whether DeleteExpired may drop the session: it never
// reached a verdict and its TTL window has passed.
func isSweepable(s *models.Session, now time.Time) bool {
	for _, st := range sweepableStatuses {
		if s.Status == st {
			return !now.Before(s.ExpiresAt)
		}
	}
	return false
}
