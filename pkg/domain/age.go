package domain

import "time"

// IsOverAge returns true if the person with the given birth date is at least
// years old at the reference time. Uses calendar arithmetic (AddDate) for accurate
// birthday-boundary handling.
//
// Example:
//
//	birthDate := time.Date(2000, 1, 15, 0, 0, 0, 0, time.UTC)
//	now := time.Date(2018, 1, 15, 0, 0, 0, 0, time.UTC) // Exactly 18th birthday
//	IsOverAge(birthDate, now, 18) // returns true
func IsOverAge(birthDate, now time.Time, years int) bool {
	threshold := birthDate.UTC().AddDate(years, 0, 0)
	return !now.UTC().Before(threshold)
}

// IsOver18 is the adult threshold used by identity credentials.
func IsOver18(birthDate, now time.Time) bool {
	return IsOverAge(birthDate, now, 18)
}

// IsOver21 is the secondary age threshold carried in identity claims.
func IsOver21(birthDate, now time.Time) bool {
	return IsOverAge(birthDate, now, 21)
}
