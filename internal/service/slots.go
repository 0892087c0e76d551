package service

import (
	"fmt"
	"time"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
)

// parseClock converts a wall-clock "HH:MM" string into minutes since
// midnight.
func parseClock(value string) (int, error) {
	t, err := time.Parse(clockLayout, value)
	if err != nil {
		return 0, fmt.Errorf("parse clock %q: %w", value, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// formatClock renders minutes since midnight as "HH:MM".
func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// generateSlots produces the candidate slot list for one day: start times
// from openTime stepping by duration, up to but not including closeTime.
func generateSlots(openTime, closeTime string, durationMinutes int) ([]string, error) {
	open, err := parseClock(openTime)
	if err != nil {
		return nil, err
	}
	closed, err := parseClock(closeTime)
	if err != nil {
		return nil, err
	}
	if durationMinutes <= 0 {
		return nil, fmt.Errorf("slot duration must be positive, got %d", durationMinutes)
	}

	var slots []string
	for at := open; at < closed; at += durationMinutes {
		slots = append(slots, formatClock(at))
	}
	return slots, nil
}

// filterBefore keeps slots strictly before the cutoff.
func filterBefore(slots []string, cutoffMinutes int) []string {
	kept := slots[:0]
	for _, slot := range slots {
		at, err := parseClock(slot)
		if err != nil || at >= cutoffMinutes {
			continue
		}
		kept = append(kept, slot)
	}
	return kept
}

// filterFrom keeps slots at or after the floor.
func filterFrom(slots []string, floorMinutes int) []string {
	kept := slots[:0]
	for _, slot := range slots {
		at, err := parseClock(slot)
		if err != nil || at < floorMinutes {
			continue
		}
		kept = append(kept, slot)
	}
	return kept
}

// subtractSlots removes every slot present in the exclusion lists,
// preserving order.
func subtractSlots(slots []string, exclusions ...[]string) []string {
	if len(exclusions) == 0 {
		return slots
	}
	excluded := make(map[string]struct{})
	for _, list := range exclusions {
		for _, slot := range list {
			excluded[slot] = struct{}{}
		}
	}
	kept := slots[:0]
	for _, slot := range slots {
		if _, drop := excluded[slot]; !drop {
			kept = append(kept, slot)
		}
	}
	return kept
}
