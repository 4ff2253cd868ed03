package schedule

import "sort"

// IsAvailable reports whether a candidate interval fits into a consultant's
// day without conflicting with any of the existing bookings. excludeID skips
// one appointment by id, used when rescheduling so the booking does not
// collide with itself. The result does not depend on input order.
func IsAvailable(existing []Appointment, candidateStart TimeOfDay, candidateDuration int, excludeID string) bool {
	for _, a := range existing {
		if excludeID != "" && a.ID == excludeID {
			continue
		}
		if Overlaps(a.StartTime, a.Duration, candidateStart, candidateDuration) {
			return false
		}
	}
	return true
}

// FreeSlots computes the unbooked gaps in [workStart, workEnd) given a
// consultant's bookings for one day, ordered by start time. An inverted or
// empty window yields no slots. Equal start times should not coexist under
// the overlap rule, but stored data is not trusted: ties break by id and the
// cursor only ever advances, so malformed overlapping rows cannot produce
// negative gaps.
func FreeSlots(existing []Appointment, workStart, workEnd TimeOfDay) []TimeSlot {
	if workStart >= workEnd {
		return nil
	}

	sorted := make([]Appointment, len(existing))
	copy(sorted, existing)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].StartTime != sorted[j].StartTime {
			return sorted[i].StartTime < sorted[j].StartTime
		}
		return sorted[i].ID < sorted[j].ID
	})

	var slots []TimeSlot
	cursor := workStart
	for _, a := range sorted {
		if cursor < a.StartTime {
			slots = append(slots, TimeSlot{Start: cursor, End: a.StartTime})
		}
		if end := a.EndTime(); end > cursor {
			cursor = end
		}
	}

	if cursor < workEnd {
		slots = append(slots, TimeSlot{Start: cursor, End: workEnd})
	}

	return slots
}
