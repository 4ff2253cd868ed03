package schedule

// Overlaps reports whether a candidate booking intersects an existing one in
// more than a shared boundary point. Touching endpoints do not conflict, so
// back-to-back bookings are legal: a new appointment may begin exactly when
// another ends, and may end exactly when another begins.
func Overlaps(existingStart TimeOfDay, existingDuration int, candidateStart TimeOfDay, candidateDuration int) bool {
	existingEnd := existingStart.Add(existingDuration)
	candidateEnd := candidateStart.Add(candidateDuration)

	return candidateEnd != existingStart &&
		candidateStart < existingEnd &&
		candidateEnd > existingStart
}
