package visit

// ShouldIncrementVisitCount decides whether saving this update counts the
// patient's first completed visit. A patient stays at zero total visits
// until a doctor records a prescription; the first non-empty prescription
// moves the count to one. Later prescriptions never increment again.
func ShouldIncrementVisitCount(totalVisits int, u Update) bool {
	if totalVisits != 0 {
		return false
	}
	return u.Prescription != nil && *u.Prescription != ""
}
