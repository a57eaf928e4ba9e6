package manifest

// Reason explains an UpdateVersion decision.
type Reason int

const (
	// ReasonUpdated means the entry now holds the released version.
	ReasonUpdated Reason = iota

	// ReasonSkipped means the entry opted out of automatic bumps.
	ReasonSkipped

	// ReasonUpToDate means the entry already holds the released version.
	ReasonUpToDate
)

// Decision is the result of UpdateVersion.
type Decision struct {
	// Changed reports whether the entry was mutated.
	Changed bool

	// Reason explains the decision.
	Reason Reason

	// Previous is the version held before the call.
	Previous string
}

// UpdateVersion moves entry to the released version unless it opted out
// of automatic bumps or already holds that version.
func UpdateVersion(entry *Entry, released string) Decision {
	previous := entry.Version()

	switch {
	case entry.SkipAutoVersionBump():
		return Decision{Reason: ReasonSkipped, Previous: previous}
	case previous == released:
		return Decision{Reason: ReasonUpToDate, Previous: previous}
	}

	entry.SetVersion(released)
	return Decision{Changed: true, Reason: ReasonUpdated, Previous: previous}
}
