package notifications

import (
	"math"
	"time"
)

// Policy decides whether a document with a given end date should trigger
// reminders right now. The window is inclusive on both ends: a document
// expiring today (0 days left) and one expiring exactly WindowDays from now
// both fire. Already-expired documents never fire.
type Policy struct {
	WindowDays int
}

// Decision is the outcome of evaluating one document against the policy.
// Email and SMS are independently eligible; the caller still gates SMS on
// the user having a phone number on file.
type Decision struct {
	Email    bool
	SMS      bool
	DaysLeft int
}

// Evaluate computes the whole days left until endDate and maps it onto the
// notification window. A zero endDate means the document is invalid and
// nothing fires.
func (p Policy) Evaluate(endDate, now time.Time) Decision {
	if endDate.IsZero() {
		return Decision{}
	}
	daysLeft := int(math.Floor(endDate.Sub(now).Hours() / 24))
	inWindow := daysLeft >= 0 && daysLeft <= p.WindowDays
	return Decision{
		Email:    inWindow,
		SMS:      inWindow,
		DaysLeft: daysLeft,
	}
}
