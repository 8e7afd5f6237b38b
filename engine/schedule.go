/*
schedule.go - Booking conflict checks

PURPOSE:
  Decides whether a booking may be placed on, or moved to, a resource.
  Two entry points share the same rules:

  CheckDropAllowed:   an existing booking is being moved/resized; the
                      booking itself is excluded from the comparison set
                      and actualized bookings are immutable.
  CheckSelectAllowed: a brand-new booking is being created; same rules
                      minus the moving-booking identity checks.

RULES (in rejection order):
  1. The proposed range must satisfy Start < End.
  2. A booking with recorded actuals cannot move (drop only).
  3. An effective resource must resolve: the explicit drop target wins
     over the booking's current resource.
  4. The first existing booking on the same resource whose half-open
     range overlaps the proposal is a hard block.

  Background markers never conflict. A rejection names the first conflict
  found; there is no partial or merge behavior.

SEE ALSO:
  - interval.go: The shared half-open overlap predicate
  - workload.go: The other consumer of interval algebra
*/
package engine

// CheckDropAllowed decides whether an existing booking may be moved to the
// proposed range. target is the explicit drop-target resource; empty means
// "keep the booking's current resource".
func CheckDropAllowed(candidate ResourceBooking, proposed Interval, target ResourceID, all []ResourceBooking) Decision {
	if !proposed.IsValid() {
		return Reject(ReasonInvalidRange)
	}
	if candidate.HasActuals {
		return Reject(ReasonActualized)
	}

	resource := target
	if resource == "" {
		resource = candidate.ResourceID
	}
	if resource == "" {
		return Reject(ReasonNoResource)
	}

	if conflict := firstConflict(resource, proposed, all, candidate.ID); conflict != nil {
		return Reject(ReasonDuplicateRange)
	}
	return Allow()
}

// CheckSelectAllowed decides whether a brand-new booking may be created on
// the given resource over the proposed range.
func CheckSelectAllowed(resource ResourceID, proposed Interval, all []ResourceBooking) Decision {
	if !proposed.IsValid() {
		return Reject(ReasonInvalidRange)
	}
	if resource == "" {
		return Reject(ReasonNoResource)
	}
	if conflict := firstConflict(resource, proposed, all, ""); conflict != nil {
		return Reject(ReasonDuplicateRange)
	}
	return Allow()
}

// firstConflict returns the first booking on resource whose range overlaps
// proposed, skipping background markers and the booking identified by
// excludeID (the one being moved).
func firstConflict(resource ResourceID, proposed Interval, all []ResourceBooking, excludeID string) *ResourceBooking {
	for i := range all {
		b := &all[i]
		if b.IsBackground {
			continue
		}
		if excludeID != "" && b.ID == excludeID {
			continue
		}
		if b.ResourceID != resource {
			continue
		}
		if proposed.Overlaps(BookingInterval(*b)) {
			return b
		}
	}
	return nil
}
