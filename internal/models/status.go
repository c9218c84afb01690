package models

import "strings"

// ListingStatus controls public visibility of a listing.
type ListingStatus string

const (
	StatusPending  ListingStatus = "pending"
	StatusApproved ListingStatus = "approved"
	StatusRejected ListingStatus = "rejected"
)

// ParseListingStatus converts s into a ListingStatus, ignoring case.
func ParseListingStatus(s string) (ListingStatus, error) {
	switch ListingStatus(strings.ToLower(strings.TrimSpace(s))) {
	case StatusPending:
		return StatusPending, nil
	case StatusApproved:
		return StatusApproved, nil
	case StatusRejected:
		return StatusRejected, nil
	}
	return "", Invalid("status must be pending, approved or rejected")
}

// InitialStatus returns the status a new listing is stored with.
// Regular users always submit for review; administrators publish directly
// unless they ask for another status.
func InitialStatus(creator Role, requested ListingStatus) ListingStatus {
	if creator != RoleAdmin {
		return StatusPending
	}
	if requested != "" {
		return requested
	}
	return StatusApproved
}

// StatusAfterEdit returns the status of a listing after an edit.
// Any edit by a non-administrator sends the listing back to review.
func StatusAfterEdit(editor Role, current, requested ListingStatus) ListingStatus {
	if editor != RoleAdmin {
		return StatusPending
	}
	if requested != "" {
		return requested
	}
	return current
}

// ModerationTarget validates the target of an approve/reject action.
func ModerationTarget(s string) (ListingStatus, error) {
	switch ListingStatus(strings.ToLower(strings.TrimSpace(s))) {
	case StatusApproved:
		return StatusApproved, nil
	case StatusRejected:
		return StatusRejected, nil
	}
	return "", Invalid("status must be approved or rejected")
}

// CanView reports whether viewer may read l. Viewer is nil for anonymous
// requests.
func CanView(l *Listing, viewer *Identity) bool {
	if l.Status == StatusApproved {
		return true
	}
	return CanModify(l, viewer)
}

// CanModify reports whether actor owns l or is an administrator.
func CanModify(l *Listing, actor *Identity) bool {
	if actor == nil {
		return false
	}
	return actor.IsAdmin() || actor.AccountID == l.OwnerID
}
