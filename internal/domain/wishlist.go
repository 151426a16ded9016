package domain

import (
	"fmt"
	"time"
)

// SyncState tracks a wishlist entry against the remote wishlist.
type SyncState int

const (
	// PendingAdd entries are shown locally while the remote add is in flight.
	PendingAdd SyncState = iota
	// Confirmed entries are known to exist remotely.
	Confirmed
	// PendingRemove entries stay visible until the remote remove succeeds.
	PendingRemove
)

func (s SyncState) String() string {
	switch s {
	case PendingAdd:
		return "pending_add"
	case Confirmed:
		return "confirmed"
	case PendingRemove:
		return "pending_remove"
	default:
		return "unknown"
	}
}

// MarshalText renders the state by name.
func (s SyncState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name written by MarshalText.
func (s *SyncState) UnmarshalText(b []byte) error {
	switch string(b) {
	case "pending_add":
		*s = PendingAdd
	case "confirmed":
		*s = Confirmed
	case "pending_remove":
		*s = PendingRemove
	default:
		return fmt.Errorf("unknown sync state %q", b)
	}
	return nil
}

// WishlistEntry is one product on the signed-in user's wishlist. LocalID is
// minted client side; entries are matched to the backend by ProductID only.
type WishlistEntry struct {
	LocalID   string    `json:"local_id"`
	ProductID ProductID `json:"product_id"`
	Product   Product   `json:"product"`
	AddedAt   time.Time `json:"added_at"`
	State     SyncState `json:"state"`
}
