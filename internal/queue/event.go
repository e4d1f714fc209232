// Package queue defines message payloads exchanged over the message broker.
package queue

// ItemReleasedEvent is published when an account-holder releases an item.
// It carries enough information for downstream consumers (notification
// fan-out to beneficiaries, audit logging) without querying the primary
// database.
type ItemReleasedEvent struct {
	ItemID         uint64   `json:"item_id"`
	OwnerID        uint64   `json:"owner_id"`
	OwnerName      string   `json:"owner_name"`
	Title          string   `json:"title"`
	HasFile        bool     `json:"has_file"`
	BeneficiaryIDs []uint64 `json:"beneficiary_ids"`
	ReleasedAt     string   `json:"released_at"`
}
