package auth

// CanReadItem decides whether a requester may read an item's content or its
// file blob.  Access is granted to the owning account-holder, or to a
// beneficiary when the item has been released AND the item's owner is among
// the account-holders currently linked to that beneficiary.  linkedOwnerIDs
// must be computed fresh from storage at request time, never taken from a
// token claim, so revoked links take effect immediately.
//
// Write, release and delete permissions are not decided here: those paths
// fold ownership into the repository query and report a mismatch as
// not-found.
func CanReadItem(userID, beneficiaryID, itemOwnerID uint64, released bool, linkedOwnerIDs []uint64) bool {
	if userID != 0 && userID == itemOwnerID {
		return true
	}
	if beneficiaryID != 0 && released {
		for _, id := range linkedOwnerIDs {
			if id == itemOwnerID {
				return true
			}
		}
	}
	return false
}
