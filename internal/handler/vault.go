package handler

import (
	"context"

	"github.com/iliyamo/legacy-vault/internal/queue"
	"github.com/iliyamo/legacy-vault/internal/repository"
	queue_publisher "github.com/iliyamo/legacy-vault/internal/service"
	"github.com/iliyamo/legacy-vault/internal/storage"
)

// ItemStore is the item persistence surface the handlers depend on.
// *repository.ItemRepo is the production implementation; tests drive the
// handlers through an in-memory one.
type ItemStore interface {
	Create(ctx context.Context, ownerID uint64, title string, content, filePath *string) (repository.Item, error)
	ListByOwner(ctx context.Context, ownerID uint64) ([]repository.Item, error)
	GetByFilePath(ctx context.Context, filePath string) (repository.Item, error)
	Update(ctx context.Context, id, ownerID uint64, title, content *string) (repository.Item, error)
	Release(ctx context.Context, id, ownerID uint64) (repository.Item, error)
	Delete(ctx context.Context, id, ownerID uint64) (string, error)
	ListReleasedForBeneficiary(ctx context.Context, beneficiaryID uint64) ([]repository.BeneficiaryItem, error)
}

// BeneficiaryStore covers the link management and lookups behind the
// beneficiary endpoints and the file access check.
type BeneficiaryStore interface {
	GetByID(ctx context.Context, id uint64) (repository.Beneficiary, error)
	FindLinkedByUserID(ctx context.Context, userID uint64) (repository.Beneficiary, error)
	LinkedOwnerIDs(ctx context.Context, beneficiaryID uint64) ([]uint64, error)
	Unlink(ctx context.Context, userID, beneficiaryID uint64) error
	UpdateProfile(ctx context.Context, id uint64, fullName, email, newHash *string) error
}

// UserStore is the account-holder lookup needed to annotate release events.
type UserStore interface {
	GetByID(ctx context.Context, id uint64) (repository.User, error)
}

// VaultHandler bundles the stores and the blob store behind the item,
// beneficiary and file endpoints.  Publish delivers release events to the
// broker; leaving it nil selects the RabbitMQ publisher.
type VaultHandler struct {
	Items         ItemStore
	Beneficiaries BeneficiaryStore
	Users         UserStore
	Store         *storage.FileStore
	BcryptCost    int
	Publish       func(ctx context.Context, ev queue.ItemReleasedEvent) error
}

func NewVaultHandler(items ItemStore, beneficiaries BeneficiaryStore, users UserStore, store *storage.FileStore, bcryptCost int) *VaultHandler {
	if items == nil || beneficiaries == nil || users == nil || store == nil {
		panic("nil dependency passed to NewVaultHandler")
	}
	return &VaultHandler{
		Items:         items,
		Beneficiaries: beneficiaries,
		Users:         users,
		Store:         store,
		BcryptCost:    bcryptCost,
		Publish:       queue_publisher.PublishItemReleased,
	}
}
