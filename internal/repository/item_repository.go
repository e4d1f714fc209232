package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// Item mirrors the 'items' table.  Exactly one owner; content and file_path
// are independently nullable but creation requires at least one of them.
// is_released/released_at move together: released_at is set iff the item has
// been released.
type Item struct {
	ID         uint64     `json:"id"`
	OwnerID    uint64     `json:"user_id"`
	Title      string     `json:"title"`
	Content    *string    `json:"content"`
	FilePath   *string    `json:"file_path"`
	IsReleased bool       `json:"is_released"`
	ReleasedAt *time.Time `json:"released_at"`
	CreatedAt  time.Time  `json:"created_at"`
}

// BeneficiaryItem is an item row annotated with the owning account-holder's
// display name, as served to beneficiaries.
type BeneficiaryItem struct {
	Item
	UserFullName string `json:"user_full_name"`
}

type ItemRepo struct{ DB *sql.DB }

func NewItemRepo(db *sql.DB) *ItemRepo { return &ItemRepo{DB: db} }

const itemColumns = "id, user_id, title, content, file_path, is_released, released_at, created_at"

func scanItem(row interface{ Scan(...any) error }) (Item, error) {
	var it Item
	err := row.Scan(&it.ID, &it.OwnerID, &it.Title, &it.Content, &it.FilePath,
		&it.IsReleased, &it.ReleasedAt, &it.CreatedAt)
	return it, err
}

// Create inserts a draft item and returns the stored row.
func (r *ItemRepo) Create(ctx context.Context, ownerID uint64, title string, content, filePath *string) (Item, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO items (user_id, title, content, file_path, is_released) VALUES (?,?,?,?,0)",
		ownerID, title, content, filePath)
	if err != nil {
		return Item{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Item{}, err
	}
	return r.getByIDAndOwner(ctx, uint64(id), ownerID)
}

// ListByOwner returns the account-holder's own items, newest first.
func (r *ItemRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]Item, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+itemColumns+" FROM items WHERE user_id=? ORDER BY created_at DESC, id DESC",
		ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// getByIDAndOwner folds ownership into the lookup.  A missing row and a row
// owned by someone else both come back as ErrItemNotFound so write paths
// never reveal whether a foreign item id exists.
func (r *ItemRepo) getByIDAndOwner(ctx context.Context, id, ownerID uint64) (Item, error) {
	it, err := scanItem(r.DB.QueryRowContext(ctx,
		"SELECT "+itemColumns+" FROM items WHERE id=? AND user_id=? LIMIT 1", id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return Item{}, ErrItemNotFound
	}
	return it, err
}

// GetByFilePath looks an item up by its recorded blob path (forward slashes,
// no leading separator).  Used by the file endpoint, which needs the item to
// evaluate release gating.
func (r *ItemRepo) GetByFilePath(ctx context.Context, filePath string) (Item, error) {
	normalized := strings.TrimLeft(strings.ReplaceAll(filePath, "\\", "/"), "/")
	it, err := scanItem(r.DB.QueryRowContext(ctx,
		"SELECT "+itemColumns+" FROM items WHERE file_path=? LIMIT 1", normalized))
	if errors.Is(err, sql.ErrNoRows) {
		return Item{}, ErrItemNotFound
	}
	return it, err
}

// Update changes title and/or content of an owned draft or released item.
// The file attachment is immutable through this path.  Ownership mismatch is
// ErrItemNotFound, same as a missing row.
func (r *ItemRepo) Update(ctx context.Context, id, ownerID uint64, title, content *string) (Item, error) {
	if _, err := r.getByIDAndOwner(ctx, id, ownerID); err != nil {
		return Item{}, err
	}
	set := make([]string, 0, 2)
	args := make([]any, 0, 4)
	if title != nil {
		set = append(set, "title=?")
		args = append(args, strings.TrimSpace(*title))
	}
	if content != nil {
		set = append(set, "content=?")
		args = append(args, *content)
	}
	if len(set) > 0 {
		args = append(args, id, ownerID)
		if _, err := r.DB.ExecContext(ctx,
			"UPDATE items SET "+strings.Join(set, ", ")+" WHERE id=? AND user_id=?", args...); err != nil {
			return Item{}, err
		}
	}
	return r.getByIDAndOwner(ctx, id, ownerID)
}

// Release flips the item into its terminal state and stamps released_at.
// Releasing an already-released item re-stamps the timestamp; there is no
// way back to draft.  Ownership mismatch is ErrItemNotFound.
func (r *ItemRepo) Release(ctx context.Context, id, ownerID uint64) (Item, error) {
	if _, err := r.DB.ExecContext(ctx,
		"UPDATE items SET is_released=1, released_at=NOW() WHERE id=? AND user_id=?",
		id, ownerID); err != nil {
		return Item{}, err
	}
	// The re-read doubles as the ownership check: an update that matched no
	// row (missing or foreign item) comes back as ErrItemNotFound here.
	return r.getByIDAndOwner(ctx, id, ownerID)
}

// Delete removes an owned item row and reports its file path (empty when the
// item had none) so the caller can drop the blob.  Ownership mismatch is
// ErrItemNotFound.
func (r *ItemRepo) Delete(ctx context.Context, id, ownerID uint64) (string, error) {
	it, err := r.getByIDAndOwner(ctx, id, ownerID)
	if err != nil {
		return "", err
	}
	if _, err := r.DB.ExecContext(ctx,
		"DELETE FROM items WHERE id=? AND user_id=?", id, ownerID); err != nil {
		return "", err
	}
	if it.FilePath != nil {
		return *it.FilePath, nil
	}
	return "", nil
}

// ListReleasedForBeneficiary returns every released item owned by any
// account-holder currently linked to the beneficiary, annotated with the
// owner's display name, newest release first.  The link membership is read
// from the join table at call time.
func (r *ItemRepo) ListReleasedForBeneficiary(ctx context.Context, beneficiaryID uint64) ([]BeneficiaryItem, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT i.id, i.user_id, i.title, i.content, i.file_path, i.is_released,
		        i.released_at, i.created_at, u.full_name
		   FROM items i
		   JOIN user_beneficiaries ub ON ub.user_id = i.user_id
		   JOIN users u ON u.id = i.user_id
		  WHERE ub.beneficiary_id = ? AND i.is_released = 1
		  ORDER BY i.released_at DESC, i.id DESC`,
		beneficiaryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]BeneficiaryItem, 0)
	for rows.Next() {
		var bi BeneficiaryItem
		if err := rows.Scan(&bi.ID, &bi.OwnerID, &bi.Title, &bi.Content, &bi.FilePath,
			&bi.IsReleased, &bi.ReleasedAt, &bi.CreatedAt, &bi.UserFullName); err != nil {
			return nil, err
		}
		items = append(items, bi)
	}
	return items, rows.Err()
}
