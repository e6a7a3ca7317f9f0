package vendors

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/velamart/velamart-backend/pkg/db/models"
)

// Repository exposes vendor persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a vendors repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts a new vendor profile.
func (r *Repository) Create(ctx context.Context, vendor *models.Vendor) (*models.Vendor, error) {
	if err := r.db.WithContext(ctx).Create(vendor).Error; err != nil {
		return nil, err
	}
	return vendor, nil
}

// FindByID loads an active vendor by id.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	var vendor models.Vendor
	if err := r.db.WithContext(ctx).
		Where("id = ? AND is_active", id).
		First(&vendor).Error; err != nil {
		return nil, err
	}
	return &vendor, nil
}

// FindByUserID loads the vendor profile owned by the given user.
func (r *Repository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Vendor, error) {
	var vendor models.Vendor
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active", userID).
		First(&vendor).Error; err != nil {
		return nil, err
	}
	return &vendor, nil
}

// List returns all active vendors ordered by store name.
func (r *Repository) List(ctx context.Context) ([]models.Vendor, error) {
	var rows []models.Vendor
	err := r.db.WithContext(ctx).
		Where("is_active").
		Order("store_name ASC").
		Find(&rows).Error
	return rows, err
}

// OwnerUserIDs resolves the owning user for each vendor id, preserving
// distinctness. Used for order fan-out and visibility checks.
func (r *Repository) OwnerUserIDs(ctx context.Context, vendorIDs []uuid.UUID) (map[uuid.UUID]uuid.UUID, error) {
	if len(vendorIDs) == 0 {
		return map[uuid.UUID]uuid.UUID{}, nil
	}
	var rows []models.Vendor
	if err := r.db.WithContext(ctx).
		Select("id", "user_id").
		Where("id IN ?", vendorIDs).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	owners := make(map[uuid.UUID]uuid.UUID, len(rows))
	for _, v := range rows {
		owners[v.ID] = v.UserID
	}
	return owners, nil
}

// Deactivate soft-deletes a vendor profile.
func (r *Repository) Deactivate(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Vendor{}).
		Where("id = ?", id).
		UpdateColumn("is_active", false).Error
}
