package postgres

import (
	"context"
	"time"

	"chat-relay/internal/models"

	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db}
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, "username = ?", username).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindAllExcept(ctx context.Context, excludeID uint) ([]*models.User, error) {
	var users []*models.User
	err := r.db.WithContext(ctx).Where("id <> ?", excludeID).Order("display_name").Find(&users).Error
	return users, err
}

func (r *UserRepository) UpdateStatus(ctx context.Context, id uint, status string) (*models.User, error) {
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		Update("status", status).Error; err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

func (r *UserRepository) UpdateProfileImage(ctx context.Context, id uint, imageURL string) (*models.User, error) {
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		Update("profile_image", imageURL).Error; err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

// UpdateOnlineStatus flips the presence flag and refreshes the last-seen
// timestamp. Called by the relay on every authenticate/disconnect transition.
func (r *UserRepository) UpdateOnlineStatus(ctx context.Context, id uint, isOnline bool) (*models.User, error) {
	now := time.Now().UTC()
	updates := map[string]interface{}{
		"is_online": isOnline,
		"last_seen": now,
	}
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		Updates(updates).Error; err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}
