package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/HMPS-2025/homework-service/internal/cache"
	"github.com/HMPS-2025/homework-service/internal/models"
	"github.com/HMPS-2025/homework-service/internal/repositories"
)

type UserPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewUserPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) *UserPostgreSQL {
	return &UserPostgreSQL{db: db, cacheManager: cacheManager}
}

func (r *UserPostgreSQL) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *UserPostgreSQL) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	cacheKey := "user:" + id

	err := r.cacheManager.Fast.CacheOrExecute(ctx, cacheKey, &user, cache.FastCacheConfig.TTL, func() (interface{}, error) {
		var u models.User
		if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
			return nil, err
		}
		return &u, nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserPostgreSQL) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserPostgreSQL) Update(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	_ = r.cacheManager.Fast.Delete(ctx, "user:"+user.ID)
	return nil
}

func (r *UserPostgreSQL) List(ctx context.Context, filters repositories.UserFilters) ([]*models.User, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.User{})

	if filters.Role != nil {
		query = query.Where("role = ?", *filters.Role)
	}
	if filters.Grade != nil {
		query = query.Where("grade = ?", *filters.Grade)
	}
	if filters.Section != nil {
		query = query.Where("section = ?", *filters.Section)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	var users []*models.User
	if err := query.Order("name ASC").Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

func (r *UserPostgreSQL) ListStudents(ctx context.Context, grade int, section string) ([]*models.User, error) {
	query := r.db.WithContext(ctx).
		Where("role = ? AND is_active = ?", models.RoleStudent, true)
	if grade > 0 {
		query = query.Where("grade = ?", grade)
	}
	if section != "" {
		query = query.Where("section = ?", section)
	}

	var students []*models.User
	if err := query.Order("roll_number ASC").Find(&students).Error; err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	return students, nil
}

func (r *UserPostgreSQL) DistinctSections(ctx context.Context, grade int) ([]string, error) {
	var sections []string
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("role = ? AND is_active = ? AND grade = ? AND section <> ''", models.RoleStudent, true, grade).
		Distinct("section").
		Order("section ASC").
		Pluck("section", &sections).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sections: %w", err)
	}
	return sections, nil
}
