package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/harmoni/harmoniconnect/internal/model"
	"github.com/harmoni/harmoniconnect/internal/pagination"
)

type UserRepository interface {
	Create(ctx context.Context, u *model.User) error
	// GetByID возвращает пользователя вместе с профилями клиента/исполнителя.
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	// GetForUpdate то же, но блокирует строку до конца транзакции.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	List(ctx context.Context, p pagination.Params) ([]model.User, int64, error)
	// Update меняет только переданные колонки.
	Update(ctx context.Context, id uuid.UUID, fields map[string]any) error
	// Delete удаляет только строку users; каскад в PurgeUser.
	Delete(ctx context.Context, id uuid.UUID) error
}

type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) Create(ctx context.Context, u *model.User) error {
	u.Username = strings.TrimSpace(u.Username)
	u.ContactPhone = normalizePhone(u.ContactPhone)
	return translate(r.db.WithContext(ctx).Omit("Client", "Provider").Create(u).Error, "user", u.Username)
}

func (r *GormUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var u model.User
	err := r.db.WithContext(ctx).
		Preload("Client").
		Preload("Provider").
		First(&u, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, "user", id)
	}
	return &u, nil
}

func (r *GormUserRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var u model.User
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Client").
		Preload("Provider").
		First(&u, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, "user", id)
	}
	return &u, nil
}

func (r *GormUserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	err := r.db.WithContext(ctx).
		Preload("Client").
		Preload("Provider").
		Where("username = ?", strings.TrimSpace(username)).
		First(&u).Error
	if err != nil {
		return nil, translate(err, "user", username)
	}
	return &u, nil
}

func (r *GormUserRepository) List(ctx context.Context, p pagination.Params) ([]model.User, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.User{}).Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "users", "")
	}

	var users []model.User
	err := q.Preload("Client").
		Preload("Provider").
		Order("username ASC").
		Limit(p.Limit()).
		Offset(p.Offset()).
		Find(&users).Error
	if err != nil {
		return nil, 0, translate(err, "users", "")
	}
	return users, total, nil
}

func (r *GormUserRepository) Update(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	if phone, ok := fields["contact_phone"].(string); ok {
		fields["contact_phone"] = normalizePhone(phone)
	}
	res := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return translate(res.Error, "user", id)
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "user", id)
	}
	return nil
}

func (r *GormUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.User{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error, "user", id)
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "user", id)
	}
	return nil
}

// normalizePhone убирает форматирование, оставляя ведущий плюс и цифры.
func normalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}
	b := make([]byte, 0, len(phone))
	for i := 0; i < len(phone); i++ {
		c := phone[i]
		if (c >= '0' && c <= '9') || (c == '+' && len(b) == 0) {
			b = append(b, c)
		}
	}
	return string(b)
}
