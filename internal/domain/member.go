package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/jsiebens/memberd/internal/errors"
	"github.com/jsiebens/memberd/internal/util"
	"gorm.io/gorm"
)

type Member struct {
	ID    uint64 `gorm:"primary_key;autoIncrement:false"`
	Email string `gorm:"type:varchar(255);uniqueIndex"`
	Name  string

	BirthDate *time.Time

	CreatedAt   time.Time
	LastLoginAt *time.Time
}

// BirthdayLabel renders the birth date as a Korean month/day label,
// e.g. "5월 17일". Empty when no birth date is set.
func (m *Member) BirthdayLabel() string {
	if m.BirthDate == nil {
		return ""
	}
	return fmt.Sprintf("%d월 %d일", int(m.BirthDate.Month()), m.BirthDate.Day())
}

// IsBirthday reports whether the member's birthday falls on the given day,
// comparing month and day only.
func (m *Member) IsBirthday(now time.Time) bool {
	if m.BirthDate == nil {
		return false
	}
	return m.BirthDate.Month() == now.Month() && m.BirthDate.Day() == now.Day()
}

// MemberUpdate describes a partial profile update. Nil fields are left
// untouched.
type MemberUpdate struct {
	Name      *string
	Email     *string
	BirthDate *time.Time
}

func (u *MemberUpdate) Validate() error {
	if u.Name == nil && u.Email == nil && u.BirthDate == nil {
		return apperrors.NewValidationError("at least one field is required")
	}
	return nil
}

func (u *MemberUpdate) changes() map[string]interface{} {
	changes := map[string]interface{}{}
	if u.Name != nil {
		changes["name"] = *u.Name
	}
	if u.Email != nil {
		changes["email"] = *u.Email
	}
	if u.BirthDate != nil {
		changes["birth_date"] = u.BirthDate
	}
	return changes
}

func (r *repository) GetOrCreateMember(ctx context.Context, email, name string) (*Member, bool, error) {
	member := &Member{}
	id := util.NextID()

	tx := r.withContext(ctx).
		Where(Member{Email: email}).
		Attrs(Member{ID: id, Name: name}).
		FirstOrCreate(member)

	if tx.Error != nil {
		return nil, false, tx.Error
	}

	return member, member.ID == id, nil
}

func (r *repository) GetMember(ctx context.Context, id uint64) (*Member, error) {
	var member Member
	tx := r.withContext(ctx).Take(&member, "id = ?", id)

	if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if tx.Error != nil {
		return nil, tx.Error
	}

	return &member, nil
}

func (r *repository) GetMemberByEmail(ctx context.Context, email string) (*Member, error) {
	var member Member
	tx := r.withContext(ctx).Take(&member, "email = ?", email)

	if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if tx.Error != nil {
		return nil, tx.Error
	}

	return &member, nil
}

func (r *repository) UpdateMember(ctx context.Context, id uint64, update *MemberUpdate) error {
	if err := update.Validate(); err != nil {
		return err
	}

	tx := r.withContext(ctx).
		Model(Member{}).
		Where("id = ?", id).
		Updates(update.changes())

	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return apperrors.NewNotFoundError("member not found")
	}

	return nil
}

func (r *repository) SetMemberLastLogin(ctx context.Context, id uint64) error {
	now := time.Now().UTC()
	tx := r.withContext(ctx).
		Model(Member{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"last_login_at": &now})

	if tx.Error != nil {
		return tx.Error
	}

	return nil
}
