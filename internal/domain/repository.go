package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	GetOrCreateMember(ctx context.Context, email, name string) (*Member, bool, error)
	GetMember(ctx context.Context, id uint64) (*Member, error)
	GetMemberByEmail(ctx context.Context, email string) (*Member, error)
	UpdateMember(ctx context.Context, id uint64, update *MemberUpdate) error
	SetMemberLastLogin(ctx context.Context, id uint64) error

	Transaction(func(rp Repository) error) error
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{
		db: db,
	}
}

type repository struct {
	db *gorm.DB
}

func (r *repository) withContext(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx)
}

func (r *repository) Transaction(action func(Repository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return action(NewRepository(tx))
	})
}
