package migration

import (
	"time"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func m202608190900_initial_schema() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "202608190900",
		Migrate: func(db *gorm.DB) error {
			// it's a good practice to copy the struct inside the function,
			// so side effects are prevented if the original struct changes during the time
			type Member struct {
				ID    uint64 `gorm:"primary_key;autoIncrement:false"`
				Email string `gorm:"type:varchar(255);uniqueIndex"`
				Name  string

				BirthDate *time.Time

				CreatedAt   time.Time
				LastLoginAt *time.Time
			}

			return db.AutoMigrate(
				&Member{},
			)
		},
		Rollback: nil,
	}
}
