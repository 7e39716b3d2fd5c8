package postgresadapter

import (
	"time"

	"gorm.io/gorm"
)

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&configModel{},
		&listingModel{},
		&accountModel{},
		&holdingModel{},
		&outboxModel{},
	)
}
