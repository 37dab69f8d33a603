package repo

import (
	"errors"

	"gorm.io/gorm"

	"github.com/Skotchmaster/gig_board/internal/models"
)

var ErrUserAlreadyExist = errors.New("user already exist")

type GormRepo struct {
	DB *gorm.DB
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.User{}, &models.Gig{}, &models.Message{}, &models.Review{})
}
