package repositories

import (
	"github.com/lac-hong-legacy/ido_api/dto"
	"gorm.io/gorm"
)

// BaseRepository holds the connection every repository queries through.
type BaseRepository struct {
	db *gorm.DB
}

func NewBaseRepository(db *gorm.DB) BaseRepository {
	return BaseRepository{db: db}
}

// Paginate applies page/limit as LIMIT/OFFSET.
func Paginate(page dto.PageQuery) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Limit(page.Limit).Offset(page.Offset())
	}
}
