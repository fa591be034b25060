package database

import (
	"chores-backend/internal/models"

	"gorm.io/gorm"
)

// CreateWaitlistEntry 创建候补名单记录
func CreateWaitlistEntry(entry *models.WaitlistEntry) error {
	return DB.Create(entry).Error
}

// GetWaitlistEntryByEmail 通过邮箱获取候补名单记录
func GetWaitlistEntryByEmail(email string) (*models.WaitlistEntry, error) {
	var entry models.WaitlistEntry
	err := DB.Where("email = ?", email).First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// WaitlistEntryExists 检查邮箱是否已在候补名单
func WaitlistEntryExists(email string) (bool, error) {
	_, err := GetWaitlistEntryByEmail(email)
	if err == nil {
		return true, nil
	}
	if err == gorm.ErrRecordNotFound {
		return false, nil
	}
	return false, err
}
