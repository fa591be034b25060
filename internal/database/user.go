package database

import (
	"chores-backend/internal/models"

	"gorm.io/gorm"
)

// CreateUser 创建用户
func CreateUser(user *models.User) error {
	return DB.Create(user).Error
}

// GetUserByID 通过 ID 获取用户
func GetUserByID(id string) (*models.User, error) {
	var user models.User
	err := DB.Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindSubscriptionCandidates 查找订阅通知的候选用户
// 返回收据数据包含原始交易ID、或产品ID匹配的用户
func FindSubscriptionCandidates(db *gorm.DB, originalTransactionID, productID string) ([]models.User, error) {
	var users []models.User
	err := db.
		Where("subscription_receipt_data LIKE ?", "%"+originalTransactionID+"%").
		Or("subscription_product_id = ?", productID).
		Find(&users).Error
	return users, err
}

// GetUsersWithDeviceTokens 获取带有设备推送令牌的用户
func GetUsersWithDeviceTokens(userIDs []string) ([]models.User, error) {
	var users []models.User
	err := DB.
		Where("id IN ?", userIDs).
		Where("device_token IS NOT NULL AND device_token <> ''").
		Find(&users).Error
	return users, err
}

// GetUsersByIDs 获取用户（不过滤设备令牌，用于排查推送目标）
func GetUsersByIDs(userIDs []string) ([]models.User, error) {
	var users []models.User
	err := DB.Where("id IN ?", userIDs).Find(&users).Error
	return users, err
}
