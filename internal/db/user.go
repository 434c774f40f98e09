package db

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// User 定义了后台管理用户模型
type User struct {
	gorm.Model
	Username string `gorm:"unique;not null"`
	Password string `gorm:"not null"`
}

// EnsureAdminUser 按配置引导后台账号：用户名与密码均非空且账号不存在时，
// 创建一个 bcrypt 哈希的管理用户。返回是否发生了创建。
func EnsureAdminUser(gdb *gorm.DB, username, password string) (bool, error) {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	if username == "" || password == "" {
		return false, nil
	}

	var count int64
	if err := gdb.Model(&User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, err
	}
	if err := gdb.Create(&User{Username: username, Password: string(hashed)}).Error; err != nil {
		return false, err
	}
	return true, nil
}
