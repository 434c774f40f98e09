package db

import (
	"errors"
	"strconv"

	"gorm.io/gorm"
)

// SystemSetting 存储站点级键值对，包括数据库结构版本标记。
type SystemSetting struct {
	gorm.Model
	Key   string `gorm:"size:100;uniqueIndex;not null"`
	Value string `gorm:"type:text"`
}

// TableName 指定自定义表名。
func (SystemSetting) TableName() string {
	return "system_settings"
}

const (
	// SettingKeySchemaVersion 记录博客表结构的版本号。
	SettingKeySchemaVersion = "fullblog_version"
	// SettingKeyInfoText 为侧栏展示的站点说明文本。
	SettingKeyInfoText = "fullblog_infotext"
)

// 当前的表结构版本。
const schemaVersion = 1

// SchemaVersion 返回已记录的结构版本。任何读取失败都按未记录（0）处理，
// 交由初始化逻辑重新写入标记。
func SchemaVersion(gdb *gorm.DB) int {
	var values []string
	err := gdb.Model(&SystemSetting{}).
		Where("key = ?", SettingKeySchemaVersion).
		Limit(1).
		Pluck("value", &values).Error
	if err != nil || len(values) == 0 {
		return 0
	}
	version, err := strconv.Atoi(values[0])
	if err != nil {
		return 0
	}
	return version
}

// GetSetting 读取单个设置项的值，缺失时返回空字符串。
func GetSetting(gdb *gorm.DB, key string) (string, error) {
	var setting SystemSetting
	if err := gdb.Where("key = ?", key).First(&setting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return setting.Value, nil
}

// SetSetting 写入或更新单个设置项。
func SetSetting(gdb *gorm.DB, key, value string) error {
	var setting SystemSetting
	err := gdb.Where("key = ?", key).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return gdb.Create(&SystemSetting{Key: key, Value: value}).Error
	}
	if err != nil {
		return err
	}
	return gdb.Model(&setting).Update("value", value).Error
}
