package models

import (
	"strings"
	"time"

	"github.com/studiocard/internal/constants"
	"github.com/studiocard/internal/logger"

	"golang.org/x/crypto/bcrypt"
)

// InitDefaultAdmin 初始化默认平台管理员及自营店铺
func InitDefaultAdmin(email, password string) error {
	var count int64
	DB.Model(&User{}).Where("role = ?", constants.UserRoleAdmin).Count(&count)
	if count > 0 {
		return nil
	}

	if strings.TrimSpace(email) == "" {
		email = "admin@studiocard.local"
	}
	if password == "" {
		password = "admin123"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	now := time.Now()
	admin := User{
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: string(hash),
		DisplayName:  "Platform Admin",
		Role:         constants.UserRoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := DB.Create(&admin).Error; err != nil {
		return err
	}

	shop := Shop{
		Name:        "StudioCard Platform",
		Email:       admin.Email,
		OwnerUserID: admin.ID,
		StudioMode:  constants.StudioModeLive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := DB.Create(&shop).Error; err != nil {
		return err
	}

	if password == "admin123" {
		logger.Warnw("default_admin_created_with_default_password", "email", admin.Email)
		logger.Warnw("default_admin_password_change_required", "email", admin.Email)
	} else {
		logger.Warnw("default_admin_created", "email", admin.Email, "password_hidden", true)
	}
	return nil
}
