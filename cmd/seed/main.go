package main

import (
	"github.com/studiocard/internal/config"
	"github.com/studiocard/internal/constants"
	"github.com/studiocard/internal/logger"
	"github.com/studiocard/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 平台管理员与自营店铺
	if err := models.InitDefaultAdmin("admin@studiocard.local", "admin123"); err != nil {
		stdLog.Fatalf("Failed to init default admin: %v", err)
	}

	// 税类
	taxTypes := []models.TaxType{
		{Name: "Standard 19%", Percent: models.NewMoneyFromDecimal(decimal.NewFromInt(19)), Standard: true},
		{Name: "Reduced 7%", Percent: models.NewMoneyFromDecimal(decimal.NewFromInt(7)), Standard: true},
		{Name: "Exempt", Percent: models.MoneyZero(), Standard: false},
	}
	taxTypeIDs := map[string]uint{}
	for _, taxType := range taxTypes {
		var existing models.TaxType
		if err := models.DB.Where("name = ?", taxType.Name).First(&existing).Error; err != nil {
			if err := models.DB.Create(&taxType).Error; err != nil {
				stdLog.Printf("Failed to create tax type %s: %v", taxType.Name, err)
				continue
			}
			stdLog.Printf("Created tax type: %s", taxType.Name)
			taxTypeIDs[taxType.Name] = taxType.ID
		} else {
			stdLog.Printf("Tax type already exists: %s", existing.Name)
			taxTypeIDs[existing.Name] = existing.ID
		}
	}

	// 示例店主账号
	owner := seedUser(stdLog, "studio@studiocard.local", "Demo Studio Owner", constants.UserRoleShop, "studio123")
	if owner == nil {
		return
	}

	// 示例店铺（演示模式，无真实支付）
	shop := seedShop(stdLog, models.Shop{
		Name:              "Aurora Tattoo Studio",
		Email:             owner.Email,
		OwnerUserID:       owner.ID,
		StudioMode:        constants.StudioModeDemo,
		PlatformFee:       models.NewMoneyFromDecimal(decimal.NewFromInt(5)),
		FixedPaymentFee:   models.NewMoneyFromDecimal(decimal.RequireFromString("0.35")),
		PlatformRedeemFee: models.NewMoneyFromDecimal(decimal.NewFromInt(2)),
		TaxTypeID:         taxTypeIDs["Standard 19%"],
		NotifyOnRedeem:    true,
	})
	if shop == nil {
		return
	}

	// 礼品卡模板
	templates := []models.GiftCardTemplate{
		{ShopID: shop.ID, Name: "Classic Black", ImageURL: "/assets/templates/classic-black.png", IsActive: true},
		{ShopID: shop.ID, Name: "Birthday", ImageURL: "/assets/templates/birthday.png", IsActive: true},
		{ShopID: shop.ID, Name: "Retired Design", ImageURL: "/assets/templates/retired.png", IsActive: false},
	}
	for _, tpl := range templates {
		var existing models.GiftCardTemplate
		if err := models.DB.Where("shop_id = ? AND name = ?", tpl.ShopID, tpl.Name).First(&existing).Error; err != nil {
			if err := models.DB.Create(&tpl).Error; err != nil {
				stdLog.Printf("Failed to create template %s: %v", tpl.Name, err)
			} else {
				stdLog.Printf("Created template: %s", tpl.Name)
			}
		} else {
			stdLog.Printf("Template already exists: %s", tpl.Name)
		}
	}

	stdLog.Printf("Seed completed")
}

func seedUser(stdLog interface{ Printf(string, ...interface{}) }, email, displayName, role, password string) *models.User {
	var existing models.User
	if err := models.DB.Where("email = ?", email).First(&existing).Error; err == nil {
		stdLog.Printf("User already exists: %s", email)
		return &existing
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		stdLog.Printf("Failed to hash password for %s: %v", email, err)
		return nil
	}
	user := models.User{
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  displayName,
		Role:         role,
		Status:       constants.UserStatusActive,
	}
	if err := models.DB.Create(&user).Error; err != nil {
		stdLog.Printf("Failed to create user %s: %v", email, err)
		return nil
	}
	stdLog.Printf("Created user: %s", email)
	return &user
}

func seedShop(stdLog interface{ Printf(string, ...interface{}) }, shop models.Shop) *models.Shop {
	var existing models.Shop
	if err := models.DB.Where("name = ?", shop.Name).First(&existing).Error; err == nil {
		stdLog.Printf("Shop already exists: %s", existing.Name)
		return &existing
	}
	if err := models.DB.Create(&shop).Error; err != nil {
		stdLog.Printf("Failed to create shop %s: %v", shop.Name, err)
		return nil
	}
	stdLog.Printf("Created shop: %s", shop.Name)
	return &shop
}
