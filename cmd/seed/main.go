package main

import (
	"fmt"
	"time"

	"github.com/roomnest-next/internal/config"
	"github.com/roomnest-next/internal/constants"
	"github.com/roomnest-next/internal/logger"
	"github.com/roomnest-next/internal/models"

	"github.com/shopspring/decimal"
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

	// 默认管理员
	if err := models.InitDefaultAdmin(cfg.Admin.Email); err != nil {
		stdLog.Printf("Failed to init default admin: %v", err)
	}

	// 白名单用户
	users := []models.User{
		{Email: "mia@student.example.org", DisplayName: "Mia", Role: constants.UserRoleWhitelisted, Status: constants.UserStatusActive, Locale: "en-US"},
		{Email: "lucas@student.example.org", DisplayName: "Lucas", Role: constants.UserRoleWhitelisted, Status: constants.UserStatusActive, Locale: "en-US"},
		{Email: "chen@student.example.org", DisplayName: "小陈", Role: constants.UserRoleWhitelisted, Status: constants.UserStatusActive, Locale: "zh-CN"},
	}
	userIDs := map[string]uint{}
	for _, u := range users {
		var existing models.User
		if err := models.DB.Where("email = ?", u.Email).First(&existing).Error; err != nil {
			if err := models.DB.Create(&u).Error; err != nil {
				stdLog.Printf("Failed to create user %s: %v", u.Email, err)
				continue
			}
			stdLog.Printf("Created user: %s", u.Email)
			userIDs[u.Email] = u.ID
		} else {
			stdLog.Printf("User already exists: %s", u.Email)
			userIDs[u.Email] = existing.ID
		}
	}

	// 示例房源
	listings := []models.Listing{
		{
			Title:        "Bright room near campus",
			AddressLine:  "Kanaalstraat 12",
			City:         "Utrecht",
			District:     "Lombok",
			Description:  "Furnished 14m2 room in a shared student house, 10 minutes by bike to Utrecht Science Park.",
			RentAmount:   models.NewMoneyFromDecimal(decimal.NewFromInt(560)),
			RentCurrency: "EUR",
			RoomCount:    1,
			ContactEmail: "verhuur@kanaalstraat.example.org",
			Status:       constants.ListingStatusPublished,
			Images: []models.ListingImage{
				{URL: "https://images.unsplash.com/photo-1522708323590-d24dbb6b0267?w=1200", SortOrder: 1},
			},
		},
		{
			Title:        "Studio with private kitchen",
			AddressLine:  "Phoenixstraat 44",
			City:         "Delft",
			District:     "Centrum",
			Description:  "Self-contained 22m2 studio, suitable for one student. Utilities included in the rent.",
			RentAmount:   models.NewMoneyFromDecimal(decimal.NewFromInt(790)),
			RentCurrency: "EUR",
			RoomCount:    1,
			ContactEmail: "office@phoenixwonen.example.org",
			ContactPhone: "+31 15 000 0000",
			Status:       constants.ListingStatusPublished,
			Images: []models.ListingImage{
				{URL: "https://images.unsplash.com/photo-1502672260266-1c1ef2d93688?w=1200", SortOrder: 1},
				{URL: "https://images.unsplash.com/photo-1484154218962-a197022b5858?w=1200", SortOrder: 2},
			},
		},
		{
			Title:        "Shared apartment, two rooms left",
			AddressLine:  "Haarlemmerstraat 201",
			City:         "Leiden",
			District:     "Binnenstad",
			Description:  "Two rooms available in a four person apartment above a bakery. Shared kitchen and bathroom.",
			RentAmount:   models.NewMoneyFromDecimal(decimal.NewFromInt(495)),
			RentCurrency: "EUR",
			RoomCount:    2,
			ContactEmail: "beheer@haarlemmer.example.org",
			Status:       constants.ListingStatusPublished,
		},
		{
			Title:        "Attic room, under renovation",
			AddressLine:  "Oude Kijk in 't Jatstraat 8",
			City:         "Groningen",
			District:     "Binnenstad",
			Description:  "Attic room being renovated, available from next semester.",
			RentAmount:   models.NewMoneyFromDecimal(decimal.NewFromInt(430)),
			RentCurrency: "EUR",
			RoomCount:    1,
			Status:       constants.ListingStatusHidden,
		},
	}

	listingIDs := map[string]uint{}
	for _, l := range listings {
		var existing models.Listing
		if err := models.DB.Where("title = ? AND city = ?", l.Title, l.City).First(&existing).Error; err != nil {
			if err := models.DB.Create(&l).Error; err != nil {
				stdLog.Printf("Failed to create listing %s: %v", l.Title, err)
				continue
			}
			stdLog.Printf("Created listing: %s (%s)", l.Title, l.City)
			listingIDs[l.Title] = l.ID
		} else {
			stdLog.Printf("Listing already exists: %s (%s)", l.Title, l.City)
			listingIDs[l.Title] = existing.ID
		}
	}

	// 示例点评：已通过的参与榜单，待审核的留给后台演示
	now := time.Now()
	tenancyFrom := now.AddDate(-1, 0, 0)
	tenancyTo := now.AddDate(0, -2, 0)
	moderatedAt := now.Add(-72 * time.Hour)

	reviews := []models.Review{
		{
			ListingID:   listingIDs["Bright room near campus"],
			UserID:      userIDs["mia@student.example.org"],
			Rating:      4,
			Title:       "Good location, thin walls",
			Body:        "Lived here for a year. Great spot for cycling to campus, though you hear everything through the walls.",
			TenancyFrom: &tenancyFrom,
			TenancyTo:   &tenancyTo,
			Status:      constants.ReviewStatusApproved,
			ModeratedAt: &moderatedAt,
		},
		{
			ListingID:   listingIDs["Studio with private kitchen"],
			UserID:      userIDs["lucas@student.example.org"],
			Rating:      5,
			Title:       "Worth the price",
			Body:        "Responsive landlord, everything worked as advertised. Deposit returned in full.",
			TenancyFrom: &tenancyFrom,
			Status:      constants.ReviewStatusApproved,
			ModeratedAt: &moderatedAt,
		},
		{
			ListingID: listingIDs["Bright room near campus"],
			UserID:    userIDs["chen@student.example.org"],
			Rating:    2,
			Title:     "押金退得很慢",
			Body:      "房间本身还行，但退租三个月后才拿回押金，沟通很费劲。",
			Status:    constants.ReviewStatusPending,
		},
	}

	for _, rv := range reviews {
		if rv.ListingID == 0 || rv.UserID == 0 {
			stdLog.Printf("Skip review %q: listing or user missing", rv.Title)
			continue
		}
		var existing models.Review
		if err := models.DB.Where("listing_id = ? AND user_id = ?", rv.ListingID, rv.UserID).First(&existing).Error; err != nil {
			if err := models.DB.Create(&rv).Error; err != nil {
				stdLog.Printf("Failed to create review %q: %v", rv.Title, err)
			} else {
				stdLog.Printf("Created review: %q", rv.Title)
			}
		} else {
			stdLog.Printf("Review already exists for listing %d by user %d", rv.ListingID, rv.UserID)
		}
	}

	// 刷新已通过点评的冗余统计
	type ratingAgg struct {
		Count int64
		Avg   float64
	}
	for title, id := range listingIDs {
		var agg ratingAgg
		models.DB.Model(&models.Review{}).
			Select("COUNT(*) as count, COALESCE(AVG(rating), 0) as avg").
			Where("listing_id = ? AND status = ?", id, constants.ReviewStatusApproved).
			Scan(&agg)
		if err := models.DB.Model(&models.Listing{}).Where("id = ?", id).Updates(map[string]interface{}{
			"review_count":   agg.Count,
			"rating_average": decimal.NewFromFloat(agg.Avg).Round(2),
		}).Error; err != nil {
			stdLog.Printf("Failed to refresh rating for %s: %v", title, err)
		}
	}

	fmt.Println("\n✅ Test data created successfully!")
	fmt.Println("Summary:")
	fmt.Println("- 1 Admin (from config admin.email)")
	fmt.Println("- 3 Whitelisted users")
	fmt.Println("- 4 Listings (3 published + 1 hidden)")
	fmt.Println("- 3 Reviews (2 approved + 1 pending)")
}
