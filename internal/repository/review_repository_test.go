package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/roomnest-next/internal/constants"
	"github.com/roomnest-next/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupReviewRepositoryTest(t *testing.T) (*GormReviewRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:review_repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Listing{},
		&models.Review{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewReviewRepository(db), db
}

func TestReviewRepositoryModerateOnlyFromPending(t *testing.T) {
	repo, _ := setupReviewRepositoryTest(t)
	now := time.Now().UTC()

	review := models.Review{
		ListingID: 1,
		UserID:    2,
		Rating:    4,
		Body:      "Bright room, responsive landlord.",
		Status:    constants.ReviewStatusPending,
	}
	if err := repo.Create(&review); err != nil {
		t.Fatalf("create review failed: %v", err)
	}

	if err := repo.Moderate(review.ID, constants.ReviewStatusApproved, 9, "", now); err != nil {
		t.Fatalf("moderate pending failed: %v", err)
	}

	// 已审核的点评不允许再次流转
	if err := repo.Moderate(review.ID, constants.ReviewStatusRejected, 9, "dup", now); err == nil {
		t.Fatal("moderate approved want error got nil")
	}

	got, err := repo.GetByID(review.ID)
	if err != nil {
		t.Fatalf("get review failed: %v", err)
	}
	if got.Status != constants.ReviewStatusApproved {
		t.Fatalf("status want approved got %s", got.Status)
	}
	if got.ModeratedBy == nil || *got.ModeratedBy != 9 {
		t.Fatalf("moderated_by want 9 got %v", got.ModeratedBy)
	}
}

func TestReviewRepositoryApprovedStats(t *testing.T) {
	repo, db := setupReviewRepositoryTest(t)

	reviews := []models.Review{
		{ListingID: 7, UserID: 1, Rating: 5, Status: constants.ReviewStatusApproved},
		{ListingID: 7, UserID: 2, Rating: 3, Status: constants.ReviewStatusApproved},
		{ListingID: 7, UserID: 3, Rating: 1, Status: constants.ReviewStatusPending},
		{ListingID: 8, UserID: 1, Rating: 2, Status: constants.ReviewStatusApproved},
	}
	if err := db.Create(&reviews).Error; err != nil {
		t.Fatalf("create reviews failed: %v", err)
	}

	count, avg, err := repo.ApprovedStats(7)
	if err != nil {
		t.Fatalf("approved stats failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("count want 2 got %d", count)
	}
	if avg != 4 {
		t.Fatalf("avg want 4 got %v", avg)
	}
}

func TestReviewRepositoryUniqueListingUser(t *testing.T) {
	repo, _ := setupReviewRepositoryTest(t)

	first := models.Review{ListingID: 3, UserID: 5, Rating: 4, Status: constants.ReviewStatusPending}
	if err := repo.Create(&first); err != nil {
		t.Fatalf("create first failed: %v", err)
	}
	second := models.Review{ListingID: 3, UserID: 5, Rating: 2, Status: constants.ReviewStatusPending}
	if err := repo.Create(&second); err == nil {
		t.Fatal("duplicate review want error got nil")
	}
}
