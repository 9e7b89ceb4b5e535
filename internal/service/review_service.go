package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/roomnest-next/internal/constants"
	"github.com/roomnest-next/internal/logger"
	"github.com/roomnest-next/internal/models"
	"github.com/roomnest-next/internal/queue"
	"github.com/roomnest-next/internal/repository"

	"gorm.io/gorm"
)

// ReviewService 点评服务
// 点评默认进入 pending，审核通过后才对外可见并计入房源评分。
type ReviewService struct {
	reviewRepo  repository.ReviewRepository
	listingRepo repository.ListingRepository
	listingSvc  *ListingService
	queue       *queue.Client
	audit       *SecurityAuditService
	now         func() time.Time
}

// NewReviewService 创建点评服务
func NewReviewService(
	reviewRepo repository.ReviewRepository,
	listingRepo repository.ListingRepository,
	listingSvc *ListingService,
	queueClient *queue.Client,
	audit *SecurityAuditService,
) *ReviewService {
	return &ReviewService{
		reviewRepo:  reviewRepo,
		listingRepo: listingRepo,
		listingSvc:  listingSvc,
		queue:       queueClient,
		audit:       audit,
		now:         time.Now,
	}
}

// SubmitReviewInput 提交点评输入
type SubmitReviewInput struct {
	ListingID   uint
	UserID      uint
	Rating      int
	Title       string
	Body        string
	TenancyFrom *time.Time
	TenancyTo   *time.Time
}

// Submit 提交点评
func (s *ReviewService) Submit(input SubmitReviewInput) (*models.Review, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, ErrRatingInvalid
	}

	listing, err := s.listingRepo.GetByID(input.ListingID, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDBUnavailable, err)
	}
	if listing == nil || listing.Status != constants.ListingStatusPublished {
		return nil, ErrListingNotFound
	}

	existing, err := s.reviewRepo.GetByListingAndUser(input.ListingID, input.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDBUnavailable, err)
	}
	if existing != nil {
		return nil, ErrReviewDuplicate
	}

	review := &models.Review{
		ListingID:   input.ListingID,
		UserID:      input.UserID,
		Rating:      input.Rating,
		Title:       strings.TrimSpace(input.Title),
		Body:        input.Body,
		TenancyFrom: input.TenancyFrom,
		TenancyTo:   input.TenancyTo,
		Status:      constants.ReviewStatusPending,
	}
	if err := s.reviewRepo.Create(review); err != nil {
		// 唯一索引兜底并发重复提交
		if isDuplicateKeyError(err) {
			return nil, ErrReviewDuplicate
		}
		return nil, fmt.Errorf("%w: %v", ErrDBUnavailable, err)
	}

	if err := s.queue.EnqueueModerationNotify(queue.ModerationNotifyPayload{
		Kind:        "review",
		SubjectLine: fmt.Sprintf("New review pending moderation for listing #%d", input.ListingID),
	}); err != nil {
		logger.Warnw("moderation_notify_enqueue_failed", "kind", "review", "error", err)
	}

	return review, nil
}

// ListApproved 查询房源已通过点评
func (s *ReviewService) ListApproved(listingID uint, page, pageSize int) ([]models.Review, int64, error) {
	return s.reviewRepo.List(repository.ReviewListFilter{
		ListingID: listingID,
		Status:    constants.ReviewStatusApproved,
		Page:      page,
		PageSize:  pageSize,
	})
}

// ListMine 查询用户自己的点评
func (s *ReviewService) ListMine(userID uint, page, pageSize int) ([]models.Review, int64, error) {
	return s.reviewRepo.List(repository.ReviewListFilter{
		UserID:   userID,
		Page:     page,
		PageSize: pageSize,
	})
}

// ListAdmin 后台查询点评列表
func (s *ReviewService) ListAdmin(filter repository.ReviewListFilter) ([]models.Review, int64, error) {
	return s.reviewRepo.List(filter)
}

// PendingCount 待审点评数量
func (s *ReviewService) PendingCount() (int64, error) {
	return s.reviewRepo.CountByStatus(constants.ReviewStatusPending)
}

// Moderate 审核点评
// 通过后同步刷新房源冗余评分；审核动作进审计流水。
func (s *ReviewService) Moderate(reviewID uint, approve bool, moderatorID uint, note string) (*models.Review, error) {
	review, err := s.reviewRepo.GetByID(reviewID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDBUnavailable, err)
	}
	if review == nil {
		return nil, ErrReviewNotFound
	}

	status := constants.ReviewStatusRejected
	if approve {
		status = constants.ReviewStatusApproved
	}
	now := s.now().UTC()
	if err := s.reviewRepo.Moderate(reviewID, status, moderatorID, strings.TrimSpace(note), now); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStatusTransition
		}
		return nil, fmt.Errorf("%w: %v", ErrDBUnavailable, err)
	}

	if approve && s.listingSvc != nil {
		if err := s.listingSvc.RefreshRatingStats(review.ListingID); err != nil {
			logger.Warnw("listing_rating_refresh_failed",
				"listing_id", review.ListingID,
				"error", err,
			)
		}
	}

	if s.audit != nil {
		s.audit.Record(AuditEventInput{
			EventType: constants.AuditEventModerationReview,
			Outcome:   constants.AuditOutcomeOK,
			ActorID:   &moderatorID,
			Detail:    fmt.Sprintf("review:%d status:%s", reviewID, status),
		})
	}

	return s.reviewRepo.GetByID(reviewID)
}

// isDuplicateKeyError 判断唯一索引冲突
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
