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

// ContactEditService 联系方式修改申请服务
// 联系方式变更不直接生效，走申请 + 审核两段式。
type ContactEditService struct {
	requestRepo repository.ContactEditRequestRepository
	listingRepo repository.ListingRepository
	queue       *queue.Client
	audit       *SecurityAuditService
	now         func() time.Time
}

// NewContactEditService 创建联系方式修改申请服务
func NewContactEditService(
	requestRepo repository.ContactEditRequestRepository,
	listingRepo repository.ListingRepository,
	queueClient *queue.Client,
	audit *SecurityAuditService,
) *ContactEditService {
	return &ContactEditService{
		requestRepo: requestRepo,
		listingRepo: listingRepo,
		queue:       queueClient,
		audit:       audit,
		now:         time.Now,
	}
}

// SubmitContactEditInput 提交修改申请输入
type SubmitContactEditInput struct {
	ListingID uint
	UserID    uint
	Field     string
	NewValue  string
	Reason    string
}

// Submit 提交修改申请
// 同一房源同一字段同时只允许一条待审申请。
func (s *ContactEditService) Submit(input SubmitContactEditInput) (*models.ContactEditRequest, error) {
	switch input.Field {
	case constants.ContactEditFieldEmail, constants.ContactEditFieldPhone:
	default:
		return nil, ErrContactFieldInvalid
	}
	newValue := strings.TrimSpace(input.NewValue)
	if newValue == "" {
		return nil, ErrContactFieldInvalid
	}

	listing, err := s.listingRepo.GetByID(input.ListingID, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDBUnavailable, err)
	}
	if listing == nil {
		return nil, ErrListingNotFound
	}

	pending, err := s.requestRepo.HasPending(input.ListingID, input.Field)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDBUnavailable, err)
	}
	if pending {
		return nil, ErrContactEditPendingExists
	}

	oldValue := listing.ContactEmail
	if input.Field == constants.ContactEditFieldPhone {
		oldValue = listing.ContactPhone
	}

	request := &models.ContactEditRequest{
		ListingID: input.ListingID,
		UserID:    input.UserID,
		Field:     input.Field,
		OldValue:  oldValue,
		NewValue:  newValue,
		Reason:    input.Reason,
		Status:    constants.ContactEditStatusPending,
	}
	if err := s.requestRepo.Create(request); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDBUnavailable, err)
	}

	if err := s.queue.EnqueueModerationNotify(queue.ModerationNotifyPayload{
		Kind:        "contact_edit",
		SubjectLine: fmt.Sprintf("Contact edit request pending for listing #%d", input.ListingID),
	}); err != nil {
		logger.Warnw("moderation_notify_enqueue_failed", "kind", "contact_edit", "error", err)
	}

	return request, nil
}

// ListMine 查询用户自己的申请
func (s *ContactEditService) ListMine(userID uint, page, pageSize int) ([]models.ContactEditRequest, int64, error) {
	return s.requestRepo.List(repository.ContactEditListFilter{
		UserID:   userID,
		Page:     page,
		PageSize: pageSize,
	})
}

// ListAdmin 后台查询申请列表
func (s *ContactEditService) ListAdmin(filter repository.ContactEditListFilter) ([]models.ContactEditRequest, int64, error) {
	return s.requestRepo.List(filter)
}

// PendingCount 待审申请数量
func (s *ContactEditService) PendingCount() (int64, error) {
	return s.requestRepo.CountByStatus(constants.ContactEditStatusPending)
}

// Moderate 审核修改申请
// 通过时把新值落到房源字段；申请状态先行流转，字段写入失败只告警。
func (s *ContactEditService) Moderate(requestID uint, approve bool, moderatorID uint, note string) (*models.ContactEditRequest, error) {
	request, err := s.requestRepo.GetByID(requestID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDBUnavailable, err)
	}
	if request == nil {
		return nil, ErrContactEditNotFound
	}

	status := constants.ContactEditStatusRejected
	if approve {
		status = constants.ContactEditStatusApproved
	}
	now := s.now().UTC()
	if err := s.requestRepo.Moderate(requestID, status, moderatorID, strings.TrimSpace(note), now); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStatusTransition
		}
		return nil, fmt.Errorf("%w: %v", ErrDBUnavailable, err)
	}

	if approve {
		if err := s.listingRepo.UpdateContactField(request.ListingID, request.Field, request.NewValue); err != nil {
			logger.Errorw("contact_field_apply_failed",
				"listing_id", request.ListingID,
				"field", request.Field,
				"error", err,
			)
		}
	}

	if s.audit != nil {
		s.audit.Record(AuditEventInput{
			EventType: constants.AuditEventAdminAction,
			Outcome:   constants.AuditOutcomeOK,
			ActorID:   &moderatorID,
			Detail:    fmt.Sprintf("contact_edit:%d status:%s", requestID, status),
		})
	}

	return s.requestRepo.GetByID(requestID)
}
