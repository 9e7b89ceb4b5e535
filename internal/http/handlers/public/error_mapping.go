package public

import (
	"errors"

	"github.com/roomnest-next/internal/http/response"
	"github.com/roomnest-next/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	key    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackKey string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.key, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackKey, err)
}

var reviewSubmitErrorRules = []mappedHandlerError{
	{target: service.ErrRatingInvalid, code: response.CodeBadRequest, key: "error.rating_invalid"},
	{target: service.ErrListingNotFound, code: response.CodeNotFound, key: "error.listing_not_found"},
	{target: service.ErrReviewDuplicate, code: response.CodeConflict, key: "error.review_duplicate"},
	{target: service.ErrDBUnavailable, code: response.CodeServiceUnavailable, key: "error.service_unavailable"},
}

var contactEditSubmitErrorRules = []mappedHandlerError{
	{target: service.ErrContactFieldInvalid, code: response.CodeBadRequest, key: "error.contact_field_invalid"},
	{target: service.ErrListingNotFound, code: response.CodeNotFound, key: "error.listing_not_found"},
	{target: service.ErrContactEditPendingExists, code: response.CodeConflict, key: "error.contact_edit_pending"},
	{target: service.ErrDBUnavailable, code: response.CodeServiceUnavailable, key: "error.service_unavailable"},
}

func respondReviewSubmitError(c *gin.Context, err error) {
	respondWithMappedError(c, err, reviewSubmitErrorRules, response.CodeInternal, "error.internal")
}

func respondContactEditSubmitError(c *gin.Context, err error) {
	respondWithMappedError(c, err, contactEditSubmitErrorRules, response.CodeInternal, "error.internal")
}
