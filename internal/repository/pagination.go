package repository

import "gorm.io/gorm"

// applyPagination 给列表查询追加 limit/offset
// pageSize 不大于零表示不分页，审计列表导出场景会用到。
func applyPagination(query *gorm.DB, page, pageSize int) *gorm.DB {
	if query == nil || pageSize <= 0 {
		return query
	}
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pageSize
	if offset < 0 {
		offset = 0
	}
	return query.Limit(pageSize).Offset(offset)
}
