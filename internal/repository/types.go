package repository

import "time"

// ListingListFilter 查询房源列表的过滤条件
type ListingListFilter struct {
	Page       int
	PageSize   int
	City       string
	District   string
	Search     string
	Status     string
	OnlyPublic bool
	WithImages bool
}

// ReviewListFilter 查询点评列表的过滤条件
type ReviewListFilter struct {
	Page      int
	PageSize  int
	ListingID uint
	UserID    uint
	Status    string
}

// ContactEditListFilter 查询联系方式修改申请列表的过滤条件
type ContactEditListFilter struct {
	Page      int
	PageSize  int
	ListingID uint
	UserID    uint
	Status    string
}

// UserListFilter 查询用户列表的过滤条件
type UserListFilter struct {
	Page        int
	PageSize    int
	Keyword     string
	Role        string
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// AuditEventListFilter 查询安全审计事件列表的过滤条件
type AuditEventListFilter struct {
	Page        int
	PageSize    int
	EventType   string
	Outcome     string
	EmailNorm   string
	IPKey       string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}
