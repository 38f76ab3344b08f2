package dto

// ==================== 通用 DTO 定义 ====================

// PaginationInfo 分页信息 DTO
type PaginationInfo struct {
	Page       int   `json:"page"`       // 当前页码
	PageSize   int   `json:"pageSize"`   // 每页大小
	Total      int64 `json:"total"`      // 总记录数
	TotalPages int   `json:"totalPages"` // 总页数
}

// NewPaginationInfo 根据总数计算分页信息
func NewPaginationInfo(page, pageSize int, total int64) *PaginationInfo {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return &PaginationInfo{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	}
}
