package shared

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const maxPageSize = 100

// ParsePagination 读取 page/page_size 查询参数，非法值回落到默认值
func ParsePagination(c *gin.Context, defaultPageSize int) (int, int) {
	page, _ := strconv.Atoi(c.Query("page"))
	pageSize, err := strconv.Atoi(c.Query("page_size"))
	if err != nil || pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return NormalizePagination(page, pageSize)
}

// NormalizePagination 归一化分页参数。
func NormalizePagination(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}
