package helpers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yigit/alumnisphere/internal/app/models/dto"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	DefaultPage     = 1 // pages are 1-based
)

// NormalizePage clamps page and size to their valid ranges.
func NormalizePage(page, size int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}
	return page, size
}

// CalculateOffsetLimit calculates the offset and limit for queries based on 1-based page index.
func CalculateOffsetLimit(page, size int) (offset uint64, limit int) {
	page, limit = NormalizePage(page, size)
	offset = uint64((page - 1) * limit)
	return offset, limit
}

// TotalPages returns ceil(totalItems/size); an empty result has zero pages.
func TotalPages(totalItems int64, size int) int {
	if size <= 0 || totalItems <= 0 {
		return 0
	}
	s := int64(size)
	return int((totalItems + s - 1) / s)
}

// NewPaginationInfo creates a standard PaginationInfo DTO.
// page is reported as requested even when it lies past the last page.
func NewPaginationInfo(totalItems int64, page, size int) dto.PaginationInfo {
	page, size = NormalizePage(page, size)
	return dto.PaginationInfo{
		CurrentPage: page,
		TotalPages:  TotalPages(totalItems, size),
		PageSize:    size,
		TotalItems:  totalItems,
	}
}

// ParsePaginationParams extracts and validates pagination parameters from the request.
// Both "size" and "limit" are accepted for the page size.
func ParsePaginationParams(c *gin.Context) (page, size int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = DefaultPage
	}

	sizeStr := c.Query("size")
	if sizeStr == "" {
		sizeStr = c.DefaultQuery("limit", strconv.Itoa(DefaultPageSize))
	}
	size, err = strconv.Atoi(sizeStr)
	if err != nil || size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}

	return page, size
}
