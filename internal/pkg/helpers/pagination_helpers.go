package helpers

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sparks-2204/course-recommendation-system/internal/app/models/dto"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	DefaultPage     = 1
)

// Page is a normalized 1-based page request
type Page struct {
	Number int
	Size   int
}

// NormalizePage clamps page and size into the accepted range
func NormalizePage(page, size int) Page {
	if page < 1 {
		page = DefaultPage
	}
	if size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}
	return Page{Number: page, Size: size}
}

// OffsetLimit returns the SQL offset and limit for the page
func (p Page) OffsetLimit() (offset uint64, limit uint64) {
	return uint64((p.Number - 1) * p.Size), uint64(p.Size)
}

// SliceBounds returns the [start, end) indices of the page within n items
func (p Page) SliceBounds(n int) (start, end int) {
	start = (p.Number - 1) * p.Size
	if start > n {
		start = n
	}
	end = start + p.Size
	if end > n {
		end = n
	}
	return start, end
}

// NewPaginationInfo creates a standard PaginationInfo DTO.
func NewPaginationInfo(totalItems int64, p Page) dto.PaginationInfo {
	totalPages := 0
	if totalItems > 0 {
		totalPages = int(math.Ceil(float64(totalItems) / float64(p.Size)))
	} else if p.Number == 1 {
		totalPages = 1
	}

	currentPage := p.Number
	if totalPages > 0 && currentPage > totalPages {
		currentPage = totalPages
	}

	return dto.PaginationInfo{
		CurrentPage: currentPage,
		TotalPages:  totalPages,
		PageSize:    p.Size,
		TotalItems:  totalItems,
	}
}

// ParsePaginationParams extracts page and size query parameters
func ParsePaginationParams(c *gin.Context) Page {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		page = DefaultPage
	}
	size, err := strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(DefaultPageSize)))
	if err != nil {
		size = DefaultPageSize
	}
	return NormalizePage(page, size)
}
