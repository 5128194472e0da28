package helpers

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/uniadmit/admission/internal/app/models/dto"
)

const (
	DefaultPage    = 1
	DefaultPerPage = 10
	MaxPerPage     = 100
	// MaxUserPerPage caps admin user listings.
	MaxUserPerPage = 50
)

// NormalizePage clamps page and perPage into valid ranges. The offset they
// imply never exceeds math.MaxInt32.
func NormalizePage(page, perPage, maxPerPage int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if maxPerPage > 0 && perPage > maxPerPage {
		perPage = maxPerPage
	}
	if perPage > math.MaxInt32 {
		perPage = math.MaxInt32
	}
	if maxPage := math.MaxInt32 / perPage; page > maxPage {
		page = maxPage
	}
	return page, perPage
}

// CalculateOffsetLimit converts a 1-based page into SQL offset and limit.
func CalculateOffsetLimit(page, perPage int) (offset uint64, limit uint64) {
	page, perPage = NormalizePage(page, perPage, 0)
	return uint64((page - 1) * perPage), uint64(perPage)
}

// NewPaginationInfo builds the pagination block. pages is 0 when total is 0.
func NewPaginationInfo(total int64, page, perPage int) dto.PaginationInfo {
	page, perPage = NormalizePage(page, perPage, 0)

	pages := 0
	if total > 0 {
		pages = int((total + int64(perPage) - 1) / int64(perPage))
	}

	return dto.PaginationInfo{
		Page:    page,
		PerPage: perPage,
		Total:   total,
		Pages:   pages,
		HasNext: page < pages,
		HasPrev: page > 1,
	}
}

// ParsePaginationParams reads page and per_page from the query string.
// Invalid values fall back to defaults; per_page is capped at maxPerPage.
func ParsePaginationParams(c *gin.Context, defaultPerPage, maxPerPage int) (page, perPage int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		page = DefaultPage
	}
	perPage, err = strconv.Atoi(c.DefaultQuery("per_page", strconv.Itoa(defaultPerPage)))
	if err != nil {
		perPage = defaultPerPage
	}
	return NormalizePage(page, perPage, maxPerPage)
}
