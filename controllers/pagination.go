package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// parsePagination reads page and page_size, falling back to defaultSize for
// missing or out of range sizes.
func parsePagination(pageStr, sizeStr string, defaultSize, maxSize int) (int, int) {
	page := 1
	pageSize := defaultSize
	if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
		page = p
	}
	if s, err := strconv.Atoi(sizeStr); err == nil && s > 0 && s <= maxSize {
		pageSize = s
	}
	return page, pageSize
}

func paginated(items interface{}, page, pageSize int, total int64) gin.H {
	return gin.H{
		"items": items,
		"pagination": gin.H{
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": int((total + int64(pageSize) - 1) / int64(pageSize)),
		},
	}
}

// parseID reads a numeric path parameter; anything else names no resource.
func parseID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
