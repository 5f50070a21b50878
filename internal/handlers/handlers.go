package handlers

import (
	"net/http"
	"strconv"

	"cafe_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// currentUserID extracts the authenticated user's ID set by the auth
// middleware. A missing or mistyped value aborts the request.
func currentUserID(c *gin.Context) (int64, bool) {
	value, exists := c.Get("userID")
	if !exists {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "User not authenticated.", "Missing user ID in context"))
		return 0, false
	}
	userID, ok := value.(int64)
	if !ok {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "User not authenticated.", "Invalid user ID in context"))
		return 0, false
	}
	return userID, true
}

// pathID parses the named path parameter as an int64 ID.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid "+name+" format.", "must be a positive integer"))
		return 0, false
	}
	return id, true
}

// pagination reads page/page_size query parameters with defaults.
func pagination(c *gin.Context) (page, pageSize int, ok bool) {
	page, pageSize = 1, 20
	if pageStr := c.Query("page"); pageStr != "" {
		p, err := strconv.Atoi(pageStr)
		if err != nil || p <= 0 {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid page format.", "page must be a positive integer"))
			return 0, 0, false
		}
		page = p
	}
	if pageSizeStr := c.Query("page_size"); pageSizeStr != "" {
		ps, err := strconv.Atoi(pageSizeStr)
		if err != nil || ps <= 0 {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid page_size format.", "page_size must be a positive integer"))
			return 0, 0, false
		}
		pageSize = ps
	}
	return page, pageSize, true
}

// listResponse is the common envelope for paginated collections.
func listResponse(data interface{}, total, page, pageSize int) gin.H {
	return gin.H{
		"data":      data,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	}
}
