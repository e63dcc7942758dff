package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sparks-2204/course-recommendation-system/internal/app/models"
	"github.com/sparks-2204/course-recommendation-system/internal/app/models/dto"
	"github.com/sparks-2204/course-recommendation-system/internal/app/repositories"
	"github.com/sparks-2204/course-recommendation-system/internal/app/services"
	"github.com/sparks-2204/course-recommendation-system/internal/middleware"
	"github.com/sparks-2204/course-recommendation-system/internal/pkg/helpers"
)

// UserController handles user administration
type UserController struct {
	userService services.UserService
}

// NewUserController creates a new user controller
func NewUserController(userService services.UserService) *UserController {
	return &UserController{
		userService: userService,
	}
}

// ListUsers lists users with optional role and search filters
// @Summary List users
// @Description Lists users newest first. Search matches name, email or student ID.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param role query string false "Role" Enums(student, faculty, admin)
// @Param search query string false "Search term"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Success 200 {object} dto.APIResponse{data=dto.UserListResponse}
// @Failure 403 {object} dto.APIResponse "Forbidden"
// @Router /admin/users [get]
func (c *UserController) ListUsers(ctx *gin.Context) {
	var req dto.UserFilterRequest
	if !middleware.BindQuery(ctx, &req) {
		return
	}
	page := helpers.ParsePaginationParams(ctx)

	filter := repositories.UserFilter{Role: models.Role(req.Role), Search: req.Search}
	users, total, err := c.userService.ListUsers(ctx.Request.Context(), filter, page)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.UserListResponse{
		Users:      dto.FromUsers(users),
		Pagination: helpers.NewPaginationInfo(total, page),
	}))
}

// UpdateRole changes a user's role
// @Summary Update user role
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param userId path int true "User ID"
// @Param request body dto.UpdateRoleRequest true "New role"
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse}
// @Failure 403 {object} dto.APIResponse "Cannot change own role"
// @Failure 404 {object} dto.APIResponse "User not found"
// @Router /admin/users/{userId}/role [put]
func (c *UserController) UpdateRole(ctx *gin.Context) {
	actorID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	userID, ok := parseIDParam(ctx, "userId")
	if !ok {
		return
	}

	var req dto.UpdateRoleRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	user, err := c.userService.UpdateRole(ctx.Request.Context(), actorID, userID, models.Role(req.Role))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.FromUser(user)))
}
