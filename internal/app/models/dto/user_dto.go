package dto

// UserFilterRequest represents user filtering parameters
type UserFilterRequest struct {
	Role   string `form:"role" binding:"omitempty,oneof=student faculty admin"`
	Search string `form:"search" binding:"omitempty,max=100"`
}

// UpdateRoleRequest changes a user's role
type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=student faculty admin"`
}

// AssignCourseRequest enrolls a student on an admin's behalf
type AssignCourseRequest struct {
	CourseID int64 `json:"courseId" binding:"required,min=1"`
}

// UserListResponse represents a list of users with pagination
type UserListResponse struct {
	Users      []*UserResponse `json:"users"`
	Pagination PaginationInfo  `json:"pagination"`
}
