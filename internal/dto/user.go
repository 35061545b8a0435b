package dto

// CreateUserRequest provisions a new account.
type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"full_name" validate:"required,max=255"`
	Role     string `json:"role" validate:"required,oneof=superadmin admin user review validasi form rekap"`
}

// UpdateUserRequest modifies account fields.
type UpdateUserRequest struct {
	FullName *string `json:"full_name" validate:"omitempty,max=255"`
	Role     *string `json:"role" validate:"omitempty,oneof=superadmin admin user review validasi form rekap"`
	Active   *bool   `json:"active"`
}

// UserQuery captures list filters for the user directory.
type UserQuery struct {
	Role     string `form:"role"`
	Search   string `form:"search"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}
