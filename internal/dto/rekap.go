package dto

// RekapQuery selects finished submissions for recap export.
type RekapQuery struct {
	Format string `form:"format" validate:"omitempty,oneof=csv pdf"`
	Stage  string `form:"stage" validate:"omitempty,oneof=completed rejected"`
	Page   int    `form:"page"`
	// PageSize caps the number of exported rows per request.
	PageSize int `form:"page_size"`
}
