package dto

// UpdateUserReq is the body of PATCH /users/:id.
type UpdateUserReq struct {
	Name string `json:"name" binding:"required,min=1,max=20"`
}
