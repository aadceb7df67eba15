// Package dto defines data transfer objects for the posts feature's HTTP transport layer.
package dto

// CreatePostReq is the body of POST /posts. Images are temp file names returned by the upload endpoint.
type CreatePostReq struct {
	Title   string   `json:"title" binding:"required,max=100"`
	Content string   `json:"content" binding:"required"`
	Images  []string `json:"images" binding:"omitempty,dive,required"`
}

// UpdatePostReq is the body of PATCH /posts/:id. Omitted fields are kept.
type UpdatePostReq struct {
	Title   *string `json:"title" binding:"omitempty,min=1,max=100"`
	Content *string `json:"content" binding:"omitempty,min=1"`
}

// RandomPostsReq is the body of POST /posts/random.
type RandomPostsReq struct {
	Count int `json:"count" binding:"omitempty,min=1,max=1000"`
}

// RandomPostsRes reports how many posts were generated.
type RandomPostsRes struct {
	Created int `json:"created"`
}

// UploadImageRes is the body of a successful image upload.
type UploadImageRes struct {
	FileName string `json:"fileName"`
}
