// Package dto defines data transfer objects for the chats feature's HTTP and websocket transport.
package dto

// CreateChatReq is the body of POST /chats. The caller is always added as a member.
type CreateChatReq struct {
	UserIDs []uint `json:"userIds" binding:"required,min=1,dive,gt=0"`
}

// CreateMessageReq is the body of POST /chats/:id/messages and of every incoming websocket frame.
type CreateMessageReq struct {
	Text string `json:"text" binding:"required,max=500"`
}

// ErrorFrame is sent over the websocket when an incoming frame is rejected.
type ErrorFrame struct {
	Error string `json:"error"`
}
