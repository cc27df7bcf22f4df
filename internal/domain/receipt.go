package domain

import "time"

// UploadTicket is what an issued upload token remembers until it is consumed.
type UploadTicket struct {
	Token       string    `json:"token"`
	ObjectName  string    `json:"objectName"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"contentType"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

type UploadTokenRequest struct {
	Filename    string `json:"filename" validate:"required,max=255"`
	ContentType string `json:"contentType" validate:"required"`
}

type UploadTokenResponse struct {
	Token      string    `json:"token"`
	ObjectName string    `json:"objectName"`
	UploadURL  string    `json:"uploadUrl"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

type UploadResponse struct {
	URL string `json:"url"`
}
