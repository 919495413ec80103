package api

import "msgrelay/pkg/models"

// SendResponse confirms an envelope was handed to the publisher.
type SendResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	MessageID string `json:"messageId"`
}

// SendSimpleResponse echoes the content actually published.
type SendSimpleResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	MessageID string `json:"messageId"`
	Content   string `json:"content"`
}

type HealthResponse struct {
	Status    string           `json:"status"`
	Service   string           `json:"service"`
	Timestamp models.Timestamp `json:"timestamp"`
}
