package dto

import "ai-buildguide-be/internal/pkg/logger"

// LogListResponse uses string for Id because log IDs are MD5 hashes, not UUIDs
type LogListResponse struct {
	Id        string `json:"id"`
	Level     string `json:"level"`
	Module    string `json:"module"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type LogDetailResponse struct {
	LogListResponse
	Details map[string]interface{} `json:"details"`
}

func NewLogListResponse(e logger.LogEntry) LogListResponse {
	return LogListResponse{
		Id:        e.Id,
		Level:     e.Level,
		Module:    e.Module,
		Message:   e.Message,
		Timestamp: e.Timestamp,
	}
}

func NewLogDetailResponse(e *logger.LogEntry) LogDetailResponse {
	return LogDetailResponse{
		LogListResponse: NewLogListResponse(*e),
		Details:         e.Details,
	}
}
