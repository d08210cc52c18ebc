package dto

// Response HTTP 统一响应体
type Response struct {
	Code    int         `json:"Code"`
	Message string      `json:"Message"`
	Data    interface{} `json:"Data"`
}
