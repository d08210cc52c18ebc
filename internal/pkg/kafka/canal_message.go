package kafka

import (
	"errors"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
)

// canal 变更类型
const (
	INSERT = "INSERT"
	UPDATE = "UPDATE"
	DELETE = "DELETE"
)

// CanalMessage 定义了 Canal 推送到 Kafka 的 JSON 数据结构
type CanalMessage struct {
	ID       int64    `json:"id"`
	Database string   `json:"database"`
	Table    string   `json:"table"`
	PKNames  []string `json:"pkNames"`
	IsDDL    bool     `json:"isDdl"`
	Type     string   `json:"type"`
	ES       int64    `json:"es"`
	TS       int64    `json:"ts"`

	// Data 存储变更后的数据
	Data []map[string]interface{} `json:"data"`

	// Old 存储变更前的数据
	Old []map[string]interface{} `json:"old"`
}

// ColumnString canal 以字符串输出列值，数字类型的兜底转换
func ColumnString(row map[string]interface{}, column string) string {
	switch v := row[column].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprint(v)
	}
}

var (
	ErrTableMismatch = errors.New("table name not match")
	ErrEmptyData     = errors.New("data is empty")
)

// ToCanalMessage 解析 canal 消息并校验表名，DDL 与其他表的变更返回错误由调用方跳过
func ToCanalMessage(msg *sarama.ConsumerMessage, tableName string) (*CanalMessage, error) {
	var canalMsg CanalMessage
	if err := json.Unmarshal(msg.Value, &canalMsg); err != nil {
		return nil, fmt.Errorf("unmarshal canal message at offset %d: %w", msg.Offset, err)
	}
	if canalMsg.Table != tableName {
		return nil, fmt.Errorf("%w: %s", ErrTableMismatch, canalMsg.Table)
	}
	if len(canalMsg.Data) == 0 {
		return nil, ErrEmptyData
	}
	return &canalMsg, nil
}
