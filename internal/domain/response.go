package domain

import (
	"encoding/json"
	"time"
)

const (
	ErrCodeFetchFailed = "fetch_failed"
	ErrCodeParseFailed = "parse_failed"
)

// TimestampLayout 与前端既有的 ISO 时间格式一致（UTC，毫秒，Z 后缀）。
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Response 是 GET /api/hukamnama 的对外稳定输出。
//
// 两种形态：
// - success=true：data + timestamp + provenance
// - success=false（降级）：error + data（兜底内容）+ timestamp + note
//
// 无论哪种形态，data 都必须是可直接渲染的完整记录。
type Response struct {
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
	Data       Reading   `json:"data"`
	Timestamp  time.Time `json:"-"`
	Provenance string    `json:"provenance,omitempty"`
	Note       string    `json:"note,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`

	// ErrorCode 只用于日志（fetch_failed / parse_failed），不进入 JSON。
	ErrorCode string `json:"-"`
}

// MarshalJSON 把 Timestamp 固定为 UTC 毫秒格式。
func (r Response) MarshalJSON() ([]byte, error) {
	type Alias Response
	return json.Marshal(struct {
		Alias
		Timestamp string `json:"timestamp"`
	}{
		Alias:     Alias(r),
		Timestamp: r.Timestamp.UTC().Format(TimestampLayout),
	})
}

// Degraded 表示该响应不是实时抓取的内容。
func (r Response) Degraded() bool { return !r.Success }
