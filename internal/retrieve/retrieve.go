// Package retrieve 编排一次检索：fetch -> parse/locate -> fallback -> 组装响应。
package retrieve

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/John-Robertt/hukam/internal/domain"
	"github.com/John-Robertt/hukam/internal/fallback"
	"github.com/John-Robertt/hukam/internal/normalize"
	"github.com/John-Robertt/hukam/internal/provider"
)

// Service 是无状态的检索服务；字段在构造后只读，可被并发请求共享。
//
// 约束：
// - Retrieve 永不返回错误：fetch/parse 失败一律降级为兜底响应
// - 每次调用最多一次出站请求（不重试、不缓存）
// - 每次调用输出一条结构化摘要日志
type Service struct {
	Provider provider.Provider
	Client   *http.Client
	Policy   fallback.Policy
	Logger   *zap.Logger

	// Timeout 为 0 时只依赖调用方 ctx 与 http.Client 自身超时。
	Timeout time.Duration

	Now   func() time.Time
	NewID func() string
}

// Trace 是一次检索的完整过程记录（CLI fetch --snapshot 与测试使用）。
type Trace struct {
	Response   domain.Response
	PageURL    string
	HTML       []byte
	Attempts   []provider.Attempt
	Extraction domain.Extraction
	Decisions  fallback.Decisions
	Err        error
	Duration   time.Duration
}

// Retrieve 执行一次检索并返回对外响应。
func (s *Service) Retrieve(ctx context.Context) domain.Response {
	return s.RetrieveTrace(ctx).Response
}

// RetrieveTrace 与 Retrieve 相同，但额外返回原始 HTML 与过程信息。
func (s *Service) RetrieveTrace(ctx context.Context) Trace {
	started := time.Now()
	id := s.newID()
	log := s.logger().With(zap.String("request_id", id))

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	var tr Trace
	tr.Extraction, tr.PageURL, tr.HTML, tr.Attempts, tr.Err = provider.FetchParseTrace(ctx, s.Provider, s.Client)

	if tr.Err != nil {
		code := provider.ErrorCode(tr.Err)
		tr.Response = domain.Response{
			Success:   false,
			Error:     s.Policy.Content.DegradedError,
			Data:      s.Policy.Canonical(),
			Timestamp: s.now(),
			Note:      s.Policy.Content.DegradedNote,
			RequestID: id,
			ErrorCode: code,
		}
		tr.Duration = time.Since(started)
		log.Warn("hukamnama degraded",
			zap.String("error_code", code),
			zap.Error(tr.Err),
			zap.String("url", tr.PageURL),
			zap.Duration("duration", tr.Duration),
		)
		return tr
	}

	reading, d := s.Policy.Apply(tr.Extraction)
	tr.Decisions = d
	tr.Response = domain.Response{
		Success:    true,
		Data:       reading,
		Timestamp:  s.now(),
		Provenance: s.Policy.Content.Provenance,
		RequestID:  id,
	}
	tr.Duration = time.Since(started)

	log.Info("hukamnama extracted",
		zap.String("url", tr.PageURL),
		zap.String("date", reading.Date),
		zap.String("ang", reading.Ang),
		zap.String("raag", reading.Raag),
		zap.Int("gurmukhi_len", normalize.Len(reading.Gurmukhi)),
		zap.Int("punjabi_len", normalize.Len(reading.Punjabi)),
		zap.Int("english_len", normalize.Len(reading.English)),
		zap.Bool("has_audio", reading.AudioHukamnama != ""),
		zap.Bool("has_katha", reading.AudioKatha != ""),
		zap.Bool("has_pdf", reading.PDFLink != ""),
		zap.Strings("missing", fieldNames(d.Incomplete)),
		zap.Bool("fallback", d.Any()),
		zap.Bool("date_filled", d.DateFilled),
		zap.Bool("canonical_group", d.CanonicalGroup),
		zap.Bool("translation_notice", d.TranslationNotice),
		zap.Bool("transliteration_notice", d.TransliterationNotice),
		zap.Duration("duration", tr.Duration),
	)
	return tr
}

func (s *Service) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

func fieldNames(in []domain.FieldName) []string {
	out := make([]string, 0, len(in))
	for _, f := range in {
		out = append(out, string(f))
	}
	return out
}
