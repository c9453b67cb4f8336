package retrieve

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/John-Robertt/hukam/internal/domain"
	"github.com/John-Robertt/hukam/internal/fallback"
	"github.com/John-Robertt/hukam/internal/normalize"
	"github.com/John-Robertt/hukam/internal/provider/sgpc"
)

var fixedNow = time.Date(2026, 10, 16, 6, 0, 0, 123e6, time.UTC)

func newService(t *testing.T, srv *httptest.Server) (*Service, *observer.ObservedLogs) {
	t.Helper()
	p, err := sgpc.New(srv.URL+"/index.php", srv.URL, nil)
	if err != nil {
		t.Fatalf("sgpc.New 失败：%v", err)
	}
	pol := fallback.New()
	pol.Now = func() time.Time { return fixedNow }
	pol.Location = time.UTC

	core, logs := observer.New(zapcore.DebugLevel)
	return &Service{
		Provider: p,
		Client:   srv.Client(),
		Policy:   pol,
		Logger:   zap.New(core),
		Now:      func() time.Time { return fixedNow },
		NewID:    func() string { return "req-1" },
	}, logs
}

func serveHTML(body string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(body))
	}))
}

func TestRetrieve_Upstream500Degrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s, logs := newService(t, srv)
	resp := s.Retrieve(context.Background())

	c := s.Policy.Content
	if resp.Success {
		t.Fatalf("上游 500 时 success 应为 false")
	}
	if resp.Data.Gurmukhi != normalize.Text(c.Canonical.Gurmukhi) {
		t.Fatalf("期望兜底 Gurmukhi，实际 %q", resp.Data.Gurmukhi)
	}
	if resp.Data.Ang != "1" {
		t.Fatalf("期望 ang=1，实际 %q", resp.Data.Ang)
	}
	if resp.Error != c.DegradedError || resp.Note != c.DegradedNote {
		t.Fatalf("降级响应缺少 error/note：%+v", resp)
	}
	if resp.ErrorCode != domain.ErrCodeFetchFailed {
		t.Fatalf("期望 %q，实际 %q", domain.ErrCodeFetchFailed, resp.ErrorCode)
	}
	if resp.Data.Source != c.FallbackSource {
		t.Fatalf("降级响应的 source 应为兜底来源，实际 %q", resp.Data.Source)
	}
	if resp.Provenance != "" {
		t.Fatalf("降级响应不应带 provenance")
	}
	if resp.RequestID != "req-1" {
		t.Fatalf("request id 不符合预期：%q", resp.RequestID)
	}

	entries := logs.FilterMessage("hukamnama degraded").All()
	if len(entries) != 1 || entries[0].Level != zapcore.WarnLevel {
		t.Fatalf("期望一条 warn 日志，实际 %d 条", len(entries))
	}
	if got := entries[0].ContextMap()["error_code"]; got != domain.ErrCodeFetchFailed {
		t.Fatalf("日志 error_code 不符合预期：%v", got)
	}
}

func TestRetrieve_LongGurmukhiNoEnglish(t *testing.T) {
	g := strings.Repeat("ਸ", 200)
	srv := serveHTML(`<html><body><div class="hukamnama-card"><div class="hukamnama-text">` + g + `</div></div></body></html>`)
	defer srv.Close()

	s, _ := newService(t, srv)
	resp := s.Retrieve(context.Background())

	if !resp.Success {
		t.Fatalf("抓取与解析成功时 success 应为 true：%+v", resp)
	}
	if resp.Data.Gurmukhi != g {
		t.Fatalf("通过阈值的 Gurmukhi 不应被修改")
	}
	if resp.Data.English != s.Policy.Content.TranslationUnavailable {
		t.Fatalf("期望 English 为不可用提示，实际 %q", resp.Data.English)
	}
	if resp.Provenance != s.Policy.Content.Provenance {
		t.Fatalf("成功响应缺少 provenance")
	}
}

func TestRetrieve_SingleAudio(t *testing.T) {
	srv := serveHTML(`<html><body><audio src="/audio/x.mp3"></audio></body></html>`)
	defer srv.Close()

	s, _ := newService(t, srv)
	resp := s.Retrieve(context.Background())

	if resp.Data.AudioHukamnama != srv.URL+"/audio/x.mp3" {
		t.Fatalf("audioHukamnama 不符合预期：%q", resp.Data.AudioHukamnama)
	}
	if resp.Data.AudioKatha != "" {
		t.Fatalf("audioKatha 应为空，实际 %q", resp.Data.AudioKatha)
	}

	b, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("Marshal 失败：%v", err)
	}
	if strings.Contains(string(b), "audioKatha") {
		t.Fatalf("空 audioKatha 不应出现在 JSON 中：%s", b)
	}
}

func TestRetrieve_EmptyBodyUsesCanonicalButSucceeds(t *testing.T) {
	srv := serveHTML("")
	defer srv.Close()

	s, logs := newService(t, srv)
	tr := s.RetrieveTrace(context.Background())

	if !tr.Response.Success {
		t.Fatalf("空页面仍是一次成功的抓取，success 应为 true")
	}
	if !tr.Decisions.CanonicalGroup || !tr.Decisions.DateFilled {
		t.Fatalf("期望触发 date 与 canonical 组兜底：%+v", tr.Decisions)
	}
	if tr.Response.Data.Date != "Friday, October 16, 2026" {
		t.Fatalf("兜底日期不符合预期：%q", tr.Response.Data.Date)
	}

	entries := logs.FilterMessage("hukamnama extracted").All()
	if len(entries) != 1 {
		t.Fatalf("期望一条摘要日志，实际 %d 条", len(entries))
	}
	m := entries[0].ContextMap()
	if m["fallback"] != true || m["canonical_group"] != true || m["has_audio"] != false {
		t.Fatalf("摘要日志字段不符合预期：%v", m)
	}
}

func TestRetrieve_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()

	s, _ := newService(t, srv)
	s.Timeout = 50 * time.Millisecond

	tr := s.RetrieveTrace(context.Background())
	if tr.Response.Success {
		t.Fatalf("超时应降级")
	}
	if tr.Response.ErrorCode != domain.ErrCodeFetchFailed {
		t.Fatalf("超时应归类为 %q，实际 %q", domain.ErrCodeFetchFailed, tr.Response.ErrorCode)
	}
	if len(tr.Attempts) != 1 {
		t.Fatalf("超时不应重试：%+v", tr.Attempts)
	}
}

func TestRetrieve_CompletenessInvariant(t *testing.T) {
	bodies := []string{
		"",
		"<html><body><p>unrelated</p></body></html>",
		`<div class="hukamnama-card"><div class="hukamnama-text">ਛੋਟਾ</div></div>`,
		`<div class="hukamnama-card"><div class="hukamnama-text">` + strings.Repeat("ਹ ", 60) + `</div></div><div class="hukamnama-card2"><div class="hukamnama-text">short</div></div>`,
	}
	for i, body := range bodies {
		srv := serveHTML(body)
		s, _ := newService(t, srv)
		resp := s.Retrieve(context.Background())
		srv.Close()

		th := s.Policy.Thresholds
		if normalize.Len(resp.Data.Gurmukhi) < th.PrimaryMin {
			t.Fatalf("case %d：Gurmukhi 低于阈值", i)
		}
		if normalize.Len(resp.Data.English) < th.TranslationMin {
			t.Fatalf("case %d：English 低于阈值", i)
		}
		if resp.Data.Date == "" {
			t.Fatalf("case %d：Date 为空", i)
		}
	}
}

func TestRetrieve_FreshRequestIDs(t *testing.T) {
	srv := serveHTML("")
	defer srv.Close()

	s, _ := newService(t, srv)
	s.NewID = nil
	a := s.Retrieve(context.Background())
	b := s.Retrieve(context.Background())
	if a.RequestID == "" || a.RequestID == b.RequestID {
		t.Fatalf("每次检索应生成新的 request id：%q %q", a.RequestID, b.RequestID)
	}
}
