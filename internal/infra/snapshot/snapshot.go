// Package snapshot 把一次抓取的原始 HTML 与对外响应落盘，用于排查页面改版与回放解析。
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/John-Robertt/hukam/internal/domain"
	"github.com/John-Robertt/hukam/internal/infra/fsx"
	"github.com/John-Robertt/hukam/internal/provider"
)

// DayLayout 是快照文件名使用的日期格式。
const DayLayout = "2006-01-02"

// Store 提供 <root>/<provider>/<YYYY-MM-DD>.{html,json} 的快照读写。
//
// 约束：
// - 同一天重复写入直接覆盖（原子替换）
// - 服务进程从不写快照；只有 CLI fetch --snapshot 会写
type Store struct {
	Root string
}

var ErrNotFound = errors.New("snapshot: not found")

func New(root string) Store {
	return Store{Root: filepath.Clean(strings.TrimSpace(root))}
}

// HTMLPath 返回某天 HTML 快照的路径。
func (s Store) HTMLPath(providerName string, day time.Time) (string, error) {
	return s.path(providerName, day, ".html")
}

// JSONPath 返回某天响应快照的路径。
func (s Store) JSONPath(providerName string, day time.Time) (string, error) {
	return s.path(providerName, day, ".json")
}

func (s Store) path(providerName string, day time.Time, ext string) (string, error) {
	p, err := cleanProvider(providerName)
	if err != nil {
		return "", err
	}
	if day.IsZero() {
		return "", fmt.Errorf("day 不能为空")
	}
	return filepath.Join(s.Root, p, day.Format(DayLayout)+ext), nil
}

// Write 写入 HTML 与响应 JSON；html 为空时只写 JSON（抓取失败时没有 HTML）。
func (s Store) Write(providerName string, day time.Time, html, respJSON []byte) error {
	if len(html) > 0 {
		p, err := s.HTMLPath(providerName, day)
		if err != nil {
			return err
		}
		if err := writeFile(p, html); err != nil {
			return err
		}
	}
	p, err := s.JSONPath(providerName, day)
	if err != nil {
		return err
	}
	return writeFile(p, respJSON)
}

func writeFile(p string, data []byte) error {
	err := fsx.WriteFileAtomic(filepath.Dir(p), filepath.Base(p), data)
	if fsx.IsPathTypeConflict(err) {
		return fmt.Errorf("快照路径被其它类型的文件占用，请先移除：%w", err)
	}
	return err
}

// ReadHTML 读取某天的 HTML 快照；不存在时返回 ErrNotFound。
func (s Store) ReadHTML(providerName string, day time.Time) ([]byte, error) {
	p, err := s.HTMLPath(providerName, day)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w：%s", ErrNotFound, p)
		}
		return nil, err
	}
	return b, nil
}

// Replay 把已保存的 HTML 当作“抓取结果”，复用 provider 的 Parse（离线回放，不发请求）。
type Replay struct {
	Provider provider.Provider
	HTML     []byte
	URL      string
}

func (r Replay) Name() string { return r.Provider.Name() }

func (r Replay) Fetch(ctx context.Context, _ *http.Client) ([]byte, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, r.URL, err
	}
	return r.HTML, r.URL, nil
}

func (r Replay) Parse(html []byte, pageURL string) (domain.Extraction, error) {
	return r.Provider.Parse(html, pageURL)
}

var providerNameRE = regexp.MustCompile(`^[a-z0-9_]+$`)

func cleanProvider(p string) (string, error) {
	p = strings.ToLower(strings.TrimSpace(p))
	if p == "" {
		return "", fmt.Errorf("provider 不能为空")
	}
	// 最小约束：避免路径穿越。
	if !providerNameRE.MatchString(p) {
		return "", fmt.Errorf("非法 provider：%q", p)
	}
	return p, nil
}
