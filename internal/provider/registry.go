package provider

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownProvider 表示配置里的 provider 名没有对应实现。
var ErrUnknownProvider = errors.New("未知 provider")

// Registry 是 provider 名到实现的只读映射，也是 provider 名的唯一校验点。
type Registry struct {
	byName map[string]Provider
}

func NewRegistry(providers ...Provider) (Registry, error) {
	byName := make(map[string]Provider, len(providers))
	for _, p := range providers {
		if p == nil {
			return Registry{}, errors.New("provider 不能为空")
		}
		name := normalizeName(p.Name())
		if name == "" {
			return Registry{}, errors.New("provider.Name 不能为空")
		}
		if _, ok := byName[name]; ok {
			return Registry{}, fmt.Errorf("重复的 provider：%q", name)
		}
		byName[name] = p
	}
	return Registry{byName: byName}, nil
}

// Lookup 按名称（忽略大小写与首尾空白）取 provider。
// 找不到时返回包装了 ErrUnknownProvider 的错误，消息里带上可选名称。
func (r Registry) Lookup(name string) (Provider, error) {
	if p, ok := r.byName[normalizeName(name)]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("%w：%q（可用：%s）", ErrUnknownProvider, name, strings.Join(r.Names(), ", "))
}

// Names 返回已注册的 provider 名称（已排序）。
func (r Registry) Names() []string {
	out := make([]string, 0, len(r.byName))
	for name := range r.byName {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func normalizeName(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
