// Package normalize 提供抓取文本的规范化（纯函数、全函数、幂等）。
package normalize

import (
	"strings"
	"unicode/utf8"
)

// Text 把任意连续空白（含换行、NBSP 等 Unicode 空白）折叠为单个空格，并去掉首尾空白。
//
// 约束：Text(Text(s)) == Text(s)。
func Text(s string) string { return strings.Join(strings.Fields(s), " ") }

// Len 按字符（rune）计数；阈值判断不能按字节算（Gurmukhi 每个字符 3 字节）。
func Len(s string) int { return utf8.RuneCountInString(s) }
