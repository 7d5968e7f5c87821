// Package util provides common utility functions
// Package util 提供通用工具函数
package util

import "regexp"

// wikiLinkRegex pairs each "[[" with the nearest following "]]" on the same line
// wikiLinkRegex 将每个 "[[" 与同一行内最近的 "]]" 非贪婪配对
var wikiLinkRegex = regexp.MustCompile(`\[\[(.*?)\]\]`)

// Tokenize returns the titles written as [[Title]] in body, left to right,
// keeping duplicates and original case. An unterminated "[[" yields nothing.
// Tokenize 按从左到右的顺序返回 body 中 [[Title]] 的标题，保留重复项与原始大小写
func Tokenize(body string) []string {
	if body == "" {
		return []string{}
	}

	matches := wikiLinkRegex.FindAllStringSubmatch(body, -1)
	titles := make([]string, 0, len(matches))
	for _, match := range matches {
		titles = append(titles, match[1])
	}
	return titles
}

// UniqueTitles removes duplicate titles, keeping first-seen order
// UniqueTitles 去重，保留首次出现的顺序
func UniqueTitles(titles []string) []string {
	seen := make(map[string]struct{}, len(titles))
	out := make([]string, 0, len(titles))
	for _, title := range titles {
		if _, ok := seen[title]; ok {
			continue
		}
		seen[title] = struct{}{}
		out = append(out, title)
	}
	return out
}
