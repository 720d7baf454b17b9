package collector

import "sort"

// dedupKey 去重键：标题 + 链接。标题相同但链接不同的转载条目会各自保留，
// 这是刻意的策略选择，不要“修复”
type dedupKey struct {
	title string
	link  string
}

// DedupeAndRank 合并一个类别下所有源的条目：按发布时间倒序排序
// （没有时间的条目排在最后），再按 (title, link) 去重，保留首次出现，
// 最后截断到 maxItems 条
func DedupeAndRank(entries []NewsEntry, maxItems int) []NewsEntry {
	sorted := make([]NewsEntry, len(entries))
	copy(sorted, entries)

	// 稳定排序保证同一时间的条目维持源内顺序
	sort.SliceStable(sorted, func(i, j int) bool {
		ti, tj := sorted[i].PublishedAt, sorted[j].PublishedAt
		switch {
		case ti == nil && tj == nil:
			return false
		case ti == nil:
			return false
		case tj == nil:
			return true
		default:
			return ti.After(*tj)
		}
	})

	seen := make(map[dedupKey]struct{}, len(sorted))
	deduped := make([]NewsEntry, 0, len(sorted))
	for _, entry := range sorted {
		key := dedupKey{title: entry.Title, link: entry.Link}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		deduped = append(deduped, entry)
		if maxItems > 0 && len(deduped) >= maxItems {
			break
		}
	}
	return deduped
}
