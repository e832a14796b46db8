package vectorstore

import "strings"

// BestCourseMatch 在標題清單中尋找與使用者輸入最接近的課程
//
// 依序嘗試三種比對策略，命中即回傳：
//  1. 忽略大小寫的完全相符
//  2. 子字串包含 (輸入含於標題，或標題含於輸入)
//  3. 詞彙重疊率 >= 0.5 (以輸入的詞數為分母，取重疊率最高者)
func BestCourseMatch(name string, titles []string) (string, bool) {
	query := strings.ToLower(strings.TrimSpace(name))
	if query == "" {
		return "", false
	}

	for _, title := range titles {
		if strings.ToLower(title) == query {
			return title, true
		}
	}

	for _, title := range titles {
		lower := strings.ToLower(title)
		if strings.Contains(lower, query) || strings.Contains(query, lower) {
			return title, true
		}
	}

	queryTokens := strings.Fields(query)
	if len(queryTokens) == 0 {
		return "", false
	}

	best := ""
	bestRatio := float64(0)
	for _, title := range titles {
		titleTokens := make(map[string]bool)
		for _, tok := range strings.Fields(strings.ToLower(title)) {
			titleTokens[tok] = true
		}

		overlap := 0
		for _, tok := range queryTokens {
			if titleTokens[tok] {
				overlap++
			}
		}

		ratio := float64(overlap) / float64(len(queryTokens))
		if ratio == 0 || ratio < bestRatio {
			continue
		}
		// 同分時取字典序較小的標題，結果與目錄順序無關
		if ratio > bestRatio || title < best {
			bestRatio = ratio
			best = title
		}
	}

	if bestRatio >= 0.5 {
		return best, true
	}
	return "", false
}
