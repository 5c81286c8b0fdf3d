package strategy

import (
	"strings"

	"market-momentum-trader/internal/model"
)

// 默认关键词表，配置文件可整体覆盖
// 两个集合必须不相交，负面命中的否决优先级高于一切价格趋势
var (
	defaultAdverseKeywords = []string{
		"lawsuit", "ban", "hack", "crash", "regulation", "investigation",
	}
	defaultFavorableKeywords = []string{
		"surge", "rally", "gain", "partnership", "bullish", "upgrade", "adoption",
	}
)

// KeywordFilter 对新闻标题做大小写不敏感的子串匹配
type KeywordFilter struct {
	adverse   []string
	favorable []string
}

// NewKeywordFilter 创建过滤器，传入 nil/空表时使用默认词表
func NewKeywordFilter(adverse, favorable []string) *KeywordFilter {
	if len(adverse) == 0 {
		adverse = defaultAdverseKeywords
	}
	if len(favorable) == 0 {
		favorable = defaultFavorableKeywords
	}
	return &KeywordFilter{
		adverse:   lowercaseAll(adverse),
		favorable: lowercaseAll(favorable),
	}
}

// MatchAdverse 返回第一条命中负面关键词的标题和对应关键词
func (f *KeywordFilter) MatchAdverse(headlines []model.Headline) (keyword string, matched bool) {
	return matchAny(headlines, f.adverse)
}

// MatchFavorable 返回是否有任意标题命中正面关键词
func (f *KeywordFilter) MatchFavorable(headlines []model.Headline) bool {
	_, ok := matchAny(headlines, f.favorable)
	return ok
}

func matchAny(headlines []model.Headline, keywords []string) (string, bool) {
	for _, h := range headlines {
		title := strings.ToLower(h.Title)
		for _, kw := range keywords {
			if strings.Contains(title, kw) {
				return kw, true
			}
		}
	}
	return "", false
}

func lowercaseAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
