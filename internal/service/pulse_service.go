package service

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"ankahee-backend/internal/expiry"
	"ankahee-backend/internal/model"
	"ankahee-backend/internal/repository/interfaces"
)

// PulseTopWords 社区词云展示的词数
const PulseTopWords = 40

var stopWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`a about after again all am an and any are as at be because been before
		being but by can could did do does doing don't down during each few for from had has have having he
		her here hers him his how i i'm i've if in into is it it's its just me more most my myself no nor not
		now of off on once only or other our ours out over own same she should so some such than that the
		their theirs them then there these they this those through to too under until up very was we were
		what when where which while who whom why will with would you your yours really still even much
		feel like know get got want one`) {
		stopWords[w] = struct{}{}
	}
}

// Tokenize 把文本切成小写单词，去掉标点和停用词
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	words := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, "'")
		if len([]rune(f)) < 3 {
			continue
		}
		if _, stop := stopWords[f]; stop {
			continue
		}
		words = append(words, f)
	}
	return words
}

// WordFrequencies 统计词频，按次数降序、同频按字母序，最多返回 limit 个
func WordFrequencies(words []string, limit int) []model.WordCount {
	counts := make(map[string]int)
	for _, w := range words {
		counts[w]++
	}
	result := make([]model.WordCount, 0, len(counts))
	for text, n := range counts {
		result = append(result, model.WordCount{Text: text, Value: n})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Value != result[j].Value {
			return result[i].Value > result[j].Value
		}
		return result[i].Text < result[j].Text
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

// PulseService 统计当前存活帖子里最常用的词
type PulseService struct {
	repo  interfaces.ConfessionRepository
	clock expiry.Clock
}

func NewPulseService(repo interfaces.ConfessionRepository, clock expiry.Clock) *PulseService {
	return &PulseService{repo: repo, clock: clock}
}

func (s *PulseService) Pulse(ctx context.Context) ([]model.WordCount, error) {
	contents, err := s.repo.ListAliveContents(ctx, s.clock.Now())
	if err != nil {
		return nil, storeError(err, "posts")
	}
	var words []string
	for _, c := range contents {
		words = append(words, Tokenize(c)...)
	}
	return WordFrequencies(words, PulseTopWords), nil
}

// PulseServiceInterface 热词接口
type PulseServiceInterface interface {
	Pulse(ctx context.Context) ([]model.WordCount, error)
}

var _ PulseServiceInterface = (*PulseService)(nil)
