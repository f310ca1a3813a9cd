package similarity

import (
	"math"
	"sort"

	"github.com/rushteam/pitchkit/core"
)

// Record 是索引中单条历史记录的展示元数据。
type Record struct {
	Name        string  `json:"name"`
	Industry    string  `json:"industry"`
	AskAmount   float64 `json:"ask_amount"`
	AskEquity   float64 `json:"ask_equity"`
	Description string  `json:"description"`
}

// Index 是固定词表的稀疏向量空间 + 每条历史记录一个向量。
// 训练期一次性构建（外部导出为 JSON 工件），运行期只读，查询天然并发安全。
type Index struct {
	// Vocabulary 是词项 -> 向量维度下标。
	Vocabulary map[string]int `json:"vocabulary"`

	// IDF 按维度下标对齐的逆文档频率权重。
	IDF []float64 `json:"idf"`

	// Vectors 是历史记录的 TF-IDF 向量（与 Records 一一对应，保持数据集原始顺序）。
	Vectors [][]float64 `json:"vectors"`

	Records []Record `json:"records"`
}

func (idx *Index) Name() string { return "similarity.tfidf" }

// Size 返回历史语料条数。
func (idx *Index) Size() int { return len(idx.Records) }

// Query 向量化查询文本并对全量历史向量计算余弦相似度，
// 返回 topN 降序结果（同分按原始顺序稳定决胜）；
// 低于 floor（排除式）的邻居被丢弃，不补零。空语料返回空列表。
func (idx *Index) Query(text string, topN int, floor float64) ([]core.SimilarMatch, error) {
	if len(idx.Records) == 0 || len(idx.Vectors) == 0 {
		return []core.SimilarMatch{}, nil
	}
	if topN <= 0 {
		topN = 5
	}

	qv := idx.vectorize(text)
	if qv == nil {
		// 查询词全部在词表之外：与任何历史记录的相似度都是 0。
		return []core.SimilarMatch{}, nil
	}

	type scored struct {
		pos   int
		score float64
	}
	scores := make([]scored, 0, len(idx.Vectors))
	for i, dv := range idx.Vectors {
		s := cosine(qv, dv)
		if s > floor {
			scores = append(scores, scored{pos: i, score: s})
		}
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].score > scores[j].score
	})
	if len(scores) > topN {
		scores = scores[:topN]
	}

	out := make([]core.SimilarMatch, 0, len(scores))
	for _, s := range scores {
		rec := idx.Records[s.pos]
		out = append(out, core.SimilarMatch{
			Name:        rec.Name,
			Industry:    rec.Industry,
			AskAmount:   rec.AskAmount,
			AskEquity:   rec.AskEquity,
			Description: truncate(rec.Description, 200),
			Score:       s.score,
		})
	}
	return out, nil
}

// vectorize 用训练期词表对文本做 TF-IDF 向量化；
// 无任何词表内词项时返回 nil。
func (idx *Index) vectorize(text string) []float64 {
	vec := make([]float64, len(idx.IDF))
	hit := false
	for _, term := range Tokenize(text) {
		dim, ok := idx.Vocabulary[term]
		if !ok || dim < 0 || dim >= len(vec) {
			continue
		}
		w := 1.0
		if dim < len(idx.IDF) && idx.IDF[dim] > 0 {
			w = idx.IDF[dim]
		}
		vec[dim] += w
		hit = true
	}
	if !hit {
		return nil
	}
	return vec
}

func cosine(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
	}
	for _, v := range a {
		normA += v * v
	}
	for _, v := range b {
		normB += v * v
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

var _ core.NeighborIndex = (*Index)(nil)
