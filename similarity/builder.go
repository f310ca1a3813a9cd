package similarity

import (
	"math"
	"sort"
)

// DefaultMaxFeatures 是词表维度上限：按文档频率保留最常见的词项。
const DefaultMaxFeatures = 100

// Builder 从历史记录构建 TF-IDF 索引。
// 通常索引由训练侧导出为 JSON 工件，Builder 用于测试与小语料的现场构建。
type Builder struct {
	maxFeatures int
	records     []Record
}

func NewBuilder() *Builder {
	return &Builder{maxFeatures: DefaultMaxFeatures}
}

// MaxFeatures 设置词表维度上限（<=0 恢复默认值）。
func (b *Builder) MaxFeatures(n int) *Builder {
	if n <= 0 {
		n = DefaultMaxFeatures
	}
	b.maxFeatures = n
	return b
}

// Add 追加一条历史记录（保持加入顺序，同分决胜依赖该顺序）。
func (b *Builder) Add(rec Record) *Builder {
	b.records = append(b.records, rec)
	return b
}

// Build 构建只读索引：
//
//  1. 分词（unigram + bigram，停用词过滤）
//  2. 按文档频率取前 maxFeatures 个词项为词表（同频按字典序）
//  3. idf = ln((1+N)/(1+df)) + 1（平滑）
//  4. 每条记录的向量 = tf × idf
func (b *Builder) Build() *Index {
	docs := make([][]string, len(b.records))
	df := make(map[string]int)
	for i, rec := range b.records {
		docs[i] = Tokenize(rec.Description)
		seen := make(map[string]bool)
		for _, t := range docs[i] {
			if !seen[t] {
				seen[t] = true
				df[t]++
			}
		}
	}

	terms := make([]string, 0, len(df))
	for t := range df {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		if df[terms[i]] != df[terms[j]] {
			return df[terms[i]] > df[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > b.maxFeatures {
		terms = terms[:b.maxFeatures]
	}

	idx := &Index{
		Vocabulary: make(map[string]int, len(terms)),
		IDF:        make([]float64, len(terms)),
		Vectors:    make([][]float64, len(b.records)),
		Records:    b.records,
	}
	n := float64(len(b.records))
	for dim, t := range terms {
		idx.Vocabulary[t] = dim
		idx.IDF[dim] = math.Log((1+n)/(1+float64(df[t]))) + 1
	}

	for i, tokens := range docs {
		vec := make([]float64, len(terms))
		for _, t := range tokens {
			if dim, ok := idx.Vocabulary[t]; ok {
				vec[dim] += idx.IDF[dim]
			}
		}
		idx.Vectors[i] = vec
	}
	return idx
}
