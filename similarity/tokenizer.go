// Package similarity 提供训练期构建的 TF-IDF 文本相似检索索引。
// 词表、IDF 权重与历史向量在训练期固定；查询期用同一词表向量化，
// 词表外的词贡献为零（OOV 是预期行为）。
package similarity

import (
	"strings"
	"unicode"
)

// english 停用词表（与训练侧 vectorizer 的 stop_words='english' 对应的常用子集）。
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"but": {}, "by": {}, "for": {}, "from": {}, "has": {}, "have": {},
	"he": {}, "her": {}, "his": {}, "i": {}, "in": {}, "is": {}, "it": {},
	"its": {}, "of": {}, "on": {}, "or": {}, "our": {}, "she": {},
	"that": {}, "the": {}, "their": {}, "them": {}, "they": {}, "this": {},
	"to": {}, "was": {}, "we": {}, "were": {}, "which": {}, "who": {},
	"will": {}, "with": {}, "you": {}, "your": {},
}

// Tokenize 输出文本的 unigram + bigram 词项（小写、去停用词），
// 与训练期 ngram_range=(1,2) 的向量化器保持一致。
func Tokenize(text string) []string {
	words := splitWords(text)

	terms := make([]string, 0, len(words)*2)
	terms = append(terms, words...)
	for i := 0; i+1 < len(words); i++ {
		terms = append(terms, words[i]+" "+words[i+1])
	}
	return terms
}

func splitWords(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	words := make([]string, 0, len(fields))
	for _, w := range fields {
		// 单字符 token 与停用词丢弃，对齐训练侧的 token_pattern 语义。
		if len(w) < 2 {
			continue
		}
		if _, ok := stopWords[w]; ok {
			continue
		}
		words = append(words, w)
	}
	return words
}
