package themes

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"

	"github.com/hyperjump/reviewlens/internal/models"
	"github.com/hyperjump/reviewlens/pkg/utils"
)

// tokenPattern matches runs of two or more word characters.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{M}\p{N}_]{2,}`)

// englishStopWords is Bleve's English stop list.
var englishStopWords = func() analysis.TokenMap {
	tm := analysis.NewTokenMap()
	if err := tm.LoadBytes(en.EnglishStopWords); err != nil {
		panic(err)
	}
	return tm
}()

// Vectorizer ranks corpus terms by mean TF-IDF weight.
type Vectorizer struct {
	MinDF       int
	MaxDF       float64
	MaxFeatures int
	NgramMax    int
}

// analyze returns the unigram to NgramMax-gram terms of an already normalized document.
// Stop words are removed before n-grams are formed.
func (v Vectorizer) analyze(doc string) []string {
	var tokens []string
	for _, tok := range tokenPattern.FindAllString(doc, -1) {
		if !englishStopWords[tok] {
			tokens = append(tokens, tok)
		}
	}
	maxN := v.NgramMax
	if maxN < 1 {
		maxN = 1
	}
	terms := make([]string, 0, len(tokens)*maxN)
	for n := 1; n <= maxN; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			terms = append(terms, strings.Join(tokens[i:i+n], " "))
		}
	}
	return terms
}

// Rank returns the retained vocabulary ordered by mean L2-normalized TF-IDF
// weight, highest first, ties broken lexicographically. Terms occurring in
// fewer than MinDF documents or in more than MaxDF of them never surface.
func (v Vectorizer) Rank(docs []string) []models.KeywordScore {
	n := len(docs)
	if n == 0 {
		return nil
	}

	counts := make([]map[string]int, n)
	df := map[string]int{}
	total := map[string]int{}
	for i, doc := range docs {
		tf := map[string]int{}
		for _, term := range v.analyze(doc) {
			tf[term]++
		}
		for term, c := range tf {
			df[term]++
			total[term] += c
		}
		counts[i] = tf
	}

	maxDocs := v.MaxDF * float64(n)
	vocab := make([]string, 0, len(df))
	for term, d := range df {
		if d < v.MinDF || float64(d) > maxDocs {
			continue
		}
		vocab = append(vocab, term)
	}
	sort.Strings(vocab)
	if v.MaxFeatures > 0 && len(vocab) > v.MaxFeatures {
		sort.SliceStable(vocab, func(i, j int) bool { return total[vocab[i]] > total[vocab[j]] })
		vocab = vocab[:v.MaxFeatures]
		sort.Strings(vocab)
	}
	if len(vocab) == 0 {
		return nil
	}

	idf := make([]float64, len(vocab))
	for j, term := range vocab {
		idf[j] = math.Log(float64(1+n)/float64(1+df[term])) + 1
	}

	sums := make([]float64, len(vocab))
	row := make([]float64, len(vocab))
	for _, tf := range counts {
		for j, term := range vocab {
			row[j] = float64(tf[term]) * idf[j]
		}
		utils.NormalizeL2(row)
		for j := range row {
			sums[j] += row[j]
		}
	}

	out := make([]models.KeywordScore, len(vocab))
	for j, term := range vocab {
		out[j] = models.KeywordScore{Term: term, Score: sums[j] / float64(n)}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Term < out[j].Term
	})
	return out
}
