package sentiment

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Special tokens of uncased BERT-family vocabularies.
const (
	tokenCLS = "[CLS]"
	tokenSEP = "[SEP]"
	tokenPAD = "[PAD]"
	tokenUNK = "[UNK]"

	maxWordChars = 100
)

// Tokenizer produces padded model inputs for BERT-style classifiers.
type Tokenizer interface {
	Encode(text string, maxTokens int) (inputIDs, attentionMask []int64)
}

// WordPieceTokenizer implements uncased BERT tokenization over a vocab.txt file.
type WordPieceTokenizer struct {
	vocab map[string]int64
	cls   int64
	sep   int64
	pad   int64
	unk   int64
}

// LoadVocab reads a one-token-per-line vocabulary; the line number is the token ID.
func LoadVocab(path string) (*WordPieceTokenizer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vocab: %w", err)
	}
	defer f.Close()

	vocab := make(map[string]int64, 32000)
	sc := bufio.NewScanner(f)
	var id int64
	for sc.Scan() {
		vocab[strings.TrimRight(sc.Text(), "\r")] = id
		id++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read vocab: %w", err)
	}
	return NewWordPieceTokenizer(vocab)
}

// NewWordPieceTokenizer builds a tokenizer from an in-memory vocabulary.
func NewWordPieceTokenizer(vocab map[string]int64) (*WordPieceTokenizer, error) {
	t := &WordPieceTokenizer{vocab: vocab}
	for tok, dst := range map[string]*int64{tokenCLS: &t.cls, tokenSEP: &t.sep, tokenPAD: &t.pad, tokenUNK: &t.unk} {
		id, ok := vocab[tok]
		if !ok {
			return nil, fmt.Errorf("vocab missing special token %s", tok)
		}
		*dst = id
	}
	return t, nil
}

// Encode returns [CLS] pieces... [SEP] padded to maxTokens, with the attention mask.
func (t *WordPieceTokenizer) Encode(text string, maxTokens int) (inputIDs, attentionMask []int64) {
	if maxTokens < 2 {
		maxTokens = 2
	}
	inputIDs = make([]int64, maxTokens)
	attentionMask = make([]int64, maxTokens)
	for i := range inputIDs {
		inputIDs[i] = t.pad
	}

	inputIDs[0] = t.cls
	attentionMask[0] = 1
	pos := 1
	for _, word := range basicTokenize(text) {
		for _, id := range t.wordPieces(word) {
			if pos >= maxTokens-1 {
				break
			}
			inputIDs[pos] = id
			attentionMask[pos] = 1
			pos++
		}
		if pos >= maxTokens-1 {
			break
		}
	}
	inputIDs[pos] = t.sep
	attentionMask[pos] = 1
	return inputIDs, attentionMask
}

// wordPieces splits one word greedily by longest matching prefix.
func (t *WordPieceTokenizer) wordPieces(word string) []int64 {
	chars := []rune(word)
	if len(chars) > maxWordChars {
		return []int64{t.unk}
	}
	var ids []int64
	for start := 0; start < len(chars); {
		end := len(chars)
		found := int64(-1)
		for end > start {
			piece := string(chars[start:end])
			if start > 0 {
				piece = "##" + piece
			}
			if id, ok := t.vocab[piece]; ok {
				found = id
				break
			}
			end--
		}
		if found < 0 {
			return []int64{t.unk}
		}
		ids = append(ids, found)
		start = end
	}
	return ids
}

// basicTokenize lowercases, strips accents, and splits on whitespace and punctuation.
func basicTokenize(text string) []string {
	text = strings.ToLower(text)
	stripAccents := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if s, _, err := transform.String(stripAccents, text); err == nil {
		text = s
	}
	var words []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
	}
	for _, r := range text {
		switch {
		case unicode.IsSpace(r) || unicode.IsControl(r):
			flush()
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			flush()
			words = append(words, string(r))
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return words
}
