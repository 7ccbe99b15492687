package dialogue

import (
	"regexp"
	"sort"
	"strings"

	"github.com/example/shopbot/pkg/models"
)

var (
	explicitSizeRe = regexp.MustCompile(`(?i)\bsizes?\s*(\d+(?:\.\d+)?)\b`)
	numberRe       = regexp.MustCompile(`\b(\d+(?:\.\d+)?)\b`)
)

// Extraction is what a single message says about a product and a size.
type Extraction struct {
	Product string
	Size    *models.Size
}

func (e Extraction) HasProduct() bool { return e.Product != "" }
func (e Extraction) HasSize() bool    { return e.Size != nil }

type namePattern struct {
	name string
	re   *regexp.Regexp
}

// nameWordGap is what may separate two words of a product name: a few
// characters within the same sentence.
const nameWordGap = `[^.!?\n]{0,20}?`

// wordPattern matches w as a whole word.
func wordPattern(w string) string {
	p := regexp.QuoteMeta(w)
	if isWordByte(w[0]) {
		p = `\b` + p
	}
	if isWordByte(w[len(w)-1]) {
		p += `\b`
	}
	return p
}

func isWordByte(b byte) bool {
	return b == '_' || '0' <= b && b <= '9' || 'a' <= b && b <= 'z' || 'A' <= b && b <= 'Z'
}

// Extractor matches catalog names in free text. Longer names are tried first so
// "Nike Air Max 270" wins over "Nike Air Max".
type Extractor struct {
	patterns []namePattern
}

func NewExtractor(names []string) *Extractor {
	sorted := append([]string(nil), names...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if len(sorted[i]) != len(sorted[j]) {
			return len(sorted[i]) > len(sorted[j])
		}
		return sorted[i] < sorted[j]
	})

	patterns := make([]namePattern, 0, len(sorted))
	for _, name := range sorted {
		words := strings.Fields(name)
		if len(words) == 0 {
			continue
		}
		for i, w := range words {
			words[i] = wordPattern(w)
		}
		patterns = append(patterns, namePattern{
			name: name,
			re:   regexp.MustCompile(`(?i)` + strings.Join(words, nameWordGap)),
		})
	}
	return &Extractor{patterns: patterns}
}

// Extract returns the longest matching product name and the first size token.
func (e *Extractor) Extract(text string) Extraction {
	var out Extraction
	rest := text
	for _, p := range e.patterns {
		loc := p.re.FindStringIndex(text)
		if loc == nil {
			continue
		}
		out.Product = p.name
		// Blank the matched span so digits inside a name are not read as a size.
		rest = text[:loc[0]] + strings.Repeat(" ", loc[1]-loc[0]) + text[loc[1]:]
		break
	}
	out.Size = extractSize(rest)
	return out
}

// Mentioned returns every catalog name found in text, longest first. A name
// that only matches inside a longer one is not reported.
func (e *Extractor) Mentioned(text string) []string {
	var found []string
	for _, p := range e.patterns {
		locs := p.re.FindAllStringIndex(text, -1)
		if locs == nil {
			continue
		}
		found = append(found, p.name)
		for _, loc := range locs {
			text = text[:loc[0]] + strings.Repeat(" ", loc[1]-loc[0]) + text[loc[1]:]
		}
	}
	return found
}

func extractSize(text string) *models.Size {
	if m := explicitSizeRe.FindStringSubmatch(text); m != nil {
		if s, err := models.ParseSize(m[1]); err == nil {
			return &s
		}
	}
	if m := numberRe.FindStringSubmatch(text); m != nil {
		if s, err := models.ParseSize(m[1]); err == nil {
			return &s
		}
	}
	return nil
}

// Extract is a convenience for one-off extraction against a list of names.
func Extract(text string, names []string) Extraction {
	return NewExtractor(names).Extract(text)
}
