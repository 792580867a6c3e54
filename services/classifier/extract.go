package classifier

import (
	"errors"
	"regexp"
	"strings"

	"github.com/valyala/fastjson"
)

var (
	fencedBlock = regexp.MustCompile("```(?:json)?\\s*(\\{[\\s\\S]*?\\})\\s*```")
	braceSpan   = regexp.MustCompile(`\{[\s\S]*?\}`)

	errNoJSON = errors.New("No valid JSON found in response")
)

// candidate is one JSON object recovered from free text.
// Fields are copied out so nothing outlives the fastjson parser.
type candidate struct {
	stage      string
	object     string
	complexity *string
	reasoning  string
}

// extractor is one stage of the extraction chain
type extractor func(text string) (candidate, bool)

// extractionChain runs in order; the first stage yielding an object wins
var extractionChain = []extractor{
	parseDirect,
	parseFenced,
	parseBraceSpan,
}

// extract recovers the classification object from model output
func extract(text string) (candidate, error) {
	for _, stage := range extractionChain {
		if c, ok := stage(text); ok {
			return c, nil
		}
	}
	return candidate{}, errNoJSON
}

// parseDirect parses the whole text as one JSON object
func parseDirect(text string) (candidate, bool) {
	return parseObject("direct", strings.TrimSpace(text))
}

// parseFenced parses the interior of the first ```json fenced block
func parseFenced(text string) (candidate, bool) {
	m := fencedBlock.FindStringSubmatch(text)
	if m == nil {
		return candidate{}, false
	}
	return parseObject("fenced", m[1])
}

// parseBraceSpan tries the shortest brace span first, then the first '{' to the last '}'
func parseBraceSpan(text string) (candidate, bool) {
	if span := braceSpan.FindString(text); span != "" {
		if c, ok := parseObject("braces", span); ok {
			return c, true
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return candidate{}, false
	}
	return parseObject("braces_greedy", text[start:end+1])
}

func parseObject(stage, s string) (candidate, bool) {
	if s == "" {
		return candidate{}, false
	}

	var p fastjson.Parser
	v, err := p.Parse(s)
	if err != nil || v.Type() != fastjson.TypeObject {
		return candidate{}, false
	}

	c := candidate{
		stage:  stage,
		object: v.String(),
	}
	if field := v.Get("complexity"); field != nil && field.Type() == fastjson.TypeString {
		label := string(field.GetStringBytes())
		c.complexity = &label
	}
	if field := v.Get("reasoning"); field != nil && field.Type() == fastjson.TypeString {
		c.reasoning = string(field.GetStringBytes())
	}
	return c, true
}
