package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"budgeteer/internal/core"
)

const maxBodyBytes = 1 << 20

// ParseYearMonthPath reads {year} and {month} from the route. Anything outside
// the supported calendar is reported as a missing budget month.
func ParseYearMonthPath(r *http.Request) (core.YearMonth, error) {
	year, err1 := strconv.Atoi(r.PathValue("year"))
	month, err2 := strconv.Atoi(r.PathValue("month"))
	ym := core.YearMonth{Year: year, Month: month}
	if err1 != nil || err2 != nil || !ym.Valid() {
		return core.YearMonth{}, core.NotFound("Budget month")
	}
	return ym, nil
}

// ParseAmountField parses a monetary form field.
func ParseAmountField(p *RequestBodyParser, key string) (decimal.Decimal, error) {
	d, err := core.ParseAmount(p.Get(key))
	if err != nil {
		return decimal.Zero, core.Invalid("Please enter a valid amount")
	}
	return d, nil
}

// ParsePercentField parses a 0-100 percentage form field.
func ParsePercentField(p *RequestBodyParser, key string) (decimal.Decimal, error) {
	d, err := core.ParsePercent(p.Get(key))
	if err != nil {
		return decimal.Zero, core.Invalid("Please enter a valid percentage")
	}
	return d, nil
}

// RequestBodyParser reads a form-encoded or JSON body once. htmx sends forms;
// the drag-and-drop reorder script posts JSON.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]any
	formData url.Values
	err      error
}

// NewRequestBodyParser reads and parses the body of r, capped at 1 MiB.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	if r.Body == nil {
		p.formData = url.Values{}
		return p
	}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if p.err == nil {
		p.parse()
	}
	return p
}

func (p *RequestBodyParser) parse() {
	trimmed := strings.TrimSpace(string(p.body))
	if trimmed == "" {
		p.formData = url.Values{}
		return
	}
	if trimmed[0] == '{' {
		p.jsonData = make(map[string]any)
		p.err = json.Unmarshal([]byte(trimmed), &p.jsonData)
		return
	}
	p.formData, p.err = url.ParseQuery(trimmed)
}

// Err reports a read or decode failure.
func (p *RequestBodyParser) Err() error {
	return p.err
}

// Get returns a sanitized single value.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// Has reports whether key was sent at all, even empty.
func (p *RequestBodyParser) Has(key string) bool {
	if p.jsonData != nil {
		_, ok := p.jsonData[key]
		return ok
	}
	return p.formData != nil && p.formData.Has(key)
}

// Values returns every value of a repeated form field or a JSON array.
func (p *RequestBodyParser) Values(key string) []string {
	var raw []string
	switch {
	case p.jsonData != nil:
		switch v := p.jsonData[key].(type) {
		case []any:
			for _, item := range v {
				raw = append(raw, stringValue(item))
			}
		case nil:
		default:
			raw = []string{stringValue(v)}
		}
	case p.formData != nil:
		raw = p.formData[key]
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		out = append(out, sanitizeInput(v))
	}
	return out
}

func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// sanitizeInput trims whitespace and strips control characters other than tab and newlines.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s))
}
