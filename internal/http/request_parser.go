// Package http exposes the budget services as a JSON API over net/http.
//
// This file holds the request-side helpers: a body parser that accepts both
// form-encoded and JSON payloads, and converters from raw form values to
// domain types.
package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"budget/internal/core"
)

// maxBodyBytes caps request bodies; no form here comes close.
const maxBodyBytes = 1 << 20

var errMalformedBody = errors.New("malformed request body")

// RequestBodyParser reads the body once and serves fields from whichever
// encoding the client used.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]any
	formData url.Values
	parsed   bool
	err      error
}

func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return p
}

// Parse decodes the body as JSON when it looks like an object, otherwise as
// form values. An empty body parses to no fields.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		p.err = errors.Join(errMalformedBody, p.err)
		return p.err
	}

	trimmed := strings.TrimSpace(string(p.body))
	if trimmed == "" {
		p.formData = url.Values{}
		return nil
	}

	if trimmed[0] == '{' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal([]byte(trimmed), &p.jsonData); err != nil {
			p.err = errors.Join(errMalformedBody, err)
		}
		return p.err
	}

	p.formData, p.err = url.ParseQuery(trimmed)
	if p.err != nil {
		p.err = errors.Join(errMalformedBody, p.err)
	}
	return p.err
}

// Get returns the sanitized, trimmed value of key, or "".
func (p *RequestBodyParser) Get(key string) string {
	return strings.TrimSpace(sanitizeInput(p.raw(key)))
}

// Secret returns key without trimming; passwords keep their whitespace.
func (p *RequestBodyParser) Secret(key string) string {
	return p.raw(key)
}

func (p *RequestBodyParser) raw(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return stringValue(val)
		}
		return ""
	}
	if p.formData != nil {
		return p.formData.Get(key)
	}
	return ""
}

// Bool reads a checkbox-style field: absent means false.
func (p *RequestBodyParser) Bool(key string) bool {
	switch strings.ToLower(p.Get(key)) {
	case "1", "true", "on", "yes":
		return true
	default:
		return false
	}
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
	case json.Number:
		return val.String()
	default:
		return ""
	}
}

// sanitizeInput drops control characters other than tab and newlines.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}

// pathID reads the {id} wildcard. Anything unparsable is reported as a
// missing resource.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, core.ErrNotFound
	}
	return id, nil
}

func parseTransactionInput(p *RequestBodyParser) (core.TransactionInput, error) {
	in := core.TransactionInput{Title: p.Get("title")}

	amount, err := core.ParseMoney(p.Get("amount"))
	if err != nil {
		return in, err
	}
	in.Amount = amount

	if in.Type, err = core.ParseTransactionType(p.Get("transaction_type")); err != nil {
		return in, err
	}
	if in.Date, err = core.ParseDate(p.Get("date")); err != nil {
		return in, err
	}

	if raw := p.Get("category"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return in, core.Invalid("category", "select a valid choice")
		}
		in.CategoryID = &id
	}
	return in, nil
}

func parseGoalInput(p *RequestBodyParser) (core.GoalInput, error) {
	in := core.GoalInput{Name: p.Get("name")}

	target, err := core.ParseMoney(p.Get("target_amount"))
	if err != nil {
		return in, core.Invalid("target_amount", validationMessage(err))
	}
	in.Target = target

	if raw := p.Get("current_amount"); raw != "" {
		current, err := core.ParseMoney(raw)
		if err != nil {
			return in, core.Invalid("current_amount", validationMessage(err))
		}
		in.Current = current
	}

	if raw := p.Get("deadline"); raw != "" {
		d, err := core.ParseDate(raw)
		if err != nil {
			return in, core.Invalid("deadline", validationMessage(err))
		}
		in.Deadline = d
	}
	return in, nil
}

func validationMessage(err error) string {
	var ve *core.ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	return err.Error()
}
