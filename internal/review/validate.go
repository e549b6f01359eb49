package review

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ValidationError lists every field of a candidate review that is missing or
// invalid.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "review does not match schema: " + strings.Join(e.Fields, "; ")
}

// Parse extracts the JSON object from raw model output and validates it.
// Unknown keys are removed before validation and reported in dropped.
func Parse(raw string) (r Review, dropped []string, err error) {
	data, err := ExtractJSON(raw)
	if err != nil {
		return Review{}, nil, err
	}
	return Validate(data)
}

// Validate checks that data holds exactly the Review shape. Integral score
// values given as floats ("85.0") or numeric strings ("85", "85%") are
// coerced; anything else that is not an integer in range fails. Missing
// fields are never filled in.
func Validate(data []byte) (Review, []string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return Review{}, nil, &ValidationError{Fields: []string{"review: " + err.Error()}}
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return Review{}, nil, &ValidationError{Fields: []string{"review: expected a JSON object"}}
	}

	dropped := normalize(obj)

	if err := compiledSchema.Validate(obj); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return Review{}, dropped, &ValidationError{Fields: leafMessages(ve)}
		}
		return Review{}, dropped, fmt.Errorf("validate review: %w", err)
	}

	normalized, err := json.Marshal(obj)
	if err != nil {
		return Review{}, dropped, fmt.Errorf("encode review: %w", err)
	}
	var r Review
	if err := json.Unmarshal(normalized, &r); err != nil {
		return Review{}, dropped, &ValidationError{Fields: []string{"review: " + err.Error()}}
	}
	return r, dropped, nil
}

func normalize(obj map[string]any) []string {
	var dropped []string
	known := make(map[string]bool, len(Categories)+1)
	for _, cat := range Categories {
		known[cat.Key] = true
	}
	known[suggestionsKey] = true

	for key, val := range obj {
		if !known[key] {
			delete(obj, key)
			dropped = append(dropped, key)
			continue
		}
		cat, ok := val.(map[string]any)
		if !ok {
			continue
		}
		for sub := range cat {
			if sub != scoreKey && sub != reasoningKey {
				delete(cat, sub)
				dropped = append(dropped, key+"."+sub)
			}
		}
		if score, ok := cat[scoreKey]; ok {
			cat[scoreKey] = coerceScore(score)
		}
	}
	sort.Strings(dropped)
	return dropped
}

// decimalPattern admits plain decimal strings only. ParseFloat alone would
// also take "NaN", "Inf" and hex floats.
var decimalPattern = regexp.MustCompile(`^[+-]?[0-9]+(\.[0-9]+)?$`)

func coerceScore(v any) any {
	var n json.Number
	switch t := v.(type) {
	case json.Number:
		n = t
	case string:
		s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(t), "%"))
		if !decimalPattern.MatchString(s) {
			return v
		}
		n = json.Number(s)
	default:
		return v
	}
	if i, err := n.Int64(); err == nil {
		return json.Number(strconv.FormatInt(i, 10))
	}
	f, err := n.Float64()
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || math.Abs(f) > 1e15 {
		// Leave fractional values for the schema to reject.
		return n
	}
	return json.Number(strconv.FormatInt(int64(f), 10))
}

func leafMessages(ve *jsonschema.ValidationError) []string {
	var out []string
	var walk func(*jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			out = append(out, fieldPath(e.InstanceLocation)+": "+e.Message)
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)
	sort.Strings(out)
	return compact(out)
}

func fieldPath(pointer string) string {
	p := strings.Trim(pointer, "/")
	if p == "" {
		return "review"
	}
	return strings.ReplaceAll(p, "/", ".")
}

func compact(in []string) []string {
	out := in[:0]
	for i, s := range in {
		if i == 0 || s != in[i-1] {
			out = append(out, s)
		}
	}
	return out
}
