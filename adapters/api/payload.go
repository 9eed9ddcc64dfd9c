package api

import (
	"mime"
	"strings"

	"gogsea/domain/core"
	"gogsea/domain/ranking"

	"github.com/tidwall/gjson"
)

// Content types accepted for ranking payloads.
const (
	ContentTypeJSON = "application/json"
	ContentTypeText = "text/plain"
)

// DecodePayload dispatches on the request content type. An empty or unknown
// type is sniffed: a body starting with '[' is JSON, anything else text.
func DecodePayload(contentType string, body []byte) ([]ranking.Pair, error) {
	mediaType := ""
	if contentType != "" {
		if mt, _, err := mime.ParseMediaType(contentType); err == nil {
			mediaType = mt
		}
	}

	switch mediaType {
	case ContentTypeJSON:
		return DecodeJSONPairs(body)
	case ContentTypeText:
		return DecodeTextPairs(body)
	}
	if strings.HasPrefix(strings.TrimSpace(string(body)), "[") {
		return DecodeJSONPairs(body)
	}
	return DecodeTextPairs(body)
}

// DecodeJSONPairs reads [[symbol, value], ...]. Values may be strings or
// numbers; numbers keep their literal text so parsing matches text payloads.
func DecodeJSONPairs(body []byte) ([]ranking.Pair, error) {
	if !gjson.ValidBytes(body) {
		return nil, core.NewParseError(0, "request body is not valid JSON")
	}
	root := gjson.ParseBytes(body)
	if !root.IsArray() {
		return nil, core.NewParseError(0, "expected a JSON array of [symbol, value] records")
	}

	records := root.Array()
	pairs := make([]ranking.Pair, 0, len(records))
	for i, rec := range records {
		index := i + 1
		if !rec.IsArray() {
			return nil, core.NewParseError(index, "record must be a [symbol, value] array, got %s", rec.Type)
		}
		fields := rec.Array()
		if len(fields) < 2 {
			return nil, core.NewParseError(index, "record needs a symbol and a value, got %d element(s)", len(fields))
		}

		symbol := fields[0]
		if symbol.Type != gjson.String {
			return nil, core.NewParseError(index, "symbol must be a string, got %s", symbol.Type)
		}

		value := fields[1]
		var text string
		switch value.Type {
		case gjson.String:
			text = value.Str
		case gjson.Number:
			text = value.Raw
		default:
			return nil, core.NewParseError(index, "value for %q must be a string or number, got %s", symbol.Str, value.Type)
		}

		pairs = append(pairs, ranking.Pair{Symbol: symbol.Str, Value: text, Line: index})
	}
	return pairs, nil
}

// DecodeTextPairs reads symbol<TAB>value lines.
func DecodeTextPairs(body []byte) ([]ranking.Pair, error) {
	return ranking.ParseText(string(body))
}
