package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"mercator-hq/chatgate/pkg/gateway"
)

const fence = "```"

// ExtractJSON returns the JSON document carried by a model reply. The reply
// may be bare JSON or start with a fenced block whose info string is empty
// or "json". The block ends at the first closing fence and anything after
// it is ignored. A fence may also open and close on one line, as in
// "```json {...}```". Anything else is a *gateway.MalformedPayloadError.
func ExtractJSON(raw string) ([]byte, error) {
	text := strings.TrimSpace(raw)

	if strings.HasPrefix(text, fence) {
		body, err := fencedBody(raw, text[len(fence):])
		if err != nil {
			return nil, err
		}
		text = body
	}

	if text == "" {
		return nil, malformed(raw, "empty payload")
	}
	if !json.Valid([]byte(text)) {
		return nil, malformed(raw, "payload is not valid JSON")
	}
	return []byte(text), nil
}

// fencedBody returns the trimmed content of the block opened by the fence
// just before rest.
func fencedBody(raw, rest string) (string, error) {
	firstLine, remainder, multiline := strings.Cut(rest, "\n")

	if end := strings.Index(firstLine, fence); end >= 0 {
		info, body := splitInfo(firstLine[:end])
		if err := checkInfo(raw, info); err != nil {
			return "", err
		}
		return strings.TrimSpace(body), nil
	}
	if !multiline {
		return "", malformed(raw, "unterminated fence")
	}

	if err := checkInfo(raw, strings.TrimSpace(firstLine)); err != nil {
		return "", err
	}
	end := strings.Index(remainder, fence)
	if end < 0 {
		return "", malformed(raw, "unterminated fence")
	}
	return strings.TrimSpace(remainder[:end]), nil
}

// splitInfo separates the info string of a single-line fence from its
// content. The info string is the leading word when the content does not
// start with it directly.
func splitInfo(line string) (info, body string) {
	line = strings.TrimLeft(line, " \t")
	end := strings.IndexAny(line, " \t{[")
	if end < 0 {
		return line, ""
	}
	return line[:end], line[end:]
}

func checkInfo(raw, info string) error {
	if info != "" && !strings.EqualFold(info, "json") {
		return malformed(raw, fmt.Sprintf("unexpected fence language %q", info))
	}
	return nil
}

// field describes a member a payload must carry.
type field struct {
	path string
	kind func(gjson.Result) bool
}

func isString(r gjson.Result) bool { return r.Type == gjson.String }
func isNumber(r gjson.Result) bool { return r.Type == gjson.Number }
func isObject(r gjson.Result) bool { return r.IsObject() }
func isArray(r gjson.Result) bool  { return r.IsArray() }

// decode extracts the JSON payload of raw, checks the required fields and
// unmarshals it into v.
func decode(raw string, v any, required ...field) error {
	data, err := ExtractJSON(raw)
	if err != nil {
		return err
	}

	if !gjson.ParseBytes(data).IsObject() {
		return malformed(raw, "payload is not an object")
	}
	for _, f := range required {
		r := gjson.GetBytes(data, f.path)
		if !r.Exists() {
			return malformed(raw, fmt.Sprintf("missing field %q", f.path))
		}
		if !f.kind(r) {
			return malformed(raw, fmt.Sprintf("field %q has the wrong type", f.path))
		}
	}

	if err := json.Unmarshal(data, v); err != nil {
		return &gateway.MalformedPayloadError{Raw: raw, Reason: "payload does not match the expected shape", Cause: err}
	}
	return nil
}

func malformed(raw, reason string) error {
	return &gateway.MalformedPayloadError{Raw: raw, Reason: reason}
}
