// Package responseformat writes HTTP responses as JSON or MessagePack.
package responseformat

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/vmihailenco/msgpack/v5"
)

// Format is an output encoding
type Format string

const (
	FormatJSON    Format = "json"
	FormatMsgPack Format = "msgpack"
)

// Content types of the supported formats
const (
	ContentTypeJSON    = "application/json"
	ContentTypeMsgPack = "application/x-msgpack"
)

// FromRequest returns the format requested with the format query parameter.
// JSON is the default for any other value.
func FromRequest(req *http.Request) Format {
	if req.URL.Query().Get("format") == string(FormatMsgPack) {
		return FormatMsgPack
	}
	return FormatJSON
}

// Encode writes data to w in the given format. MessagePack output uses the
// json struct tags so both encodings carry the same field names.
func Encode(w io.Writer, format Format, data any) error {
	if format == FormatMsgPack {
		encoder := msgpack.NewEncoder(w)
		encoder.SetCustomStructTag("json")
		return encoder.Encode(data)
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// Formatter handles encoding and writing responses in JSON or MessagePack format
type Formatter struct{}

// NewFormatter creates a new response formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

// WriteResponse writes the response in the format requested by req with a 200
// status
func (f *Formatter) WriteResponse(w http.ResponseWriter, req *http.Request, data any, headers map[string]string) error {
	return f.WriteStatus(w, req, http.StatusOK, data, headers)
}

// WriteStatus writes the response with an explicit status code
func (f *Formatter) WriteStatus(w http.ResponseWriter, req *http.Request, status int, data any, headers map[string]string) error {
	for k, v := range headers {
		w.Header().Set(k, v)
	}
	w.Header().Set("Access-Control-Allow-Origin", "*")

	format := FromRequest(req)
	if format == FormatMsgPack {
		w.Header().Set("Content-Type", ContentTypeMsgPack)
	} else {
		w.Header().Set("Content-Type", ContentTypeJSON)
	}
	w.WriteHeader(status)
	return Encode(w, format, data)
}

// ErrorBody is the payload of error responses
type ErrorBody struct {
	Error string `json:"error"`
}

// WriteError writes an error message with the given status
func (f *Formatter) WriteError(w http.ResponseWriter, req *http.Request, status int, message string) error {
	return f.WriteStatus(w, req, status, ErrorBody{Error: message}, nil)
}
