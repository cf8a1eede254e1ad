package http

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// fallbackCharset is what charset.DetermineEncoding guesses when nothing in
// the response declares an encoding.
const fallbackCharset = "windows-1252"

// decodeBody converts a response body to UTF-8. A BOM, a charset declared in
// the Content-Type header or a <meta> charset wins; otherwise valid UTF-8 is
// kept as is and anything else goes through charset detection.
func decodeBody(body []byte, contentType string) string {
	enc, name, certain := charset.DetermineEncoding(body, contentType)
	if !certain {
		if utf8.Valid(body) {
			return string(bytes.TrimPrefix(body, utf8BOM))
		}
		if name == fallbackCharset {
			if detected, canonical := charset.Lookup(detectCharset(body)); detected != nil {
				enc, name = detected, canonical
			}
		}
	}
	if name == "utf-8" {
		return string(bytes.TrimPrefix(body, utf8BOM))
	}

	decoded, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return string(body)
	}
	return string(decoded)
}

// detectCharset guesses the charset of data, falling back to utf-8.
func detectCharset(data []byte) string {
	result, err := chardet.NewTextDetector().DetectBest(data)
	if err != nil || result == nil {
		return "utf-8"
	}
	return strings.ToLower(result.Charset)
}
