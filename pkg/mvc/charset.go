package mvc

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

// decodeCharset converts data from the named charset to a Go string. An
// empty charset means UTF-8.
func decodeCharset(data []byte, charset string) (string, error) {
	charset = strings.TrimSpace(charset)
	if charset == "" || strings.EqualFold(charset, "utf-8") || strings.EqualFold(charset, "utf8") {
		return string(data), nil
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return "", fmt.Errorf("unsupported charset %q", charset)
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", charset, err)
	}
	return string(out), nil
}
