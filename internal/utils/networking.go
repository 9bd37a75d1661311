package utils

import (
	"fmt"
	"math/rand/v2"
	"net/http"
	"slices"
	"strings"
)

func RandomUserAgent() string {
	// Target Chrome major versions roughly within last ~6 months
	const minMajor = 136
	const maxMajor = 142

	major := rand.IntN(maxMajor-minMajor+1) + minMajor
	return fmt.Sprintf(
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%d.0.0.0 Safari/537.36",
		major,
	)
}

var defaultHeaders = map[string]string{
	"Accept":          "*/*",
	"Accept-Language": "en-US,en;q=0.9",
	"Connection":      "keep-alive",
}

// FFmpegHeaders builds the CRLF-joined value of the libavformat "headers"
// option. Keys are canonicalized, missing defaults and a browser user agent
// are filled in, and the result is sorted by key.
func FFmpegHeaders(base map[string]string) string {
	h := make(map[string]string, len(base)+len(defaultHeaders)+1)
	for k, v := range base {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		h[http.CanonicalHeaderKey(k)] = strings.TrimSpace(v)
	}
	for k, v := range defaultHeaders {
		if _, ok := h[k]; !ok {
			h[k] = v
		}
	}
	if _, ok := h["User-Agent"]; !ok {
		h["User-Agent"] = RandomUserAgent()
	}

	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\r\n", k, h[k])
	}
	return b.String()
}
