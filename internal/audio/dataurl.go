// Copyright (c) 2025 Azad Mehtiyev
// SPDX-License-Identifier: MIT

package audio

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// The backend inlines synthesized audio as "data:audio/mpeg;base64,...".

func isDataURL(locator string) bool {
	return strings.HasPrefix(locator, "data:")
}

func isHTTPURL(locator string) bool {
	return strings.HasPrefix(locator, "http://") || strings.HasPrefix(locator, "https://")
}

// decodeDataURL extracts the payload bytes from a base64 data: URL.
func decodeDataURL(locator string) ([]byte, error) {
	rest := strings.TrimPrefix(locator, "data:")

	comma := strings.IndexByte(rest, ',')
	if comma < 0 {
		return nil, fmt.Errorf("%w: malformed data URL", ErrNoAudio)
	}
	meta, payload := rest[:comma], rest[comma+1:]

	if !strings.HasSuffix(meta, ";base64") {
		return nil, fmt.Errorf("%w: data URL is not base64", ErrNoAudio)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64: %v", ErrNoAudio, err)
	}
	if len(data) == 0 {
		return nil, ErrNoAudio
	}
	return data, nil
}
