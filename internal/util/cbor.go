/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package util

import (
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	jsoniter "github.com/json-iterator/go"
)

var prettyJSON = jsoniter.Config{
	EscapeHTML:  false,
	SortMapKeys: true,
}.Froze()

// RenderCBOR decodes an arbitrary CBOR item and renders it as indented JSON
// with sorted keys. Byte strings are shown in CBOR diagnostic notation (h'..')
// and tags as {"_cborTag": n, "content": ...}.
func RenderCBOR(data []byte) (string, error) {
	var decoded any
	if err := cbor.Unmarshal(data, &decoded); err != nil {
		return "", fmt.Errorf("failed to decode CBOR: %w", err)
	}

	pretty, err := prettyJSON.MarshalIndent(normaliseCBOR(decoded), "", "  ")
	if err != nil {
		return "", err
	}
	return string(pretty), nil
}

func normaliseCBOR(value any) any {
	switch v := value.(type) {
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			out[i] = normaliseCBOR(elem)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(v))
		for key, val := range v {
			out[cborKey(key)] = normaliseCBOR(val)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, val := range v {
			out[key] = normaliseCBOR(val)
		}
		return out
	case []byte:
		return fmt.Sprintf("h'%x'", v)
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	case cbor.Tag:
		return map[string]any{
			"_cborTag": v.Number,
			"content":  normaliseCBOR(v.Content),
		}
	default:
		return v
	}
}

func cborKey(key any) string {
	switch k := key.(type) {
	case string:
		return k
	case []byte:
		return fmt.Sprintf("h'%x'", k)
	case fmt.Stringer:
		return k.String()
	default:
		return fmt.Sprint(k)
	}
}
