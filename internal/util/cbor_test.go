/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package util

import (
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderCBOR(t *testing.T) {
	data, err := cbor.Marshal(map[any]any{
		"name": "iPad",
		1:      []byte{0xde, 0xad},
		"tags": []string{"apple", "tablet"},
		"raw":  cbor.Tag{Number: 42, Content: "x"},
	})
	require.NoError(t, err)

	out, err := RenderCBOR(data)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"1": "h'dead'",
		"name": "iPad",
		"raw": {"_cborTag": 42, "content": "x"},
		"tags": ["apple", "tablet"]
	}`, out)
}

func TestRenderCBORRejectsGarbage(t *testing.T) {
	_, err := RenderCBOR([]byte{0xff, 0x00})
	require.Error(t, err)
}
