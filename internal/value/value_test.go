// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package value_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openguard-dsl/guard/internal/value"
)

func TestDecodeJSON_Scalars(t *testing.T) {
	v, err := value.DecodeJSON([]byte(`{"name": "bucket", "count": 3, "ratio": 1.5, "enabled": true, "tags": null}`))
	require.NoError(t, err)
	require.Equal(t, value.KindMap, v.Kind)

	assert.Equal(t, value.KindString, v.Get("name").Kind)
	assert.Equal(t, "bucket", v.Get("name").Str)

	assert.Equal(t, value.KindInt, v.Get("count").Kind)
	assert.Equal(t, int64(3), v.Get("count").Int)

	assert.Equal(t, value.KindFloat, v.Get("ratio").Kind)
	assert.Equal(t, 1.5, v.Get("ratio").Float)

	assert.Equal(t, value.KindBool, v.Get("enabled").Kind)
	assert.True(t, v.Get("enabled").Bool)

	assert.Equal(t, value.KindNull, v.Get("tags").Kind)
}

func TestDecodeJSON_IntFloatDisambiguation(t *testing.T) {
	// 2.0 was written as a float in source and should stay a float,
	// not collapse into an int via a float64==int64(float64) heuristic.
	v, err := value.DecodeJSON([]byte(`{"whole": 2, "explicit_float": 2.0}`))
	require.NoError(t, err)
	assert.Equal(t, value.KindInt, v.Get("whole").Kind)
	assert.Equal(t, value.KindFloat, v.Get("explicit_float").Kind)
}

func TestDecodeJSON_PathTracking(t *testing.T) {
	v, err := value.DecodeJSON([]byte(`{"Resources": {"Bucket": {"Type": "AWS::S3::Bucket"}}}`))
	require.NoError(t, err)
	typ := v.Get("Resources").Get("Bucket").Get("Type")
	assert.Equal(t, "/Resources/Bucket/Type", typ.Path)
}

func TestDecodeJSON_PreservesKeyOrder(t *testing.T) {
	// encoding/json's map[string]any would scramble this via Go's
	// randomized map iteration; the decoder must walk the token stream
	// directly to keep document order, same as the YAML side.
	v, err := value.DecodeJSON([]byte(`{"zebra": 1, "apple": 2, "mango": 3}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"zebra", "apple", "mango"}, v.Keys)
}

func TestDecodeJSON_PathEscaping(t *testing.T) {
	v, err := value.DecodeJSON([]byte(`{"a/b": {"c~d": 1}}`))
	require.NoError(t, err)
	inner := v.Get("a/b").Get("c~d")
	assert.Equal(t, "/a~1b/c~0d", inner.Path)
}

func TestDecodeYAML_PreservesKeyOrder(t *testing.T) {
	v, err := value.DecodeYAML([]byte("zebra: 1\napple: 2\nmango: 3\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"zebra", "apple", "mango"}, v.Keys)
}

func TestDecodeYAML_Scalars(t *testing.T) {
	v, err := value.DecodeYAML([]byte("name: bucket\ncount: 3\nenabled: true\nempty: null\n"))
	require.NoError(t, err)
	assert.Equal(t, "bucket", v.Get("name").Str)
	assert.Equal(t, int64(3), v.Get("count").Int)
	assert.True(t, v.Get("enabled").Bool)
	assert.Equal(t, value.KindNull, v.Get("empty").Kind)
}

func TestDecode_FallsBackToYAML(t *testing.T) {
	v, err := value.Decode([]byte("name: bucket\ntype: AWS::S3::Bucket\n"))
	require.NoError(t, err)
	assert.Equal(t, "bucket", v.Get("name").Str)
}

func TestValue_At_NegativeIndex(t *testing.T) {
	v, err := value.DecodeJSON([]byte(`[1, 2, 3]`))
	require.NoError(t, err)
	assert.Equal(t, int64(3), v.At(-1).Int)
	assert.Equal(t, int64(1), v.At(-3).Int)
	assert.Nil(t, v.At(-4))
	assert.Nil(t, v.At(3))
}

func TestValue_IsScalar(t *testing.T) {
	v, err := value.DecodeJSON([]byte(`{"a": 1, "b": [1], "c": {}}`))
	require.NoError(t, err)
	assert.True(t, v.Get("a").IsScalar())
	assert.False(t, v.Get("b").IsScalar())
	assert.False(t, v.Get("c").IsScalar())
}

func TestValue_Equal(t *testing.T) {
	a, err := value.DecodeJSON([]byte(`{"x": 1, "y": [1, 2]}`))
	require.NoError(t, err)
	b, err := value.DecodeJSON([]byte(`{"x": 1, "y": [1, 2]}`))
	require.NoError(t, err)
	c, err := value.DecodeJSON([]byte(`{"x": 1, "y": [1, 3]}`))
	require.NoError(t, err)

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestValue_Equal_CrossNumericKind(t *testing.T) {
	i, err := value.DecodeJSON([]byte(`2`))
	require.NoError(t, err)
	f, err := value.DecodeJSON([]byte(`2.0`))
	require.NoError(t, err)

	assert.True(t, i.Equal(f))
}

func TestValue_Compare(t *testing.T) {
	a, err := value.DecodeJSON([]byte(`5`))
	require.NoError(t, err)
	b, err := value.DecodeJSON([]byte(`10`))
	require.NoError(t, err)

	cmp, ok := a.Compare(b)
	require.True(t, ok)
	assert.Negative(t, cmp)

	cmp, ok = b.Compare(a)
	require.True(t, ok)
	assert.Positive(t, cmp)

	strA, err := value.DecodeJSON([]byte(`"a"`))
	require.NoError(t, err)
	strB, err := value.DecodeJSON([]byte(`"b"`))
	require.NoError(t, err)
	cmp, ok = strA.Compare(strB)
	require.True(t, ok)
	assert.Negative(t, cmp)

	_, ok = a.Compare(strA)
	assert.False(t, ok)
}
