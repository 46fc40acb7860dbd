// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package status_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openguard-dsl/guard/internal/status"
)

func TestAnd_SkipIsIdentity(t *testing.T) {
	assert.Equal(t, status.Pass, status.And(status.Skip, status.Pass))
	assert.Equal(t, status.Fail, status.And(status.Skip, status.Fail))
	assert.Equal(t, status.Pass, status.And(status.Pass, status.Skip))
	assert.Equal(t, status.Skip, status.And(status.Skip, status.Skip))
}

func TestAnd_FailDominates(t *testing.T) {
	assert.Equal(t, status.Fail, status.And(status.Pass, status.Fail))
	assert.Equal(t, status.Fail, status.And(status.Fail, status.Pass))
	assert.Equal(t, status.Pass, status.And(status.Pass, status.Pass))
}

func TestOr_SkipIsIdentity(t *testing.T) {
	assert.Equal(t, status.Pass, status.Or(status.Skip, status.Pass))
	assert.Equal(t, status.Fail, status.Or(status.Skip, status.Fail))
	assert.Equal(t, status.Skip, status.Or(status.Skip, status.Skip))
}

func TestOr_PassDominates(t *testing.T) {
	assert.Equal(t, status.Pass, status.Or(status.Pass, status.Fail))
	assert.Equal(t, status.Fail, status.Or(status.Fail, status.Fail))
}

func TestNot_IsInvolution(t *testing.T) {
	for _, s := range []status.Status{status.Pass, status.Fail, status.Skip} {
		assert.Equal(t, s, status.Not(status.Not(s)))
	}
}

func TestNot_SkipIsOwnNegation(t *testing.T) {
	assert.Equal(t, status.Skip, status.Not(status.Skip))
}

func TestAndAll_EmptyIsSkip(t *testing.T) {
	assert.Equal(t, status.Skip, status.AndAll())
}

func TestAndAll_FoldsLikeConjunctionOfDisjunctions(t *testing.T) {
	assert.Equal(t, status.Pass, status.AndAll(status.Pass, status.Pass, status.Skip))
	assert.Equal(t, status.Fail, status.AndAll(status.Pass, status.Fail, status.Pass))
}

func TestOrAll_EmptyIsSkip(t *testing.T) {
	assert.Equal(t, status.Skip, status.OrAll())
}

func TestOrAll_FoldsDisjunction(t *testing.T) {
	assert.Equal(t, status.Pass, status.OrAll(status.Fail, status.Fail, status.Pass))
	assert.Equal(t, status.Fail, status.OrAll(status.Fail, status.Fail, status.Skip))
	assert.Equal(t, status.Skip, status.OrAll(status.Skip, status.Skip))
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "PASS", status.Pass.String())
	assert.Equal(t, "FAIL", status.Fail.String())
	assert.Equal(t, "SKIP", status.Skip.String())
}
