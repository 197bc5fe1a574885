// Copyright 2025 The grb Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package mxm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grb-go/grb/mxm"
	"github.com/grb-go/grb/semiring"
	"github.com/grb-go/grb/sparse"
)

func TestMultiply(t *testing.T) {
	a, err := sparse.NewCSR[uint64, uint64, float64](2, 4,
		[]int{0, 0, 1}, []int{1, 2, 3}, []float64{1, 2, 3})
	require.NoError(t, err)
	b, err := sparse.NewCSC[uint64, uint64, float64](4, 2,
		[]int{0, 1, 2, 3, 3}, []int{1, 0, 0, 0, 1}, []float64{7, 4, 5, 6, 8})
	require.NoError(t, err)

	c, err := mxm.Multiply(a, b, nil, false, semiring.PlusTimes[float64]())
	require.NoError(t, err)
	assert.Equal(t, []float64{14, 18, 24}, c.Values())

	v, err := mxm.MultiplyReduce(a, b, nil, false, semiring.PlusTimes[float64]())
	require.NoError(t, err)
	assert.Equal(t, 56.0, v)
}

func TestMultiplyWith(t *testing.T) {
	a, err := sparse.NewCSR[uint64, uint64, float64](2, 4,
		[]int{0, 0, 1}, []int{1, 2, 3}, []float64{1, 2, 3})
	require.NoError(t, err)
	b, err := sparse.NewCSC[uint64, uint64, float64](4, 2,
		[]int{0, 1, 2, 3, 3}, []int{1, 0, 0, 0, 1}, []float64{7, 4, 5, 6, 8})
	require.NoError(t, err)

	cfg := mxm.Config{Enabled: true, NumWorkers: 2, MinChunkSize: 1}
	c, err := mxm.MultiplyWith(cfg, a, b, nil, false, semiring.PlusTimes[float64]())
	require.NoError(t, err)
	assert.Equal(t, []float64{14, 18, 24}, c.Values())
}

func TestDot(t *testing.T) {
	a, err := sparse.NewVector[uint64, uint64, float64](4, []int{1, 3}, []float64{2, 5})
	require.NoError(t, err)
	b, err := sparse.NewVector[uint64, uint64, float64](4, []int{0, 3}, []float64{1, 4})
	require.NoError(t, err)

	v, ok, err := mxm.Dot(a, b, semiring.PlusTimes[float64]())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 20.0, v)
}

func TestDotDisjoint(t *testing.T) {
	a, err := sparse.NewVector[uint64, uint64, float64](4, []int{0}, []float64{2})
	require.NoError(t, err)
	b, err := sparse.NewVector[uint64, uint64, float64](4, []int{3}, []float64{4})
	require.NoError(t, err)

	v, ok, err := mxm.Dot(a, b, semiring.PlusTimes[float64]())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0.0, v)
}

func TestDefaultConfig(t *testing.T) {
	cfg := mxm.DefaultConfig()
	assert.Greater(t, cfg.NumWorkers, 0)
	assert.Greater(t, cfg.MinChunkSize, 0)
}
