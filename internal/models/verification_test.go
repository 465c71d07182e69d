package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeVerifications(t *testing.T) {
	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	v1 := t1.Add(2 * time.Hour)
	v2 := t1.Add(3 * time.Hour)
	qty := 7

	merged := MergeVerifications([]VerificationRecord{
		{Key: "k1", OrderNo: "SO-1", Color: "Red", CreatedAt: t2},
		{Key: "K2", OrderNo: "SO-2", CreatedAt: t1},
		{Key: "K1 ", NewColor: "Blue", Color: "Green", Qty: &qty, VerifiedAt: &v1, CreatedAt: t1},
		{Key: "K1", NewColor: "Black", VerifiedAt: &v2, CreatedAt: t2},
		{Key: "", OrderNo: "dropped"},
	})

	require.Len(t, merged, 2)
	k1 := merged[0]
	assert.Equal(t, "K1", k1.Key)
	assert.Equal(t, "SO-1", k1.OrderNo)
	assert.Equal(t, "Red", k1.Color, "first non-empty wins")
	assert.Equal(t, "Blue", k1.NewColor)
	require.NotNil(t, k1.Qty)
	assert.Equal(t, 7, *k1.Qty)
	require.NotNil(t, k1.VerifiedAt)
	assert.Equal(t, v1, *k1.VerifiedAt, "first completion timestamp wins")
	assert.Equal(t, t1, k1.CreatedAt, "earliest creation")

	assert.Equal(t, "K2", merged[1].Key)
	assert.False(t, merged[1].Verified())
}
