package utils

import (
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnique(t *testing.T) {
	assert.Equal(t, []uint{3, 1, 2}, Unique([]uint{3, 1, 3, 2, 1}))
	assert.Equal(t, []string{"b", "a"}, Unique([]string{"b", "a", "b"}))
	assert.Empty(t, Unique[uint](nil))
}

func TestCacheFetchWithoutRedis(t *testing.T) {
	SetRedis(nil)

	var calls int32
	load := func() (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		return map[string]int{"total": 2}, nil
	}
	b, err := CacheFetch("cache:test:list", 0, load)
	require.NoError(t, err)

	var resp struct {
		Code int            `json:"code"`
		Data map[string]int `json:"data"`
	}
	require.NoError(t, json.Unmarshal(b, &resp))
	assert.Equal(t, 0, resp.Code)
	assert.Equal(t, 2, resp.Data["total"])

	// nothing is stored, so every call loads again
	_, err = CacheFetch("cache:test:list", 0, load)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))

	boom := errors.New("boom")
	_, err = CacheFetch("cache:test:err", 0, func() (interface{}, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "", Sanitize("<script>alert(1)</script>"))
	assert.Equal(t, "<b>bold</b>", Sanitize(`<b onclick="x()">bold</b>`))

	assert.Equal(t, "Fish & Chips", PlainText("  <em>Fish</em> &amp; Chips "))
	assert.Equal(t, "", PlainText("<script>alert(1)</script>"))
}
