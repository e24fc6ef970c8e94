package gateway

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient builds a Client pointed at an httptest server, bypassing the
// token exchange.
func newTestClient(server *httptest.Server, pageSize int) *Client {
	return &Client{
		httpClient:    server.Client(),
		baseURL:       server.URL,
		apiVersion:    "v2.2",
		accountNumber: 123,
		pageSize:      pageSize,
	}
}

// pagedBacking simulates a stable remote collection of n items with page size
// p, recording every requested offset.
func pagedBacking(n, p int) (fetch func(offset int) ([]int, error), offsets *[]int) {
	collection := make([]int, n)
	for i := range collection {
		collection[i] = i + 1
	}

	requested := &[]int{}
	return func(offset int) ([]int, error) {
		*requested = append(*requested, offset)
		if offset >= n {
			return nil, nil
		}
		end := offset + p
		if end > n {
			end = n
		}
		return collection[offset:end], nil
	}, requested
}

// --- fetchAllPages ---

func TestFetchAllPages_PartialFinalPage(t *testing.T) {
	fetch, offsets := pagedBacking(5, 2)

	items, err := fetchAllPages(2, fetch)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, items)
	assert.Equal(t, []int{0, 2, 4}, *offsets)
}

func TestFetchAllPages_ExactMultipleIssuesTrailingEmptyRequest(t *testing.T) {
	fetch, offsets := pagedBacking(4, 2)

	items, err := fetchAllPages(2, fetch)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4}, items)
	// The collection size is unknown up front, so the final full page forces
	// one confirming empty request.
	assert.Equal(t, []int{0, 2, 4}, *offsets)
}

func TestFetchAllPages_EmptyCollection(t *testing.T) {
	fetch, offsets := pagedBacking(0, 3)

	items, err := fetchAllPages(3, fetch)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, []int{0}, *offsets)
}

func TestFetchAllPages_SingleShortPage(t *testing.T) {
	fetch, offsets := pagedBacking(2, 10)

	items, err := fetchAllPages(10, fetch)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, items)
	assert.Equal(t, []int{0}, *offsets)
}

func TestFetchAllPages_ErrorDiscardsPartialResults(t *testing.T) {
	calls := 0
	fetch := func(offset int) ([]int, error) {
		calls++
		if offset >= 2 {
			return nil, errors.New("boom")
		}
		return []int{1, 2}, nil
	}

	items, err := fetchAllPages(2, fetch)
	assert.Error(t, err)
	assert.Nil(t, items)
	assert.Equal(t, 2, calls)
}
