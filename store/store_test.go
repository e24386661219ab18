package store

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/bodgit/pixfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) (*Store, func()) {
	dir, err := ioutil.TempDir("", "store")
	require.NoError(t, err)

	s, err := Open(filepath.Join(dir, "test.db"))
	require.NoError(t, err)

	return s, func() {
		s.Close()
		os.RemoveAll(dir)
	}
}

func TestPutGet(t *testing.T) {
	s, done := testStore(t)
	defer done()

	m, err := pixfmt.NewImage(2, 2, pixfmt.Index)
	require.NoError(t, err)
	m.Palette = pixfmt.Palette{{R: 1, G: 2, B: 3, A: 0xff}, {R: 4, G: 5, B: 6, A: 0xff}}
	m.SetIndex(1, 1, 1)

	sha, err := s.Put(m)
	require.NoError(t, err)
	assert.Len(t, sha, 40)

	again, err := s.Put(m)
	require.NoError(t, err)
	assert.Equal(t, sha, again)

	got, err := s.Get(sha)
	require.NoError(t, err)
	assert.Equal(t, m, got)

	missing, err := s.Get("0000000000000000000000000000000000000000")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestPutConcurrent(t *testing.T) {
	s, done := testStore(t)
	defer done()

	r := &pixfmt.Raster{Width: 2, Height: 1, Model: pixfmt.Gray, Rows: [][]byte{{1, 2}}}

	var wg sync.WaitGroup
	shas := make([]string, 8)
	errs := make([]error, len(shas))
	for i := range shas {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			shas[i], errs[i] = s.PutRaster(r)
		}(i)
	}
	wg.Wait()

	for i := range shas {
		require.NoError(t, errs[i])
		assert.Equal(t, shas[0], shas[i])
	}

	records, err := s.List()
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestListDelete(t *testing.T) {
	s, done := testStore(t)
	defer done()

	gray := &pixfmt.Raster{Width: 1, Height: 1, Model: pixfmt.Gray, Rows: [][]byte{{7}}}
	rgb := &pixfmt.Raster{Width: 1, Height: 2, Model: pixfmt.RGB, Rows: [][]byte{{1, 2, 3}, {4, 5, 6}}}

	a, err := s.PutRaster(gray)
	require.NoError(t, err)
	b, err := s.PutRaster(rgb)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	records, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []Record{
		{SHA1: a, Model: pixfmt.Gray, Width: 1, Height: 1},
		{SHA1: b, Model: pixfmt.RGB, Width: 1, Height: 2},
	}, records)

	ok, err := s.Delete(a)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Delete(a)
	require.NoError(t, err)
	assert.False(t, ok)

	r, err := s.GetRaster(b)
	require.NoError(t, err)
	assert.Equal(t, rgb, r)
}

func TestPutInvalid(t *testing.T) {
	s, done := testStore(t)
	defer done()

	_, err := s.PutRaster(&pixfmt.Raster{Width: 2, Height: 1, Model: pixfmt.Gray, Rows: [][]byte{{1}}})
	assert.Error(t, err)

	_, err = s.Put(nil)
	assert.Error(t, err)
}
