package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wise004/Edupress-sub001/pkg/pagination"
	"github.com/wise004/Edupress-sub001/services/catalog/internal/config"
	"github.com/wise004/Edupress-sub001/services/catalog/internal/domain"
)

func testConfig() *config.Config {
	return &config.Config{
		Provider:       "memory",
		PageSize:       12,
		SearchDebounce: 300 * time.Millisecond,
		UpstreamURL:    "http://localhost:8080/api",
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	cmd := newRootCmd(testConfig())
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestList_CategoryFilter(t *testing.T) {
	out, err := execute(t, "list", "--category", "Web Development")

	require.NoError(t, err)
	assert.Contains(t, out, "Complete React & TypeScript Development")
	assert.Contains(t, out, "HTML & CSS Crash Course")
	assert.NotContains(t, out, "Python Bootcamp")
	assert.Contains(t, out, "page 1 of 1, 2 courses")
}

func TestList_JSONFreeTier(t *testing.T) {
	out, err := execute(t, "list", "--price", "free", "--json")
	require.NoError(t, err)

	var res pagination.Result[domain.Course]
	require.NoError(t, json.Unmarshal([]byte(out), &res))

	assert.Equal(t, 3, res.TotalCount)
	assert.Equal(t, 1, res.TotalPages)
	require.Len(t, res.Data, 3)
	for _, c := range res.Data {
		assert.True(t, c.IsFree, c.Title)
	}
}

func TestList_PageClampedToLast(t *testing.T) {
	out, err := execute(t, "list", "--page", "9")

	require.NoError(t, err)
	assert.Contains(t, out, "page 2 of 2, 14 courses")
}

func TestList_PageSizeFlag(t *testing.T) {
	out, err := execute(t, "--page-size", "5", "list", "--page", "3")

	require.NoError(t, err)
	assert.Contains(t, out, "page 3 of 3, 14 courses")
}

func TestList_NoMatches(t *testing.T) {
	out, err := execute(t, "list", "--search", "quantum basket weaving")

	require.NoError(t, err)
	assert.Contains(t, out, "No courses match the current filters.")
}

func TestList_InvalidPrice(t *testing.T) {
	_, err := execute(t, "list", "--price", "cheap")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "--price must be all, free or paid")
}

func TestRoot_InvalidProvider(t *testing.T) {
	_, err := execute(t, "--provider", "mongo", "categories")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "--provider must be memory or upstream")
}

func TestCategories(t *testing.T) {
	out, err := execute(t, "categories")

	require.NoError(t, err)
	assert.Contains(t, out, "Categories")
	assert.Regexp(t, `Web Development\s+2`, out)
	assert.Regexp(t, `Backend Development\s+3`, out)
	assert.Regexp(t, `Design\s+1`, out)
}

func TestSeed_BadDatabaseURL(t *testing.T) {
	_, err := execute(t, "seed", "--database-url", "postgres://edupress@localhost:notaport/edupress", "--migrate=false")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect to postgres")
}

func TestRenderTable_AlignsColumns(t *testing.T) {
	out := renderTable([]string{"NAME", "COURSES"}, [][]string{
		{"Design", "1"},
		{"Web Development", "2"},
	})

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "NAME")
	assert.Contains(t, lines[1], "─")
	col := strings.Index(lines[0], "COURSES")
	assert.Equal(t, col, strings.Index(lines[2], "1"))
	assert.Equal(t, col, strings.Index(lines[3], "2"))
}
