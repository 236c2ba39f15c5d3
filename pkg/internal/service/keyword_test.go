package service_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/sharesmallbiz/pkg/cache"
	"github.com/yeisme/sharesmallbiz/pkg/internal/model"
	"github.com/yeisme/sharesmallbiz/pkg/internal/service"
	"github.com/yeisme/sharesmallbiz/pkg/internal/storage/kv"
	"github.com/yeisme/sharesmallbiz/pkg/internal/types"
)

func newKeywordService(t *testing.T) (*service.KeywordService, *cache.Cache, *types.Principal, *types.Principal) {
	t.Helper()

	db := newDB(t)
	store, err := kv.NewMemoryKV(bg(), nil)
	require.NoError(t, err)

	c := cache.NewCache(store, "test")

	return service.NewKeywordService(db, c, time.Hour), c, seedUser(t, db, "root", adminRole), seedUser(t, db, "alice")
}

func TestKeywordCRUD(t *testing.T) {
	svc, _, admin, alice := newKeywordService(t)

	_, err := svc.Create(bg(), alice, types.KeywordInput{Name: "Retail"})
	require.ErrorIs(t, err, service.ErrForbidden)

	k, err := svc.Create(bg(), admin, types.KeywordInput{Name: " Retail ", Description: "shops"})
	require.NoError(t, err)
	assert.Equal(t, "Retail", k.Name)

	_, err = svc.Create(bg(), admin, types.KeywordInput{Name: "retail"})
	require.ErrorIs(t, err, service.ErrConflict)

	_, err = svc.Create(bg(), admin, types.KeywordInput{Name: ""})
	require.ErrorIs(t, err, service.ErrInvalidArgument)

	other, err := svc.Create(bg(), admin, types.KeywordInput{Name: "Food"})
	require.NoError(t, err)

	_, err = svc.Update(bg(), admin, other.ID, types.KeywordInput{Name: "RETAIL"})
	require.ErrorIs(t, err, service.ErrConflict)

	renamed, err := svc.Update(bg(), admin, other.ID, types.KeywordInput{Name: "Food & Drink"})
	require.NoError(t, err)
	assert.Equal(t, "Food & Drink", renamed.Name)

	list, err := svc.List(bg())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Food & Drink", list[0].Name)

	ok, err := svc.Delete(bg(), admin, k.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Delete(bg(), admin, k.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.Get(bg(), k.ID)
	assert.ErrorIs(t, err, service.ErrKeywordNotFound)
}

func TestKeywordNamesCache(t *testing.T) {
	svc, c, admin, _ := newKeywordService(t)

	_, err := svc.Create(bg(), admin, types.KeywordInput{Name: "Retail"})
	require.NoError(t, err)

	names, err := svc.Names(bg())
	require.NoError(t, err)
	assert.Equal(t, []string{"Retail"}, names)

	cached, err := cache.Get[[]string](bg(), c, service.KeywordNamesKey)
	require.NoError(t, err)
	assert.Equal(t, []string{"Retail"}, cached)

	// 写操作使缓存失效
	_, err = svc.Create(bg(), admin, types.KeywordInput{Name: "Food"})
	require.NoError(t, err)

	_, err = cache.Get[[]string](bg(), c, service.KeywordNamesKey)
	require.ErrorIs(t, err, kv.ErrNotFound)

	n, err := svc.RefreshNames(bg())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	cached, err = cache.Get[[]string](bg(), c, service.KeywordNamesKey)
	require.NoError(t, err)
	assert.Equal(t, []string{"Food", "Retail"}, cached)
}

func TestKeywordNamesWithoutCache(t *testing.T) {
	db := newDB(t)
	seedKeywords(t, db, "Services")

	names, err := service.NewKeywordService(db, nil, 0).Names(bg())
	require.NoError(t, err)
	assert.Equal(t, []string{"Services"}, names)
}

func TestImportKeywordsCSV(t *testing.T) {
	svc, _, admin, alice := newKeywordService(t)

	_, err := svc.Create(bg(), admin, types.KeywordInput{Name: "Retail"})
	require.NoError(t, err)

	input := strings.Join([]string{
		"name,description",
		"Food,restaurants and cafes",
		"retail,duplicate of existing",
		"Marketing",
		"food,duplicate within file",
		",",
		`"Health, Wellness",gyms`,
	}, "\n")

	_, err = svc.ImportCSV(bg(), alice, strings.NewReader(input))
	require.ErrorIs(t, err, service.ErrForbidden)

	res, err := svc.ImportCSV(bg(), admin, strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Created)
	assert.Equal(t, 3, res.Skipped)
	assert.Empty(t, res.Errors)

	names, err := svc.Names(bg())
	require.NoError(t, err)
	assert.Equal(t, []string{"Food", "Health, Wellness", "Marketing", "Retail"}, names)

	var food model.Keyword
	list, err := svc.List(bg())
	require.NoError(t, err)

	for _, k := range list {
		if k.Name == "Food" {
			food = k
		}
	}

	assert.Equal(t, "restaurants and cafes", food.Description)
}
