package tile

import (
	"context"
	"sync"
	"testing"

	"eotile/internal/footprint"
	"eotile/internal/model"
	"eotile/internal/service/storage"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepository struct {
	mu      sync.Mutex
	rows    []*model.TilePG
	saved   []*model.TilePG
	loadErr error
	saveErr error

	// onSave runs before each batch is recorded
	onSave func()
}

func (r *fakeRepository) LoadAll(context.Context) ([]*model.TilePG, error) {
	return r.rows, r.loadErr
}

func (r *fakeRepository) SaveBatch(_ context.Context, rows []*model.TilePG) error {
	if r.onSave != nil {
		r.onSave()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saved = append(r.saved, rows...)
	return nil
}

func (r *fakeRepository) Count(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.rows) + len(r.saved)), nil
}

type fakeCache struct {
	data map[string][]byte
	sets int

	// onGet runs on every lookup, before the cache is read
	onGet func()
}

func (c *fakeCache) Get(_ context.Context, id string) ([]byte, bool, error) {
	if c.onGet != nil {
		c.onGet()
	}
	d, ok := c.data[id]
	return d, ok, nil
}

func (c *fakeCache) Set(_ context.Context, id string, data []byte) error {
	c.sets++
	c.data[id] = data
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, ids ...string) error {
	for _, id := range ids {
		delete(c.data, id)
	}
	return nil
}

var fijiCell = model.S2Cell{
	ID: "01KAB",
	BB: [8]float64{-16, 179.5, -16.1, -179.5, -17.1, -179.4, -17, 179.6},
}

func row(t *testing.T, src model.FootprintSource) *model.TilePG {
	t.Helper()
	tile, err := model.NewTile(src)
	require.NoError(t, err)
	pg, err := model.TileToPG(tile)
	require.NoError(t, err)
	return pg
}

func newLoadedService(t *testing.T) (*TileService, *fakeRepository, *fakeCache) {
	t.Helper()
	repo := &fakeRepository{rows: []*model.TilePG{
		row(t, fijiCell),
		row(t, model.DEMCell{Product: model.SchemeSRTM, Lat: 45, Lon: 10}),
		row(t, model.DEMCell{Product: model.SchemeCOP, Lat: 46, Lon: 10}),
		{ID: "broken", Scheme: model.SchemeS2, Corners: model.Float64Slice{1, 2, 3}},
	}}
	cache := &fakeCache{data: map[string][]byte{}}
	svc := NewTileService(storage.NewShardedMemoryStorage[string, *model.Tile](4, nil), repo, cache)
	require.NoError(t, svc.InitService(context.Background()))
	return svc, repo, cache
}

func ids(tiles []*model.Tile) []string {
	out := make([]string, len(tiles))
	for i, t := range tiles {
		out[i] = t.ID
	}
	return out
}

func TestInitServiceSkipsBrokenRows(t *testing.T) {
	svc, _, _ := newLoadedService(t)

	assert.True(t, svc.IsInitialized())
	assert.Equal(t, 3, svc.Count())

	_, ok := svc.Get("broken")
	assert.False(t, ok)

	fiji, ok := svc.Get("01KAB")
	require.True(t, ok)
	assert.Equal(t, footprint.CrossingBoth, fiji.Footprint().Crossing().Kind)

	// loaded tiles are not dirty
	n, err := svc.PersistDirty(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	// second init is a no-op
	require.NoError(t, svc.InitService(context.Background()))
	assert.Equal(t, 3, svc.Count())
}

func TestInitServiceRepositoryError(t *testing.T) {
	repo := &fakeRepository{loadErr: errors.New("connection refused")}
	svc := NewTileService(storage.NewMemoryStorage[string, *model.Tile](), repo, nil)

	err := svc.InitService(context.Background())
	assert.ErrorContains(t, err, "load tile catalog")
	assert.False(t, svc.IsInitialized())
}

func TestSearchDatelineTile(t *testing.T) {
	svc, _, _ := newLoadedService(t)

	east := orb.Bound{Min: orb.Point{179.0, -17.5}, Max: orb.Point{180, -15.5}}
	assert.Equal(t, []string{"01KAB"}, ids(svc.Search("", east)))

	west := orb.Bound{Min: orb.Point{-180, -17.5}, Max: orb.Point{-179, -15.5}}
	assert.Equal(t, []string{"01KAB"}, ids(svc.Search("", west)))

	// the split tile must not be matched in the middle of the map
	middle := orb.Bound{Min: orb.Point{-10, -17}, Max: orb.Point{10, -16}}
	assert.Empty(t, svc.Search("", middle))

	// both halves of a wrapped query find the tile once
	assert.Equal(t, []string{"01KAB"}, ids(svc.Search("", east, west)))
}

func TestSearchSchemeFilter(t *testing.T) {
	svc, _, _ := newLoadedService(t)
	alps := orb.Bound{Min: orb.Point{10.2, 45.2}, Max: orb.Point{10.4, 46.4}}

	assert.Equal(t, []string{"N45E010", "N46E010"}, ids(svc.Search("", alps)))
	assert.Equal(t, []string{"N45E010"}, ids(svc.Search(model.SchemeSRTM, alps)))
	assert.Equal(t, []string{"N46E010"}, ids(svc.Search(model.SchemeCOP, alps)))
	assert.Empty(t, svc.Search(model.SchemeS2, alps))
}

func TestSearchPoint(t *testing.T) {
	svc, _, _ := newLoadedService(t)

	assert.Equal(t, []string{"01KAB"}, ids(svc.SearchPoint(-16.5, -179.7)))
	assert.Equal(t, []string{"01KAB"}, ids(svc.SearchPoint(-16.5, 179.8)))
	assert.Empty(t, svc.SearchPoint(-16.5, 0))
	assert.Len(t, svc.SearchPoint(45.5, 10.5), 1)
}

func TestRegisterAndPersist(t *testing.T) {
	svc, repo, _ := newLoadedService(t)
	ctx := context.Background()

	tile, err := svc.Register(ctx, model.DEMCell{Product: model.SchemeSRTM, Lat: -1, Lon: 179})
	require.NoError(t, err)
	assert.Equal(t, "S01E179", tile.ID)
	assert.False(t, tile.UpdatedAt.IsZero())

	found := svc.SearchPoint(-0.5, 179.5)
	assert.Equal(t, []string{"S01E179"}, ids(found))

	n, err := svc.PersistDirty(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, repo.saved, 1)
	assert.Equal(t, "S01E179", repo.saved[0].ID)

	n, err = svc.PersistDirty(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRegisterReplacesIndexEntries(t *testing.T) {
	svc, _, _ := newLoadedService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, model.RawSource{
		ID:   "01KAB",
		Kind: model.SchemeS2,
		Points: []footprint.GeoPoint{
			{Lat: 1, Lon: 0}, {Lat: 1, Lon: 1}, {Lat: 0, Lon: 1}, {Lat: 0, Lon: 0},
		},
	})
	require.NoError(t, err)

	assert.Empty(t, svc.SearchPoint(-16.5, -179.7))
	assert.Equal(t, []string{"01KAB"}, ids(svc.SearchPoint(0.5, 0.5)))
	assert.Equal(t, 3, svc.Count())
}

func TestRegisterRejectsInvalidSource(t *testing.T) {
	svc, _, _ := newLoadedService(t)

	_, err := svc.Register(context.Background(), model.RawSource{
		ID:     "bad",
		Kind:   model.SchemeGrid,
		Points: []footprint.GeoPoint{{Lat: 0, Lon: 0}, {Lat: 1, Lon: 1}, {Lat: 0, Lon: 1}},
	})
	assert.ErrorIs(t, err, footprint.ErrMalformedInput)

	_, ok := svc.Get("bad")
	assert.False(t, ok)
}

func TestPersistDirtyKeepsFlagsOnFailure(t *testing.T) {
	svc, repo, _ := newLoadedService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, model.DEMCell{Product: model.SchemeCOP, Lat: 0, Lon: 0})
	require.NoError(t, err)

	repo.saveErr = errors.New("db down")
	_, err = svc.PersistDirty(ctx)
	assert.ErrorContains(t, err, "persist dirty tiles")

	repo.saveErr = nil
	n, err := svc.PersistDirty(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestFeatureUsesCache(t *testing.T) {
	svc, _, cache := newLoadedService(t)
	ctx := context.Background()

	data, ok, err := svc.Feature(ctx, "01KAB")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, string(data), `"MultiPolygon"`)
	assert.Equal(t, 1, cache.sets)

	again, ok, err := svc.Feature(ctx, "01KAB")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, data, again)
	assert.Equal(t, 1, cache.sets)

	_, ok, err = svc.Feature(ctx, "missing")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestPersistDirtyKeepsTileReplacedDuringSave(t *testing.T) {
	svc, repo, _ := newLoadedService(t)
	ctx := context.Background()

	cell := func(lon float64) model.RawSource {
		return model.RawSource{
			ID:   "T1",
			Kind: model.SchemeGrid,
			Points: []footprint.GeoPoint{
				{Lat: 1, Lon: lon}, {Lat: 1, Lon: lon + 1}, {Lat: 0, Lon: lon + 1}, {Lat: 0, Lon: lon},
			},
		}
	}

	_, err := svc.Register(ctx, cell(0))
	require.NoError(t, err)

	repo.onSave = func() {
		repo.onSave = nil
		_, err := svc.Register(ctx, cell(50))
		require.NoError(t, err)
	}

	n, err := svc.PersistDirty(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 0.0, repo.saved[0].MinLon)

	n, err = svc.PersistDirty(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	assert.Equal(t, 50.0, repo.saved[len(repo.saved)-1].MinLon)

	n, err = svc.PersistDirty(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRegisterConcurrentKeepsIndexConsistent(t *testing.T) {
	svc, _, _ := newLoadedService(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(lon float64) {
			defer wg.Done()
			_, err := svc.Register(ctx, model.RawSource{
				ID:   "T2",
				Kind: model.SchemeGrid,
				Points: []footprint.GeoPoint{
					{Lat: 1, Lon: lon}, {Lat: 1, Lon: lon + 1}, {Lat: 0, Lon: lon + 1}, {Lat: 0, Lon: lon},
				},
			})
			assert.NoError(t, err)
		}(float64(i * 2))
	}
	wg.Wait()

	stored, ok := svc.Get("T2")
	require.True(t, ok)

	world := orb.Bound{Min: orb.Point{-1, -1}, Max: orb.Point{60, 2}}
	var indexed []*model.Tile
	for _, tile := range svc.Search(model.SchemeGrid, world) {
		if tile.ID == "T2" {
			indexed = append(indexed, tile)
		}
	}
	require.Len(t, indexed, 1)
	assert.Same(t, stored, indexed[0])
}

func TestFeatureNotCachedWhenTileReplaced(t *testing.T) {
	svc, _, cache := newLoadedService(t)
	ctx := context.Background()

	cache.onGet = func() {
		cache.onGet = nil
		_, err := svc.Register(ctx, model.RawSource{
			ID:   "01KAB",
			Kind: model.SchemeS2,
			Points: []footprint.GeoPoint{
				{Lat: 1, Lon: 0}, {Lat: 1, Lon: 1}, {Lat: 0, Lon: 1}, {Lat: 0, Lon: 0},
			},
		})
		require.NoError(t, err)
	}

	data, ok, err := svc.Feature(ctx, "01KAB")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, string(data), `"MultiPolygon"`)
	assert.Zero(t, cache.sets)

	// the next read renders and caches the new footprint
	data, ok, err = svc.Feature(ctx, "01KAB")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, string(data), `"Polygon"`)
	assert.NotContains(t, string(data), `"MultiPolygon"`)
	assert.Equal(t, 1, cache.sets)
}

func TestStoredCount(t *testing.T) {
	svc, _, _ := newLoadedService(t)

	n, err := svc.StoredCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}
