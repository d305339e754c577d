package tile

import (
	"context"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"eotile/internal/export"
	"eotile/internal/model"
	"eotile/internal/service/storage"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Repository persists tile rows.
type Repository interface {
	LoadAll(ctx context.Context) ([]*model.TilePG, error)
	SaveBatch(ctx context.Context, rows []*model.TilePG) error
	Count(ctx context.Context) (int64, error)
}

// FeatureCache keeps encoded GeoJSON features by tile id.
type FeatureCache interface {
	Get(ctx context.Context, tileID string) ([]byte, bool, error)
	Set(ctx context.Context, tileID string, data []byte) error
	Invalidate(ctx context.Context, tileIDs ...string) error
}

// TileSpatial is one footprint part of a tile in the R-tree. Split tiles
// are indexed once per part so their envelopes stay narrow.
type TileSpatial struct {
	Tile  *model.Tile
	Part  int
	Bound orb.Bound
}

// Bounds implements the rtreego.Spatial interface
func (s *TileSpatial) Bounds() rtreego.Rect {
	rect, _ := rtreego.NewRectFromPoints(
		rtreego.Point{s.Bound.Min[0], s.Bound.Min[1]},
		rtreego.Point{s.Bound.Max[0], s.Bound.Max[1]},
	)
	return rect
}

// TileService manages the tile catalog and its spatial index
type TileService struct {
	storage storage.Storage[string, *model.Tile]
	repo    Repository
	cache   FeatureCache

	spatialIndex *rtreego.Rtree
	entries      map[string][]*TileSpatial
	indexMutex   sync.RWMutex

	// writeMutex orders tile replacement against feature caching.
	// Register holds it exclusively, cache writes hold it shared.
	writeMutex sync.RWMutex

	initialized bool
	initMutex   sync.RWMutex
}

// NewTileService creates a service. cache may be nil.
func NewTileService(store storage.Storage[string, *model.Tile], repo Repository, cache FeatureCache) *TileService {
	return &TileService{
		storage:      store,
		repo:         repo,
		cache:        cache,
		spatialIndex: rtreego.NewTree(2, 25, 50),
		entries:      make(map[string][]*TileSpatial),
	}
}

// InitService loads the catalog from the repository, rebuilds every
// footprint and indexes the tiles. Tiles that fail to build are skipped.
func (s *TileService) InitService(ctx context.Context) error {
	s.initMutex.Lock()
	defer s.initMutex.Unlock()

	if s.initialized {
		zap.S().Info("TileService already initialized, skipping")
		return nil
	}

	zap.S().Info("=== Starting TileService initialization ===")
	totalStartTime := time.Now()

	// Step 1: Load rows
	rows, err := s.repo.LoadAll(ctx)
	if err != nil {
		return errors.Wrap(err, "load tile catalog")
	}
	zap.S().Infof("Loaded %d tile rows in %v", len(rows), time.Since(totalStartTime))

	// Step 2: Build footprints
	buildStart := time.Now()
	tiles, skipped, err := buildTiles(ctx, rows)
	if err != nil {
		return err
	}
	zap.S().Infof("Built %d footprints in %v, skipped %d", len(tiles), time.Since(buildStart), skipped)

	// Step 3: Load into memory and index
	indexStart := time.Now()
	for _, t := range tiles {
		s.storage.Load(t.ID, t)
	}
	s.rebuildSpatialIndex()
	zap.S().Infof("Spatial index built in %v", time.Since(indexStart))

	zap.S().Infof("=== TileService initialization completed: %d tiles in %v ===",
		s.storage.Count(), time.Since(totalStartTime))

	s.initialized = true
	return nil
}

// buildTiles rebuilds tiles from rows in parallel, keeping row order.
func buildTiles(ctx context.Context, rows []*model.TilePG) ([]*model.Tile, int, error) {
	built := make([]*model.Tile, len(rows))
	var skipped int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, row := range rows {
		i, row := i, row
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			t, err := model.TileFromPG(row)
			if err != nil {
				atomic.AddInt64(&skipped, 1)
				zap.S().Warnf("Skipping tile %s: %v", row.ID, err)
				return nil
			}
			built[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	tiles := make([]*model.Tile, 0, len(rows))
	for _, t := range built {
		if t != nil {
			tiles = append(tiles, t)
		}
	}
	return tiles, int(skipped), nil
}

// rebuildSpatialIndex rebuilds the spatial index from storage
func (s *TileService) rebuildSpatialIndex() {
	var objs []rtreego.Spatial
	entries := make(map[string][]*TileSpatial)

	s.storage.ForEach(func(id string, t *model.Tile) bool {
		for _, item := range spatialItems(t) {
			objs = append(objs, item)
			entries[id] = append(entries[id], item)
		}
		return true
	})

	s.indexMutex.Lock()
	defer s.indexMutex.Unlock()

	// Bulk load is faster than repeated inserts
	s.spatialIndex = rtreego.NewTree(2, 25, 50, objs...)
	s.entries = entries
}

func spatialItems(t *model.Tile) []*TileSpatial {
	bounds := t.Footprint().PartBounds()
	items := make([]*TileSpatial, len(bounds))
	for i, b := range bounds {
		items[i] = &TileSpatial{Tile: t, Part: i, Bound: b}
	}
	return items
}

// indexTile replaces the index entries of a tile
func (s *TileService) indexTile(t *model.Tile) {
	s.indexMutex.Lock()
	defer s.indexMutex.Unlock()

	for _, old := range s.entries[t.ID] {
		s.spatialIndex.Delete(old)
	}

	items := spatialItems(t)
	for _, item := range items {
		s.spatialIndex.Insert(item)
	}
	s.entries[t.ID] = items
}

// IsInitialized reports whether the catalog has been loaded.
func (s *TileService) IsInitialized() bool {
	s.initMutex.RLock()
	defer s.initMutex.RUnlock()
	return s.initialized
}

// Count returns the number of tiles in the catalog.
func (s *TileService) Count() int {
	return s.storage.Count()
}

// StoredCount returns the number of tile rows in the repository.
func (s *TileService) StoredCount(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

// Get returns a tile by id
func (s *TileService) Get(id string) (*model.Tile, bool) {
	return s.storage.Get(id)
}

// Register builds a tile from src and stores it, replacing any tile with the
// same id. The tile is persisted by the next PersistDirty call.
func (s *TileService) Register(ctx context.Context, src model.FootprintSource) (*model.Tile, error) {
	t, err := model.NewTile(src)
	if err != nil {
		return nil, err
	}
	t.UpdatedAt = time.Now()

	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()

	s.storage.Set(t.ID, t)
	s.indexTile(t)

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, t.ID); err != nil {
			zap.S().Warnf("Failed to invalidate cached feature of %s: %v", t.ID, err)
		}
	}

	zap.S().Debugf("Registered %s", t)
	return t, nil
}

// Search returns tiles of the given scheme whose footprint intersects any of
// the bounds, sorted by id. An empty scheme matches every scheme.
func (s *TileService) Search(scheme model.Scheme, bounds ...orb.Bound) []*model.Tile {
	s.indexMutex.RLock()
	defer s.indexMutex.RUnlock()

	found := make(map[string]*model.Tile)
	for _, b := range bounds {
		rect, err := rtreego.NewRectFromPoints(
			rtreego.Point{b.Min[0], b.Min[1]},
			rtreego.Point{b.Max[0], b.Max[1]},
		)
		if err != nil {
			zap.S().Warnf("invalid search rect %v: %v", b, err)
			continue
		}

		for _, item := range s.spatialIndex.SearchIntersect(rect) {
			t := item.(*TileSpatial).Tile
			if _, ok := found[t.ID]; ok {
				continue
			}
			if scheme != "" && t.Scheme != scheme {
				continue
			}
			if t.Footprint().Intersects(b) {
				found[t.ID] = t
			}
		}
	}

	return sortedTiles(found)
}

// SearchPoint returns the tiles whose footprint contains the point.
func (s *TileService) SearchPoint(lat, lon float64) []*model.Tile {
	s.indexMutex.RLock()
	defer s.indexMutex.RUnlock()

	point := orb.Point{lon, lat}
	found := make(map[string]*model.Tile)

	for _, item := range s.spatialIndex.SearchIntersect(rtreego.Point{lon, lat}.ToRect(1e-9)) {
		t := item.(*TileSpatial).Tile
		if t.Footprint().Contains(point) {
			found[t.ID] = t
		}
	}

	return sortedTiles(found)
}

func sortedTiles(m map[string]*model.Tile) []*model.Tile {
	result := make([]*model.Tile, 0, len(m))
	for _, t := range m {
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Feature returns the encoded GeoJSON feature of a tile, using the cache
// when one is configured.
func (s *TileService) Feature(ctx context.Context, id string) ([]byte, bool, error) {
	t, ok := s.storage.Get(id)
	if !ok {
		return nil, false, nil
	}

	if s.cache != nil {
		data, hit, err := s.cache.Get(ctx, id)
		if err != nil {
			zap.S().Warnf("Feature cache read failed for %s: %v", id, err)
		} else if hit {
			return data, true, nil
		}
	}

	data, err := export.TileFeature(t).MarshalJSON()
	if err != nil {
		return nil, false, errors.Wrapf(err, "encode feature %s", id)
	}

	if s.cache != nil {
		s.cacheFeature(ctx, t, data)
	}
	return data, true, nil
}

// cacheFeature stores data unless t was replaced while it was encoded.
func (s *TileService) cacheFeature(ctx context.Context, t *model.Tile, data []byte) {
	s.writeMutex.RLock()
	defer s.writeMutex.RUnlock()

	if cur, ok := s.storage.Get(t.ID); !ok || cur != t {
		zap.S().Debugf("Tile %s changed while encoding, not caching its feature", t.ID)
		return
	}
	if err := s.cache.Set(ctx, t.ID, data); err != nil {
		zap.S().Warnf("Feature cache write failed for %s: %v", t.ID, err)
	}
}

// PersistDirty saves every modified tile to the repository and clears the
// dirty flags of the saved ones. A tile registered again while the batch is
// written keeps its flag and goes out with the next call. It returns the
// number of saved tiles.
func (s *TileService) PersistDirty(ctx context.Context) (int, error) {
	dirty := s.storage.GetDirty()
	if len(dirty) == 0 {
		return 0, nil
	}

	startTime := time.Now()
	rows := make([]*model.TilePG, 0, len(dirty))
	saved := make(map[string]*model.Tile, len(dirty))
	for id, t := range dirty {
		row, err := model.TileToPG(t)
		if err != nil {
			zap.S().Errorf("Cannot persist tile %s: %v", id, err)
			continue
		}
		rows = append(rows, row)
		saved[id] = t
	}

	if err := s.repo.SaveBatch(ctx, rows); err != nil {
		return 0, errors.Wrap(err, "persist dirty tiles")
	}

	// Clear flags only after successful save
	s.storage.ClearDirty(saved)

	zap.S().Infof("Saved %d tiles to PostgreSQL in %v", len(rows), time.Since(startTime))
	return len(rows), nil
}
