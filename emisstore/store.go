/*
Copyright © 2024 the isisengine authors.
This file is part of isisengine.

isisengine is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

isisengine is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with isisengine.  If not, see <http://www.gnu.org/licenses/>.*/

package emisstore

import (
	"context"
	"fmt"
	"runtime"

	"github.com/ctessum/requestcache"
	"github.com/sirupsen/logrus"

	"github.com/specmodel/isisengine/atomdb"
	"github.com/specmodel/isisengine/internal/hash"
	"github.com/specmodel/isisengine/tablesrc"
)

// Config controls how a Store holds its emissivity blocks in memory, per
// spec.md §4.3's resident/lazy distinction.
type Config struct {
	// LineResident, if true, keeps every line-emissivity block in memory
	// for the life of the Store instead of evicting under cache pressure.
	LineResident bool
	// ContinuumResident is the continuum analog of LineResident.
	ContinuumResident bool
	// MaybeMissingLines, if true (the default), tolerates grid points whose
	// line-emissivity extension references a line identity the database
	// doesn't have. Combined with LineResident, it also triggers spec.md
	// §4.3's two-pass resident-load protocol: Open scans every line block
	// for unknown identities, merges them into the database in one batch
	// via atomdb.MergeDiscoveredLines, then rewalks the blocks to resolve
	// the now-known pointers. Without LineResident, an unknown line is
	// simply dropped from the lazily loaded block it was found in.
	MaybeMissingLines bool
	// CacheSize bounds the number of non-resident blocks held in memory at
	// once; it is ignored for a resident block kind.
	CacheSize int
}

// NewConfig returns the default Config: lazy loading, a modest cache, and
// tolerance for missing lines.
func NewConfig() Config {
	return Config{MaybeMissingLines: true, CacheSize: 64}
}

// Store is the emissivity store of spec.md §4.3: a filemap of (T, nₑ) grid
// points plus the line- and continuum-emissivity data at each, loaded from
// a tablesrc.Source and cached via github.com/ctessum/requestcache the way
// the teacher's sr.Reader caches SR-matrix records.
type Store struct {
	db     *atomdb.Database
	source tablesrc.Source
	cfg    Config

	Rows                       []FilemapRow
	NumTemps, NumDensities     int

	lineCache *requestcache.Cache
	contCache *requestcache.Cache

	abundance *abundanceRegistry
	ionfrac   map[string]*IonFractionTable

	Log logrus.FieldLogger
}

// Open builds a Store against source: it reads the filemap, registers every
// row as a grid point, then loads the abundance and ion-fraction
// extensions eagerly (they are small compared to the line/continuum
// blocks, which go through the caches below). When cfg.LineResident or
// cfg.ContinuumResident is set, Open loads that kind's block for every
// grid row before returning (after the unknown-line merge, when that
// applies); otherwise LineBlockAt and ContinuumBlockAt load blocks on demand.
func Open(ctx context.Context, cfg Config, source tablesrc.Source, db *atomdb.Database) (*Store, error) {
	s := &Store{
		db:        db,
		source:    source,
		cfg:       cfg,
		abundance: newAbundanceRegistry(),
		ionfrac:   make(map[string]*IonFractionTable),
		Log:       logrus.StandardLogger(),
	}

	fm, err := source.OpenFilemap(ctx)
	if err != nil {
		return nil, fmt.Errorf("emisstore: reading filemap: %w", err)
	}
	s.Rows = make([]FilemapRow, len(fm.Rows))
	for i, r := range fm.Rows {
		s.Rows[i] = FilemapRow{T: tablesrc.KevToKelvin(r.KtKeV), Ne: r.EDensity, Locator: r.Locator}
	}
	s.NumTemps, s.NumDensities = fm.NumTemps, fm.NumDensities

	if abunds, err := source.OpenAbundance(ctx); err != nil {
		s.Log.Warnf("emisstore: no abundance extension: %v", err)
	} else {
		for i, a := range abunds {
			name := a.Source
			if name == "" {
				name = fmt.Sprintf("abundance_%d", i)
			}
			s.abundance.AddTable(name, a.Abund)
		}
		if fm.AbundSource != "" {
			if t := s.abundance.FindByName(fm.AbundSource); t != nil {
				s.abundance.SetStandard(t.ID)
				s.abundance.SetChosen(t.ID)
			}
		}
	}

	if ifd, err := source.OpenIonFraction(ctx); err != nil {
		s.Log.Warnf("emisstore: no ion-fraction extension: %v", err)
	} else {
		s.ionfrac["default"] = newIonFractionTable("default", ifd)
	}

	var lineResident, contResident int
	if cfg.LineResident {
		lineResident = 1 << 30
	} else {
		lineResident = cfg.CacheSize
	}
	if cfg.ContinuumResident {
		contResident = 1 << 30
	} else {
		contResident = cfg.CacheSize
	}

	workers := runtime.GOMAXPROCS(-1)
	s.lineCache = requestcache.NewCache(func(ctx context.Context, request interface{}) (interface{}, error) {
		loc := request.(tablesrc.Locator)
		return s.loadLineBlock(ctx, loc)
	}, workers, requestcache.Deduplicate(), requestcache.Memory(lineResident))

	s.contCache = requestcache.NewCache(func(ctx context.Context, request interface{}) (interface{}, error) {
		loc := request.(tablesrc.Locator)
		return s.loadContinuumBlock(ctx, loc)
	}, workers, requestcache.Deduplicate(), requestcache.Memory(contResident))

	if cfg.LineResident && cfg.MaybeMissingLines {
		if err := s.mergeUnknownLines(ctx); err != nil {
			return nil, err
		}
	}
	for _, row := range s.Rows {
		if cfg.LineResident {
			if _, err := s.LineBlockAt(ctx, row.Locator); err != nil {
				return nil, fmt.Errorf("emisstore: preloading line block %+v: %w", row.Locator, err)
			}
		}
		if cfg.ContinuumResident {
			if _, err := s.ContinuumBlockAt(ctx, row.Locator); err != nil {
				return nil, fmt.Errorf("emisstore: preloading continuum block %+v: %w", row.Locator, err)
			}
		}
	}

	s.Log.Debugf("emisstore: opened store against line database %s with %d grid rows", db.ID, len(s.Rows))
	return s, nil
}

// mergeUnknownLines implements spec.md §4.3's two-pass resident-load
// protocol: scan every line-emissivity extension for line identities the
// database doesn't have yet, merge them into the database in one batch,
// then rewalk every row so LineBlockAt resolves pointers against the now-
// complete line table rather than dropping them the way it would under
// lazy loading.
func (s *Store) mergeUnknownLines(ctx context.Context) error {
	type discKey struct {
		z, q, up, lo int
		wl           float64
	}
	seen := make(map[discKey]bool)
	var discovered []atomdb.DiscoveredLine
	for _, row := range s.Rows {
		data, err := s.source.OpenLineEmissivity(ctx, row.Locator)
		if err != nil {
			return fmt.Errorf("emisstore: scanning line block %+v for unknown lines: %w", row.Locator, err)
		}
		for i := range data.Lambda {
			z, q, up, lo, wl := data.Element[i], data.Ion[i], data.UpperLev[i], data.LowerLev[i], data.Lambda[i]
			if s.db.GetLine(wl, z, q, up, lo) != nil {
				continue
			}
			k := discKey{z: z, q: q, up: up, lo: lo, wl: wl}
			if seen[k] {
				continue
			}
			seen[k] = true
			discovered = append(discovered, atomdb.DiscoveredLine{Wavelength: wl, Z: z, Q: q, Upper: up, Lower: lo})
		}
	}
	if len(discovered) == 0 {
		return nil
	}
	if err := s.db.MergeDiscoveredLines(discovered); err != nil {
		return fmt.Errorf("emisstore: merging lines discovered in emissivity tables: %w", err)
	}
	for _, row := range s.Rows {
		if _, err := s.LineBlockAt(ctx, row.Locator); err != nil {
			return fmt.Errorf("emisstore: resolving line block %+v after merge: %w", row.Locator, err)
		}
	}
	return nil
}

// cacheKey namespaces a block's cache key by the line database it was
// resolved against, so a process that opens two Stores against different
// atomdb.Database instances (e.g. two different abundance sets loaded from
// the same file) never confuses their cached blocks even if their Locators
// collide.
func (s *Store) cacheKey(loc tablesrc.Locator) string {
	return s.db.ID.String() + ":" + hash.Hash(loc)
}

// FilemapSummary reports descriptive counts for a Store, the way
// vargrid.go's CTMData carries a Description/Units alongside its gridded
// data instead of leaving a caller to infer shape from raw numbers.
type FilemapSummary struct {
	NumTemps         int
	NumDensities     int
	NumRows          int
	NumLines         int
	NumContinuumRecs int
	HasContinuum     bool
}

// Summary returns descriptive counts for the store: grid shape, the number
// of lines known to the associated database, and (by loading the first
// grid point's continuum block, if any) the number of continuum records
// tabulated per grid point.
func (s *Store) Summary(ctx context.Context) FilemapSummary {
	sum := FilemapSummary{
		NumTemps:     s.NumTemps,
		NumDensities: s.NumDensities,
		NumRows:      len(s.Rows),
		NumLines:     s.db.GetNLines(),
	}
	if len(s.Rows) == 0 {
		return sum
	}
	blk, err := s.ContinuumBlockAt(ctx, s.Rows[0].Locator)
	if err != nil {
		return sum
	}
	sum.HasContinuum = true
	sum.NumContinuumRecs = len(blk.Records)
	return sum
}

// Abundance exposes the store's abundance-table registry.
func (s *Store) Abundance() *abundanceRegistry { return s.abundance }

// IonFractionTable returns the named ion-fraction table ("default" if the
// source only carries one), or nil.
func (s *Store) IonFractionTable(name string) *IonFractionTable {
	return s.ionfrac[name]
}

func (s *Store) loadLineBlock(ctx context.Context, loc tablesrc.Locator) (*LineBlock, error) {
	data, err := s.source.OpenLineEmissivity(ctx, loc)
	if err != nil {
		return nil, fmt.Errorf("emisstore: loading line block %+v: %w", loc, err)
	}
	b := &LineBlock{Lookup: make(map[int]int, len(data.Lambda))}
	for i := range data.Lambda {
		z, q, up, lo := data.Element[i], data.Ion[i], data.UpperLev[i], data.LowerLev[i]
		line := s.db.GetLine(data.Lambda[i], z, q, up, lo)
		if line == nil {
			if !s.cfg.MaybeMissingLines {
				return nil, fmt.Errorf("emisstore: line block %+v references unknown line Z=%d q=%d %d->%d",
					loc, z, q, up, lo)
			}
			continue
		}
		line.HaveEmissivityData = true
		b.Lookup[line.Index] = len(b.Entries)
		b.Entries = append(b.Entries, LineEmis{LineIndex: line.Index, Value: data.Epsilon[i]})
	}
	return b, nil
}

func (s *Store) loadContinuumBlock(ctx context.Context, loc tablesrc.Locator) (*ContinuumBlock, error) {
	data, err := s.source.OpenContinuumEmissivity(ctx, loc)
	if err != nil {
		return nil, fmt.Errorf("emisstore: loading continuum block %+v: %w", loc, err)
	}
	b := &ContinuumBlock{Records: make([]ContinuumRecord, len(data.Records))}
	for i, r := range data.Records {
		b.Records[i] = ContinuumRecord{
			Z: r.Z, Q: r.Q,
			ETrue: r.ECont, VTrue: r.Continuum,
			EPseudo: r.EPseudo, VPseudo: r.Pseudo,
		}
	}
	return b, nil
}

// LineBlockAt returns the line-emissivity block for grid point loc, loading
// and (unless resident) caching it on first use.
func (s *Store) LineBlockAt(ctx context.Context, loc tablesrc.Locator) (*LineBlock, error) {
	req := s.lineCache.NewRequest(ctx, loc, s.cacheKey(loc))
	res, err := req.Result()
	if err != nil {
		return nil, err
	}
	return res.(*LineBlock), nil
}

// ContinuumBlockAt returns the continuum-emissivity block for grid point
// loc, loading and (unless resident) caching it on first use.
func (s *Store) ContinuumBlockAt(ctx context.Context, loc tablesrc.Locator) (*ContinuumBlock, error) {
	req := s.contCache.NewRequest(ctx, loc, s.cacheKey(loc))
	res, err := req.Result()
	if err != nil {
		return nil, err
	}
	return res.(*ContinuumBlock), nil
}
