package storage

import (
	"context"
	"fmt"
	"time"

	"mad-cpm/internal/record"
)

// Run describes one stored simulation run.
type Run struct {
	ID          int64     `db:"id"`
	Name        string    `db:"name"`
	Seed        int64     `db:"seed"`
	Temperature float64   `db:"temperature"`
	Extent      string    `db:"extent"`
	Ticks       int       `db:"ticks"`
	StartedAt   time.Time `db:"started_at"`
}

// TrackPoint is one unwrapped centroid of a cell.
type TrackPoint struct {
	Time int     `db:"mcs"`
	X    float64 `db:"tx"`
	Y    float64 `db:"ty"`
	Z    float64 `db:"tz"`
}

// TypeArea aggregates the cells of one type at one step.
type TypeArea struct {
	Time     int     `db:"mcs"`
	Type     int     `db:"cell_type"`
	Cells    int     `db:"cells"`
	MeanArea float64 `db:"mean_area"`
}

// TrackStore reads and writes runs and their samples.
type TrackStore struct {
	db DuckDB
}

func NewTrackStore(db DuckDB) *TrackStore {
	return &TrackStore{db: db}
}

// InsertRun stores the run header and returns its id.
func (s *TrackStore) InsertRun(ctx context.Context, r Run) (int64, error) {
	query := `
	insert into runs (name, seed, temperature, extent, ticks, started_at)
	values (?,?,?,?,?,?)
	returning id
	`
	var id int64
	err := s.db.GetContext(ctx, &id, query, r.Name, r.Seed, r.Temperature, r.Extent, r.Ticks, r.StartedAt)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// InsertSamples appends samples of a run in one transaction.
func (s *TrackStore) InsertSamples(ctx context.Context, runID int64, samples []record.Sample) error {
	if len(samples) == 0 {
		return nil
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `
	insert into samples (run_id, mcs, cell_id, cell_type, area, perimeter, x, y, z, tx, ty, tz)
	values (?,?,?,?,?,?,?,?,?,?,?,?)
	`)
	if err != nil {
		return fmt.Errorf("prepare samples: %w", err)
	}
	defer stmt.Close()
	for _, sm := range samples {
		_, err := stmt.ExecContext(ctx,
			runID, sm.Time, sm.ID, uint8(sm.Type), sm.Area, sm.Perimeter,
			sm.Pos[0], sm.Pos[1], sm.Pos[2],
			sm.Track[0], sm.Track[1], sm.Track[2],
		)
		if err != nil {
			return fmt.Errorf("insert sample of cell %d at %d: %w", sm.ID, sm.Time, err)
		}
	}
	return tx.Commit()
}

// Runs lists stored runs, newest first.
func (s *TrackStore) Runs(ctx context.Context) ([]Run, error) {
	query := `
	select id, name, seed, temperature, extent, ticks, started_at
	from runs
	order by id desc
	`
	var runs []Run
	err := s.db.SelectContext(ctx, &runs, query)
	return runs, err
}

// Track returns the unwrapped centroid path of one cell.
func (s *TrackStore) Track(ctx context.Context, runID int64, cellID uint32) ([]TrackPoint, error) {
	query := `
	select mcs, tx, ty, tz from samples
	where run_id = ? and cell_id = ?
	order by mcs
	`
	var points []TrackPoint
	err := s.db.SelectContext(ctx, &points, query, runID, cellID)
	return points, err
}

// TypeAreas returns the mean cell area per type and step.
func (s *TrackStore) TypeAreas(ctx context.Context, runID int64) ([]TypeArea, error) {
	query := `
	select mcs, cell_type,
		count(*) as cells,
		avg(area) as mean_area
	from samples
	where run_id = ?
	group by mcs, cell_type
	order by mcs, cell_type
	`
	var areas []TypeArea
	err := s.db.SelectContext(ctx, &areas, query, runID)
	return areas, err
}
