package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"migration-renderer/internal/flow"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

func Ping(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return db.PingContext(ctx)
}

// Header is one row of the trajectories table.
type Header struct {
	ID         string
	Amount     int
	RadiusM    float64
	R, G, B, A int
}

// Waypoint is one row of trajectory_waypoints.
type Waypoint struct {
	TrajectoryID string
	Seq          int
	Lng, Lat     float64
	Ts           float64
}

// FetchTrajectories reads every trajectory with its waypoints ordered by
// sequence. Rows that cannot form a trajectory are returned as rejected;
// path shape is checked later, when the set is expanded.
func FetchTrajectories(ctx context.Context, db *sql.DB) ([]flow.Trajectory, []*flow.DataShapeError, error) {
	headers, err := fetchHeaders(ctx, db)
	if err != nil {
		return nil, nil, err
	}
	if len(headers) == 0 {
		return nil, nil, nil
	}
	wps, err := fetchWaypoints(ctx, db)
	if err != nil {
		return nil, nil, err
	}
	trs, rejected := Assemble(headers, wps)
	return trs, rejected, nil
}

func fetchHeaders(ctx context.Context, db *sql.DB) ([]Header, error) {
	q := `
SELECT id::text, amount, radius_m,
       COALESCE(color_r, 255), COALESCE(color_g, 255), COALESCE(color_b, 255), COALESCE(color_a, 255)
FROM trajectories
ORDER BY id`
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query trajectories: %w", err)
	}
	defer rows.Close()
	var hs []Header
	for rows.Next() {
		var h Header
		if err := rows.Scan(&h.ID, &h.Amount, &h.RadiusM, &h.R, &h.G, &h.B, &h.A); err != nil {
			return nil, err
		}
		hs = append(hs, h)
	}
	return hs, rows.Err()
}

func fetchWaypoints(ctx context.Context, db *sql.DB) ([]Waypoint, error) {
	q := `
SELECT trajectory_id::text, seq, lng, lat, ts
FROM trajectory_waypoints
ORDER BY trajectory_id, seq`
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query trajectory_waypoints: %w", err)
	}
	defer rows.Close()
	var wps []Waypoint
	for rows.Next() {
		var w Waypoint
		if err := rows.Scan(&w.TrajectoryID, &w.Seq, &w.Lng, &w.Lat, &w.Ts); err != nil {
			return nil, err
		}
		wps = append(wps, w)
	}
	return wps, rows.Err()
}

// Assemble groups waypoints under their headers, keeping header order.
// Waypoints must arrive sorted by sequence within a trajectory. A header
// with a bad color or out-of-order waypoints is rejected on its own;
// waypoints of unknown trajectories are skipped.
func Assemble(headers []Header, wps []Waypoint) ([]flow.Trajectory, []*flow.DataShapeError) {
	index := make(map[string]int, len(headers))
	trs := make([]flow.Trajectory, len(headers))
	bad := make(map[string]*flow.DataShapeError)
	for i, h := range headers {
		index[h.ID] = i
		col, err := flow.ColorFromFloats([]float64{float64(h.R), float64(h.G), float64(h.B), float64(h.A)})
		if err != nil {
			bad[h.ID] = &flow.DataShapeError{ID: flow.ID(h.ID), Reason: err.Error()}
			continue
		}
		trs[i] = flow.Trajectory{
			ID:     flow.ID(h.ID),
			Amount: h.Amount,
			Radius: h.RadiusM,
			Color:  col,
		}
	}
	last := make(map[string]int, len(headers))
	orphans := 0
	for _, w := range wps {
		i, ok := index[w.TrajectoryID]
		if !ok {
			orphans++
			continue
		}
		if _, rejected := bad[w.TrajectoryID]; rejected {
			continue
		}
		if prev, seen := last[w.TrajectoryID]; seen && w.Seq <= prev {
			bad[w.TrajectoryID] = &flow.DataShapeError{
				ID:     flow.ID(w.TrajectoryID),
				Reason: fmt.Sprintf("waypoint seq %d after %d", w.Seq, prev),
			}
			continue
		}
		last[w.TrajectoryID] = w.Seq
		trs[i].Path = append(trs[i].Path, flow.Coord{w.Lng, w.Lat})
		trs[i].Timestamps = append(trs[i].Timestamps, w.Ts)
	}
	if orphans > 0 {
		log.Printf("skipped %d waypoints of unknown trajectories", orphans)
	}

	out := make([]flow.Trajectory, 0, len(headers))
	var rejected []*flow.DataShapeError
	for i, h := range headers {
		if e, ok := bad[h.ID]; ok {
			log.Printf("rejecting trajectory %q: %s", h.ID, e.Reason)
			rejected = append(rejected, e)
			continue
		}
		out = append(out, trs[i])
	}
	return out, rejected
}
