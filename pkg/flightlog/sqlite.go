// pkg/flightlog/sqlite.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package flightlog

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/mmp/manualcontrol/pkg/uavobj"

	_ "github.com/mattn/go-sqlite3"
)

const (
	initSchemaSQL = `
CREATE TABLE IF NOT EXISTS transitions (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    seq              INTEGER NOT NULL,
    time_ns          INTEGER NOT NULL,
    flight_mode      INTEGER NOT NULL,
    flight_mode_name TEXT    NOT NULL,
    gps_assist       INTEGER NOT NULL,
    roam_state       INTEGER NOT NULL,
    roam_thrust_mode INTEGER NOT NULL,
    stabilization    INTEGER NOT NULL,
    path_follower    INTEGER NOT NULL,
    path_planner     INTEGER NOT NULL
)`

	insertTransitionSQL = `
INSERT INTO transitions (seq,
                         time_ns,
                         flight_mode,
                         flight_mode_name,
                         gps_assist,
                         roam_state,
                         roam_thrust_mode,
                         stabilization,
                         path_follower,
                         path_planner)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	selectTransitionsSQL = `
SELECT
    seq,
    time_ns,
    flight_mode,
    gps_assist,
    roam_state,
    roam_thrust_mode,
    stabilization,
    path_follower,
    path_planner
FROM transitions
ORDER BY id`
)

// SqliteStore records transitions to a SQLite database.
type SqliteStore struct {
	dbPath string

	db     *sql.DB
	dbOnce sync.Once
	dbErr  error

	insert *sql.Stmt
}

func NewSqliteStore(dbPath string) *SqliteStore {
	return &SqliteStore{dbPath: dbPath}
}

func (s *SqliteStore) getDB(ctx context.Context) (*sql.DB, error) {
	s.dbOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "_journal_mode=WAL&_synchronous=NORMAL"))
		if err != nil {
			s.dbErr = fmt.Errorf("opening database: %w", err)
			return
		}

		if _, err = db.ExecContext(ctx, initSchemaSQL); err != nil {
			_ = db.Close()
			s.dbErr = fmt.Errorf("initializing schema: %w", err)
			return
		}

		if s.insert, err = db.PrepareContext(ctx, insertTransitionSQL); err != nil {
			_ = db.Close()
			s.dbErr = fmt.Errorf("preparing statement: %w", err)
			return
		}

		s.db = db
	})

	return s.db, s.dbErr
}

func (s *SqliteStore) Write(ctx context.Context, r Record) error {
	if _, err := s.getDB(ctx); err != nil {
		return err
	}

	st := r.Status
	if _, err := s.insert.ExecContext(ctx, r.Seq, r.Time.UnixNano(), int(st.FlightMode), st.FlightMode.String(),
		st.FlightModeGPSAssist, int(st.PositionRoamState), int(st.PositionRoamThrustMode),
		st.ControlChain.Stabilization, st.ControlChain.PathFollower, st.ControlChain.PathPlanner); err != nil {
		return fmt.Errorf("inserting transition: %w", err)
	}
	return nil
}

// Transitions returns all of the recorded transitions in the order they
// were written.
func (s *SqliteStore) Transitions(ctx context.Context) (records []Record, err error) {
	db, err := s.getDB(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, selectTransitionsSQL)
	if err != nil {
		return nil, fmt.Errorf("querying transitions: %w", err)
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var r Record
		var ns int64
		var mode, roam, thrust uint8
		st := &r.Status
		if err = rows.Scan(&r.Seq, &ns, &mode, &st.FlightModeGPSAssist, &roam, &thrust,
			&st.ControlChain.Stabilization, &st.ControlChain.PathFollower, &st.ControlChain.PathPlanner); err != nil {
			return nil, fmt.Errorf("scanning transition: %w", err)
		}
		r.Time = time.Unix(0, ns)
		st.FlightMode = uavobj.FlightMode(mode)
		st.PositionRoamState = uavobj.RoamState(roam)
		st.PositionRoamThrustMode = uavobj.RoamThrustMode(thrust)
		records = append(records, r)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("reading transitions: %w", err)
	}
	return records, nil
}

func (s *SqliteStore) Close() (err error) {
	if s.db == nil {
		return nil
	}
	defer closeWithError(s.db, &err)
	return s.insert.Close()
}

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}
