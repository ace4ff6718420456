// Package sqldb stores the object store in relational tables through
// database/sql. The same statements run on MySQL (go-sql-driver/mysql) and
// SQLite (modernc.org/sqlite).
package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"hbnb_api/internal/domain"
)

type Engine struct{ db *sql.DB }

func New(db *sql.DB) *Engine { return &Engine{db: db} }

// Open connects with driver ("mysql" or "sqlite"), pings and ensures the
// schema exists.
func Open(ctx context.Context, driver, dsn string) (*Engine, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open %s: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	e := New(db)
	if err := e.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return e, nil
}

// EnsureSchema creates missing tables. It never alters existing ones.
func (e *Engine) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaSQL {
		if _, err := e.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (e *Engine) Close() error { return e.db.Close() }

// Store replaces every row inside a single transaction.
func (e *Engine) Store(ctx context.Context, s *domain.Snapshot) (err error) {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, table := range tablesDeleteOrder {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, v := range s.States {
		if _, err := tx.ExecContext(ctx, insertStateSQL, v.ID, ts(v.CreatedAt), ts(v.UpdatedAt), v.Name); err != nil {
			return fmt.Errorf("insert state %s: %w", v.ID, err)
		}
	}
	for _, v := range s.Users {
		if _, err := tx.ExecContext(ctx, insertUserSQL,
			v.ID, ts(v.CreatedAt), ts(v.UpdatedAt), v.Email, v.Password, v.FirstName, v.LastName,
		); err != nil {
			return fmt.Errorf("insert user %s: %w", v.ID, err)
		}
	}
	for _, v := range s.Amenities {
		if _, err := tx.ExecContext(ctx, insertAmenitySQL, v.ID, ts(v.CreatedAt), ts(v.UpdatedAt), v.Name); err != nil {
			return fmt.Errorf("insert amenity %s: %w", v.ID, err)
		}
	}
	for _, v := range s.Cities {
		if _, err := tx.ExecContext(ctx, insertCitySQL, v.ID, ts(v.CreatedAt), ts(v.UpdatedAt), v.StateID, v.Name); err != nil {
			return fmt.Errorf("insert city %s: %w", v.ID, err)
		}
	}
	for _, v := range s.Places {
		if _, err := tx.ExecContext(ctx, insertPlaceSQL,
			v.ID, ts(v.CreatedAt), ts(v.UpdatedAt), v.CityID, v.UserID, v.Name, v.Description,
			v.NumberRooms, v.NumberBathrooms, v.MaxGuest, v.PriceByNight, v.Latitude, v.Longitude,
		); err != nil {
			return fmt.Errorf("insert place %s: %w", v.ID, err)
		}
		for i, aid := range v.AmenityIDs {
			if _, err := tx.ExecContext(ctx, insertLinkSQL, v.ID, aid, i); err != nil {
				return fmt.Errorf("link place %s amenity %s: %w", v.ID, aid, err)
			}
		}
	}
	for _, v := range s.Reviews {
		if _, err := tx.ExecContext(ctx, insertReviewSQL,
			v.ID, ts(v.CreatedAt), ts(v.UpdatedAt), v.PlaceID, v.UserID, v.Text,
		); err != nil {
			return fmt.Errorf("insert review %s: %w", v.ID, err)
		}
	}
	return tx.Commit()
}

// Load reads every table concurrently and rebuilds the place/amenity links.
func (e *Engine) Load(ctx context.Context) (*domain.Snapshot, error) {
	snap := &domain.Snapshot{}
	links := map[string][]string{}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return e.query(ctx, selectStatesSQL, func(rows *sql.Rows) error {
			v := &domain.State{}
			var c, u string
			if err := rows.Scan(&v.ID, &c, &u, &v.Name); err != nil {
				return err
			}
			snap.States = append(snap.States, v)
			return setTimes(&v.Base, c, u)
		})
	})
	g.Go(func() error {
		return e.query(ctx, selectUsersSQL, func(rows *sql.Rows) error {
			v := &domain.User{}
			var c, u string
			if err := rows.Scan(&v.ID, &c, &u, &v.Email, &v.Password, &v.FirstName, &v.LastName); err != nil {
				return err
			}
			snap.Users = append(snap.Users, v)
			return setTimes(&v.Base, c, u)
		})
	})
	g.Go(func() error {
		return e.query(ctx, selectAmenitiesSQL, func(rows *sql.Rows) error {
			v := &domain.Amenity{}
			var c, u string
			if err := rows.Scan(&v.ID, &c, &u, &v.Name); err != nil {
				return err
			}
			snap.Amenities = append(snap.Amenities, v)
			return setTimes(&v.Base, c, u)
		})
	})
	g.Go(func() error {
		return e.query(ctx, selectCitiesSQL, func(rows *sql.Rows) error {
			v := &domain.City{}
			var c, u string
			if err := rows.Scan(&v.ID, &c, &u, &v.StateID, &v.Name); err != nil {
				return err
			}
			snap.Cities = append(snap.Cities, v)
			return setTimes(&v.Base, c, u)
		})
	})
	g.Go(func() error {
		return e.query(ctx, selectPlacesSQL, func(rows *sql.Rows) error {
			v := &domain.Place{}
			var c, u string
			if err := rows.Scan(
				&v.ID, &c, &u, &v.CityID, &v.UserID, &v.Name, &v.Description,
				&v.NumberRooms, &v.NumberBathrooms, &v.MaxGuest, &v.PriceByNight, &v.Latitude, &v.Longitude,
			); err != nil {
				return err
			}
			snap.Places = append(snap.Places, v)
			return setTimes(&v.Base, c, u)
		})
	})
	g.Go(func() error {
		return e.query(ctx, selectReviewsSQL, func(rows *sql.Rows) error {
			v := &domain.Review{}
			var c, u string
			if err := rows.Scan(&v.ID, &c, &u, &v.PlaceID, &v.UserID, &v.Text); err != nil {
				return err
			}
			snap.Reviews = append(snap.Reviews, v)
			return setTimes(&v.Base, c, u)
		})
	})
	g.Go(func() error {
		return e.query(ctx, selectLinksSQL, func(rows *sql.Rows) error {
			var pid, aid string
			if err := rows.Scan(&pid, &aid); err != nil {
				return err
			}
			links[pid] = append(links[pid], aid)
			return nil
		})
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, p := range snap.Places {
		p.AmenityIDs = links[p.ID]
		if p.AmenityIDs == nil {
			p.AmenityIDs = []string{}
		}
	}
	return snap, nil
}

// query runs q and calls scan once per row. Each goroutine in Load owns the
// slice scan appends to.
func (e *Engine) query(ctx context.Context, q string, scan func(*sql.Rows) error) error {
	rows, err := e.db.QueryContext(ctx, q)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

func ts(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func setTimes(b *domain.Base, created, updated string) error {
	var err error
	if b.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return fmt.Errorf("%s created_at: %w", b.ID, err)
	}
	if b.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated); err != nil {
		return fmt.Errorf("%s updated_at: %w", b.ID, err)
	}
	return nil
}
