package datasource

import (
	"context"
	"database/sql"
	"fmt"

	"golang.org/x/sync/errgroup"
	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/rerungrid/pkg/debug"
	"github.com/vanderheijden86/rerungrid/pkg/loader"
	"github.com/vanderheijden86/rerungrid/pkg/metrics"
	"github.com/vanderheijden86/rerungrid/pkg/model"
)

const (
	tasksQuery     = `SELECT task_id, label, group_id FROM task ORDER BY rowid`
	instancesQuery = `SELECT task_id, execution_date FROM task_instance ORDER BY rowid`
)

// SQLiteReader provides read access to a task database
type SQLiteReader struct {
	db   *sql.DB
	path string
}

// NewSQLiteReader opens a SQLite database for reading
func NewSQLiteReader(source DataSource) (*SQLiteReader, error) {
	if source.Type != SourceTypeSQLite {
		return nil, fmt.Errorf("source is not SQLite: %s", source.Type)
	}

	dsn := fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(5000)", source.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA cache_size = -16000",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			debug.Log("sqlite pragma %q failed: %v", pragma, err)
		}
	}

	return &SQLiteReader{db: db, path: source.Path}, nil
}

// Close closes the database connection
func (r *SQLiteReader) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

type instanceRow struct {
	taskID string
	date   string
}

// LoadDataset reads tasks and their instances. The two tables are queried
// concurrently; instances are attached in table order. Instances naming an
// unknown task are dropped and counted as skipped.
func (r *SQLiteReader) LoadDataset(ctx context.Context) (loader.Dataset, error) {
	defer metrics.Timer(metrics.RecordsLoad)()

	var tasks []model.TaskRecord
	var instances []instanceRow

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tasks, err = r.queryTasks(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		instances, err = r.queryInstances(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return loader.Dataset{}, err
	}

	index := make(map[string]int, len(tasks))
	for i, t := range tasks {
		if _, dup := index[t.ID]; !dup {
			index[t.ID] = i
		}
	}

	ds := loader.Dataset{Format: loader.FormatSQLite, Tasks: tasks}
	for _, inst := range instances {
		i, ok := index[inst.taskID]
		if !ok {
			debug.Log("sqlite: instance %s@%s has no task row", inst.taskID, inst.date)
			ds.Skipped++
			continue
		}
		tasks[i].TaskInstances = append(tasks[i].TaskInstances, inst.date)
	}
	debug.Log("sqlite: loaded %d tasks, %d instances from %s", len(tasks), len(instances)-ds.Skipped, r.path)
	return ds, nil
}

func (r *SQLiteReader) queryTasks(ctx context.Context) ([]model.TaskRecord, error) {
	rows, err := r.db.QueryContext(ctx, tasksQuery)
	if err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.TaskRecord
	for rows.Next() {
		var id string
		var label, group sql.NullString
		if err := rows.Scan(&id, &label, &group); err != nil {
			return nil, fmt.Errorf("scanning task row: %w", err)
		}
		rec := model.TaskRecord{ID: id}
		if label.Valid {
			rec.Label = label.String
		}
		if group.Valid && group.String != "" {
			rec.GroupID = model.GroupRef(group.String)
		}
		tasks = append(tasks, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading tasks: %w", err)
	}
	return tasks, nil
}

func (r *SQLiteReader) queryInstances(ctx context.Context) ([]instanceRow, error) {
	rows, err := r.db.QueryContext(ctx, instancesQuery)
	if err != nil {
		return nil, fmt.Errorf("querying task instances: %w", err)
	}
	defer rows.Close()

	var out []instanceRow
	for rows.Next() {
		var row instanceRow
		if err := rows.Scan(&row.taskID, &row.date); err != nil {
			return nil, fmt.Errorf("scanning task instance row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading task instances: %w", err)
	}
	return out, nil
}
