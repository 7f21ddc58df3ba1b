package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/handiism/ultrastar-library/internal/model"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	// ErrNotFound is returned when a song id has no row.
	ErrNotFound = errors.New("song not found")

	// ErrUnknownField is returned for a column that is not an updatable
	// songs column.
	ErrUnknownField = errors.New("unknown field")
)

// Columns lists the updatable columns of the songs table.
var Columns = []string{
	"title", "artist", "language", "edition", "genre", "year",
	"mp3", "cover", "video", "videogap", "bpm", "gap",
	"path", "dirname", "duration", "multi",
}

var numericColumns = []string{"videogap", "bpm", "gap", "duration"}

// Column describes a column of the songs table.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Store persists the song library in SQLite.
//
// Store is the only owner of the database handle; it is safe for
// concurrent use, but the library writes through a single goroutine.
type Store struct {
	db *gorm.DB
}

// Open opens or creates the database at path and makes sure the tables
// exist.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}

	if err := db.AutoMigrate(&Song{}, &Singer{}); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Rebuild replaces the whole library with records in one transaction.
//
// Both tables are dropped and recreated, then one songs row per record is
// inserted in order, followed by its singer slots in sorted slot order. The
// assigned ids are written back into the records.
func (s *Store) Rebuild(ctx context.Context, records []*model.SongRecord) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Migrator().DropTable(&Singer{}, &Song{}); err != nil {
			return fmt.Errorf("drop tables: %w", err)
		}
		if err := tx.AutoMigrate(&Song{}, &Singer{}); err != nil {
			return fmt.Errorf("create tables: %w", err)
		}

		for _, record := range records {
			row := fromRecord(record)
			if err := tx.Create(row).Error; err != nil {
				return fmt.Errorf("insert %s: %w", record.SourcePath, err)
			}
			record.ID = row.ID
		}

		return nil
	})
}

// Query runs statement as is and returns the resulting rows.
//
// The statement is not validated or parameterized: Query is the operator
// entry point and must never receive untrusted input. Column values are
// returned as the driver reports them, with text converted to string.
func (s *Store) Query(ctx context.Context, statement string) ([]model.Row, error) {
	rows, err := s.db.WithContext(ctx).Raw(statement).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := []model.Row{}
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}

		if err := rows.Scan(pointers...); err != nil {
			return nil, err
		}

		row := make(model.Row, len(columns))
		for i, column := range columns {
			if b, ok := values[i].([]byte); ok {
				row[column] = string(b)
			} else {
				row[column] = values[i]
			}
		}
		result = append(result, row)
	}

	return result, rows.Err()
}

// Song returns the song with id, including its singers.
func (s *Store) Song(ctx context.Context, id uint64) (*model.SongRecord, error) {
	var song Song
	err := s.db.WithContext(ctx).Preload("Singers").First(&song, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("song %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return song.Record(), nil
}

// FindSongs returns the songs matching all conditions, ordered by id.
// Condition keys must be columns of the songs table or "id".
func (s *Store) FindSongs(ctx context.Context, conditions map[string]any) ([]*model.SongRecord, error) {
	for column := range conditions {
		if column != "id" && !slices.Contains(Columns, column) {
			return nil, fmt.Errorf("%s: %w", column, ErrUnknownField)
		}
	}

	var songs []*Song
	query := s.db.WithContext(ctx).Preload("Singers").Order("id")
	if len(conditions) > 0 {
		query = query.Where(conditions)
	}
	if err := query.Find(&songs).Error; err != nil {
		return nil, err
	}

	records := make([]*model.SongRecord, len(songs))
	for i, song := range songs {
		records[i] = song.Record()
	}
	return records, nil
}

// UpdateField sets column field of song id to value. Numeric columns accept
// "," as decimal separator and multi accepts any strconv.ParseBool form.
// It reports whether a row was changed.
func (s *Store) UpdateField(ctx context.Context, id uint64, field, value string) (bool, error) {
	field = strings.ToLower(field)
	converted, err := ColumnValue(field, value)
	if err != nil {
		return false, err
	}

	result := s.db.WithContext(ctx).Model(&Song{}).Where("id = ?", id).Update(field, converted)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ColumnValue validates field and converts the raw value to the column's
// Go type.
func ColumnValue(field, value string) (any, error) {
	field = strings.ToLower(field)
	if !slices.Contains(Columns, field) {
		return nil, fmt.Errorf("%q: %w", field, ErrUnknownField)
	}

	switch {
	case slices.Contains(numericColumns, field):
		number, err := model.ParseNumber(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", field, err)
		}
		return number, nil
	case field == "multi":
		multi, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", field, err)
		}
		return multi, nil
	default:
		return value, nil
	}
}

// Fields returns the columns of the songs table as reported by the
// database.
func (s *Store) Fields(ctx context.Context) ([]Column, error) {
	types, err := s.db.WithContext(ctx).Migrator().ColumnTypes(&Song{})
	if err != nil {
		return nil, err
	}

	columns := make([]Column, len(types))
	for i, ct := range types {
		columns[i] = Column{Name: ct.Name(), Type: ct.DatabaseTypeName()}
	}
	return columns, nil
}

// Count returns the number of songs.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	return count, s.db.WithContext(ctx).Model(&Song{}).Count(&count).Error
}
