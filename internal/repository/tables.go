package repository

import (
	"database/sql"
	"fmt"

	"github.com/duaragha/cat-tracker-sub000/internal/domain"
)

type rowScanner interface {
	Scan(dest ...any) error
}

// tableSpec maps one entry kind to its table. columns and values share order;
// id is always first and cat_id second.
type tableSpec struct {
	table   string
	columns []string
	orderBy string
	values  func(domain.Entry) []any
	scan    func(rowScanner) (domain.Entry, error)
}

var tables = map[domain.Kind]tableSpec{
	domain.KindWashroom: {
		table:   "washroom",
		columns: []string{"id", "cat_id", "timestamp", "type", "consistency", "has_blood", "color", "photos", "notes", "created_at"},
		orderBy: "timestamp DESC",
		values: func(en domain.Entry) []any {
			e := en.(*domain.WashroomEntry)
			return []any{e.ID, e.CatID, fmtTime(e.Timestamp), e.Type, nullString(e.Consistency), e.HasBlood,
				nullString(e.Color), domain.EncodePhotos(e.Photos), nullString(e.Notes), fmtTime(e.CreatedAt)}
		},
		scan: func(row rowScanner) (domain.Entry, error) {
			var (
				e                          domain.WashroomEntry
				ts, created                dbTime
				consistency, color, photos sql.NullString
				notes                      sql.NullString
			)
			if err := row.Scan(&e.ID, &e.CatID, &ts, &e.Type, &consistency, &e.HasBlood, &color, &photos, &notes, &created); err != nil {
				return nil, err
			}
			e.Timestamp, e.CreatedAt = ts.Time, created.Time
			e.Consistency, e.Color, e.Notes = consistency.String, color.String, notes.String
			e.Photos = domain.ParsePhotos(photos.String)
			return &e, nil
		},
	},
	domain.KindFood: {
		table:   "food",
		columns: []string{"id", "cat_id", "timestamp", "food_category", "food_type", "brand", "amount", "unit", "portion_to_grams", "notes", "created_at"},
		orderBy: "timestamp DESC",
		values: func(en domain.Entry) []any {
			e := en.(*domain.FoodEntry)
			return []any{e.ID, e.CatID, fmtTime(e.Timestamp), e.FoodCategory, e.FoodType, nullString(e.Brand),
				e.Amount, e.Unit, nullFloat(e.PortionToGrams), nullString(e.Notes), fmtTime(e.CreatedAt)}
		},
		scan: func(row rowScanner) (domain.Entry, error) {
			var (
				e           domain.FoodEntry
				ts, created dbTime
				brand       sql.NullString
				notes       sql.NullString
				portion     sql.NullFloat64
			)
			if err := row.Scan(&e.ID, &e.CatID, &ts, &e.FoodCategory, &e.FoodType, &brand, &e.Amount, &e.Unit, &portion, &notes, &created); err != nil {
				return nil, err
			}
			e.Timestamp, e.CreatedAt = ts.Time, created.Time
			e.Brand, e.Notes = brand.String, notes.String
			e.PortionToGrams = floatPtr(portion)
			return &e, nil
		},
	},
	domain.KindSleep: {
		table:   "sleep",
		columns: []string{"id", "cat_id", "start_time", "end_time", "duration", "quality", "location", "photos", "notes", "created_at"},
		orderBy: "start_time DESC",
		values: func(en domain.Entry) []any {
			e := en.(*domain.SleepEntry)
			return []any{e.ID, e.CatID, fmtTime(e.StartTime), fmtTime(e.EndTime), e.Duration, nullString(e.Quality),
				nullString(e.Location), domain.EncodePhotos(e.Photos), nullString(e.Notes), fmtTime(e.CreatedAt)}
		},
		scan: func(row rowScanner) (domain.Entry, error) {
			var (
				e                         domain.SleepEntry
				start, end, created       dbTime
				quality, location, photos sql.NullString
				notes                     sql.NullString
			)
			if err := row.Scan(&e.ID, &e.CatID, &start, &end, &e.Duration, &quality, &location, &photos, &notes, &created); err != nil {
				return nil, err
			}
			e.StartTime, e.EndTime, e.CreatedAt = start.Time, end.Time, created.Time
			e.Quality, e.Location, e.Notes = quality.String, location.String, notes.String
			e.Photos = domain.ParsePhotos(photos.String)
			return &e, nil
		},
	},
	domain.KindWeight: {
		table:   "weight",
		columns: []string{"id", "cat_id", "weight", "measurement_date", "photos", "notes", "created_at"},
		orderBy: "measurement_date DESC",
		values: func(en domain.Entry) []any {
			e := en.(*domain.WeightEntry)
			return []any{e.ID, e.CatID, e.Weight, fmtTime(e.MeasurementDate), domain.EncodePhotos(e.Photos),
				nullString(e.Notes), fmtTime(e.CreatedAt)}
		},
		scan: func(row rowScanner) (domain.Entry, error) {
			var (
				e                 domain.WeightEntry
				measured, created dbTime
				photos, notes     sql.NullString
			)
			if err := row.Scan(&e.ID, &e.CatID, &e.Weight, &measured, &photos, &notes, &created); err != nil {
				return nil, err
			}
			e.MeasurementDate, e.CreatedAt = measured.Time, created.Time
			e.Notes = notes.String
			e.Photos = domain.ParsePhotos(photos.String)
			return &e, nil
		},
	},
	domain.KindPhoto: {
		table:   "photo",
		columns: []string{"id", "cat_id", "image_url", "upload_date", "description", "tags", "notes", "created_at"},
		orderBy: "upload_date DESC",
		values: func(en domain.Entry) []any {
			e := en.(*domain.PhotoEntry)
			return []any{e.ID, e.CatID, e.ImageURL, fmtTime(e.UploadDate), nullString(e.Description),
				domain.EncodePhotos(e.Tags), nullString(e.Notes), fmtTime(e.CreatedAt)}
		},
		scan: func(row rowScanner) (domain.Entry, error) {
			var (
				e                 domain.PhotoEntry
				uploaded, created dbTime
				desc, tags, notes sql.NullString
			)
			if err := row.Scan(&e.ID, &e.CatID, &e.ImageURL, &uploaded, &desc, &tags, &notes, &created); err != nil {
				return nil, err
			}
			e.UploadDate, e.CreatedAt = uploaded.Time, created.Time
			e.Description, e.Notes = desc.String, notes.String
			e.Tags = domain.ParsePhotos(tags.String)
			return &e, nil
		},
	},
	domain.KindTreat: {
		table:   "treat",
		columns: []string{"id", "cat_id", "timestamp", "treat_type", "brand", "quantity", "calories", "notes", "created_at"},
		orderBy: "timestamp DESC",
		values: func(en domain.Entry) []any {
			e := en.(*domain.TreatEntry)
			return []any{e.ID, e.CatID, fmtTime(e.Timestamp), e.TreatType, nullString(e.Brand), e.Quantity,
				nullFloat(e.Calories), nullString(e.Notes), fmtTime(e.CreatedAt)}
		},
		scan: func(row rowScanner) (domain.Entry, error) {
			var (
				e            domain.TreatEntry
				ts, created  dbTime
				brand, notes sql.NullString
				calories     sql.NullFloat64
			)
			if err := row.Scan(&e.ID, &e.CatID, &ts, &e.TreatType, &brand, &e.Quantity, &calories, &notes, &created); err != nil {
				return nil, err
			}
			e.Timestamp, e.CreatedAt = ts.Time, created.Time
			e.Brand, e.Notes = brand.String, notes.String
			e.Calories = floatPtr(calories)
			return &e, nil
		},
	},
}

func specFor(kind domain.Kind) (tableSpec, error) {
	spec, ok := tables[kind]
	if !ok {
		return tableSpec{}, fmt.Errorf("%w: %q", domain.ErrUnknownKind, kind)
	}
	return spec, nil
}
