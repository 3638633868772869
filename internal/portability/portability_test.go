package portability

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/duaragha/cat-tracker-sub000/internal/domain"
)

var at = time.Date(2024, 5, 4, 7, 30, 0, 0, time.UTC)

func sample() *domain.Snapshot {
	w := 4.5
	snap := domain.NewSnapshot()
	snap.CatProfile = &domain.CatProfile{ID: "cat-1", Name: "Whiskers", Weight: &w, CreatedAt: at, UpdatedAt: at}
	snap.WashroomEntries = []*domain.WashroomEntry{
		{ID: "w1", CatID: "cat-1", Timestamp: at, Type: domain.WashroomBoth, HasBlood: true, Photos: []string{"a.jpg", "b.jpg"}, CreatedAt: at},
	}
	snap.SleepEntries = []*domain.SleepEntry{
		{ID: "s1", CatID: "cat-1", StartTime: at, EndTime: at.Add(150 * time.Minute), Duration: 150, Location: "sofa", Photos: []string{}, CreatedAt: at},
	}
	snap.PendingDeletes = map[domain.Kind][]string{domain.KindFood: {"gone"}}
	snap.Dirty = true
	return snap
}

func TestExportImportJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ExportJSON(&buf, sample(), at))

	var env map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &env))
	assert.EqualValues(t, FormatVersion, env["version"])
	data := env["data"].(map[string]any)
	assert.NotContains(t, data, "pendingDeletes")
	assert.NotContains(t, data, "dirty")

	got, err := ImportJSON(&buf)
	require.NoError(t, err)
	assert.Equal(t, "Whiskers", got.CatProfile.Name)
	require.Len(t, got.WashroomEntries, 1)
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, got.WashroomEntries[0].Photos)
	assert.True(t, got.SleepEntries[0].EndTime.Equal(at.Add(150*time.Minute)))
	assert.Empty(t, got.PendingDeletes)
	assert.False(t, got.Dirty)
	assert.NotNil(t, got.FoodEntries)
}

func TestImportJSON_BareSnapshotAssignsOwner(t *testing.T) {
	raw := `{"catProfile":{"id":"cat-9","name":"Mittens"},
		"treatEntries":[{"id":"t1","timestamp":"2024-05-04T07:30:00Z","treatType":"tuna","quantity":1}]}`
	got, err := ImportJSON(strings.NewReader(raw))
	require.NoError(t, err)
	require.Len(t, got.TreatEntries, 1)
	assert.Equal(t, "cat-9", got.TreatEntries[0].CatID)
	assert.NotNil(t, got.Photos)
}

func TestImportJSON_Rejects(t *testing.T) {
	cases := map[string]struct {
		in  string
		err error
	}{
		"newer version":           {in: `{"version":99,"data":{"catProfile":{"id":"x","name":"y"}}}`, err: ErrUnsupportedVersion},
		"empty":                   {in: `{"version":1,"data":{}}`, err: ErrNoData},
		"entries without profile": {in: `{"treatEntries":[{"id":"t1","timestamp":"2024-05-04T07:30:00Z","treatType":"tuna","quantity":1}]}`, err: ErrNoProfile},
		"profile without name":    {in: `{"catProfile":{"id":"x"}}`, err: ErrInvalidData},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ImportJSON(strings.NewReader(tc.in))
			assert.ErrorIs(t, err, tc.err)
		})
	}

	_, err := ImportJSON(strings.NewReader("not json"))
	assert.Error(t, err)
}

func TestImportJSON_NamesEveryInvalidEntry(t *testing.T) {
	raw := `{"catProfile":{"id":"cat-1","name":"Whiskers"},
		"washroomEntries":[{"id":"w1","timestamp":"2024-05-04T07:30:00Z","type":"urine"}],
		"foodEntries":[{"id":"f1","timestamp":"2024-05-04T07:30:00Z","foodCategory":"dry","foodType":"kibble","amount":40,"unit":"grams"}],
		"treatEntries":[{"id":"t1","timestamp":"2024-05-04T07:30:00Z","treatType":"tuna","quantity":0}]}`

	_, err := ImportJSON(strings.NewReader(raw))
	require.ErrorIs(t, err, ErrInvalidData)
	assert.Contains(t, err.Error(), "washroom #1 (w1)")
	assert.Contains(t, err.Error(), `"urine"`)
	assert.Contains(t, err.Error(), "treats #1 (t1)")
	assert.NotContains(t, err.Error(), "f1")
}

func TestImportJSON_AssignsMissingIDs(t *testing.T) {
	raw := `{"catProfile":{"name":"Mittens"},
		"foodEntries":[{"timestamp":"2024-05-04T07:30:00Z","foodCategory":"wet","foodType":"pate","amount":1,"unit":"portions"}]}`
	got, err := ImportJSON(strings.NewReader(raw))
	require.NoError(t, err)
	require.NotEmpty(t, got.CatProfile.ID)
	require.Len(t, got.FoodEntries, 1)
	assert.NotEmpty(t, got.FoodEntries[0].ID)
	assert.Equal(t, got.CatProfile.ID, got.FoodEntries[0].CatID)
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sample(), time.UTC))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Profile", "Washroom", "Food", "Sleep", "Weight", "Photos", "Treats"}, f.GetSheetList())

	name, err := f.GetCellValue("Profile", "B2")
	require.NoError(t, err)
	assert.Equal(t, "Whiskers", name)
	weight, err := f.GetCellValue("Profile", "B6")
	require.NoError(t, err)
	assert.Equal(t, "9.92 lb", weight)

	rows, err := f.GetRows("Washroom")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Time", rows[0][0])
	assert.Equal(t, "2024-05-04 07:30", rows[1][0])
	assert.Equal(t, "both", rows[1][1])
	assert.Equal(t, "Yes", rows[1][3])
	assert.Equal(t, "a.jpg, b.jpg", rows[1][5])

	sleep, err := f.GetRows("Sleep")
	require.NoError(t, err)
	require.Len(t, sleep, 2)
	assert.Equal(t, "150", sleep[1][2])

	food, err := f.GetRows("Food")
	require.NoError(t, err)
	assert.Len(t, food, 1, "header only")
}

func TestWriteXLSX_NoProfile(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, nil, nil))
	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	v, err := f.GetCellValue("Profile", "B2")
	require.NoError(t, err)
	assert.Equal(t, "(no profile)", v)
}
