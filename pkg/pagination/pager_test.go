package pagination

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnines/repsly-export/pkg/catalog"
	"github.com/saturnines/repsly-export/pkg/cursor"
	"github.com/saturnines/repsly-export/pkg/record"
)

// Helpers

func next(t *testing.T, p Pager) *Request {
	t.Helper()
	req, err := p.NextRequest()
	require.NoError(t, err)
	return req
}

func assertDone(t *testing.T, p Pager) {
	t.Helper()
	assert.Nil(t, next(t, p))
}

func assertSegments(t *testing.T, req *Request, want ...string) {
	t.Helper()
	require.NotNil(t, req, "expected request %v", want)
	assert.Equal(t, strings.Join(want, "/"), strings.Join(req.Segments, "/"))
}

func makePage(t *testing.T, req *Request, body string) *Page {
	t.Helper()
	v, err := record.Decode([]byte(body))
	require.NoError(t, err, body)
	items, found := req.Items(v)
	return &Page{Request: req, Body: v, Items: items, Found: found}
}

func update(t *testing.T, p Pager, page *Page) {
	t.Helper()
	require.NoError(t, p.UpdateState(page))
}

func recordsJSON(n int, field string, value func(i int) string) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf(`{%q: %s}`, field, value(i))
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func idPage(key string, n int, lastID string) string {
	items := recordsJSON(n, "ID", func(i int) string { return fmt.Sprint(i + 1) })
	meta := ""
	if lastID != "" {
		meta = fmt.Sprintf(`, "MetaCollectionResult": {"LastID": %s}`, lastID)
	}
	return fmt.Sprintf(`{%q: %s%s}`, key, items, meta)
}

// CursorPager tests

func TestCursorPagerAdvancesAndStopsOnMissingKey(t *testing.T) {
	p := NewCursorPager("clients", "Clients", "LastTimeStamp", "LastID", false, cursor.None())

	req1 := next(t, p)
	assertSegments(t, req1, "clients", "0")
	update(t, p, makePage(t, req1, idPage("Clients", 2, "42")))

	req2 := next(t, p)
	assertSegments(t, req2, "clients", "42")

	// last page: result key missing
	update(t, p, makePage(t, req2, `{}`))
	assertDone(t, p)
	assert.True(t, p.Cursor().Equal(cursor.ID(42)), "cursor %v", p.Cursor())
}

func TestCursorPagerResumesFromStart(t *testing.T) {
	p := NewCursorPager("clientnotes", "ClientNotes", "LastID", "LastTimeStamp", true, cursor.ID(17))
	assertSegments(t, next(t, p), "clientnotes", "17")
}

func TestCursorPagerStopsOnRepeatedCursor(t *testing.T) {
	p := NewCursorPager("clientnotes", "ClientNotes", "LastID", "", true, cursor.None())

	req1 := next(t, p)
	update(t, p, makePage(t, req1, idPage("ClientNotes", PageSize, "42")))
	req2 := next(t, p)
	assertSegments(t, req2, "clientnotes", "42")

	update(t, p, makePage(t, req2, idPage("ClientNotes", PageSize, "42")))
	assertDone(t, p)
}

func TestCursorPagerShortPage(t *testing.T) {
	p := NewCursorPager("photos", "Photos", "LastID", "", true, cursor.None())
	update(t, p, makePage(t, next(t, p), idPage("Photos", PageSize-1, "49")))
	assertDone(t, p)
	assert.True(t, p.Cursor().Equal(cursor.ID(49)), "cursor %v", p.Cursor())

	full := NewCursorPager("photos", "Photos", "LastID", "", true, cursor.None())
	update(t, full, makePage(t, next(t, full), idPage("Photos", PageSize, "50")))
	assertSegments(t, next(t, full), "photos", "50")
}

func TestCursorPagerFallsBackToOtherMetaField(t *testing.T) {
	p := NewCursorPager("visits", "Visits", "LastTimeStamp", "LastID", false, cursor.None())
	req1 := next(t, p)
	update(t, p, makePage(t, req1, `{"Visits": [{}], "MetaCollectionResult": {"LastTimeStamp": 0, "LastID": 7}}`))
	assertSegments(t, next(t, p), "visits", "7")
}

func TestCursorPagerFailureKeepsProgress(t *testing.T) {
	p := NewCursorPager("clients", "Clients", "LastTimeStamp", "LastID", false, cursor.ID(5))
	update(t, p, makePage(t, next(t, p), idPage("Clients", 3, "9")))

	req2 := next(t, p)
	update(t, p, &Page{Request: req2, Failed: true})
	assertDone(t, p)
	assert.True(t, p.Cursor().Equal(cursor.ID(9)), "cursor %v", p.Cursor())
}

func TestCursorPagerAbsentMetaKeepsStart(t *testing.T) {
	p := NewCursorPager("clients", "Clients", "LastTimeStamp", "LastID", false, cursor.ID(5))
	update(t, p, makePage(t, next(t, p), `{"Clients": [], "MetaCollectionResult": {"LastID": 0}}`))
	assertDone(t, p)
	assert.True(t, p.Cursor().Equal(cursor.ID(5)), "cursor %v", p.Cursor())
}

// DateRangePager tests

func TestDateRangePager(t *testing.T) {
	now := time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC)
	p := NewDateRangePager("visitschedules", "VisitSchedules", "ScheduleDateAndTime", now, 30)

	req1 := next(t, p)
	assertSegments(t, req1, "visitschedules", "2024-03-01", "2024-03-31")

	full := fmt.Sprintf(`{"VisitSchedules": %s}`, recordsJSON(PageSize, "ScheduleDateAndTime", func(i int) string {
		return fmt.Sprintf(`"2024-03-%02dT08:00:00"`, 1+i/5)
	}))
	update(t, p, makePage(t, req1, full))
	req2 := next(t, p)
	assertSegments(t, req2, "visitschedules", "2024-03-10", "2024-03-31")

	short := fmt.Sprintf(`{"VisitSchedules": %s}`, recordsJSON(3, "ScheduleDateAndTime", func(int) string {
		return `"2024-03-20T08:00:00"`
	}))
	update(t, p, makePage(t, req2, short))
	assertDone(t, p)
	assert.True(t, p.Cursor().Equal(cursor.None()), "date range pager must not report a cursor")
}

func TestDateRangePagerUsesUTC(t *testing.T) {
	// 23:30 on March 31 at UTC-5 is already April 1 in UTC.
	now := time.Date(2024, 3, 31, 23, 30, 0, 0, time.FixedZone("EST", -5*3600))
	p := NewDateRangePager("visitschedules", "VisitSchedules", "ScheduleDateAndTime", now, 30)
	assertSegments(t, next(t, p), "visitschedules", "2024-03-02", "2024-04-01")

	o := NewOffsetPager("visitrealizations", "VisitRealizations", now, 30)
	assert.Equal(t, "2024-03-02T04:30:00.000Z", next(t, o).Query["modified"])
}

func TestDateRangePagerStopsWhenWindowDoesNotMove(t *testing.T) {
	now := time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC)
	p := NewDateRangePager("visitschedules", "VisitSchedules", "ScheduleDateAndTime", now, 30)

	same := fmt.Sprintf(`{"VisitSchedules": %s}`, recordsJSON(PageSize, "ScheduleDateAndTime", func(int) string {
		return `"2024-03-01T08:00:00"`
	}))
	update(t, p, makePage(t, next(t, p), same))
	assertDone(t, p)
}

// OffsetPager tests

func TestOffsetPager(t *testing.T) {
	now := time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC)
	p := NewOffsetPager("visitrealizations", "VisitRealizations", now, 30)

	req1 := next(t, p)
	assertSegments(t, req1, "visitrealizations")
	assert.Equal(t, map[string]string{"modified": "2024-03-01T12:00:00.000Z", "skip": "0"}, req1.Query)

	full := fmt.Sprintf(`{"VisitRealizations": %s}`, recordsJSON(PageSize, "ScheduleId", func(i int) string { return fmt.Sprint(i) }))
	update(t, p, makePage(t, req1, full))
	req2 := next(t, p)
	assert.Equal(t, "50", req2.Query["skip"])
	assert.Equal(t, req1.Query["modified"], req2.Query["modified"])

	update(t, p, makePage(t, req2, `{"VisitRealizations": []}`))
	assertDone(t, p)
}

// FanoutPager tests

func TestFanoutPager(t *testing.T) {
	p := NewFanoutPager("pricelists", "Pricelists", "ID", "pricelistsItems", "PricelistID")

	parent := next(t, p)
	assertSegments(t, parent, "pricelists")
	assert.False(t, parent.Collect, "parent listing must not be collected")

	update(t, p, makePage(t, parent, `{"Pricelists": [{"ID": 10}, {"ID": 0}, {"Name": "no id"}, {"ID": 11}]}`))
	assert.Equal(t, 2, p.Pending())

	child1 := next(t, p)
	assertSegments(t, child1, "pricelistsItems", "10")
	assert.True(t, child1.Collect)
	assert.True(t, child1.ArrayOnly)
	assert.Equal(t, int64(10), child1.Defaults["PricelistID"])
	update(t, p, &Page{Request: child1, Failed: true})

	child2 := next(t, p)
	assertSegments(t, child2, "pricelistsItems", "11")
	update(t, p, makePage(t, child2, `[{"ID": 1}]`))

	assertDone(t, p)
}

func TestFanoutChildAcceptsOnlyArrays(t *testing.T) {
	p := NewFanoutPager("pricelists", "Pricelists", "ID", "pricelistsItems", "PricelistID")
	update(t, p, makePage(t, next(t, p), `{"Pricelists": [{"ID": 10}]}`))
	child := next(t, p)

	page := makePage(t, child, `{"Message": "No items"}`)
	assert.False(t, page.Found)
	assert.Empty(t, page.Items)

	page = makePage(t, child, `[]`)
	assert.True(t, page.Found)
	assert.Empty(t, page.Items)
}

func TestFanoutPagerParentFailure(t *testing.T) {
	p := NewFanoutPager("pricelists", "Pricelists", "ID", "pricelistsItems", "PricelistID")
	update(t, p, &Page{Request: next(t, p), Failed: true})
	assertDone(t, p)
}

// SinglePager tests

func TestSinglePager(t *testing.T) {
	p := NewSinglePager("Representatives", "representatives")
	req1 := next(t, p)
	assertSegments(t, req1, "representatives")
	update(t, p, makePage(t, req1, idPage("Representatives", PageSize, "99")))
	assertDone(t, p)
}

// ExtractItems tests

func TestExtractItems(t *testing.T) {
	decode := func(s string) interface{} {
		v, err := record.Decode([]byte(s))
		require.NoError(t, err)
		return v
	}

	items, found := ExtractItems(decode(`{"Clients": [{}, {}]}`), "Clients")
	assert.True(t, found)
	assert.Len(t, items, 2)

	_, found = ExtractItems(decode(`{"Other": []}`), "Clients")
	assert.False(t, found, "missing key must not be found")

	_, found = ExtractItems(decode(`{"Clients": "oops"}`), "Clients")
	assert.False(t, found, "non-list value must not be found")

	items, found = ExtractItems(decode(`[{}, {}, {}]`), "")
	assert.True(t, found)
	assert.Len(t, items, 3)

	items, found = ExtractItems(decode(`{"ImportStatus": "Done"}`), "")
	assert.True(t, found)
	assert.Len(t, items, 1)
}

// Factory tests

func TestDefaultFactoryCoversEveryCatalogVariant(t *testing.T) {
	opts := Options{Now: time.Now(), JobID: "job-1"}
	for _, d := range append(catalog.Default().All(), catalog.ImportStatus) {
		_, err := DefaultFactory.CreatePager(d, opts)
		assert.NoError(t, err, d.Name)
	}
}

func TestFactoryRejectsDuplicatesAndBadInput(t *testing.T) {
	f := NewFactory()
	require.NoError(t, f.RegisterPager(catalog.None, singleCreator))
	assert.Error(t, f.RegisterPager(catalog.None, singleCreator), "duplicate registration")

	_, err := f.CreatePager(catalog.Descriptor{Name: "x", Variant: catalog.ByID}, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "available: none")

	_, err = DefaultFactory.CreatePager(catalog.ImportStatus, Options{})
	assert.Error(t, err, "missing job ID")
}

func TestGetAvailablePagers(t *testing.T) {
	assert.Equal(t,
		[]string{"by_date_range", "by_id", "by_parent_fanout", "by_skip", "by_timestamp", "none", "status"},
		DefaultFactory.GetAvailablePagers())
}
