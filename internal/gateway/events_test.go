package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clsasailing/weekly-blast/internal/domain"
)

var testZone = time.FixedZone("CDT", -5*60*60)

func testWindow() domain.WeekWindow {
	start := time.Date(2025, 8, 4, 0, 0, 0, 0, testZone)
	return domain.WeekWindow{Start: start, End: start.AddDate(0, 0, 7)}
}

// --- expand (pure logic) ---

func TestExpand_NoSessions(t *testing.T) {
	repo := NewWildApricotEventRepository(nil, testZone)

	raw := waEvent{
		ID:          11,
		Name:        "Race Night",
		StartDate:   "2025-08-06T18:00:00-05:00",
		EndDate:     "2025-08-06T21:00:00-05:00",
		AccessLevel: "Public",
		Location:    "Clinton Lake Marina",
		Tags:        []string{"volunteer opportunity"},
	}

	events, err := repo.expand(raw, "<p>Bring a dish.</p>", testWindow())
	require.NoError(t, err)
	require.Len(t, events, 1)

	event := events[0]
	assert.Equal(t, "Race Night", event.Name)
	assert.Equal(t, int64(11), event.SourceEventID)
	assert.Equal(t, "Clinton Lake Marina", event.Location)
	assert.Equal(t, "<p>Bring a dish.</p>", event.DescriptionHTML)
	assert.Equal(t, []string{"volunteer opportunity"}, event.Tags)
	assert.Equal(t, 18, event.Start.Hour())
	assert.Equal(t, time.Wednesday, event.Start.Weekday())
}

func TestExpand_OnlyOverlappingSessionsSurvive(t *testing.T) {
	repo := NewWildApricotEventRepository(nil, testZone)

	raw := waEvent{
		ID:          7,
		Name:        "Sailing School",
		AccessLevel: "Restricted",
		Location:    "Clubhouse",
		Tags:        []string{"training"},
		Sessions: []waSession{
			{Title: "Week 1", StartDate: "2025-07-30T18:00:00-05:00", EndDate: "2025-07-30T20:00:00-05:00"},
			{Title: "Week 2", StartDate: "2025-08-06T18:00:00-05:00", EndDate: "2025-08-06T20:00:00-05:00"},
			{Title: "Week 3", StartDate: "2025-08-13T18:00:00-05:00", EndDate: "2025-08-13T20:00:00-05:00"},
		},
	}

	events, err := repo.expand(raw, "<p>Bring sunscreen.</p>", testWindow())
	require.NoError(t, err)
	require.Len(t, events, 1)

	// The session supplies the title and time, the parent everything else.
	event := events[0]
	assert.Equal(t, "Week 2", event.Name)
	assert.Equal(t, int64(7), event.SourceEventID)
	assert.Equal(t, "Clubhouse", event.Location)
	assert.Equal(t, "<p>Bring sunscreen.</p>", event.DescriptionHTML)
	assert.Equal(t, []string{"training"}, event.Tags)
}

func TestExpand_AllSessionsOutsideWindow(t *testing.T) {
	repo := NewWildApricotEventRepository(nil, testZone)

	raw := waEvent{
		ID:          8,
		Name:        "Winter Series",
		AccessLevel: "Public",
		Sessions: []waSession{
			{Title: "Opener", StartDate: "2025-11-01T10:00:00-05:00", EndDate: "2025-11-01T12:00:00-05:00"},
		},
	}

	events, err := repo.expand(raw, "", testWindow())
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestExpand_BadSessionDate(t *testing.T) {
	repo := NewWildApricotEventRepository(nil, testZone)

	raw := waEvent{
		ID:          9,
		AccessLevel: "Public",
		Sessions: []waSession{
			{Title: "Broken", StartDate: "next tuesday", EndDate: "2025-08-06T20:00:00-05:00"},
		},
	}

	_, err := repo.expand(raw, "", testWindow())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMalformedRecord)
	assert.Contains(t, err.Error(), "event 9")
}

// --- parseEventTime ---

func TestParseEventTime_NaiveTimestampUsesAccountZone(t *testing.T) {
	repo := NewWildApricotEventRepository(nil, testZone)

	parsed, err := repo.parseEventTime("2025-08-06T18:00:00")
	require.NoError(t, err)
	assert.Equal(t, 18, parsed.Hour())
	assert.Equal(t, testZone.String(), parsed.Location().String())
}

// --- GetWeekEvents (httptest) ---

func TestGetWeekEvents_FiltersAdminOnlyAndEnriches(t *testing.T) {
	var detailCalls []string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v2.2/accounts/123/events":
			query := r.URL.Query()
			assert.Equal(t, "StartDate lt 2025-08-11 AND EndDate gt 2025-08-04", query.Get("$filter"))
			assert.Equal(t, "StartDate asc", query.Get("$sort"))

			err := json.NewEncoder(w).Encode(waEventsResponse{Events: []waEvent{
				{
					ID:          11,
					Name:        "Race Night",
					StartDate:   "2025-08-06T18:00:00-05:00",
					EndDate:     "2025-08-06T21:00:00-05:00",
					AccessLevel: "Public",
					Location:    "Clinton Lake Marina",
					Tags:        []string{"volunteer opportunity"},
				},
				{
					ID:          12,
					Name:        "Board Planning",
					StartDate:   "2025-08-07T19:00:00-05:00",
					EndDate:     "2025-08-07T20:00:00-05:00",
					AccessLevel: "adminonly",
				},
			}})
			require.NoError(t, err)
		case "/v2.2/accounts/123/events/11":
			detailCalls = append(detailCalls, r.URL.Path)
			var resp waEventDetailsResponse
			resp.Details.DescriptionHTML = "<p>Racing starts at the east dock.</p>"
			require.NoError(t, json.NewEncoder(w).Encode(resp))
		default:
			t.Errorf("unexpected request to %s", r.URL.Path)
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	repo := NewWildApricotEventRepository(newTestClient(server, 10), testZone)

	events, err := repo.GetWeekEvents(context.Background(), testWindow())
	require.NoError(t, err)
	require.Len(t, events, 1)

	assert.Equal(t, "Race Night", events[0].Name)
	assert.Equal(t, "<p>Racing starts at the east dock.</p>", events[0].DescriptionHTML)
	// The hidden event never gets a detail lookup.
	assert.Equal(t, []string{"/v2.2/accounts/123/events/11"}, detailCalls)
}

func TestGetWeekEvents_MissingAccessLevel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v2.2/accounts/123/events" {
			err := json.NewEncoder(w).Encode(waEventsResponse{Events: []waEvent{
				{ID: 13, Name: "Mystery", StartDate: "2025-08-06T18:00:00-05:00"},
			}})
			require.NoError(t, err)
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	repo := NewWildApricotEventRepository(newTestClient(server, 10), testZone)

	_, err := repo.GetWeekEvents(context.Background(), testWindow())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMalformedRecord)
	assert.Contains(t, err.Error(), "event 13")
}

func TestGetWeekEvents_DetailFailureAborts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v2.2/accounts/123/events" {
			err := json.NewEncoder(w).Encode(waEventsResponse{Events: []waEvent{
				{ID: 14, Name: "First", StartDate: "2025-08-05T18:00:00-05:00", AccessLevel: "Public"},
				{ID: 15, Name: "Second", StartDate: "2025-08-06T18:00:00-05:00", AccessLevel: "Public"},
			}})
			require.NoError(t, err)
			return
		}
		http.Error(w, "details unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	repo := NewWildApricotEventRepository(newTestClient(server, 10), testZone)

	_, err := repo.GetWeekEvents(context.Background(), testWindow())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrFetch)
	assert.Contains(t, err.Error(), "event 14")
}

func TestGetWeekEvents_ListFailureAborts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	repo := NewWildApricotEventRepository(newTestClient(server, 10), testZone)

	_, err := repo.GetWeekEvents(context.Background(), testWindow())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrFetch)
	assert.Contains(t, err.Error(), "listing events")
}
