package gateway

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/clsasailing/weekly-blast/internal/domain"
)

// accessLevelAdminOnly hides an event from the membership entirely; the wire
// value is compared case-insensitively.
const accessLevelAdminOnly = "AdminOnly"

// WildApricotEventRepository resolves the digest entries for a week window
// from the account's event collection.
type WildApricotEventRepository struct {
	client   *Client
	timezone *time.Location
}

// NewWildApricotEventRepository creates an event repository. Naive remote
// timestamps are interpreted in the given timezone.
func NewWildApricotEventRepository(client *Client, timezone *time.Location) *WildApricotEventRepository {
	return &WildApricotEventRepository{
		client:   client,
		timezone: timezone,
	}
}

// waSession is one sub-occurrence of a multi-session remote event.
type waSession struct {
	Title     string `json:"Title"`
	StartDate string `json:"StartDate"`
	EndDate   string `json:"EndDate"`
}

// waEvent is the slice of the remote event record the digest needs.
type waEvent struct {
	ID          int64       `json:"Id"`
	Name        string      `json:"Name"`
	StartDate   string      `json:"StartDate"`
	EndDate     string      `json:"EndDate"`
	AccessLevel string      `json:"AccessLevel"`
	Location    string      `json:"Location"`
	Tags        []string    `json:"Tags"`
	Sessions    []waSession `json:"Sessions"`
}

type waEventsResponse struct {
	Events []waEvent `json:"Events"`
}

type waEventDetailsResponse struct {
	Details struct {
		DescriptionHTML string `json:"DescriptionHtml"`
	} `json:"Details"`
}

// GetWeekEvents returns the digest entries for every member-visible event
// overlapping the window: events are fetched page by page, AdminOnly ones
// dropped, each survivor enriched with its description and expanded into one
// entry per in-window session (or a single entry when it has none).
func (r *WildApricotEventRepository) GetWeekEvents(ctx context.Context, window domain.WeekWindow) ([]domain.Event, error) {
	filter := fmt.Sprintf("StartDate lt %s AND EndDate gt %s",
		window.End.Format("2006-01-02"), window.Start.Format("2006-01-02"))

	rawEvents, err := fetchAllPages(r.client.pageSize, func(offset int) ([]waEvent, error) {
		query := url.Values{}
		query.Set("$filter", filter)
		query.Set("$sort", "StartDate asc")
		query.Set("$top", strconv.Itoa(r.client.pageSize))
		query.Set("$skip", strconv.Itoa(offset))

		var resp waEventsResponse
		if err := r.client.getJSON(ctx, r.client.accountURL("/events")+"?"+query.Encode(), &resp); err != nil {
			return nil, err
		}
		return resp.Events, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: listing events: %v", domain.ErrFetch, err)
	}

	var events []domain.Event
	for _, raw := range rawEvents {
		if raw.AccessLevel == "" {
			return nil, fmt.Errorf("%w: event %d has no access level", domain.ErrMalformedRecord, raw.ID)
		}
		if strings.EqualFold(raw.AccessLevel, accessLevelAdminOnly) {
			continue
		}

		// Descriptions live behind a per-event detail endpoint; fetched one
		// at a time, in event order.
		description, err := r.fetchDescription(ctx, raw.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: event %d details: %v", domain.ErrFetch, raw.ID, err)
		}

		expanded, err := r.expand(raw, description, window)
		if err != nil {
			return nil, err
		}
		events = append(events, expanded...)
	}
	return events, nil
}

// fetchDescription reads the event's extended description, empty when the
// platform has none.
func (r *WildApricotEventRepository) fetchDescription(ctx context.Context, eventID int64) (string, error) {
	var resp waEventDetailsResponse
	if err := r.client.getJSON(ctx, r.client.accountURL(fmt.Sprintf("/events/%d", eventID)), &resp); err != nil {
		return "", err
	}
	return resp.Details.DescriptionHTML, nil
}

// expand flattens one remote event into digest entries. An event without
// sessions maps one-to-one; a session event contributes one entry per session
// overlapping the window, each inheriting the parent's id, location, tags and
// description. An event whose sessions all fall outside the window
// contributes nothing.
func (r *WildApricotEventRepository) expand(raw waEvent, description string, window domain.WeekWindow) ([]domain.Event, error) {
	if len(raw.Sessions) == 0 {
		start, err := r.parseEventTime(raw.StartDate)
		if err != nil {
			return nil, fmt.Errorf("%w: event %d start date %q: %v", domain.ErrMalformedRecord, raw.ID, raw.StartDate, err)
		}
		return []domain.Event{{
			Name:            raw.Name,
			Start:           start,
			SourceEventID:   raw.ID,
			Location:        raw.Location,
			DescriptionHTML: description,
			Tags:            raw.Tags,
		}}, nil
	}

	var events []domain.Event
	for _, session := range raw.Sessions {
		start, err := r.parseEventTime(session.StartDate)
		if err != nil {
			return nil, fmt.Errorf("%w: event %d session start date %q: %v", domain.ErrMalformedRecord, raw.ID, session.StartDate, err)
		}
		end, err := r.parseEventTime(session.EndDate)
		if err != nil {
			return nil, fmt.Errorf("%w: event %d session end date %q: %v", domain.ErrMalformedRecord, raw.ID, session.EndDate, err)
		}
		if !window.Overlaps(start, end) {
			continue
		}

		events = append(events, domain.Event{
			Name:            session.Title,
			Start:           start,
			SourceEventID:   raw.ID,
			Location:        raw.Location,
			DescriptionHTML: description,
			Tags:            raw.Tags,
		})
	}
	return events, nil
}

// parseEventTime parses a remote timestamp. The API normally sends RFC3339
// with an offset; timestamps without one are taken as local to the account's
// timezone.
func (r *WildApricotEventRepository) parseEventTime(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.In(r.timezone), nil
	}
	return time.ParseInLocation("2006-01-02T15:04:05", value, r.timezone)
}
