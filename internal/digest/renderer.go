// Package digest renders the weekly HTML email body.
package digest

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"github.com/clsasailing/weekly-blast/internal/domain"
)

// VolunteerTag marks events that still need volunteers; tagged events get a
// callout in the digest.
const VolunteerTag = "volunteer opportunity"

const (
	calendarURL     = "https://www.clsasailing.org/calendar"
	eventURLPattern = "https://www.clsasailing.org/event-%d"
)

// weekdayOrder fixes the section order of the digest, Monday first.
var weekdayOrder = []time.Weekday{
	time.Monday,
	time.Tuesday,
	time.Wednesday,
	time.Thursday,
	time.Friday,
	time.Saturday,
	time.Sunday,
}

// BuildEmailBody renders the digest for the given events. Each weekday with
// at least one event gets a dated heading with its events in start order,
// whatever order the input arrived in. The {Contact_First_Name},
// {Member_Profile_URL} and {Unsubscribe_Url} placeholders are substituted per
// recipient by Wild Apricot at send time, never here.
func BuildEmailBody(events []domain.Event, loc *time.Location) string {
	byDay := make(map[time.Weekday][]domain.Event)
	for _, event := range events {
		day := event.Start.In(loc).Weekday()
		byDay[day] = append(byDay[day], event)
	}

	var body strings.Builder
	body.WriteString("<p>Ahoy, {Contact_First_Name}!</p>")
	body.WriteString("<p>Get ready for another exciting week of sailing events at the " +
		"Clinton Lake Sailing Association (CLSA)! Here's a quick overview of the upcoming events:</p>")
	body.WriteString("<dl>")

	for _, day := range weekdayOrder {
		bucket := byDay[day]
		if len(bucket) == 0 {
			continue
		}
		sort.SliceStable(bucket, func(i, j int) bool {
			return bucket[i].Start.Before(bucket[j].Start)
		})

		heading := fmt.Sprintf("%s %s", day, bucket[0].Start.In(loc).Format("1/2"))
		body.WriteString("<dt style='font-weight:bold'>" + heading + "</dt>")
		for _, event := range bucket {
			appendEventLine(&body, event, loc)
		}
	}

	body.WriteString("</dl>")
	body.WriteString("<p>To view all upcoming events, please refer to the " +
		"<a href='" + calendarURL + "'><strong>CLSA Events Calendar</strong></a>.</p>")
	body.WriteString("<p>Fair winds and smooth sailing!</p>")
	body.WriteString("<hr />")
	body.WriteString("<small>To stop receiving the Weekly Email Blast visit " +
		"<a href='{Member_Profile_URL}'>your member profile</a>, choose 'Edit' at the top, " +
		"and then remove yourself from the 'WeeklyEmailBlast' group. " +
		"To stop all CLSA emails: <a href='{Unsubscribe_Url}'>unsubscribe</a>.</small>")

	return body.String()
}

// appendEventLine writes one event entry: name, start time, location, the
// volunteer callout when tagged, and the details link. The platform-authored
// description HTML follows as-is on its own line.
func appendEventLine(body *strings.Builder, event domain.Event, loc *time.Location) {
	body.WriteString("<dd>- ")
	body.WriteString(html.EscapeString(event.Name))
	body.WriteString(", " + event.Start.In(loc).Format("3:04 PM"))
	if event.Location != "" {
		body.WriteString(" at " + html.EscapeString(event.Location))
	}
	if event.HasTag(VolunteerTag) {
		body.WriteString(" <strong>⛵ volunteers needed!</strong>")
	}
	body.WriteString(fmt.Sprintf(" <a href='"+eventURLPattern+"'>(Details)</a>", event.SourceEventID))
	body.WriteString("</dd>")

	if event.DescriptionHTML != "" {
		body.WriteString("<dd><small>" + event.DescriptionHTML + "</small></dd>")
	}
}
