package action

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/nhh/miniassistant/pkg/model"
	"github.com/nhh/miniassistant/pkg/tool"
)

const (
	calendarEventsURI = "content://com.android.calendar/events"
	defaultEventSpan  = time.Hour
)

// CalendarEvent inserts an event into the calendar application
type CalendarEvent struct {
	Title       string
	Description string
	Address     string
	Start       time.Time
	End         time.Time
	Attendees   []string

	// set when Start or End was substituted because the model's value was
	// missing or malformed
	StartEstimated bool
	EndEstimated   bool
}

func (CalendarEvent) ToolName() string { return "createCalendar" }

type calendarTool struct {
	set *Set
}

const dateFormatHelp = `Example: {"year":2025,"month":9,"day":7,"hour":14,"minute":0}. Month in 0-based (0 = Jan, 11 = Dec).`

func (t *calendarTool) Declaration() *model.ToolDeclaration {
	return &model.ToolDeclaration{
		Name:        "createCalendar",
		Description: "Create a calendar event",
		Parameters: []model.Parameter{
			{Name: "title", Type: model.ParamTypeString, Description: "Title of the event"},
			{Name: "description", Type: model.ParamTypeString, Description: "Description of the event"},
			{Name: "address", Type: model.ParamTypeString, Description: "Location of the event"},
			{Name: "start", Type: model.ParamTypeString, Description: "Start time as JSON string. " + dateFormatHelp},
			{Name: "end", Type: model.ParamTypeString, Description: "End time as JSON string. " + dateFormatHelp},
			{Name: "attendees", Type: model.ParamTypeString, Description: `Comma-separated emails. Example: "alice@example.com,bob@example.com"`},
		},
		Required: []string{"title", "start", "end"},
	}
}

// Parse never fails on dates: a missing or malformed start becomes the
// current minute, and a missing, malformed or earlier end becomes start plus
// one hour.
func (t *calendarTool) Parse(args tool.Args) (tool.Call, error) {
	title, err := args.RequireString("title")
	if err != nil {
		return nil, err
	}

	ev := CalendarEvent{
		Title:       title,
		Description: args.String("description"),
		Address:     args.String("address"),
		Attendees:   args.List("attendees"),
	}

	var ok bool
	if ev.Start, ok = args.Date("start", t.set.loc); !ok {
		ev.Start = t.set.now().In(t.set.loc).Truncate(time.Minute)
		ev.StartEstimated = true
	}
	if ev.End, ok = args.Date("end", t.set.loc); !ok || ev.End.Before(ev.Start) {
		ev.End = ev.Start.Add(defaultEventSpan)
		ev.EndEstimated = true
	}

	return ev, nil
}

func (t *calendarTool) Execute(ctx context.Context, call tool.Call) (string, error) {
	ev, ok := call.(CalendarEvent)
	if !ok {
		return "", unexpectedCall(call)
	}

	if err := t.set.launch(ctx, model.Action{
		Kind: model.ActionCalendar,
		URI:  calendarEventsURI,
		Extras: map[string]string{
			"title":       ev.Title,
			"description": ev.Description,
			"location":    ev.Address,
			"beginTime":   strconv.FormatInt(ev.Start.UnixMilli(), 10),
			"endTime":     strconv.FormatInt(ev.End.UnixMilli(), 10),
			"email":       strings.Join(ev.Attendees, ","),
		},
	}); err != nil {
		return "", err
	}

	out := "Added event " + ev.Title
	if ev.StartEstimated || ev.EndEstimated {
		out += " (" + ev.Start.Format("2006-01-02 15:04") + " to " + ev.End.Format("2006-01-02 15:04") +
			", time was not given precisely)"
	}
	return out, nil
}
