//go:build windows

package calendar

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"

	appLog "dailybrief/internal/log"
	"dailybrief/internal/model"
)

// sFalse is returned by CoInitializeEx when COM is already initialized on
// this thread. It still needs a matching CoUninitialize.
const sFalse = 0x00000001

// Outlook reads appointments from the default calendar folder of the local
// Outlook profile over COM.
type Outlook struct {
	opts OutlookOptions
}

func NewOutlook(opts OutlookOptions) *Outlook {
	return &Outlook{opts: opts.normalized()}
}

func (o *Outlook) Events(ctx context.Context, from, to time.Time) ([]model.Event, error) {
	// COM apartments are per OS thread.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := ole.CoInitializeEx(0, ole.COINIT_APARTMENTTHREADED); err != nil {
		var oleErr *ole.OleError
		if !errors.As(err, &oleErr) || oleErr.Code() != sFalse {
			return nil, fmt.Errorf("initialize COM: %w", err)
		}
	}
	defer ole.CoUninitialize()

	unknown, err := oleutil.CreateObject("Outlook.Application")
	if err != nil {
		return nil, fmt.Errorf("connect to Outlook: %w", err)
	}
	defer unknown.Release()

	app, err := unknown.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		return nil, fmt.Errorf("query Outlook dispatch: %w", err)
	}
	defer app.Release()

	ns, err := callDispatch(app, "GetNamespace", "MAPI")
	if err != nil {
		return nil, err
	}
	defer ns.Release()

	folder, err := callDispatch(ns, "GetDefaultFolder", olFolderCalendar)
	if err != nil {
		return nil, err
	}
	defer folder.Release()

	if name, err := propString(folder, "Name"); err == nil {
		appLog.Debug("outlook calendar folder", "name", name)
	}

	items, err := getDispatch(folder, "Items")
	if err != nil {
		return nil, err
	}
	defer items.Release()

	if _, err := oleutil.CallMethod(items, "Sort", "[Start]"); err != nil {
		return nil, fmt.Errorf("sort calendar items: %w", err)
	}
	if _, err := oleutil.PutProperty(items, "IncludeRecurrences", true); err != nil {
		return nil, fmt.Errorf("include recurrences: %w", err)
	}

	filter := restriction(from, to)
	appLog.Debug("outlook restrict", "filter", filter)

	restricted, err := callDispatch(items, "Restrict", filter)
	if err != nil {
		appLog.Warn("outlook restrict failed; scanning items manually", "err", err, "max_scan", o.opts.MaxScan)
		return o.scan(ctx, items, from, to, o.opts.MaxScan)
	}
	defer restricted.Release()

	// A restricted collection is bounded by the filter, so no scan cap.
	return o.scan(ctx, restricted, from, to, 0)
}

// scan walks a collection with GetFirst/GetNext. Count is meaningless once
// IncludeRecurrences is set, so iteration stops on an empty item. limit > 0
// caps the number of items visited.
func (o *Outlook) scan(ctx context.Context, items *ole.IDispatch, from, to time.Time, limit int) ([]model.Event, error) {
	events := make([]model.Event, 0)

	item, err := nextItem(items, "GetFirst")
	visited := 0
	for err == nil && item != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			item.Release()
			return events, ctxErr
		}
		visited++
		if limit > 0 && visited > limit {
			item.Release()
			appLog.Warn("outlook scan stopped at cap", "max_scan", limit)
			break
		}

		ev, readErr := readAppointment(item, o.opts.Location)
		item.Release()
		if readErr != nil {
			appLog.Warn("skipping unreadable appointment", "err", readErr)
		} else if !ev.Start.Before(from) && ev.Start.Before(to) {
			events = append(events, ev)
			appLog.Debug("outlook appointment", "subject", ev.Subject, "start", ev.Start.Format(time.RFC3339))
		}

		item, err = nextItem(items, "GetNext")
	}
	if err != nil {
		return events, fmt.Errorf("iterate calendar items: %w", err)
	}

	appLog.Info("outlook events read", "count", len(events), "from", from.Format("2006-01-02"))
	return events, nil
}

func nextItem(items *ole.IDispatch, method string) (*ole.IDispatch, error) {
	v, err := oleutil.CallMethod(items, method)
	if err != nil {
		return nil, err
	}
	if v.VT != ole.VT_DISPATCH {
		v.Clear()
		return nil, nil
	}
	return v.ToIDispatch(), nil
}

// readAppointment maps one AppointmentItem. Start/End are required; the
// remaining properties fall back to zero values when unreadable.
func readAppointment(item *ole.IDispatch, loc *time.Location) (model.Event, error) {
	var ev model.Event
	ev.Source = "outlook"

	start, err := propTime(item, "Start", loc)
	if err != nil {
		return ev, err
	}
	end, err := propTime(item, "End", loc)
	if err != nil {
		return ev, err
	}
	ev.Start, ev.End = start, end

	ev.Subject, _ = propString(item, "Subject")
	if ev.Subject == "" {
		ev.Subject = "No Subject"
	}
	ev.Location, _ = propString(item, "Location")
	ev.Organizer = organizerName(item)

	if cats, err := propString(item, "Categories"); err == nil {
		ev.Categories = splitCategories(cats)
	}
	ev.AllDay, _ = propBool(item, "AllDayEvent")
	ev.IsRecurring, _ = propBool(item, "IsRecurring")
	ev.ReminderSet, _ = propBool(item, "ReminderSet")

	ev.Importance = model.ImportanceNormal
	if imp, err := propInt(item, "Importance"); err == nil {
		ev.Importance = imp
	}

	return ev, nil
}

// organizerName reads Organizer, falling back to GetOrganizer().Name which
// works for some Exchange items where the plain property fails.
func organizerName(item *ole.IDispatch) string {
	if name, err := propString(item, "Organizer"); err == nil && name != "" {
		return name
	}
	entry, err := callDispatch(item, "GetOrganizer")
	if err != nil || entry == nil {
		return ""
	}
	defer entry.Release()
	name, _ := propString(entry, "Name")
	return name
}

func callDispatch(d *ole.IDispatch, method string, args ...any) (*ole.IDispatch, error) {
	v, err := oleutil.CallMethod(d, method, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	if v.VT != ole.VT_DISPATCH {
		v.Clear()
		return nil, fmt.Errorf("%s: unexpected variant type %d", method, v.VT)
	}
	return v.ToIDispatch(), nil
}

func getDispatch(d *ole.IDispatch, name string) (*ole.IDispatch, error) {
	v, err := oleutil.GetProperty(d, name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if v.VT != ole.VT_DISPATCH {
		v.Clear()
		return nil, fmt.Errorf("%s: unexpected variant type %d", name, v.VT)
	}
	return v.ToIDispatch(), nil
}

func propString(d *ole.IDispatch, name string) (string, error) {
	v, err := oleutil.GetProperty(d, name)
	if err != nil {
		return "", err
	}
	defer v.Clear()
	if v.VT == ole.VT_NULL || v.VT == ole.VT_EMPTY {
		return "", nil
	}
	return v.ToString(), nil
}

func propBool(d *ole.IDispatch, name string) (bool, error) {
	v, err := oleutil.GetProperty(d, name)
	if err != nil {
		return false, err
	}
	defer v.Clear()
	b, ok := v.Value().(bool)
	if !ok {
		return false, fmt.Errorf("%s: not a bool", name)
	}
	return b, nil
}

func propInt(d *ole.IDispatch, name string) (int, error) {
	v, err := oleutil.GetProperty(d, name)
	if err != nil {
		return 0, err
	}
	defer v.Clear()
	switch n := v.Value().(type) {
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case int16:
		return int(n), nil
	case uint8:
		return int(n), nil
	default:
		return 0, fmt.Errorf("%s: not an integer", name)
	}
}

// propTime reads a VT_DATE. OLE dates carry no zone: go-ole returns the wall
// clock in UTC, which Outlook means as local time, so it is re-anchored in loc.
func propTime(d *ole.IDispatch, name string, loc *time.Location) (time.Time, error) {
	v, err := oleutil.GetProperty(d, name)
	if err != nil {
		return time.Time{}, err
	}
	defer v.Clear()
	t, ok := v.Value().(time.Time)
	if !ok {
		return time.Time{}, fmt.Errorf("%s: not a date", name)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc), nil
}
