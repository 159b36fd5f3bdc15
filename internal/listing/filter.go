package listing

import (
	"errors"
	"fmt"
	"maps"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/hostelctl/hostelctl/internal/model"
)

// Filter errors.
var (
	ErrUnsupportedFilter  = errors.New("filter not supported by this list")
	ErrInvalidFilterValue = errors.New("invalid filter value")
)

// Key names a filter. Keys double as query parameter names.
type Key string

// Filter keys.
const (
	KeyStatus      Key = "status"
	KeyStartDate   Key = "start_date"
	KeyEndDate     Key = "end_date"
	KeyMonth       Key = "month"
	KeyYear        Key = "year"
	KeyQuickFilter Key = "quick_filter"
	KeyRoom        Key = "room_id"
	KeyBed         Key = "bed_id"
	KeyTenant      Key = "tenant_id"
	KeySearch      Key = "search"
	KeyExpenseType Key = "expense_type"

	FlagPendingRent Key = "pending_rent"
	FlagCheckedOut  Key = "checked_out"
)

// DateKeys is the date exclusivity group: a quick filter or explicit
// range on one side, a month/year selection on the other.
var DateKeys = []Key{KeyStartDate, KeyEndDate, KeyQuickFilter, KeyMonth, KeyYear}

// QuickFilter is a named date-range shortcut.
type QuickFilter string

// Quick filters.
const (
	QuickToday       QuickFilter = "TODAY"
	QuickYesterday   QuickFilter = "YESTERDAY"
	QuickLastWeek    QuickFilter = "LAST_WEEK"
	QuickThisMonth   QuickFilter = "THIS_MONTH"
	QuickLastMonth   QuickFilter = "LAST_MONTH"
	QuickLast3Months QuickFilter = "LAST_3_MONTHS"
	QuickThisYear    QuickFilter = "THIS_YEAR"
)

// QuickFilters lists every shortcut in display order.
var QuickFilters = []QuickFilter{
	QuickToday,
	QuickYesterday,
	QuickLastWeek,
	QuickThisMonth,
	QuickLastMonth,
	QuickLast3Months,
	QuickThisYear,
}

// ParseQuickFilter accepts any case and '-' or '_' separators.
func ParseQuickFilter(s string) (QuickFilter, error) {
	normalized := QuickFilter(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_")))
	if slices.Contains(QuickFilters, normalized) {
		return normalized, nil
	}
	return "", fmt.Errorf("%w: unknown quick filter %q", ErrInvalidFilterValue, s)
}

// Range returns the inclusive date window q covers relative to now.
func (q QuickFilter) Range(now time.Time) (start, end model.Date) {
	today := model.NewDate(now)
	y, m, _ := today.Date()
	loc := today.Location()
	firstOfMonth := model.Date{Time: time.Date(y, m, 1, 0, 0, 0, 0, loc)}

	switch q {
	case QuickToday:
		return today, today
	case QuickYesterday:
		yesterday := model.Date{Time: today.AddDate(0, 0, -1)}
		return yesterday, yesterday
	case QuickLastWeek:
		return model.Date{Time: today.AddDate(0, 0, -6)}, today
	case QuickThisMonth:
		return firstOfMonth, today
	case QuickLastMonth:
		return model.Date{Time: firstOfMonth.AddDate(0, -1, 0)}, model.Date{Time: firstOfMonth.AddDate(0, 0, -1)}
	case QuickLast3Months:
		return model.Date{Time: today.AddDate(0, -3, 0)}, today
	case QuickThisYear:
		return model.Date{Time: time.Date(y, time.January, 1, 0, 0, 0, 0, loc)}, today
	default:
		return model.Date{}, model.Date{}
	}
}

// Filters is a plain snapshot of a FilterSet's values.
type Filters struct {
	StartDate   model.Date
	EndDate     model.Date
	Flags       map[Key]bool
	Status      string
	Quick       QuickFilter
	Search      string
	ExpenseType string
	RoomID      int64
	BedID       int64
	TenantID    int64
	Month       int
	Year        int
}

// Flag reports whether the boolean filter key is on.
func (f Filters) Flag(key Key) bool {
	return f.Flags[key]
}

// FilterSpec declares which filters a list accepts.
type FilterSpec struct {
	Keys     []Key
	Flags    []Key
	Statuses []string
}

// FilterSet holds the current filter selection for one list. Mutations go
// through setters so the date exclusivity rule always holds: the most
// recently set of {quick filter or explicit range} and {month/year} wins.
type FilterSet struct {
	now      func() time.Time
	allowed  map[Key]bool
	flagKeys map[Key]bool
	statuses []string
	values   Filters
}

// FilterOption customizes a FilterSet.
type FilterOption func(*FilterSet)

// WithClock sets the time source used to expand quick filters.
func WithClock(now func() time.Time) FilterOption {
	return func(f *FilterSet) {
		f.now = now
	}
}

// NewFilterSet returns an empty FilterSet accepting the keys in spec.
func NewFilterSet(spec FilterSpec, opts ...FilterOption) *FilterSet {
	f := &FilterSet{
		now:      time.Now,
		allowed:  make(map[Key]bool, len(spec.Keys)),
		flagKeys: make(map[Key]bool, len(spec.Flags)),
		statuses: slices.Clone(spec.Statuses),
	}
	for _, k := range spec.Keys {
		f.allowed[k] = true
	}
	for _, k := range spec.Flags {
		f.flagKeys[k] = true
	}
	for _, opt := range opts {
		opt(f)
	}
	f.ClearAll()
	return f
}

// Supports reports whether key is accepted by this set.
func (f *FilterSet) Supports(key Key) bool {
	return f.allowed[key] || f.flagKeys[key]
}

// Statuses returns the accepted status values, if restricted.
func (f *FilterSet) Statuses() []string {
	return slices.Clone(f.statuses)
}

// Values returns a copy of the current selection.
func (f *FilterSet) Values() Filters {
	v := f.values
	v.Flags = maps.Clone(f.values.Flags)
	return v
}

// ClearAll resets every filter to its default.
func (f *FilterSet) ClearAll() {
	f.values = Filters{Flags: make(map[Key]bool)}
}

// Set stores value under key. An empty value clears the key.
func (f *FilterSet) Set(key Key, value string) error {
	value = strings.TrimSpace(value)

	if f.flagKeys[key] {
		on, err := parseFlag(value)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidFilterValue, key, value)
		}
		return f.SetFlag(key, on)
	}

	switch key {
	case KeyStatus:
		return f.SetStatus(value)
	case KeyStartDate, KeyEndDate:
		var d model.Date
		if value != "" {
			parsed, err := model.ParseDate(value)
			if err != nil {
				return fmt.Errorf("%w: %s: %v", ErrInvalidFilterValue, key, err)
			}
			d = parsed
		}
		if key == KeyStartDate {
			return f.SetStartDate(d)
		}
		return f.SetEndDate(d)
	case KeyQuickFilter:
		if value == "" {
			return f.SetQuickFilter("")
		}
		q, err := ParseQuickFilter(value)
		if err != nil {
			return err
		}
		return f.SetQuickFilter(q)
	case KeyMonth, KeyYear:
		n, err := parseOptionalInt(value)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidFilterValue, key, value)
		}
		if key == KeyMonth {
			return f.SetMonthYear(int(n), f.values.Year)
		}
		return f.SetMonthYear(f.values.Month, int(n))
	case KeyRoom, KeyBed, KeyTenant:
		id, err := parseOptionalInt(value)
		if err != nil || id < 0 {
			return fmt.Errorf("%w: %s=%q", ErrInvalidFilterValue, key, value)
		}
		return f.setID(key, id)
	case KeySearch:
		return f.SetSearch(value)
	case KeyExpenseType:
		return f.SetExpenseType(value)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFilter, key)
	}
}

// SetStatus filters by status. Values are matched case-insensitively
// against the list's statuses and stored in their canonical form.
func (f *FilterSet) SetStatus(status string) error {
	if err := f.require(KeyStatus); err != nil {
		return err
	}
	if status == "" || len(f.statuses) == 0 {
		f.values.Status = status
		return nil
	}
	for _, known := range f.statuses {
		if strings.EqualFold(known, status) {
			f.values.Status = known
			return nil
		}
	}
	return fmt.Errorf("%w: status %q (want one of %s)", ErrInvalidFilterValue, status, strings.Join(f.statuses, ", "))
}

// SetStartDate sets an explicit lower date bound, dropping any quick filter
// and month/year selection.
func (f *FilterSet) SetStartDate(d model.Date) error {
	if err := f.require(KeyStartDate); err != nil {
		return err
	}
	if !d.IsZero() {
		f.clearPeriod()
	}
	f.values.Quick = ""
	f.values.StartDate = d
	return nil
}

// SetEndDate sets an explicit upper date bound, dropping any quick filter
// and month/year selection. An end before the start is accepted as is.
func (f *FilterSet) SetEndDate(d model.Date) error {
	if err := f.require(KeyEndDate); err != nil {
		return err
	}
	if !d.IsZero() {
		f.clearPeriod()
	}
	f.values.Quick = ""
	f.values.EndDate = d
	return nil
}

// SetDateRange sets both bounds at once.
func (f *FilterSet) SetDateRange(start, end model.Date) error {
	if err := f.SetStartDate(start); err != nil {
		return err
	}
	return f.SetEndDate(end)
}

// SetQuickFilter expands q into start/end dates relative to now and clears
// month/year. The empty filter clears the shortcut and its dates.
func (f *FilterSet) SetQuickFilter(q QuickFilter) error {
	if err := f.require(KeyQuickFilter); err != nil {
		return err
	}
	if q == "" {
		f.values.Quick = ""
		f.values.StartDate = model.Date{}
		f.values.EndDate = model.Date{}
		return nil
	}
	if !slices.Contains(QuickFilters, q) {
		return fmt.Errorf("%w: unknown quick filter %q", ErrInvalidFilterValue, q)
	}

	f.clearPeriod()
	f.values.Quick = q
	f.values.StartDate, f.values.EndDate = q.Range(f.now())
	return nil
}

// SetMonthYear selects a calendar month and year, dropping any quick
// filter and explicit range. Zero clears the respective part; clearing
// both leaves the date range untouched.
func (f *FilterSet) SetMonthYear(month, year int) error {
	if err := f.require(KeyMonth); err != nil {
		return err
	}
	if month < 0 || month > 12 {
		return fmt.Errorf("%w: month %d", ErrInvalidFilterValue, month)
	}
	if year < 0 || (year > 0 && (year < 1900 || year > 9999)) {
		return fmt.Errorf("%w: year %d", ErrInvalidFilterValue, year)
	}

	if month != 0 || year != 0 {
		f.values.Quick = ""
		f.values.StartDate = model.Date{}
		f.values.EndDate = model.Date{}
	}
	f.values.Month = month
	f.values.Year = year
	return nil
}

// SetRoom filters by room id; 0 clears it.
func (f *FilterSet) SetRoom(id int64) error { return f.setID(KeyRoom, id) }

// SetBed filters by bed id; 0 clears it.
func (f *FilterSet) SetBed(id int64) error { return f.setID(KeyBed, id) }

// SetTenant filters by tenant id; 0 clears it.
func (f *FilterSet) SetTenant(id int64) error { return f.setID(KeyTenant, id) }

// SetSearch sets the free-text search.
func (f *FilterSet) SetSearch(text string) error {
	if err := f.require(KeySearch); err != nil {
		return err
	}
	f.values.Search = strings.TrimSpace(text)
	return nil
}

// SetExpenseType filters expenses by type.
func (f *FilterSet) SetExpenseType(kind string) error {
	if err := f.require(KeyExpenseType); err != nil {
		return err
	}
	f.values.ExpenseType = strings.TrimSpace(kind)
	return nil
}

// SetFlag turns a boolean filter on or off.
func (f *FilterSet) SetFlag(key Key, on bool) error {
	if !f.flagKeys[key] {
		return fmt.Errorf("%w: %s", ErrUnsupportedFilter, key)
	}
	if on {
		f.values.Flags[key] = true
	} else {
		delete(f.values.Flags, key)
	}
	return nil
}

// CountActive returns how many filter keys hold a non-default value.
func (f *FilterSet) CountActive() int {
	v := f.values
	count := 0
	for _, set := range []bool{
		v.Status != "",
		!v.StartDate.IsZero(),
		!v.EndDate.IsZero(),
		v.Quick != "",
		v.Month != 0,
		v.Year != 0,
		v.RoomID != 0,
		v.BedID != 0,
		v.TenantID != 0,
		v.Search != "",
		v.ExpenseType != "",
	} {
		if set {
			count++
		}
	}
	return count + len(v.Flags)
}

// Projection renders the selection as query parameters. An explicit date
// range, including one produced by a quick filter, takes precedence over
// month/year. Keys in skip are left out; screens use this for filters they
// apply client-side.
func (f *FilterSet) Projection(skip ...Key) url.Values {
	v := f.values
	q := url.Values{}
	set := func(key Key, value string) {
		if value != "" && !slices.Contains(skip, key) {
			q.Set(string(key), value)
		}
	}

	set(KeyStatus, v.Status)
	if !v.StartDate.IsZero() || !v.EndDate.IsZero() {
		set(KeyStartDate, v.StartDate.String())
		set(KeyEndDate, v.EndDate.String())
	} else {
		if v.Month != 0 {
			set(KeyMonth, strconv.Itoa(v.Month))
		}
		if v.Year != 0 {
			set(KeyYear, strconv.Itoa(v.Year))
		}
	}
	if v.RoomID != 0 {
		set(KeyRoom, strconv.FormatInt(v.RoomID, 10))
	}
	if v.BedID != 0 {
		set(KeyBed, strconv.FormatInt(v.BedID, 10))
	}
	if v.TenantID != 0 {
		set(KeyTenant, strconv.FormatInt(v.TenantID, 10))
	}
	set(KeySearch, v.Search)
	set(KeyExpenseType, v.ExpenseType)
	for key := range v.Flags {
		set(key, "true")
	}

	return q
}

func (f *FilterSet) setID(key Key, id int64) error {
	if err := f.require(key); err != nil {
		return err
	}
	if id < 0 {
		return fmt.Errorf("%w: %s=%d", ErrInvalidFilterValue, key, id)
	}
	switch key {
	case KeyRoom:
		f.values.RoomID = id
	case KeyBed:
		f.values.BedID = id
	case KeyTenant:
		f.values.TenantID = id
	}
	return nil
}

func (f *FilterSet) clearPeriod() {
	f.values.Month = 0
	f.values.Year = 0
}

func (f *FilterSet) require(key Key) error {
	if !f.allowed[key] {
		return fmt.Errorf("%w: %s", ErrUnsupportedFilter, key)
	}
	return nil
}

func parseFlag(value string) (bool, error) {
	if value == "" {
		return false, nil
	}
	return strconv.ParseBool(value)
}

func parseOptionalInt(value string) (int64, error) {
	if value == "" {
		return 0, nil
	}
	return strconv.ParseInt(value, 10, 64)
}
