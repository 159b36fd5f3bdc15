package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hostelctl/hostelctl/internal/listing"
)

// filterFlag binds a command-line flag to a filter key.
type filterFlag struct {
	key   listing.Key
	name  string
	usage string
}

// filterFlagDefs lists value filters in the order they are applied.
var filterFlagDefs = []filterFlag{
	{key: listing.KeyStatus, name: "status", usage: "filter by status"},
	{key: listing.KeyQuickFilter, name: "quick", usage: "date shortcut (today, yesterday, last-week, this-month, last-month, last-3-months, this-year)"},
	{key: listing.KeyStartDate, name: "from", usage: "earliest date, YYYY-MM-DD"},
	{key: listing.KeyEndDate, name: "to", usage: "latest date, YYYY-MM-DD"},
	{key: listing.KeyMonth, name: "month", usage: "calendar month, 1-12"},
	{key: listing.KeyYear, name: "year", usage: "calendar year"},
	{key: listing.KeyRoom, name: "room", usage: "room id"},
	{key: listing.KeyBed, name: "bed", usage: "bed id"},
	{key: listing.KeyTenant, name: "tenant", usage: "tenant id"},
	{key: listing.KeySearch, name: "search", usage: "free-text search"},
	{key: listing.KeyExpenseType, name: "type", usage: "expense type"},
}

var toggleFlagDefs = []filterFlag{
	{key: listing.FlagPendingRent, name: "pending-rent", usage: "only tenants with rent due"},
	{key: listing.FlagCheckedOut, name: "checked-out", usage: "only checked-out tenants"},
}

// filterFlags holds the flags registered for one list command.
type filterFlags struct {
	values  map[listing.Key]*string
	toggles map[listing.Key]*bool
	names   map[listing.Key]string
}

// addFilterFlags registers a flag for every filter spec accepts.
func addFilterFlags(cmd *cobra.Command, spec listing.FilterSpec) *filterFlags {
	f := &filterFlags{
		values:  make(map[listing.Key]*string),
		toggles: make(map[listing.Key]*bool),
		names:   make(map[listing.Key]string),
	}

	for _, def := range filterFlagDefs {
		if !slices.Contains(spec.Keys, def.key) {
			continue
		}
		usage := def.usage
		if def.key == listing.KeyStatus && len(spec.Statuses) > 0 {
			usage += " (" + strings.Join(spec.Statuses, ", ") + ")"
		}
		f.values[def.key] = cmd.Flags().String(def.name, "", usage)
		f.names[def.key] = def.name
	}
	for _, def := range toggleFlagDefs {
		if !slices.Contains(spec.Flags, def.key) {
			continue
		}
		f.toggles[def.key] = cmd.Flags().Bool(def.name, false, def.usage)
		f.names[def.key] = def.name
	}
	return f
}

// changed reports whether the flag for key was given.
func (f *filterFlags) changed(cmd *cobra.Command, key listing.Key) bool {
	name, ok := f.names[key]
	return ok && cmd.Flags().Changed(name)
}

// apply copies the given flags into set. Range and period flags are
// mutually exclusive, as are --quick and an explicit range.
func (f *filterFlags) apply(cmd *cobra.Command, set *listing.FilterSet) error {
	ranged := f.changed(cmd, listing.KeyStartDate) || f.changed(cmd, listing.KeyEndDate)
	quick := f.changed(cmd, listing.KeyQuickFilter)
	period := f.changed(cmd, listing.KeyMonth) || f.changed(cmd, listing.KeyYear)

	switch {
	case quick && ranged:
		return fmt.Errorf("%w: --quick cannot be combined with --from/--to", listing.ErrInvalidFilterValue)
	case period && (quick || ranged):
		return fmt.Errorf("%w: --month/--year cannot be combined with --quick/--from/--to", listing.ErrInvalidFilterValue)
	}

	for _, def := range filterFlagDefs {
		value, ok := f.values[def.key]
		if !ok || !cmd.Flags().Changed(def.name) {
			continue
		}
		if err := set.Set(def.key, *value); err != nil {
			return fmt.Errorf("--%s: %w", def.name, err)
		}
	}
	for _, def := range toggleFlagDefs {
		on, ok := f.toggles[def.key]
		if !ok || !cmd.Flags().Changed(def.name) {
			continue
		}
		if err := set.SetFlag(def.key, *on); err != nil {
			return fmt.Errorf("--%s: %w", def.name, err)
		}
	}
	return nil
}
