package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostelctl/hostelctl/internal/listing"
)

func parseFilters(t *testing.T, spec listing.FilterSpec, args ...string) (listing.Filters, error) {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	flags := addFilterFlags(cmd, spec)
	require.NoError(t, cmd.ParseFlags(args))

	set := listing.NewFilterSet(spec)
	err := flags.apply(cmd, set)
	return set.Values(), err
}

func TestFilterFlags_Apply(t *testing.T) {
	tests := []struct {
		check   func(t *testing.T, f listing.Filters)
		name    string
		args    []string
		wantErr bool
	}{
		{
			name: "status is canonicalized",
			args: []string{"--status", "paid"},
			check: func(t *testing.T, f listing.Filters) {
				assert.Equal(t, "PAID", f.Status)
			},
		},
		{
			name: "quick filter expands to a range",
			args: []string{"--quick", "last-week"},
			check: func(t *testing.T, f listing.Filters) {
				assert.Equal(t, listing.QuickLastWeek, f.Quick)
				assert.False(t, f.StartDate.IsZero())
				assert.False(t, f.EndDate.IsZero())
			},
		},
		{
			name: "explicit range",
			args: []string{"--from", "2024-03-01", "--to", "2024-03-31"},
			check: func(t *testing.T, f listing.Filters) {
				assert.Equal(t, "2024-03-01", f.StartDate.String())
				assert.Equal(t, "2024-03-31", f.EndDate.String())
			},
		},
		{
			name: "month and year",
			args: []string{"--month", "3", "--year", "2024"},
			check: func(t *testing.T, f listing.Filters) {
				assert.Equal(t, 3, f.Month)
				assert.Equal(t, 2024, f.Year)
			},
		},
		{
			name: "ids and search",
			args: []string{"--room", "4", "--tenant", "12", "--search", "  asha "},
			check: func(t *testing.T, f listing.Filters) {
				assert.Equal(t, int64(4), f.RoomID)
				assert.Equal(t, int64(12), f.TenantID)
				assert.Equal(t, "asha", f.Search)
			},
		},
		{name: "quick with range", args: []string{"--quick", "today", "--from", "2024-01-01"}, wantErr: true},
		{name: "month with quick", args: []string{"--month", "3", "--quick", "today"}, wantErr: true},
		{name: "unknown status", args: []string{"--status", "lost"}, wantErr: true},
		{name: "bad date", args: []string{"--from", "01/03/2024"}, wantErr: true},
		{name: "bad month", args: []string{"--month", "13"}, wantErr: true},
		{name: "negative room", args: []string{"--room", "-1"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := parseFilters(t, listing.RentPayments.Filters, tt.args...)
			if tt.wantErr {
				assert.ErrorIs(t, err, listing.ErrInvalidFilterValue)
				return
			}
			require.NoError(t, err)
			tt.check(t, f)
		})
	}
}

func TestFilterFlags_Toggles(t *testing.T) {
	f, err := parseFilters(t, listing.Tenants.Filters, "--pending-rent")
	require.NoError(t, err)
	assert.True(t, f.Flag(listing.FlagPendingRent))
	assert.False(t, f.Flag(listing.FlagCheckedOut))
}

func TestFilterFlags_OnlySupportedRegistered(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	addFilterFlags(cmd, listing.Expenses.Filters)

	assert.NotNil(t, cmd.Flags().Lookup("type"))
	assert.NotNil(t, cmd.Flags().Lookup("quick"))
	assert.Nil(t, cmd.Flags().Lookup("status"))
	assert.Nil(t, cmd.Flags().Lookup("pending-rent"))
	assert.Error(t, cmd.ParseFlags([]string{"--status", "PAID"}))
}

func TestFilterFlags_StatusUsageListsValues(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	addFilterFlags(cmd, listing.Tenants.Filters)
	assert.Contains(t, cmd.Flags().Lookup("status").Usage, "CHECKED_OUT")
}
