package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hostelctl/hostelctl/internal/auth"
	"github.com/hostelctl/hostelctl/internal/cli"
	"github.com/hostelctl/hostelctl/internal/common"
	"github.com/hostelctl/hostelctl/internal/config"
	"github.com/hostelctl/hostelctl/internal/sheets"
	"github.com/hostelctl/hostelctl/internal/storage"
)

func authCmd(env *rootEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the API session",
	}

	cmd.AddCommand(authLoginCmd(env), authStatusCmd(env), authLogoutCmd(env))
	return cmd
}

func authLoginCmd(env *rootEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store an API access token",
		Long: `Store the access token issued by the PG management API.

The token is read from --token or, when omitted, from standard input. JWTs
are inspected for the user id and expiry; other tokens are stored as is.`,
		Args: cobra.NoArgs,
	}

	cmd.Flags().String("token", "", "access token (default: read from stdin)")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		token, _ := cmd.Flags().GetString("token")
		if strings.TrimSpace(token) == "" {
			fmt.Fprint(cmd.ErrOrStderr(), cli.FormatPrompt("Access token"))
			line, err := cli.NewNonBlockingReader(cmd.InOrStdin()).ReadLine(ctx)
			if err != nil {
				return fmt.Errorf("failed to read token: %w", err)
			}
			token = line
		}
		if strings.TrimSpace(token) == "" {
			return common.NewUserError("no token given", common.ErrNotAuthenticated)
		}

		store, err := env.initStorage(ctx)
		if err != nil {
			return err
		}
		defer closeStore(store)

		session, err := auth.Login(ctx, store, token, env.cfg.API.BaseURL, time.Now())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, cli.FormatSuccess("Logged in to "+env.cfg.API.BaseURL))
		printSession(cmd, session)
		return nil
	}

	return cmd
}

func authStatusCmd(env *rootEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if env.cfg.API.Token != "" {
				fmt.Fprintln(out, cli.FormatInfo("Using the token from api.token; the stored session is ignored"))
			}

			store, err := env.initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStore(store)

			session, err := auth.Current(ctx, store, time.Now())
			switch {
			case errors.Is(err, common.ErrNotAuthenticated):
				fmt.Fprintln(out, cli.FormatWarning("Not logged in. Run 'hostelctl auth login'."))
				return nil
			case errors.Is(err, common.ErrSessionExpired):
				fmt.Fprintln(out, cli.FormatWarning("Session expired. Run 'hostelctl auth login' again."))
			case err != nil:
				return err
			default:
				fmt.Fprintln(out, cli.FormatSuccess("Logged in"))
			}
			printSession(cmd, session)
			return nil
		},
	}
}

func printSession(cmd *cobra.Command, session *storage.Session) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.FormatField("API", session.BaseURL))
	fmt.Fprintln(out, cli.FormatField("User", session.UserID))
	expires := "never"
	if !session.ExpiresAt.IsZero() {
		expires = session.ExpiresAt.Local().Format(time.DateTime)
	}
	fmt.Fprintln(out, cli.FormatField("Expires", expires))
}

func authLogoutCmd(env *rootEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := env.initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStore(store)

			if err := auth.Logout(ctx, store); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Logged out"))
			return nil
		},
	}
}

func locationCmd(env *rootEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "location",
		Short: "Choose the PG location requests apply to",
	}

	cmd.AddCommand(locationUseCmd(env), locationShowCmd(env))
	return cmd
}

func locationUseCmd(env *rootEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "use <location-id>",
		Short: "Select a PG location",
		Long: `Select the PG location sent with every request.

The selection is stored locally and overrides scope.location_id from the
config file.`,
		Args: cobra.ExactArgs(1),
	}

	cmd.Flags().String("org", "", "organization id (default: keep the stored one)")
	cmd.Flags().String("name", "", "display name for the location")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		id, err := parseID(args[0], "location")
		if err != nil {
			return err
		}
		loc := storage.Location{LocationID: fmt.Sprint(id)}
		loc.Name, _ = cmd.Flags().GetString("name")
		if org, _ := cmd.Flags().GetString("org"); org != "" {
			orgID, err := parseID(org, "organization")
			if err != nil {
				return err
			}
			loc.OrganizationID = fmt.Sprint(orgID)
		}

		store, err := env.initStorage(ctx)
		if err != nil {
			return err
		}
		defer closeStore(store)

		if err := store.SelectLocation(ctx, loc); err != nil {
			return fmt.Errorf("failed to select location: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Using location "+locationLabel(loc)))
		return nil
	}

	return cmd
}

func locationShowCmd(env *rootEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the selected PG location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			store, err := env.initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStore(store)

			loc, err := store.SelectedLocation(ctx)
			if err != nil {
				return err
			}

			source := "selected"
			if loc.LocationID == "" {
				source = "from config"
				loc.LocationID = env.cfg.Scope.LocationID
			}
			if loc.OrganizationID == "" {
				loc.OrganizationID = env.cfg.Scope.OrganizationID
			}
			if loc.LocationID == "" {
				fmt.Fprintln(out, cli.FormatWarning("No location selected. Run 'hostelctl location use <id>'."))
				return nil
			}

			fmt.Fprintln(out, cli.FormatField("Location", locationLabel(loc)+" ("+source+")"))
			fmt.Fprintln(out, cli.FormatField("Organization", loc.OrganizationID))
			return nil
		},
	}
}

func locationLabel(loc storage.Location) string {
	if loc.Name == "" {
		return loc.LocationID
	}
	return fmt.Sprintf("%s (%s)", loc.LocationID, loc.Name)
}

func sheetsCmd(env *rootEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Set up Google Sheets export",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "auth",
		Short: "Authorize Google Sheets access",
		Long: `Run the Google OAuth consent flow and save a refresh token.

Client credentials come from sheets.client_id and sheets.client_secret or the
GOOGLE_SHEETS_CLIENT_ID and GOOGLE_SHEETS_CLIENT_SECRET environment variables.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			oauthCfg := sheets.OAuth2Config{
				ClientID:     firstNonEmpty(env.v.GetString("sheets.client_id"), os.Getenv("GOOGLE_SHEETS_CLIENT_ID")),
				ClientSecret: firstNonEmpty(env.v.GetString("sheets.client_secret"), os.Getenv("GOOGLE_SHEETS_CLIENT_SECRET")),
				TokenFile:    config.ExpandPath(env.v.GetString("sheets.token_file")),
			}
			if oauthCfg.ClientID == "" || oauthCfg.ClientSecret == "" {
				return common.NewUserError("google OAuth client id and secret are required", common.ErrMissingConfig)
			}

			if _, err := sheets.Authorize(cmd.Context(), oauthCfg); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Google Sheets authorized"))
			return nil
		},
	})
	return cmd
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
