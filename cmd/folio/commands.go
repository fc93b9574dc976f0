package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"github.com/kalambet/folio/internal/api"
	"github.com/kalambet/folio/internal/config"
	"github.com/kalambet/folio/internal/content"
	"github.com/kalambet/folio/internal/portfolio"
	"github.com/kalambet/folio/internal/storage"
)

// --- session ---

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in as the portfolio admin",
	Long: `Sign in as the portfolio admin and keep the session for later commands.

The password is read from --password or the FOLIO_ADMIN_PASSWORD environment variable.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		if password == "" {
			password = os.Getenv("FOLIO_ADMIN_PASSWORD")
		}
		if email == "" || password == "" {
			return errors.New("--email and a password are required")
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		sess, err := login(cmd.Context(), client, email, password)
		if err != nil {
			return err
		}
		if err := saveToken(cfg.Storage.DataDir, sess.Token); err != nil {
			return fmt.Errorf("saving session: %w", err)
		}
		printSuccess("Signed in as %s", sess.UserID)
		return nil
	},
}

func login(ctx context.Context, client *apiClient, email, password string) (*api.SessionResponse, error) {
	resp, err := client.post(ctx, "/api/session", map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, err
	}
	var sess api.SessionResponse
	if err := decodeJSON(resp, &sess); err != nil {
		return nil, err
	}
	if sess.Token == "" {
		return nil, errors.New("server did not return a session token")
	}
	return &sess, nil
}

func init() {
	loginCmd.Flags().String("email", "", "admin account email")
	loginCmd.Flags().String("password", "", "admin account password")
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the admin session",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		if client.token != "" {
			resp, err := client.delete(cmd.Context(), "/api/session")
			if err != nil {
				printWarning("%v", err)
			} else if err := decodeJSON(resp, nil); err != nil {
				printWarning("%v", err)
			}
		}
		if err := os.Remove(tokenFilePath(cfg.Storage.DataDir)); err != nil && !os.IsNotExist(err) {
			return err
		}
		printSuccess("Signed out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show whether the stored session is an admin session",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), "/api/session")
		if err != nil {
			return err
		}
		var sess api.SessionResponse
		if err := decodeJSON(resp, &sess); err != nil {
			return err
		}
		if sess.Admin {
			fmt.Fprintf(out, "admin %s\n", sess.UserID)
		} else {
			fmt.Fprintln(out, "guest")
		}
		return nil
	},
}

// --- content ---

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the full portfolio as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		snap, err := fetchPortfolio(cmd.Context(), client)
		if err != nil {
			return err
		}
		return printJSON(snap)
	},
}

func fetchPortfolio(ctx context.Context, client *apiClient) (*content.Snapshot, error) {
	resp, err := client.get(ctx, "/api/portfolio")
	if err != nil {
		return nil, err
	}
	var snap content.Snapshot
	if err := decodeJSON(resp, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func profileFormOf(snap *content.Snapshot) portfolio.ProfileForm {
	return portfolio.NewProfileForm(snap.Profile, snap.Skills, snap.AboutText)
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or replace the profile",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the profile as an editable form",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		snap, err := fetchPortfolio(cmd.Context(), client)
		if err != nil {
			return err
		}
		return printJSON(profileFormOf(snap))
	},
}

var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Replace the profile from a JSON form",
	Long: `Replace the profile from a JSON form.

Use "folio profile show > profile.json" to get a form to edit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		body, err := readInput(file)
		if err != nil {
			return err
		}
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.put(cmd.Context(), "/api/profile", body)
		if err != nil {
			return err
		}
		if err := decodeJSON(resp, nil); err != nil {
			return err
		}
		printSuccess("Profile saved")
		return nil
	},
}

func init() {
	profileSetCmd.Flags().String("file", "", "JSON form to read (- for stdin)")
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileSetCmd)
}

var appearanceCmd = &cobra.Command{
	Use:   "appearance",
	Short: "Set theme and profile image presentation",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		snap, err := fetchPortfolio(cmd.Context(), client)
		if err != nil {
			return err
		}

		a := snap.Appearance
		if cmd.Flags().Changed("theme") {
			a.Theme, _ = cmd.Flags().GetString("theme")
		}
		if cmd.Flags().Changed("fit") {
			a.ProfileObjectFit, _ = cmd.Flags().GetString("fit")
		}
		if cmd.Flags().Changed("transform") {
			a.ProfileTransform, _ = cmd.Flags().GetString("transform")
		}

		resp, err := client.put(cmd.Context(), "/api/appearance", a)
		if err != nil {
			return err
		}
		if err := decodeJSON(resp, &a); err != nil {
			return err
		}
		printSuccess("Appearance: theme=%s fit=%s transform=%q", a.Theme, a.ProfileObjectFit, a.ProfileTransform)
		return nil
	},
}

func init() {
	appearanceCmd.Flags().String("theme", "", "light or dark")
	appearanceCmd.Flags().String("fit", "", "profile image fit: contain or cover")
	appearanceCmd.Flags().String("transform", "", `profile image transform, e.g. "translate(0px, 0px) scale(1.2)"`)
}

// --- collections ---

type listedItem struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Company string `json:"company"`
	Role    string `json:"role"`
}

func (i listedItem) label() string {
	if i.Title != "" {
		return i.Title
	}
	return i.Role + " @ " + i.Company
}

// collectionCmd builds the list/add/update/delete/export tree for one
// content collection served under /api/<name>.
func collectionCmd(name, singular string) *cobra.Command {
	root := &cobra.Command{
		Use:   name,
		Short: fmt.Sprintf("Manage %s", name),
	}

	list := &cobra.Command{
		Use:   "list",
		Short: fmt.Sprintf("List %s", name),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAPIClient()
			if err != nil {
				return err
			}
			items, err := listCollection(cmd.Context(), client, name)
			if err != nil {
				return err
			}
			if len(items) == 0 {
				fmt.Fprintf(out, "No %s.\n", name)
				return nil
			}
			for _, it := range items {
				printItem(it.ID, truncate(it.label(), 80), "")
			}
			return nil
		},
	}

	add := &cobra.Command{
		Use:   "add",
		Short: fmt.Sprintf("Add a %s from a JSON form", singular),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("file")
			body, err := readInput(file)
			if err != nil {
				return err
			}
			client, err := newAPIClient()
			if err != nil {
				return err
			}
			resp, err := client.post(cmd.Context(), "/api/"+name, body)
			if err != nil {
				return err
			}
			var created listedItem
			if err := decodeJSON(resp, &created); err != nil {
				return err
			}
			printSuccess("Added %s %s", singular, created.ID)
			return nil
		},
	}
	add.Flags().String("file", "", "JSON form to read (- for stdin)")

	update := &cobra.Command{
		Use:   "update <id>",
		Short: fmt.Sprintf("Replace a %s from a JSON form", singular),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("file")
			body, err := readInput(file)
			if err != nil {
				return err
			}
			client, err := newAPIClient()
			if err != nil {
				return err
			}
			resp, err := client.put(cmd.Context(), "/api/"+name+"/"+url.PathEscape(args[0]), body)
			if err != nil {
				return err
			}
			if err := decodeJSON(resp, nil); err != nil {
				return err
			}
			printSuccess("Updated %s %s", singular, args[0])
			return nil
		},
	}
	update.Flags().String("file", "", "JSON form to read (- for stdin)")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: fmt.Sprintf("Delete a %s", singular),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAPIClient()
			if err != nil {
				return err
			}
			resp, err := client.delete(cmd.Context(), "/api/"+name+"/"+url.PathEscape(args[0]))
			if err != nil {
				return err
			}
			if err := decodeJSON(resp, nil); err != nil {
				return err
			}
			printSuccess("Deleted %s %s", singular, args[0])
			return nil
		},
	}

	purge := &cobra.Command{
		Use:   "purge",
		Short: fmt.Sprintf("Delete all %s", name),
		RunE: func(cmd *cobra.Command, args []string) error {
			confirm, _ := cmd.Flags().GetBool("confirm")
			if !confirm {
				printWarning("This will delete ALL %s. Use --confirm to proceed.", name)
				return nil
			}
			client, err := newAPIClient()
			if err != nil {
				return err
			}
			resp, err := client.delete(cmd.Context(), "/api/"+name)
			if err != nil {
				return err
			}
			var result struct {
				Count int `json:"count"`
			}
			if err := decodeJSON(resp, &result); err != nil {
				return err
			}
			printSuccess("Deleted %d %s", result.Count, name)
			return nil
		},
	}
	purge.Flags().Bool("confirm", false, "confirm deletion")

	export := &cobra.Command{
		Use:   "export",
		Short: fmt.Sprintf("Export %s as JSON", name),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			client, err := newAPIClient()
			if err != nil {
				return err
			}
			resp, err := client.get(cmd.Context(), "/api/"+name+"/export")
			if err != nil {
				return err
			}
			data, err := readBody(resp)
			if err != nil {
				return err
			}
			if output == "" {
				_, err := out.Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("writing export: %w", err)
			}
			printSuccess("Exported %s to %s", name, output)
			return nil
		},
	}
	export.Flags().String("output", "", "output file path (default: stdout)")

	root.AddCommand(list, add, update, del, purge, export)
	return root
}

func listCollection(ctx context.Context, client *apiClient, name string) ([]listedItem, error) {
	resp, err := client.get(ctx, "/api/portfolio")
	if err != nil {
		return nil, err
	}
	var snap map[string]json.RawMessage
	if err := decodeJSON(resp, &snap); err != nil {
		return nil, err
	}
	var items []listedItem
	if raw, ok := snap[name]; ok {
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", name, err)
		}
	}
	return items, nil
}

// --- sync ---

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Inspect remote mirror failures",
}

var syncFailuresCmd = &cobra.Command{
	Use:   "failures",
	Short: "List remote writes that did not reach the backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), fmt.Sprintf("/api/sync/failures?limit=%d", limit))
		if err != nil {
			return err
		}
		var failures []storage.SyncFailure
		if err := decodeJSON(resp, &failures); err != nil {
			return err
		}
		if len(failures) == 0 {
			fmt.Fprintln(out, "No sync failures.")
			return nil
		}
		for _, f := range failures {
			target := f.Entity
			if f.TargetID != "" {
				target += "/" + f.TargetID
			}
			printItem(f.CreatedAt.Local().Format("2006-01-02 15:04:05"), f.Op+" "+target, truncate(f.Error, 80))
		}
		return nil
	},
}

var syncClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the sync failure log",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.delete(cmd.Context(), "/api/sync/failures")
		if err != nil {
			return err
		}
		var result struct {
			Count int `json:"count"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}
		printSuccess("Cleared %d failures", result.Count)
		return nil
	},
}

func init() {
	syncFailuresCmd.Flags().Int("limit", 20, "maximum number of failures to list")
	syncCmd.AddCommand(syncFailuresCmd)
	syncCmd.AddCommand(syncClearCmd)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		for _, k := range config.ShowAll(cfg) {
			fmt.Fprintf(out, "  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		if err := config.SetKey(key, value); err != nil {
			return err
		}
		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Reset a configuration value to its default",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.UnsetKey(args[0]); err != nil {
			return err
		}
		printSuccess("Unset %s", args[0])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configUnsetCmd)
}
