package users

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"studymatcher/cmd/cli/config"
	"studymatcher/cmd/cli/output"
	"studymatcher/cmd/cli/root"
	"studymatcher/internal/models"
)

// ==========================
// CLI Command Init
// ==========================
func init() {
	usersCmd := &cobra.Command{
		Use:   "users",
		Short: "Manage accounts and browse students",
		Long: `Register or login to the Study Matcher API.
Stores the JWT token locally for future commands.`,
	}

	usersCmd.AddCommand(registerCmd(), loginCmd(), logoutCmd(), listUsersCmd(), searchUsersCmd())
	root.GetRoot().AddCommand(usersCmd)
}

// ==========================
// Register
// ==========================
func registerCmd() *cobra.Command {
	var name, email, password, major string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new account",
		Long:  "Register a new account and store the returned JWT token locally.",
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]string{
				"name": name, "email": email, "password": password, "major": major,
			}
			var out struct {
				Message string      `json:"message"`
				Token   string      `json:"token"`
				User    models.User `json:"user"`
			}
			if err := postJSON("/users/register", payload, &out); err != nil {
				return err
			}
			if out.Token == "" {
				return fmt.Errorf("register succeeded but no token returned")
			}
			if err := config.SaveToken(out.Token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}
			fmt.Printf("%s Logged in as %s (id %d).\n", out.Message, out.User.Email, out.User.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Full name")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password (min 6 characters)")
	cmd.Flags().StringVar(&major, "major", "", "Major")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	cmd.MarkFlagRequired("major")

	return cmd
}

// ==========================
// Login / Logout
// ==========================
func loginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Login to an existing account",
		Long:  "Login and save the JWT token locally for future CLI commands.",
		RunE: func(cmd *cobra.Command, args []string) error {
			var out struct {
				Token string      `json:"token"`
				User  models.User `json:"user"`
			}
			if err := postJSON("/users/login", map[string]string{"email": email, "password": password}, &out); err != nil {
				return err
			}
			if out.Token == "" {
				return fmt.Errorf("login succeeded but no token returned")
			}
			if err := config.SaveToken(out.Token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}
			fmt.Printf("Login successful! Logged in as %s (id %d).\n", out.User.Email, out.User.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")

	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Logout current user",
		Long:  "Remove the locally saved JWT token.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.ClearToken(); err != nil {
				return err
			}
			fmt.Println("Logged out successfully.")
			return nil
		},
	}
}

// ==========================
// List / Search
// ==========================
func listUsersCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all students",
		Run: func(cmd *cobra.Command, args []string) {
			var users []models.User
			if err := getJSON("/users", &users); err != nil {
				fmt.Println("Error:", err)
				return
			}
			printUsers(users, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print raw JSON instead of a table")
	return cmd
}

func searchUsersCmd() *cobra.Command {
	var name, major string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search students by name or major",
		Run: func(cmd *cobra.Command, args []string) {
			q := url.Values{}
			if name != "" {
				q.Set("name", name)
			}
			if major != "" {
				q.Set("major", major)
			}

			var out struct {
				Count int           `json:"count"`
				Users []models.User `json:"users"`
			}
			if err := getJSON("/users/search?"+q.Encode(), &out); err != nil {
				fmt.Println("Error:", err)
				return
			}
			printUsers(out.Users, asJSON)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Name filter (substring, case-insensitive)")
	cmd.Flags().StringVar(&major, "major", "", "Major filter (substring, case-insensitive)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print raw JSON instead of a table")
	return cmd
}

func printUsers(users []models.User, asJSON bool) {
	if asJSON {
		data, _ := json.MarshalIndent(users, "", "  ")
		fmt.Println(string(data))
		return
	}

	rows := make([][]interface{}, 0, len(users))
	for _, u := range users {
		rows = append(rows, []interface{}{u.ID, u.Name, u.Email, u.Major, strings.Join(u.Courses, ", ")})
	}
	output.RenderTable([]string{"ID", "Name", "Email", "Major", "Courses"}, rows)
}

// ==========================
// HTTP Helpers
// ==========================
func getJSON(path string, out interface{}) error {
	resp, err := http.Get(config.APIURL() + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API error: %s", string(body))
	}
	return json.Unmarshal(body, out)
}

func postJSON(path string, payload interface{}, out interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	resp, err := http.Post(config.APIURL()+path, "application/json", bytes.NewBuffer(data))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API error: %s", string(body))
	}
	if out != nil {
		return json.Unmarshal(body, out)
	}
	return nil
}
