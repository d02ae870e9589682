package courses

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
	"studymatcher/cmd/cli/root"
)

// ==========================
// CLI Command Init
// ==========================
func init() {
	coursesCmd := &cobra.Command{
		Use:   "courses",
		Short: "Manage your course list",
		Long:  "Add or remove courses on the logged-in account.",
	}

	coursesCmd.AddCommand(addCmd(), removeCmd())
	root.GetRoot().AddCommand(coursesCmd)
}

func addCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <course name>",
		Short: "Add a course to your account",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			course := strings.Join(args, " ")

			userID, err := config.CurrentUserID()
			if err != nil {
				return err
			}
			token, err := config.LoadToken()
			if err != nil {
				return err
			}

			var out struct {
				Message string   `json:"message"`
				Courses []string `json:"courses"`
			}
			path := fmt.Sprintf("/users/%d/courses", userID)
			if err := postAuthed(path, token, map[string]string{"courseName": course}, &out); err != nil {
				return err
			}

			fmt.Printf("%s Your courses: %s\n", out.Message, strings.Join(out.Courses, ", "))
			return nil
		},
	}
}

func removeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <course name>",
		Short: "Remove a course from your account",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			course := strings.Join(args, " ")

			userID, err := config.CurrentUserID()
			if err != nil {
				return err
			}
			token, err := config.LoadToken()
			if err != nil {
				return err
			}

			var out struct {
				Message   string   `json:"message"`
				Remaining []string `json:"remainingCourses"`
			}
			path := fmt.Sprintf("/users/%d/courses/%s", userID, url.PathEscape(course))
			if err := deleteAuthed(path, token, &out); err != nil {
				return err
			}

			if len(out.Remaining) == 0 {
				fmt.Printf("%s No courses left.\n", out.Message)
			} else {
				fmt.Printf("%s Remaining: %s\n", out.Message, strings.Join(out.Remaining, ", "))
			}
			return nil
		},
	}
}

// ==========================
// HTTP Helpers
// ==========================
func postAuthed(path, token string, payload interface{}, out interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequest("POST", config.APIURL()+path, bytes.NewBuffer(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	return doJSON(req, out)
}

func deleteAuthed(path, token string, out interface{}) error {
	req, err := http.NewRequest("DELETE", config.APIURL()+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	return doJSON(req, out)
}

func doJSON(req *http.Request, out interface{}) error {
	resp, err := http.DefaultClient.Do(req)
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
