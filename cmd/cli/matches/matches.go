package matches

import (
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
	matchesCmd := &cobra.Command{
		Use:   "matches",
		Short: "Find study partners",
	}

	matchesCmd.AddCommand(findCmd())
	root.GetRoot().AddCommand(matchesCmd)
}

func findCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "find <course name>",
		Short: "List students taking a course",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			course := strings.Join(args, " ")

			resp, err := http.Get(config.APIURL() + "/matches/" + url.PathEscape(course))
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			body, _ := io.ReadAll(resp.Body)
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("API error: %s", string(body))
			}

			var out struct {
				Course  string        `json:"course"`
				Matches []models.User `json:"matches"`
			}
			if err := json.Unmarshal(body, &out); err != nil {
				return err
			}

			if asJSON {
				data, _ := json.MarshalIndent(out.Matches, "", "  ")
				fmt.Println(string(data))
				return nil
			}

			if len(out.Matches) == 0 {
				fmt.Printf("Nobody is taking %s yet.\n", out.Course)
				return nil
			}

			rows := make([][]interface{}, 0, len(out.Matches))
			for _, u := range out.Matches {
				rows = append(rows, []interface{}{u.ID, u.Name, u.Email, u.Major, strings.Join(u.Courses, ", ")})
			}
			output.RenderTable([]string{"ID", "Name", "Email", "Major", "Courses"}, rows)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print raw JSON instead of a table")
	return cmd
}
