package root

import "github.com/spf13/cobra"

// Exported RootCmd
var RootCmd = &cobra.Command{
	Use:   "study",
	Short: "Study Matcher CLI",
	Long:  "Command line interface for interacting with the Study Matcher API",
}

// GetRoot returns the root command so subcommand packages can register
// themselves in init().
func GetRoot() *cobra.Command {
	return RootCmd
}
