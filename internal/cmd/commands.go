package cmd

import (
	"github.com/spf13/cobra"

	"github.com/xdg/termrelay/internal/policy"
	"github.com/xdg/termrelay/internal/term"
)

var commandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "List allow-listed identifiers",
	Long: `List every allow-listed identifier, the command it runs, and whether the
validator would accept it. An entry whose command contains a deny-listed token
is listed but always rejected.`,
	Aliases: []string{"ls"},
	Args:    cobra.NoArgs,
	RunE:    runCommands,
}

func init() {
	rootCmd.AddCommand(commandsCmd)
}

func runCommands(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	v := newValidator(cfg)
	names := v.AllowList().Names()
	if len(names) == 0 {
		term.Println("No commands configured.")
		return nil
	}

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		d := v.Validate(name)
		line, status := "", "ok"
		if d.Outcome == policy.Resolved {
			line = d.Invocation.Line
		} else {
			status = "rejected: " + d.Reason
			if inv, err := v.AllowList().Lookup(name); err == nil {
				line = inv.Line
			}
		}
		rows = append(rows, []string{name, line, status})
	}

	term.Table([]string{"NAME", "COMMAND", "STATUS"}, rows)
	return nil
}
