package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"storyreel/internal/pkg/password"
)

var passwdCmd = &cobra.Command{
	Use:   "passwd [password]",
	Short: "Print the bcrypt hash for auth.admin_password_hash",
	Long: `Hash the admin password. Without an argument the password is read
from the first line of stdin.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPasswd,
}

func init() {
	rootCmd.AddCommand(passwdCmd)
}

func runPasswd(cmd *cobra.Command, args []string) error {
	var plain string
	if len(args) == 1 {
		plain = args[0]
	} else {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read password: %w", err)
		}
		plain = strings.TrimRight(line, "\r\n")
	}

	hash, err := password.Hash(plain)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), hash)
	return nil
}
