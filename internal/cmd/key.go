package cmd

import (
	"fmt"

	"github.com/jsiebens/memberd/internal/util"
	"github.com/spf13/cobra"
)

func keyCommand() *cobra.Command {
	command := &cobra.Command{
		Use:          "genkey",
		Short:        "Generate a new session secret",
		SilenceUsage: true,
	}

	command.RunE = func(command *cobra.Command, args []string) error {
		secret, err := util.RandomHex(32)
		if err != nil {
			return err
		}
		fmt.Println(secret)
		return nil
	}

	return command
}
