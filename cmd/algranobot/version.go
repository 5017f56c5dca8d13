package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Version устанавливается при сборке через -ldflags.
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Показать версию",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "algranobot %s\n", Version)
		fmt.Fprintf(cmd.OutOrStdout(), "  Go Version: %s\n", runtime.Version())
		fmt.Fprintf(cmd.OutOrStdout(), "  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
