package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/spec-kit/tenancy-service/internal/cli"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:          "tenancyctl",
		Short:        "Operations tool for the tenancy service",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		cli.MigrateCmd(),
		cli.WindowCmd(),
		cli.ExpiringCmd(),
		cli.UserCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
