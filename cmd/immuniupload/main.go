// Command immuniupload uploads exposure notification keys to the
// ingestion service and emits dummy uploads indistinguishable from
// genuine ones.
package main

import (
	"os"

	"github.com/immuni/upload-client/internal/version"
	"github.com/spf13/cobra"
)

// Options contains the options you can set from the CLI.
type Options struct {
	ConfigFile string
	Count      int
	DryRun     bool
	EnvFiles   []string
	KeysFile   string
	OTP        string
	Province   string
	Verbose    bool
}

// main is the main function of immuniupload.
func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCommand creates the root command and registers the subcommands.
func newRootCommand() *cobra.Command {
	globalOptions := &Options{}
	rootCmd := &cobra.Command{
		Use:          "immuniupload",
		Short:        "immuniupload uploads exposure notification data",
		Args:         cobra.NoArgs,
		Version:      version.Version,
		SilenceUsage: true,
	}
	rootCmd.SetVersionTemplate("{{ .Version }}\n")
	flags := rootCmd.PersistentFlags()

	flags.StringVarP(
		&globalOptions.ConfigFile,
		"config",
		"c",
		"",
		"path to the JSON configuration file",
	)

	flags.BoolVar(
		&globalOptions.DryRun,
		"dry-run",
		false,
		"print the request instead of sending it",
	)

	flags.StringSliceVar(
		&globalOptions.EnvFiles,
		"env-file",
		[]string{},
		"load environment variables from this dotenv file (may be specified multiple times)",
	)

	flags.BoolVarP(
		&globalOptions.Verbose,
		"verbose",
		"v",
		false,
		"increase verbosity level",
	)

	registerUpload(rootCmd, globalOptions)
	registerDummy(rootCmd, globalOptions)
	registerDigest(rootCmd, globalOptions)
	registerProvinces(rootCmd, globalOptions)
	registerProfile(rootCmd, globalOptions)
	return rootCmd
}

// registerUpload registers the upload subcommand
func registerUpload(rootCmd *cobra.Command, globalOptions *Options) {
	subCmd := &cobra.Command{
		Use:   "upload",
		Short: "Uploads the keys and summaries contained in a JSON file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return uploadMain(cmd.Context(), cmd.OutOrStdout(), globalOptions)
		},
	}
	rootCmd.AddCommand(subCmd)
	flags := subCmd.Flags()

	flags.StringVarP(
		&globalOptions.KeysFile,
		"keys",
		"k",
		"",
		"path to the JSON file containing teks and exposure_detection_summaries",
	)

	flags.StringVar(
		&globalOptions.OTP,
		"otp",
		"",
		"the OTP validated by the health operator",
	)

	flags.StringVarP(
		&globalOptions.Province,
		"province",
		"p",
		"",
		"the province of the user (e.g., RM)",
	)

	subCmd.MarkFlagRequired("keys")
	subCmd.MarkFlagRequired("otp")
	subCmd.MarkFlagRequired("province")
}

// registerDummy registers the dummy subcommand
func registerDummy(rootCmd *cobra.Command, globalOptions *Options) {
	subCmd := &cobra.Command{
		Use:   "dummy",
		Short: "Sends dummy uploads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return dummyMain(cmd.Context(), cmd.OutOrStdout(), globalOptions)
		},
	}
	rootCmd.AddCommand(subCmd)
	subCmd.Flags().IntVarP(
		&globalOptions.Count,
		"count",
		"n",
		1,
		"number of dummy uploads to send",
	)
}

// registerDigest registers the digest subcommand
func registerDigest(rootCmd *cobra.Command, globalOptions *Options) {
	subCmd := &cobra.Command{
		Use:   "digest",
		Short: "Prints the Authorization header value for an OTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return digestMain(cmd.OutOrStdout(), globalOptions)
		},
	}
	rootCmd.AddCommand(subCmd)
	subCmd.Flags().StringVar(
		&globalOptions.OTP,
		"otp",
		"",
		"the OTP to digest",
	)
	subCmd.MarkFlagRequired("otp")
}

// registerProvinces registers the provinces subcommand
func registerProvinces(rootCmd *cobra.Command, globalOptions *Options) {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "provinces",
		Short: "Lists the configured provinces",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return provincesMain(cmd.OutOrStdout(), globalOptions)
		},
	})
}

// registerProfile registers the profile subcommand
func registerProfile(rootCmd *cobra.Command, globalOptions *Options) {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "profile",
		Short: "Prints statistics about genuine and dummy upload sizes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return profileMain(cmd.OutOrStdout(), globalOptions)
		},
	})
}
