// gcebootstrap - CLI tool that provisions a web server stack on Google Compute Engine
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/Bibi40k/gce-web-bootstrap/configs"
	"github.com/spf13/cobra"
)

var stackFile string
var projectFlag string
var credentialsFile string
var debugLogs bool

var upOpts upOptions
var downOpts downOptions
var payloadFormat string

// mainSigCh receives SIGINT for the default handler.
// runUp and runDown temporarily stop delivery to this channel so Ctrl+C
// cancels the in-flight operation instead of exiting.
var mainSigCh = make(chan os.Signal, 1)

var rootCmd = &cobra.Command{
	Use:           "gcebootstrap",
	Short:         "Provision a VPC, firewall rules and a Docker + Nginx VM on Compute Engine",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = initDebugLogger()
	},
}

var upCmd = &cobra.Command{
	Use:           "up",
	Short:         "Create network, subnet, firewall rules and instance",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUp(cmd.Context(), upOpts)
	},
}

var downCmd = &cobra.Command{
	Use:           "down",
	Short:         "Delete the stack in reverse order",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDown(cmd.Context(), downOpts)
	},
}

var planCmd = &cobra.Command{
	Use:           "plan",
	Short:         "Validate the stack and print the creation order",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlan(os.Stdout)
	},
}

var payloadCmd = &cobra.Command{
	Use:           "payload",
	Short:         "Print the guest startup payload",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPayload(os.Stdout, payloadFormat)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&stackFile, "config", "",
		"Stack file overlaid onto the built-in defaults (*.sops.yaml is decrypted with sops)")
	rootCmd.PersistentFlags().StringVar(&projectFlag, "project", "",
		"GCP project ID (default: GOOGLE_CLOUD_PROJECT, CLOUDSDK_CORE_PROJECT, gcloud config)")
	rootCmd.PersistentFlags().StringVar(&credentialsFile, "credentials", "",
		"Service account JSON key (default: application default credentials)")
	rootCmd.PersistentFlags().BoolVar(&debugLogs, "debug", false,
		"Enable debug logging to "+configs.Defaults.Output.DebugLogPath)

	rootCmd.AddCommand(upCmd)
	rootCmd.AddCommand(downCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(payloadCmd)

	upCmd.Flags().BoolVarP(&upOpts.yes, "yes", "y", false, "Skip the confirmation prompt")
	upCmd.Flags().StringVar(&upOpts.resultPath, "result", configs.Defaults.Output.ResultPath,
		"Write provision result to YAML/JSON file (empty disables)")
	upCmd.Flags().BoolVar(&upOpts.verifyHTTP, "verify-http", false, "Wait until port 80 answers on the external IP")
	upCmd.Flags().StringVar(&upOpts.sshKeyPath, "ssh-key", "", "Public key added to instance ssh-keys metadata")
	upCmd.Flags().StringVar(&upOpts.sshUser, "ssh-user", "", "Guest user for --ssh-key")
	upCmd.Flags().StringVar(&upOpts.format, "format", "", "Payload format: script or cloud-config")
	upCmd.Flags().StringSliceVar(&upOpts.dockerUsers, "docker-user", nil, "Guest user added to the docker group (repeatable)")

	downCmd.Flags().BoolVarP(&downOpts.yes, "yes", "y", false, "Skip the confirmation prompt")
	downCmd.Flags().StringVar(&downOpts.resultPath, "result", configs.Defaults.Output.ResultPath,
		"Provision result file used for the project and removed after teardown")

	payloadCmd.Flags().StringVar(&payloadFormat, "format", "", "Payload format: script or cloud-config")
}

func main() {
	// Handle Ctrl+C outside of up/down: print a clean message and exit 0.
	signal.Notify(mainSigCh, os.Interrupt)
	go func() {
		<-mainSigCh
		fmt.Println("\nCancelled.")
		os.Exit(0)
	}()

	err := rootCmd.ExecuteContext(context.Background())
	if debugCleanup != nil {
		debugCleanup()
	}
	if err == nil || errors.Is(err, errCancelled) {
		if err != nil {
			fmt.Println("  Cancelled.")
		}
		return
	}

	const (
		red    = "\033[31m"
		yellow = "\033[33m"
		cyan   = "\033[36m"
		reset  = "\033[0m"
	)
	err = explainError(err)
	if ue, ok := err.(*userError); ok {
		fmt.Fprintf(os.Stderr, "%sError:%s %s\n", red, reset, ue.Error())
		if hint := ue.Hint(); hint != "" {
			fmt.Fprintf(os.Stderr, "%sHint:%s %s%s%s\n", yellow, reset, cyan, hint, reset)
		}
	} else {
		fmt.Fprintf(os.Stderr, "%sError:%s %v\n", red, reset, err)
	}
	os.Exit(1)
}
