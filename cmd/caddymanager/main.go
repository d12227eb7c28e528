package main

import (
	"fmt"
	"os"

	"github.com/osa911/caddymanager/internal/version"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "caddymanager",
	Short: "caddymanager - manage Caddy reverse-proxy hosts over HTTP",
	Long: `caddymanager runs Caddy as a child process and exposes a small API
for adding and removing reverse-proxy hosts. Hosts live in the dynamic
region of the Caddyfile; every change rewrites that region and gracefully
reloads Caddy.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Info())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(hostsCmd)
	rootCmd.AddCommand(versionCmd)

	hostsCmd.AddCommand(hostsListCmd)
	hostsCmd.AddCommand(hostsAddCmd)
	hostsCmd.AddCommand(hostsRemoveCmd)

	hostsCmd.PersistentFlags().String("config", "", "Path to the Caddyfile (default: $CADDYFILE or $ROOT_DIR/Caddyfile)")
	hostsCmd.PersistentFlags().Bool("no-reload", false, "Rewrite the Caddyfile without reloading caddy")

	hostsAddCmd.Flags().String("name", "", "Site name, e.g. app.example.com")
	hostsAddCmd.Flags().String("ip", "", "Upstream host")
	hostsAddCmd.Flags().Uint16("port", 0, "Upstream port")
	hostsAddCmd.Flags().String("scheme", "http", "Upstream scheme (http or https)")
	_ = hostsAddCmd.MarkFlagRequired("name")
	_ = hostsAddCmd.MarkFlagRequired("ip")
	_ = hostsAddCmd.MarkFlagRequired("port")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
