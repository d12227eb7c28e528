package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/osa911/caddymanager/internal/config"
	"github.com/osa911/caddymanager/internal/models"
	"github.com/osa911/caddymanager/internal/service"
	"github.com/osa911/caddymanager/internal/utils"
	"github.com/spf13/cobra"
)

var hostsCmd = &cobra.Command{
	Use:   "hosts",
	Short: "Inspect and edit hosts in the Caddyfile directly",
}

var hostsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the hosts found in the Caddyfile",
	RunE: func(cmd *cobra.Command, args []string) error {
		hosts, err := hostServiceFromFlags(cmd)
		if err != nil {
			return err
		}

		list, err := hosts.List(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tUPSTREAM")
		for _, h := range list {
			fmt.Fprintf(w, "%s\t%s://%s:%d\n", h.Name, h.Scheme, h.IP, h.Port)
		}
		return w.Flush()
	},
}

var hostsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a host to the dynamic region and reload caddy",
	Example: `  caddymanager hosts add --name app.example.com --ip 127.0.0.1 --port 3000
  caddymanager hosts add --name api.example.com --ip 10.0.0.5 --port 8443 --scheme https`,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		ip, _ := cmd.Flags().GetString("ip")
		port, _ := cmd.Flags().GetUint16("port")
		scheme, _ := cmd.Flags().GetString("scheme")

		host := models.Host{Name: name, IP: ip, Port: port, Scheme: scheme}
		if err := validateHost(host); err != nil {
			return err
		}

		hosts, err := hostServiceFromFlags(cmd)
		if err != nil {
			return err
		}
		if err := hosts.Add(cmd.Context(), host); err != nil {
			return err
		}

		fmt.Printf("Added %s -> %s://%s:%d\n", host.Name, host.Scheme, host.IP, host.Port)
		return nil
	},
}

var hostsRemoveCmd = &cobra.Command{
	Use:   "remove NAME",
	Short: "Remove a host from the dynamic region and reload caddy",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hosts, err := hostServiceFromFlags(cmd)
		if err != nil {
			return err
		}
		if err := hosts.Remove(cmd.Context(), args[0]); err != nil {
			return err
		}

		fmt.Printf("Removed %s\n", args[0])
		return nil
	},
}

// validateHost applies the same rules as the HTTP binding tags
func validateHost(host models.Host) error {
	switch {
	case !utils.IsValidSiteName(host.Name):
		return fmt.Errorf("invalid site name %q", host.Name)
	case !utils.IsValidUpstreamHost(host.IP):
		return fmt.Errorf("invalid upstream host %q", host.IP)
	case host.Port == 0:
		return fmt.Errorf("port must be between 1 and 65535")
	case host.Scheme != models.SchemeHTTP && host.Scheme != models.SchemeHTTPS:
		return fmt.Errorf("scheme must be http or https, got %q", host.Scheme)
	}
	return nil
}

// hostServiceFromFlags builds a host service against the configured Caddyfile.
// With --no-reload the Caddyfile is rewritten but caddy is not signalled.
func hostServiceFromFlags(cmd *cobra.Command) (service.HostService, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		cfg.Caddyfile = path
	}

	var reloader service.Reloader = service.NewCaddyService(service.CaddyConfig{
		Binary:        cfg.CaddyBinary,
		ConfigPath:    cfg.Caddyfile,
		ReloadTimeout: cfg.CaddyReloadTimeout,
	}, nil)
	if noReload, _ := cmd.Flags().GetBool("no-reload"); noReload {
		reloader = skipReload{}
	}

	return service.NewHostService(cfg.Caddyfile, reloader, nil), nil
}

type skipReload struct{}

func (skipReload) Reload(ctx context.Context) error { return nil }
