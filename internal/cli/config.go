package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/cinehub/cinehub/internal/config"
)

const usageConfig = "config [show | server <url>]"

// ConfigCommand shows or edits the configuration file. It needs no
// session, so it runs before the store is opened.
func ConfigCommand(cfg *config.Config, args []string, out io.Writer, save func(*config.Config) error) error {
	if len(args) == 0 || (args[0] == "show" && len(args) == 1) {
		fmt.Fprintln(out, HeaderStyle.Render("Configuration"))
		fmt.Fprintf(out, "  server.url      %s\n", cfg.Server.URL)
		fmt.Fprintf(out, "  server.timeout  %s\n", cfg.Server.Timeout)
		fmt.Fprintf(out, "  cache.timeout   %s\n", cfg.Cache.Timeout)
		fmt.Fprintf(out, "  storage.dir     %s\n", cfg.Storage.Dir)
		fmt.Fprintf(out, "  logging.level   %s\n", cfg.Logging.Level)
		return nil
	}

	if args[0] != "server" || len(args) != 2 {
		return fmt.Errorf("%w: %s", ErrUsage, usageConfig)
	}

	next := *cfg
	next.Server.URL = strings.TrimRight(args[1], "/")
	if err := next.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if err := save(&next); err != nil {
		return err
	}
	*cfg = next

	fmt.Fprintln(out, SuccessStyle.Render("Server set to "+next.Server.URL))
	return nil
}
