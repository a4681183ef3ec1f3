package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/tormodhaugland/planner/internal/listing"
)

var (
	serveAddr   string
	serveRoot   string
	serveHidden bool
)

var serveListingCmd = &cobra.Command{
	Use:   "serve-listing",
	Short: "Serve directory listings over HTTP for local development",
	Long: `Serves GET /file-system/list?path=<dir> from the local filesystem, the
route the directory browser uses. Point listing_url at it to browse a
machine without running the full Plan Service.

Examples:
  planner serve-listing                       # on 127.0.0.1:3001
  planner serve-listing --root ~/src/webapp   # confine listings`,
	Args: cobra.NoArgs,
	RunE: runServeListing,
}

func init() {
	serveListingCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:3001", "listen address")
	serveListingCmd.Flags().StringVar(&serveRoot, "root", "", "only serve paths inside this directory")
	serveListingCmd.Flags().BoolVar(&serveHidden, "hidden", false, "include dotfiles")
	rootCmd.AddCommand(serveListingCmd)
}

func runServeListing(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	root := ""
	if serveRoot != "" {
		if root, err = resolvePath("", serveRoot); err != nil {
			return err
		}
	}

	lister := &listing.LocalLister{Root: root, ShowHidden: serveHidden}
	srv := &http.Server{
		Addr:              serveAddr,
		Handler:           listing.NewHandler(lister, s.logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.logger.Info("serving listings", "addr", serveAddr, "root", root)
	fmt.Fprintf(os.Stderr, "Serving listings on http://%s%s\n", serveAddr, listing.ListRoute)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
