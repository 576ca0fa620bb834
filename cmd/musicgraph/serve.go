package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/wanmine/musicgraph"
	"github.com/wanmine/musicgraph/server"
	"github.com/wanmine/musicgraph/synth"
)

const shutdownTimeout = 5 * time.Second

func (a *app) serveCmd() *cobra.Command {
	var addr, autosave string
	cmd := &cobra.Command{
		Use:   "serve [graph]",
		Short: "Serve a graph over HTTP for editing and rendering",
		Long:  "Serve a graph over HTTP. The graph is loaded from the given .yml or .json file,\nor starts out empty. Edits are saved to the autosave path, if one is set.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g := musicgraph.DefaultGraph()
			if len(args) == 1 {
				var err error
				if g, err = readGraphFile(args[0]); err != nil {
					return err
				}
			}
			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			if autosave == "" {
				autosave = a.cfg.Server.AutosavePath
			}
			s := server.New(g, server.Options{
				Mixer:          synth.Mixer{Workers: a.cfg.Workers},
				AllowedOrigins: a.cfg.Server.AllowedOrigins,
				AutosavePath:   autosave,
				AutosaveDelay:  a.cfg.Server.AutosaveDelay,
				Logger:         a.logger,
			})
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return err
			}
			return a.serve(cmd.Context(), s, ln, autosave != "")
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "address to listen on (default from config)")
	cmd.Flags().StringVar(&autosave, "autosave", "", "save the graph here after every edit (default from config)")
	return cmd
}

// serve runs until ctx is done, then shuts the server down and saves the
// graph one last time.
func (a *app) serve(ctx context.Context, s *server.Server, ln net.Listener, save bool) error {
	srv := &http.Server{Handler: s, ReadHeaderTimeout: 10 * time.Second}
	a.logger.Info("serving", "addr", ln.Addr().String())
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	if serr := <-errc; !errors.Is(serr, http.ErrServerClosed) {
		err = errors.Join(err, serr)
	}
	if save {
		err = errors.Join(err, s.Save())
	}
	a.logger.Info("server stopped")
	return err
}
