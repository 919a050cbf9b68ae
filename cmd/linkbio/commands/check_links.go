package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/linkbio/internal/events"
	"git.home.luguber.info/inful/linkbio/internal/logfields"
	"git.home.luguber.info/inful/linkbio/internal/metrics"
)

// CheckLinksCmd implements the 'check-links' command.
type CheckLinksCmd struct{}

func (c *CheckLinksCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	publisher := events.Publisher(events.NoopPublisher{})
	nc := natsConn(cfg.NATS.URL)
	if nc != nil {
		publisher = events.NewNATSPublisher(nc, cfg.NATS.SubjectPrefix)
	}
	defer func() { _ = publisher.Close() }()

	svc := newLinkCheckService(ctx, cfg, st, nc, publisher, metrics.NoopRecorder{})
	defer func() { _ = svc.Close() }()

	summary, err := svc.CheckAll(ctx)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.out(), "Checked %s links: %s healthy, %s broken, %s cached\n",
		humanize.Comma(int64(summary.Checked)),
		humanize.Comma(int64(summary.Healthy)),
		humanize.Comma(int64(summary.Broken)),
		humanize.Comma(int64(summary.Cached)))
	return nil
}

// natsConn connects when url is set. A one-off check still runs without NATS,
// only without the shared cache and broken-link events.
func natsConn(url string) *nats.Conn {
	if url == "" {
		return nil
	}
	nc, err := events.ConnectNATS(url, natsClientName)
	if err != nil {
		slog.Warn("NATS unavailable, continuing without it", logfields.Error(err))
		return nil
	}
	return nc
}
