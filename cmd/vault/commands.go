package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"notevault/internal/bootstrap"
	"notevault/internal/config"
	"notevault/internal/server"
	"notevault/internal/tracer"
	"notevault/pkg/events"
	"notevault/pkg/identity"
	"notevault/pkg/ledger/rpc"

	pktNats "notevault/pkg/nats"

	"github.com/fatih/color"
	"github.com/urfave/cli"
)

func runKeygen(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return errors.New("keypair path is required")
	}
	signer, err := identity.GenerateKeypairSigner()
	if err != nil {
		return err
	}
	if err := identity.SaveKeypairFile(path, signer); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "%s %s\n", color.GreenString("created"), path)
	fmt.Fprintf(c.App.Writer, "identity: %s\n", signer.PublicKey())
	return nil
}

func runServe(c *cli.Context) error {
	cfg := config.Load()

	shutdownTracer := tracer.InitTracer("notevault")
	defer shutdownTracer(context.Background())

	container, err := bootstrap.NewContainer(cfg)
	if err != nil {
		return err
	}
	defer container.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go container.WebSocketHub.Run(ctx)
	if err := container.ConsumerService.Consume(ctx); err != nil {
		return fmt.Errorf("start event consumer: %w", err)
	}

	srv := server.New(cfg, container)
	go func() {
		<-ctx.Done()
		if err := srv.Shutdown(); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	container.Logger.Info("Main", "Vault serving", map[string]interface{}{
		"identity": container.Owner.String(),
		"ledger":   cfg.Ledger.Endpoint,
	})
	return srv.Run()
}

func runList(c *cli.Context) error {
	cfg := config.Load()

	signer, err := identity.LoadKeypairFile(cfg.Ledger.KeypairPath)
	if err != nil {
		return err
	}
	program, err := identity.PublicKeyFromBase58(cfg.Ledger.ProgramID)
	if err != nil {
		return fmt.Errorf("program id: %w", err)
	}

	client := rpc.NewClient(cfg.Ledger.Endpoint, program, signer, rpc.WithQueryTimeout(cfg.Ledger.QueryTimeout))
	notes, err := client.QueryByOwner(context.Background(), signer.PublicKey())
	if err != nil {
		return err
	}

	w := c.App.Writer
	bold := color.New(color.Bold)
	faint := color.New(color.Faint)

	fmt.Fprintf(w, "%s %s\n", bold.Sprint("owner"), signer.PublicKey())
	if len(notes) == 0 {
		faint.Fprintln(w, "no notes")
		return nil
	}
	for _, n := range notes {
		fmt.Fprintf(w, "%s  %s\n", color.CyanString(n.Title), faint.Sprint(n.Address))
		fmt.Fprintf(w, "  created %s  updated %s\n",
			n.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			n.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
		if c.Bool("content") {
			fmt.Fprintf(w, "  %s\n", n.Content)
		}
	}
	return nil
}

func runWatch(c *cli.Context) error {
	cfg := config.Load()
	if cfg.App.NatsURL == "" {
		return errors.New("NATS_URL is not set")
	}

	sub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		return err
	}
	defer sub.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := c.App.Writer
	err = sub.Subscribe(ctx, c.String("subject"), "", func(_ context.Context, event events.Event) error {
		label := color.GreenString(event.EventType())
		if event.EventType() == events.OperationFailed || event.EventType() == events.ViewStale {
			label = color.RedString(event.EventType())
		}
		payload := event.Payload()
		fmt.Fprintf(w, "%s %s op=%v address=%v",
			event.Timestamp().Local().Format("15:04:05"), label, payload["operation"], payload["address"])
		if msg, ok := payload["error"].(string); ok && msg != "" {
			fmt.Fprintf(w, " error=%q", msg)
		}
		fmt.Fprintln(w)
		return nil
	})
	if err != nil {
		return err
	}

	<-ctx.Done()
	return nil
}
