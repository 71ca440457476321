package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/gyaneshwarpardhi/notification-service/internal/config"
	"github.com/gyaneshwarpardhi/notification-service/internal/event"
	"github.com/gyaneshwarpardhi/notification-service/internal/queue"
)

type publishOptions struct {
	eventType string
	eventID   string
	phone     string
	email     string
	name      string
	priority  int
	data      map[string]string
	via       string
	dryRun    bool
}

func publishCmd() *cobra.Command {
	opts := publishOptions{}
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish a notification event for manual testing",
		Example: `  notification-service publish --type WELCOME --phone 0771234567 --name Nimali
  notification-service publish --type PAYMENT_CONFIRMED --email a@b.com --priority 2 \
      --data orderId=ORD-1,amount=15000.00,paymentMethod=Card`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ev, err := buildEvent(opts, time.Now())
			if err != nil {
				return err
			}
			if opts.dryRun {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(ev)
			}

			path, err := resolveConfigPath(cmd)
			if err != nil {
				return err
			}
			loader, err := config.NewLoader(path)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			pub, err := newPublisher(opts.via, loader.Config().Queue)
			if err != nil {
				return err
			}
			defer pub.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := pub.Publish(ctx, ev); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Published %s event %s via %s\n", ev.EventType, ev.EventID, opts.via)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.eventType, "type", "t", string(event.KindWelcome), "Event type (WELCOME, PAYMENT_CONFIRMED)")
	cmd.Flags().StringVar(&opts.eventID, "id", "", "Event ID (generated when empty)")
	cmd.Flags().StringVar(&opts.phone, "phone", "", "Recipient phone number")
	cmd.Flags().StringVar(&opts.email, "email", "", "Recipient email address")
	cmd.Flags().StringVar(&opts.name, "name", "", "Recipient display name")
	cmd.Flags().IntVarP(&opts.priority, "priority", "p", 0, "Priority hint (2 = email first, 0 = unset)")
	cmd.Flags().StringToStringVar(&opts.data, "data", nil, "Template data as key=value pairs")
	cmd.Flags().StringVar(&opts.via, "via", "kafka", "Broker to publish to (kafka, nats)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Print the event JSON instead of publishing")

	return cmd
}

func buildEvent(opts publishOptions, now time.Time) (*event.NotificationEvent, error) {
	kind := strings.ToUpper(strings.TrimSpace(opts.eventType))
	if kind == "" {
		return nil, fmt.Errorf("--type is required")
	}
	if strings.TrimSpace(opts.phone) == "" && strings.TrimSpace(opts.email) == "" {
		return nil, fmt.Errorf("at least one of --phone or --email is required")
	}
	ev := &event.NotificationEvent{
		EventID:        opts.eventID,
		EventType:      kind,
		RecipientPhone: opts.phone,
		RecipientEmail: opts.email,
		RecipientName:  opts.name,
		TemplateData:   opts.data,
		Timestamp:      event.Timestamp{Time: now.UTC().Truncate(time.Second)},
	}
	if ev.EventID == "" {
		ev.EventID = uuid.NewString()
	}
	if opts.priority != 0 {
		ev.Priority = event.PriorityOf(opts.priority)
	}
	return ev, nil
}

func newPublisher(via string, q config.QueueConf) (queue.Publisher, error) {
	switch via {
	case "kafka":
		return queue.NewKafkaPublisher(q.Kafka)
	case "nats":
		return queue.NewNATSPublisher(q.NATS)
	default:
		return nil, fmt.Errorf("unknown broker %q (want kafka or nats)", via)
	}
}
