package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/duaragha/cat-tracker-sub000/common/mqtt"
	commonredis "github.com/duaragha/cat-tracker-sub000/common/redis"
	"github.com/duaragha/cat-tracker-sub000/internal/domain"
	"github.com/duaragha/cat-tracker-sub000/internal/workingset"
)

var (
	watchStream      string
	watchPollEvery   time.Duration
	watchStatusEvery time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stay running: sync in the background and follow changes from other devices",
	Long: `watch keeps the working set open. It pushes local changes on the usual
debounce and interval, follows connectivity, and reloads when another
cat-tracker process rewrites the local cache. With MQTT enabled it pulls when
the server announces a change; with Redis enabled it follows the server's
change stream instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		opts := workingset.Options{
			OnReload: func(snap *domain.Snapshot) {
				name := "(no profile)"
				if snap.CatProfile != nil {
					name = snap.CatProfile.Name
				}
				fmt.Fprintf(out, "%s working set reloaded for %s\n", time.Now().Format("15:04:05"), name)
			},
		}
		return withStore(cmd.Context(), opts, func(a *app) error {
			ctx := cmd.Context()
			changes := make(chan struct{}, 1)
			notify := func() {
				select {
				case changes <- struct{}{}:
				default:
				}
			}

			if a.cfg.MQTT.Enabled {
				stop, err := followMQTT(a, notify)
				if err != nil {
					a.log.Warn("MQTT follow disabled", zap.Error(err))
				} else {
					defer stop()
				}
			}
			if a.cfg.Redis.Enabled {
				go followStream(ctx, a, watchStream, watchPollEvery, notify)
			}

			printStatus(out, a.ws, a.cfg.Server)
			ticker := time.NewTicker(watchStatusEvery)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-changes:
					refresh(ctx, a, out)
				case <-ticker.C:
					printStatus(out, a.ws, a.cfg.Server)
				}
			}
		})
	},
}

// refresh pulls a remote change. Unpushed local work goes up first so the
// pull cannot drop it.
func refresh(ctx context.Context, a *app, out io.Writer) {
	if !a.ws.IsOnline() {
		return
	}
	if a.ws.Snapshot().Dirty && !a.ws.SyncNow(ctx) {
		fmt.Fprintln(out, "remote change seen, but local changes could not be pushed; not pulling")
		return
	}
	a.ws.PullNow(ctx)
}

func followMQTT(a *app, notify func()) (func(), error) {
	cfg := a.cfg.MQTT
	if cfg.ClientID == "" || cfg.ClientID == "cat-tracker-api" {
		host, _ := os.Hostname()
		cfg.ClientID = fmt.Sprintf("cat-tracker-%s-%d", host, os.Getpid())
	}
	client, err := mqtt.NewClient(&cfg, a.log)
	if err != nil {
		return nil, err
	}
	if err := client.Subscribe(cfg.Topic, cfg.QoS, func(topic string, payload []byte) error {
		a.log.Debug("server change", zap.String("topic", topic), zap.ByteString("payload", payload))
		notify()
		return nil
	}); err != nil {
		client.Disconnect()
		return nil, err
	}
	return client.Disconnect, nil
}

// followStream polls the server's Redis change stream from its current end.
func followStream(ctx context.Context, a *app, stream string, every time.Duration, notify func()) {
	client := commonredis.NewRedisClient(&a.cfg.Redis)
	defer commonredis.Close(client)

	cursor, err := commonredis.LastID(ctx, client, stream)
	if err != nil {
		a.log.Warn("change stream follow disabled", zap.String("stream", stream), zap.Error(err))
		return
	}

	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			msgs, err := commonredis.ReadRange(ctx, client, stream, cursor, 100)
			if err != nil {
				a.log.Debug("change stream read failed", zap.Error(err))
				continue
			}
			if len(msgs) == 0 {
				continue
			}
			cursor = msgs[len(msgs)-1].ID
			notify()
		}
	}
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVar(&watchStream, "stream", "cat-tracker:changes", "Redis change stream to follow")
	watchCmd.Flags().DurationVar(&watchPollEvery, "poll", 2*time.Second, "Change stream poll interval")
	watchCmd.Flags().DurationVar(&watchStatusEvery, "status-every", time.Minute, "Print the status line this often")
}
