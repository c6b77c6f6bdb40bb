package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/ahoque32/mission-control-dashboard-sub001/internal/feed"
)

// watchClient is a websocket client of the activity feed.
type watchClient struct {
	conn      *websocket.Conn
	sessionID string
}

// dialFeed connects to the feed and waits for the subscription ack.
func dialFeed(ctx context.Context, addr, sessionID string) (*watchClient, error) {
	u, err := url.Parse(addr)
	if err != nil {
		return nil, fmt.Errorf("parse addr: %w", err)
	}
	if sessionID != "" {
		q := u.Query()
		q.Set("session_id", sessionID)
		u.RawQuery = q.Encode()
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	c := &watchClient{conn: conn}
	var ack feed.BaseFrame
	if err := conn.ReadJSON(&ack); err != nil {
		conn.Close()
		return nil, fmt.Errorf("read subscribed: %w", err)
	}
	if ack.Type != feed.TypeSubscribed {
		conn.Close()
		return nil, fmt.Errorf("expected %s, got: %s", feed.TypeSubscribed, ack.Type)
	}
	c.sessionID = ack.SessionID
	return c, nil
}

// Close closes the client connection.
func (c *watchClient) Close() error {
	return c.conn.Close()
}

// Stream prints every event frame to out until the connection closes or limit
// events were printed. limit <= 0 means no limit.
func (c *watchClient) Stream(out io.Writer, limit int, raw bool) error {
	printed := 0
	for limit <= 0 || printed < limit {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}

		var base feed.BaseFrame
		if err := json.Unmarshal(data, &base); err != nil {
			return fmt.Errorf("unmarshal: %w", err)
		}

		switch base.Type {
		case feed.TypeEvent:
			var frame feed.EventFrame
			if err := json.Unmarshal(data, &frame); err != nil || frame.Event == nil {
				return fmt.Errorf("malformed event frame: %s", data)
			}
			if raw {
				fmt.Fprintln(out, string(data))
			} else {
				ev := frame.Event
				fmt.Fprintf(out, "[%s] session=%s aggregate=%s %s\n", ev.Type, ev.SessionID, ev.AggregateID, string(ev.Payload))
			}
			printed++
		case feed.TypeError:
			var frame feed.ErrorFrame
			json.Unmarshal(data, &frame) //nolint:errcheck
			fmt.Fprintf(out, "[error] %s: %s\n", frame.Code, frame.Message)
		}
	}
	return nil
}

// newWatchCmd creates the "missionctl watch" subcommand.
func newWatchCmd() *cobra.Command {
	var (
		addr      string
		sessionID string
		count     int
		raw       bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream live activity from a running server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			client, err := dialFeed(ctx, addr, sessionID)
			if err != nil {
				return err
			}
			defer client.Close()

			scope := client.sessionID
			if scope == "" {
				scope = "all sessions"
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "watching %s\n", scope)

			go func() {
				<-ctx.Done()
				client.Close()
			}()
			err = client.Stream(cmd.OutOrStdout(), count, raw)
			if ctx.Err() != nil {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "ws://localhost:8080/v1/feed", "feed websocket address")
	cmd.Flags().StringVar(&sessionID, "session", "", "only stream this session's events")
	cmd.Flags().IntVarP(&count, "count", "n", 0, "exit after this many events")
	cmd.Flags().BoolVar(&raw, "raw", false, "print raw frames")
	return cmd
}
