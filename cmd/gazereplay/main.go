// gazereplay: replays a JSONL recording of tracker messages against a
// running eyectl server, as if a live tracker were streaming.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/gorilla/websocket"
	_ "github.com/joho/godotenv/autoload"
	"github.com/teslashibe/go-eyectl/internal/config"
	"github.com/teslashibe/go-eyectl/internal/httpc"
	"github.com/teslashibe/go-eyectl/internal/log"
	"github.com/teslashibe/go-eyectl/pkg/gaze"
	"github.com/teslashibe/go-eyectl/pkg/protocol"
	"github.com/teslashibe/go-eyectl/pkg/session"
)

func main() {
	server := flag.String("server", config.ServerURL(), "eyectl server URL (overrides EYECTL_SERVER)")
	file := flag.String("file", "", "JSONL recording to replay (required)")
	sessionID := flag.String("session", "", "Existing session ID (default: create one with every feature enabled)")
	speed := flag.Float64("speed", 1, "Playback speed multiplier")
	loops := flag.Int("loop", 1, "Number of passes, 0 to repeat until interrupted")
	watch := flag.Bool("events", true, "Print actions and scroll steps from the event stream")
	chart := flag.String("chart", "", "Write an HTML timeline of the recording to this path and exit")
	logLevel := flag.String("log-level", config.LogLevel(), "Log level: debug, info, warn, error")
	flag.Parse()

	log.Init(*logLevel)

	if *file == "" {
		fmt.Fprintln(os.Stderr, "gazereplay: -file is required")
		flag.Usage()
		os.Exit(2)
	}

	if *chart != "" {
		if err := writeChart(*file, *chart); err != nil {
			log.Error("chart failed", "error", err)
			os.Exit(1)
		}
		log.Info("chart written", "path", *chart)
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, *server, *file, *sessionID, *speed, *loops, *watch); err != nil && ctx.Err() == nil {
		log.Error("replay failed", "error", err)
		os.Exit(1)
	}
}

func writeChart(file, out string) error {
	frames, err := readFile(file)
	if err != nil {
		return err
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := WriteTimeline(f, frames, filepath.Base(file)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func readFile(file string) ([]Frame, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	frames, err := ReadRecording(f)
	if err != nil {
		return nil, err
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("%s: no messages", file)
	}
	return frames, nil
}

func run(ctx context.Context, server, file, id string, speed float64, loops int, watch bool) error {
	frames, err := readFile(file)
	if err != nil {
		return err
	}

	server = strings.TrimRight(server, "/")
	if id == "" {
		id, err = createSession(ctx, server)
		if err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		log.Info("session created", "id", id)
	}

	wsBase, err := websocketBase(server)
	if err != nil {
		return err
	}

	if watch {
		events, _, err := websocket.DefaultDialer.DialContext(ctx, wsBase+"/ws/events/"+id, nil)
		if err != nil {
			return fmt.Errorf("connect events: %w", err)
		}
		defer events.Close()
		go readLoop(events, log.Component("events"))
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsBase+"/ws/tracker/"+id, nil)
	if err != nil {
		return fmt.Errorf("connect tracker: %w", err)
	}
	defer conn.Close()
	go readLoop(conn, log.Component("tracker"))

	replayer := NewReplayer(frames, speed, log.Component("replay"))
	send := func(msg *protocol.Message) error {
		data, err := msg.Bytes()
		if err != nil {
			return err
		}
		return conn.WriteMessage(websocket.TextMessage, data)
	}

	log.Info("replaying", "file", file, "frames", len(frames), "duration", replayer.Duration(), "speed", speed)
	for pass := 1; loops == 0 || pass <= loops; pass++ {
		sent, err := replayer.Run(ctx, send)
		if err != nil {
			return err
		}
		log.Info("pass complete", "pass", pass, "sent", sent)
	}

	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))

	var sess session.Session
	if err := httpc.GetJSON(ctx, server+"/api/sessions/"+id, &sess); err != nil {
		return fmt.Errorf("fetch stats: %w", err)
	}
	log.Info("session stats",
		"blinks", sess.Stats.BlinkCount,
		"scrolls", sess.Stats.ScrollCount,
		"clicks", sess.Stats.ClickCount,
		"navigations", sess.Stats.NavigationCount)
	return nil
}

func createSession(ctx context.Context, server string) (string, error) {
	on := true
	var sess session.Session
	err := httpc.PostJSON(ctx, server+"/api/sessions", gaze.SettingsPatch{
		AutoScrollEnabled:  &on,
		SingleBlinkEnabled: &on,
		DoubleBlinkEnabled: &on,
	}, &sess)
	return sess.ID, err
}

// websocketBase turns an http(s) server URL into its ws(s) equivalent.
func websocketBase(server string) (string, error) {
	u, err := url.Parse(server)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	return strings.TrimRight(u.String(), "/"), nil
}

// readLoop logs every message the server sends until the connection closes.
func readLoop(conn *websocket.Conn, logger *slog.Logger) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		msg, err := protocol.ParseMessage(data)
		if err != nil {
			logger.Warn("unreadable message", "error", err)
			continue
		}
		logger.Info(string(msg.Type), "data", string(msg.Data))
	}
}
