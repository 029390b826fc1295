// Command fightnetd is a demo two-peer match host: a chi router serving
// /healthz and /signal (a websocket endpoint that accepts connections
// but does not relay messages between them), plus a
// --loopback mode that runs two netcode.Service instances in-process
// over a real loopback LocalWS connection — useful for integration
// testing and as a manual determinism demo. Modeled on the teacher's
// cmd/server/main.go wiring style (load .env, load centralized config,
// start a localhost debug server, goroutine-run the public server,
// signal-driven graceful shutdown).
package main

import (
	"context"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"

	"fightnet/internal/config"
	"fightnet/internal/input"
	"fightnet/internal/kernel"
	"fightnet/internal/netcode"
	"fightnet/internal/observability"
	"fightnet/internal/replay"
	"fightnet/internal/snapshot"
	"fightnet/internal/transport"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("no .env file found, using environment variables only")
	}

	loopback := flag.Bool("loopback", false, "run two in-process peers over a loopback connection instead of serving /signal")
	flag.Parse()

	appConfig := config.Load()

	if err := observability.StartDebugServer(observability.Config{
		Enabled:    appConfig.Observability.Enabled,
		ListenAddr: appConfig.Observability.ListenAddr,
	}); err != nil {
		log.Printf("debug server disabled: %v", err)
	}

	if *loopback {
		runLoopback(appConfig)
		return
	}
	runSignalServer(appConfig)
}

// runSignalServer serves /healthz and /signal: a websocket upgrade
// point. Each /signal connection is read until the peer hangs up; the
// messages it receives are discarded and nothing is forwarded to any
// other connection. This process never simulates the match itself.
func runSignalServer(appConfig config.AppConfig) {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Get("/signal", handleSignal)

	addr := ":" + strconv.Itoa(appConfig.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		log.Printf("fightnetd: signaling server on http://localhost%s/signal", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("signal server: %v", err)
		}
	}()

	waitForShutdown()
	log.Println("fightnetd: shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}

var signalUpgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

func handleSignal(w http.ResponseWriter, r *http.Request) {
	conn, err := signalUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("fightnetd: signal upgrade failed: %v", err)
		return
	}
	bus := &wsSignaling{conn: conn}
	bus.start()
	// No handler is registered on bus, so incoming messages are read and
	// dropped; this only keeps the socket alive until the peer hangs up.
	<-bus.closed
}

// wsSignaling adapts a gorilla/websocket connection to netcode.Signaling.
type wsSignaling struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	handler func([]byte)
	closed  chan struct{}
}

func (s *wsSignaling) start() {
	s.closed = make(chan struct{})
	go func() {
		defer close(s.closed)
		for {
			_, data, err := s.conn.ReadMessage()
			if err != nil {
				return
			}
			if s.handler != nil {
				s.handler(data)
			}
		}
	}()
}

func (s *wsSignaling) Send(payload []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, payload)
}

func (s *wsSignaling) On(handler func(payload []byte)) {
	s.handler = handler
}

var _ netcode.Signaling = (*wsSignaling)(nil)

// runLoopback wires two netcode.Service instances together over a real
// loopback LocalWS connection and steps both at 60Hz, logging merged
// stats periodically. Useful as a manual determinism check without two
// separate host processes.
func runLoopback(appConfig config.AppConfig) {
	initial := kernel.NewMatch("ryu", "ken", -100, 100, 1000)

	mux := http.NewServeMux()
	accepted := make(chan *transport.LocalWS, 1)
	mux.HandleFunc("/p2p", func(w http.ResponseWriter, r *http.Request) {
		peer, err := transport.AcceptLocalWS(w, r)
		if err != nil {
			log.Printf("fightnetd loopback: accept failed: %v", err)
			return
		}
		accepted <- peer
	})
	srv := &http.Server{Addr: "127.0.0.1:0", Handler: mux}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		log.Fatalf("fightnetd loopback: listen: %v", err)
	}
	go srv.Serve(ln)
	defer srv.Close()

	wsURL := "ws://" + ln.Addr().String() + "/p2p"
	clientPeer, err := transport.DialLocalWS(wsURL, 2*time.Second)
	if err != nil {
		log.Fatalf("fightnetd loopback: dial: %v", err)
	}
	serverPeer := <-accepted

	p0Service := netcode.NewService(initial, true)
	p1Service := netcode.NewService(initial, false)
	if err := p0Service.EnableLocalP2(clientPeer); err != nil {
		log.Fatalf("fightnetd loopback: enable p0: %v", err)
	}
	if err := p1Service.EnableLocalP2(serverPeer); err != nil {
		log.Fatalf("fightnetd loopback: enable p1: %v", err)
	}

	rec := replay.NewRecorder("ryu", "ken", nil)

	ticker := time.NewTicker(time.Second / time.Duration(appConfig.Kernel.TickRate))
	defer ticker.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var frame uint32
	log.Println("fightnetd: loopback demo running, press Ctrl+C to stop")
	for {
		select {
		case <-ticker.C:
			zero := input.PlayerInput{}
			s0, err := p0Service.Step(zero)
			if err != nil {
				log.Printf("fightnetd loopback: p0 step: %v", err)
				continue
			}
			if _, err := p1Service.Step(zero); err != nil {
				log.Printf("fightnetd loopback: p1 step: %v", err)
				continue
			}
			rec.RecordFrame(frame, zero, zero)
			frame++

			if frame%300 == 0 {
				stats, _ := p0Service.GetStats()
				_, checksum, _, err := snapshot.Save(s0)
				if err != nil {
					log.Printf("fightnetd loopback: snapshot: %v", err)
					continue
				}
				log.Printf("fightnetd loopback: frame=%d rollbacks=%d checksum=%x",
					s0.Frame, stats.Rollbacks, checksum)
			}
		case <-quit:
			log.Println("fightnetd: shutting down loopback demo")
			if path, err := rec.SaveToFile("replays", "loopback-demo"); err == nil {
				log.Printf("fightnetd: replay saved to %s", path)
			}
			return
		}
	}
}

func waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
}
