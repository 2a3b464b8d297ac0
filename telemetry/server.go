package telemetry

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	channerics "github.com/niceyeti/channerics/channels"
)

const (
	writeWait      = 1 * time.Second
	pubResolution  = 100 * time.Millisecond
	pingResolution = 500 * time.Millisecond
)

var upgrader = websocket.Upgrader{}

// Server serves the dashboard's index page and streams its ele-updates
// over a single websocket per connecting client. Adapted from the
// teacher's server.Server, routed through gorilla/mux instead of the
// default http.ServeMux the teacher used, and generalized to whatever
// initial render data the caller supplies rather than an RL cell grid.
type Server struct {
	addr      string
	router    *mux.Router
	dashboard *Dashboard
	render    any
}

// NewServer builds a router serving dashboard's page and websocket.
func NewServer(addr string, dashboard *Dashboard, initialRender any) *Server {
	s := &Server{addr: addr, router: mux.NewRouter(), dashboard: dashboard, render: initialRender}
	s.router.HandleFunc("/", s.serveIndex).Methods(http.MethodGet)
	s.router.HandleFunc("/ws", s.serveWebsocket)
	return s
}

// Serve blocks, serving the dashboard until the listener fails.
func (s *Server) Serve() error {
	if err := http.ListenAndServe(s.addr, s.router); err != nil {
		return fmt.Errorf("telemetry: serve: %w", err)
	}
	return nil
}

func (s *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	if err := renderTemplate(w, s.dashboard, s.render); err != nil {
		_, _ = w.Write([]byte(err.Error()))
	}
}

func renderTemplate(w io.Writer, vc ViewComponent, data any) error {
	t := template.New("index.html")
	tname, err := vc.Parse(t)
	if err != nil {
		return err
	}
	if _, err := t.Parse(`{{ template "` + tname + `" . }}`); err != nil {
		return err
	}
	return t.Execute(w, data)
}

// serveWebsocket streams dashboard ele-updates to one connected client.
// Grounded verbatim on server.Server.publishEleUpdates: same ping/pong
// liveness loop, same "drop updates arriving faster than pubResolution"
// discipline, same permanent-error-triggers-teardown Read pump.
func (s *Server) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer closeWebsocket(ws)
	publish(r.Context(), ws, s.dashboard.Updates())
}

// publish pushes dashboard updates to ws until the client disconnects or
// the connection goes stale, mirroring server.publishEleUpdates's
// ping/pong liveness loop and rate-limited write discipline.
func publish(ctx context.Context, ws *websocket.Conn, updates <-chan []EleUpdate) {
	last := time.Now()
	pubCtx, cancelPub := context.WithCancel(ctx)
	defer cancelPub()

	pinger := channerics.NewTicker(pubCtx.Done(), pingResolution)
	lastPong := time.Now()

	pong := make(chan struct{})
	defer close(pong)
	ws.SetPongHandler(func(string) error {
		pong <- struct{}{}
		return nil
	})

	go func() {
		for {
			select {
			case <-pubCtx.Done():
				return
			default:
				if _, _, err := ws.ReadMessage(); err != nil {
					cancelPub()
					return
				}
			}
		}
	}()

	for {
		select {
		case <-pubCtx.Done():
			return
		case <-pinger:
			if time.Since(lastPong) > pingResolution*2 {
				return
			}
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-pong:
			lastPong = time.Now()
		case batch, ok := <-updates:
			if !ok {
				return
			}
			if time.Since(last) < pubResolution {
				continue
			}
			last = time.Now()
			if err := ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := ws.WriteJSON(batch); err != nil {
				return
			}
		}
	}
}

func closeWebsocket(ws *websocket.Conn) {
	_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
	_ = ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	ws.Close()
}
