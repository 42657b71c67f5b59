package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/northlane/recordcache/pkg/cache"
	"github.com/northlane/recordcache/pkg/cacheerr"
	"github.com/northlane/recordcache/pkg/ops"
	"github.com/northlane/recordcache/pkg/recordmodel"
)

func newServeCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the cache over HTTP, with a websocket feed of patch events",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, cfg, err := buildCache(configPath)
			if err != nil {
				return err
			}

			hub := newEventHub()
			c.OnPatch(func(op ops.Operation, data any) {
				hub.broadcast(patchEvent{Kind: string(op.Kind()), Identity: op.Identity(), Data: data})
			})

			mux := http.NewServeMux()
			mux.HandleFunc("/patch", patchHandler(c))
			mux.HandleFunc("/records/", recordsHandler(c))
			mux.HandleFunc("/events", hub.serveWS)

			fmt.Printf("recordcache listening on %s\n", cfg.Server.Address)
			srv := &http.Server{
				Addr:         cfg.Server.Address,
				Handler:      mux,
				ReadTimeout:  cfg.Server.ReadTimeout,
				WriteTimeout: cfg.Server.WriteTimeout,
			}
			return srv.ListenAndServe()
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "Config file path")
	return cmd
}

func patchHandler(c *cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var envelopes []opEnvelope
		if err := json.NewDecoder(r.Body).Decode(&envelopes); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		operations := make([]ops.Operation, 0, len(envelopes))
		for _, e := range envelopes {
			op, err := e.toOperation()
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			operations = append(operations, op)
		}

		result, err := c.Patch(operations...)
		if err != nil {
			writeCacheError(w, err)
			return
		}
		json.NewEncoder(w).Encode(result)
	}
}

func recordsHandler(c *cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/records/"), "/"), "/")
		if len(parts) == 0 || parts[0] == "" {
			http.Error(w, "model type required", http.StatusBadRequest)
			return
		}

		modelType := parts[0]
		switch len(parts) {
		case 1:
			records, err := c.FindRecords(modelType, nil, nil, nil)
			if err != nil {
				writeCacheError(w, err)
				return
			}
			json.NewEncoder(w).Encode(records)
		case 2:
			rec, err := c.FindRecord(recordmodel.Identity{Type: modelType, ID: parts[1]})
			if err != nil {
				writeCacheError(w, err)
				return
			}
			json.NewEncoder(w).Encode(rec)
		case 3:
			identity := recordmodel.Identity{Type: modelType, ID: parts[1]}
			relationship := parts[2]
			if rec, err := c.FindRelatedRecord(identity, relationship); err == nil && rec != nil {
				json.NewEncoder(w).Encode(rec)
				return
			}
			recs, err := c.FindRelatedRecords(identity, relationship)
			if err != nil {
				writeCacheError(w, err)
				return
			}
			json.NewEncoder(w).Encode(recs)
		default:
			http.Error(w, "unrecognized path", http.StatusNotFound)
		}
	}
}

func writeCacheError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch err.(type) {
	case *cacheerr.RecordNotFoundError:
		status = http.StatusNotFound
	case *cacheerr.SchemaValidationError, *cacheerr.QueryExpressionParseError, *cacheerr.OperatorNotFoundError:
		status = http.StatusBadRequest
	}
	http.Error(w, err.Error(), status)
}

// patchEvent is the JSON shape broadcast to websocket subscribers.
type patchEvent struct {
	Kind     string              `json:"kind"`
	Identity recordmodel.Identity `json:"identity"`
	Data     any                 `json:"data"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// eventHub fans patch events out to every connected websocket client.
type eventHub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func newEventHub() *eventHub {
	return &eventHub{conns: make(map[*websocket.Conn]struct{})}
}

func (h *eventHub) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("recordcache: websocket upgrade: %v", err)
		return
	}
	h.mu.Lock()
	h.conns[conn] = struct{}{}
	h.mu.Unlock()

	go h.drain(conn)
}

// drain discards client messages until the connection closes, so the
// hub notices disconnects and stops trying to write to a dead socket.
func (h *eventHub) drain(conn *websocket.Conn) {
	defer func() {
		h.mu.Lock()
		delete(h.conns, conn)
		h.mu.Unlock()
		conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *eventHub) broadcast(event patchEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		if err := conn.WriteJSON(event); err != nil {
			conn.Close()
			delete(h.conns, conn)
		}
	}
}
