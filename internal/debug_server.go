package internal

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"huddle/search"
)

//go:embed inspect.html
var templatesFS embed.FS

type InspectRow struct {
	Key       string
	Kind      string
	Timestamp string
	Room      string
	Author    string
	Detail    string
}

type RowMapper func(key string, val []byte) InspectRow
type StatsProvider func() map[string]any

type PageData struct {
	Prefix string
	Query  string
	Items  []InspectRow
	Stats  map[string]any
}

// StartDebugServer exposes a read-only inspection dashboard on its own port.
// It renders live server stats, raw BadgerDB rows by prefix and, when an
// index is provided, full-text history search results.
func StartDebugServer(db *badger.DB, index search.IMessageIndex, port int, endpoint string, mapper RowMapper, statsProvider StatsProvider) {
	mux := http.NewServeMux()
	tmpl := template.Must(template.ParseFS(templatesFS, "inspect.html"))

	if mapper == nil {
		mapper = DefaultMapper
	}

	mux.HandleFunc(endpoint, func(w http.ResponseWriter, r *http.Request) {
		prefix := r.URL.Query().Get("prefix")
		if prefix == "" {
			prefix = "msg:"
		}
		rawQuery := r.URL.Query().Get("q")

		data := PageData{
			Prefix: prefix,
			Query:  rawQuery,
			Stats:  make(map[string]any),
		}

		// Récupération des statistiques dynamiques pour le dashboard
		if statsProvider != nil {
			data.Stats = statsProvider()
		}

		if rawQuery != "" && index != nil {
			query := search.ParseQuery(rawQuery)
			hits, total, err := index.Search(r.Context(), query, 0)
			if err != nil {
				data.Stats["SearchError"] = err.Error()
			} else {
				data.Stats["SearchTotal"] = total
				for _, hit := range hits {
					data.Items = append(data.Items, InspectRow{
						Key:       hit.ID.String(),
						Kind:      "HIT",
						Timestamp: hit.At.Format("15:04:05"),
						Room:      hit.Room,
						Author:    hit.AuthorName,
						Detail:    hit.Content,
					})
				}
			}
		} else {
			_ = db.View(func(txn *badger.Txn) error {
				it := txn.NewIterator(badger.DefaultIteratorOptions)
				defer it.Close()
				for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
					item := it.Item()
					_ = item.Value(func(val []byte) error {
						data.Items = append(data.Items, mapper(string(item.Key()), val))
						return nil
					})
				}
				return nil
			})
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = tmpl.Execute(w, data)
	})

	// Raw JSON variant of the stats, handy for curl and dashboards
	mux.HandleFunc("/stats.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		stats := map[string]any{}
		if statsProvider != nil {
			stats = statsProvider()
		}
		_ = json.NewEncoder(w).Encode(stats)
	})

	go func() {
		// Écoute sur toutes les interfaces pour permettre l'accès réseau
		_ = http.ListenAndServe(fmt.Sprintf("0.0.0.0:%d", port), mux)
	}()
}

// DefaultMapper understands the message keyspace "msg:{room}:{padded-ts}:{uuid}".
// Unknown layouts fall back to a raw row so the dashboard never breaks on them.
func DefaultMapper(key string, val []byte) InspectRow {
	parts := strings.Split(key, ":")
	row := InspectRow{
		Key:       key,
		Kind:      "RAW",
		Timestamp: "--:--:--",
		Room:      "--------",
		Author:    "-",
		Detail:    "Size: " + strconv.Itoa(len(val)) + " bytes",
	}

	if len(parts) >= 4 && parts[0] == "msg" {
		row.Kind = "MSG"
		row.Room = parts[1]
		if tsNano, err := strconv.ParseInt(parts[2], 10, 64); err == nil {
			row.Timestamp = time.Unix(0, tsNano).Format("15:04:05")
		}
		var stored struct {
			AuthorName string `json:"author_name"`
			Content    string `json:"content"`
		}
		if err := json.Unmarshal(val, &stored); err == nil {
			row.Author = stored.AuthorName
			row.Detail = stored.Content
		}
	}

	// Recording keys: "rec:{recording-id}:meta" and "rec:{recording-id}:e:{seq}".
	// Only the meta row is plain JSON, entries are sealed.
	if len(parts) >= 3 && parts[0] == "rec" {
		row.Kind = "REC"
		id := parts[1]
		if len(id) > 8 {
			id = id[:8]
		}
		row.Author = id
		if parts[2] == "meta" {
			var meta struct {
				Room          string    `json:"room"`
				StartedByName string    `json:"started_by_name"`
				StartedAt     time.Time `json:"started_at"`
				Entries       uint64    `json:"entries"`
			}
			if err := json.Unmarshal(val, &meta); err == nil {
				row.Room = meta.Room
				row.Timestamp = meta.StartedAt.Format("15:04:05")
				row.Detail = fmt.Sprintf("Recording by %s (%d entries)", meta.StartedByName, meta.Entries)
			}
		} else {
			row.Detail = "Sealed entry: " + strconv.Itoa(len(val)) + " bytes"
		}
	}
	return row
}
