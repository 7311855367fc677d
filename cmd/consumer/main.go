// Command consumer folds freshness readings from kafka into per-listing
// redis snapshots, so the API can serve latest telemetry without holding
// websocket state.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"github.com/example/connectfood/internal/models"
)

var (
	msgsConsumed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_readings_consumed_total",
		Help: "Total freshness readings consumed",
	})
	msgsInvalid = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_readings_invalid_total",
		Help: "Total invalid messages received",
	})
	redisUpdates = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_snapshot_updates_total",
		Help: "Total successful snapshot writes",
	})
	redisErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_snapshot_errors_total",
		Help: "Total snapshot write errors",
	})
)

func init() {
	prometheus.MustRegister(msgsConsumed, msgsInvalid, redisUpdates, redisErrors)
}

func main() {
	_ = godotenv.Load()

	// allow some flags for local runs
	var metricsAddr string
	flag.StringVar(&metricsAddr, "metrics-addr", ":2112", "address to serve prometheus metrics on")
	flag.Parse()

	brokers := []string{"localhost:9092"}
	if env := os.Getenv("KAFKA_BROKERS"); env != "" {
		brokers = brokers[:0]
		for _, b := range strings.Split(env, ",") {
			if s := strings.TrimSpace(b); s != "" {
				brokers = append(brokers, s)
			}
		}
	}

	topic := os.Getenv("KAFKA_TOPIC")
	if topic == "" {
		topic = "freshness-readings"
	}
	group := os.Getenv("KAFKA_GROUP")
	if group == "" {
		group = "connectfood-consumer"
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	rc := redis.NewClient(&redis.Options{Addr: redisAddr, Password: os.Getenv("REDIS_PASSWORD")})
	writer := &redisSnapshotWriter{c: rc}

	// metrics and health server
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
		mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			if err := rc.Ping(r.Context()).Err(); err != nil {
				http.Error(w, "redis not ready", 503)
				return
			}
			w.WriteHeader(200)
			w.Write([]byte("ready"))
		})
		log.Printf("metrics/health listening on %s", metricsAddr)
		if err := http.ListenAndServe(metricsAddr, mux); err != nil {
			log.Printf("metrics server stopped: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := kafka.NewReader(kafka.ReaderConfig{Brokers: brokers, Topic: topic, GroupID: group, MinBytes: 10e3, MaxBytes: 10e6})
	defer func() {
		_ = r.Close()
		_ = rc.Close()
	}()

	log.Printf("consumer listening topic=%s brokers=%v group=%s", topic, brokers, group)

	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		m, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Println("shutting down consumer")
				return
			}
			log.Printf("kafka read error: %v; backing off %s", err, backoff)
			time.Sleep(backoff)
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		// reset backoff on success
		backoff = time.Second

		msgsConsumed.Inc()

		var reading models.FreshnessReading
		if err := json.Unmarshal(m.Value, &reading); err != nil || reading.ListingID == "" {
			msgsInvalid.Inc()
			log.Printf("invalid reading: %v", err)
			continue
		}

		if err := writeSnapshotWithRetry(ctx, writer, reading, 3, 200*time.Millisecond); err != nil {
			redisErrors.Inc()
			log.Printf("snapshot write failed for listing=%s: %v", reading.ListingID, err)
			continue
		}
		redisUpdates.Inc()
	}
}

// SnapshotWriter is the small subset of redis operations we need for
// tests and production.
type SnapshotWriter interface {
	HSet(ctx context.Context, key string, values map[string]interface{}) error
}

type redisSnapshotWriter struct{ c *redis.Client }

func (r *redisSnapshotWriter) HSet(ctx context.Context, key string, values map[string]interface{}) error {
	_, err := r.c.HSet(ctx, key, values).Result()
	return err
}

// writeSnapshotWithRetry stores the latest reading with retry/backoff.
func writeSnapshotWithRetry(ctx context.Context, w SnapshotWriter, reading models.FreshnessReading, attempts int, delay time.Duration) error {
	values := map[string]interface{}{
		"freshness":     reading.Freshness,
		"temperature_c": reading.TemperatureC,
		"humidity":      reading.Humidity,
		"timestamp":     reading.Timestamp.Format(time.RFC3339),
	}
	key := "listing:freshness:" + reading.ListingID
	var err error
	for i := 0; i < attempts; i++ {
		if err = w.HSet(ctx, key, values); err == nil {
			return nil
		}
		if i < attempts-1 {
			time.Sleep(delay)
			delay *= 2
		}
	}
	return err
}
