// Mockservice is a test HTTP backend that registers itself in etcd so the
// router can discover it. It serves /health for the health checker and an
// echo endpoint that reports which instance handled the request.
//
// Usage:
//
//	go run ./scripts/mockservice -service users -port 9001
//	go run ./scripts/mockservice -service users -port 9002 -weight 3
//
// Run several instances under the same -service name to exercise the load
// balancing strategies.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/angeloszaimis/service-router/internal/registry"
)

func main() {
	var (
		service   = flag.String("service", "users", "logical service name")
		id        = flag.String("id", "", "instance id (defaults to <service>-<port>)")
		address   = flag.String("address", "127.0.0.1", "address to advertise in the registry")
		port      = flag.Int("port", 9001, "port to listen on")
		weight    = flag.Int("weight", 1, "selection weight advertised in the registry")
		etcdAddr  = flag.String("etcd", "localhost:2379", "etcd endpoint")
		namespace = flag.String("namespace", "/services", "registry namespace")
		leaseTTL  = flag.Int("lease-ttl", 15, "registration lease TTL in seconds")
	)
	flag.Parse()

	instanceID := *id
	if instanceID == "" {
		instanceID = fmt.Sprintf("%s-%d", *service, *port)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client, err := clientv3.New(clientv3.Config{
		Endpoints:   []string{*etcdAddr},
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		log.Fatalf("etcd connect failed: %v", err)
	}
	defer client.Close()

	discoverer := registry.NewEtcdDiscoverer(client, *namespace, slog.Default())

	inst := registry.Instance{
		ID:      instanceID,
		Name:    *service,
		Address: *address,
		Port:    *port,
		Metadata: map[string]string{
			"weight": strconv.Itoa(*weight),
		},
	}

	if err := discoverer.Register(ctx, *service, inst, time.Duration(*leaseTTL)*time.Second); err != nil {
		log.Fatalf("registration failed: %v", err)
	}
	log.Printf("registered %s/%s at %s:%d (weight %d)", *service, instanceID, *address, *port, *weight)

	mux := http.NewServeMux()

	// echo endpoint, reports the handling instance for distribution checks
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		log.Printf("request: method=%s path=%s from=%s request_id=%s",
			r.Method, r.URL.Path, r.RemoteAddr, r.Header.Get("X-Request-ID"))

		resp := map[string]any{
			"instance": instanceID,
			"service":  *service,
			"method":   r.Method,
			"path":     r.URL.Path,
			"body":     string(body),
		}
		b, _ := json.Marshal(resp)
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Instance-ID", instanceID)
		w.Write(b)
	})

	// liveness endpoint polled by the router's health checker
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", *port),
		Handler: mux,
	}

	go func() {
		log.Printf("starting %s instance on %s", *service, srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()

	deregCtx, deregCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer deregCancel()

	if err := discoverer.Deregister(deregCtx, *service, instanceID); err != nil {
		log.Printf("deregistration failed: %v", err)
	} else {
		log.Printf("deregistered %s/%s", *service, instanceID)
	}

	srv.Shutdown(deregCtx)
}
