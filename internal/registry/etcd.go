package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
)

const defaultNamespace = "/services"

// EtcdDiscoverer reads service instances from etcd. Instances are stored
// as JSON values under <namespace>/<service>/<instance-id>, the layout
// written by the companion registration tooling.
type EtcdDiscoverer struct {
	client    *clientv3.Client
	namespace string
	logger    *slog.Logger
}

// NewEtcdDiscoverer creates a discoverer over an existing etcd client.
// The discoverer borrows the client and does not close it.
func NewEtcdDiscoverer(client *clientv3.Client, namespace string, logger *slog.Logger) *EtcdDiscoverer {
	if namespace == "" {
		namespace = defaultNamespace
	}

	return &EtcdDiscoverer{
		client:    client,
		namespace: strings.TrimSuffix(namespace, "/"),
		logger:    logger,
	}
}

// Discover lists all instances registered under the service prefix.
func (d *EtcdDiscoverer) Discover(ctx context.Context, service string) ([]Instance, error) {
	prefix := fmt.Sprintf("%s/%s/", d.namespace, service)

	resp, err := d.client.Get(ctx, prefix, clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("etcd get %q: %w", prefix, err)
	}

	instances := make([]Instance, 0, len(resp.Kvs))

	for _, kv := range resp.Kvs {
		var inst Instance
		if err := json.Unmarshal(kv.Value, &inst); err != nil {
			d.logger.Warn("Skipping malformed registry entry",
				slog.String("key", string(kv.Key)),
				slog.String("error", err.Error()))
			continue
		}

		if inst.ID == "" {
			inst.ID = strings.TrimPrefix(string(kv.Key), prefix)
		}

		instances = append(instances, inst)
	}

	return instances, nil
}

// Register writes an instance under the service prefix with a lease so
// that crashed instances expire. Used by the registration tooling, not by
// the request path.
func (d *EtcdDiscoverer) Register(ctx context.Context, service string, inst Instance, ttl time.Duration) error {
	payload, err := json.Marshal(inst)
	if err != nil {
		return fmt.Errorf("marshal instance: %w", err)
	}

	lease, err := d.client.Grant(ctx, int64(ttl.Seconds()))
	if err != nil {
		return fmt.Errorf("etcd lease grant: %w", err)
	}

	key := fmt.Sprintf("%s/%s/%s", d.namespace, service, inst.ID)
	if _, err := d.client.Put(ctx, key, string(payload), clientv3.WithLease(lease.ID)); err != nil {
		return fmt.Errorf("etcd put %q: %w", key, err)
	}

	if _, err := d.client.KeepAlive(ctx, lease.ID); err != nil {
		return fmt.Errorf("etcd keepalive: %w", err)
	}

	return nil
}

// Deregister removes an instance key.
func (d *EtcdDiscoverer) Deregister(ctx context.Context, service, instanceID string) error {
	key := fmt.Sprintf("%s/%s/%s", d.namespace, service, instanceID)
	if _, err := d.client.Delete(ctx, key); err != nil {
		return fmt.Errorf("etcd delete %q: %w", key, err)
	}

	return nil
}
