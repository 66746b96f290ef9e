package gestalt

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/etcd/tests/v3/framework/integration"
)

type countingListener struct {
	count atomic.Int32
}

func (l *countingListener) Reload(Source) { l.count.Add(1) }

func TestEtcdSource_Load(t *testing.T) {
	integration.BeforeTest(t)

	clus := integration.NewCluster(t, &integration.ClusterConfig{Size: 1})
	defer clus.Terminate(t)

	client := clus.RandClient()
	ctx := context.Background()

	_, err := client.Put(ctx, "/app/config", "host: 127.0.0.1")
	require.NoError(t, err)

	t.Run("EtcdSource_Load_Success", func(t *testing.T) {
		source := NewEtcdSource(client, "/app/config",
			WithEtcdSourceReadTimeout(50*time.Second),
			WithEtcdSourceName("name"),
			WithEtcdSourceFormat("yaml"),
		)
		b, m, err := source.Load(ctx)
		assert.NoError(t, err)
		assert.Contains(t, string(b), "host: 127.0.0.1")
		assert.Equal(t, Metadata{Format: "yaml", Source: "name"}, m)
	})

	_, err = client.Put(ctx, "/app/db.json", `{"host": "127.0.0.1"}`)
	require.NoError(t, err)

	t.Run("EtcdSource_Load_AutoFormat", func(t *testing.T) {
		source := NewEtcdSource(client, "/app/db.json", WithEtcdSourceReadTimeout(50*time.Second))
		b, m, err := source.Load(ctx)
		assert.NoError(t, err)
		assert.Contains(t, string(b), "127.0.0.1")
		assert.Equal(t, Metadata{Format: "json", Source: "/app/db.json"}, m)
	})

	t.Run("EtcdSource_Load_NotFound", func(t *testing.T) {
		_, _, err := NewEtcdSource(client, "/app/none.yaml").Load(ctx)
		assert.EqualError(t, err, `EtcdSource: key "/app/none.yaml" not found`)
	})

	t.Run("EtcdSource_Load_NoFormat", func(t *testing.T) {
		_, _, err := NewEtcdSource(client, "/app/config").Load(ctx)
		assert.ErrorContains(t, err, "detect format from key")
	})

	t.Run("EtcdReloadStrategy_Start", func(t *testing.T) {
		source := NewEtcdSource(client, "/app/db.json")
		strategy := NewEtcdReloadStrategy(source)
		listener := &countingListener{}
		strategy.RegisterListener(listener)
		assert.Equal(t, source, strategy.Source())

		ctx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func() { done <- strategy.Start(ctx) }()

		require.Eventually(t, func() bool {
			if _, err := client.Put(context.Background(), "/app/db.json", `{"host": "10.0.0.1"}`); err != nil {
				return false
			}
			return listener.count.Load() >= 1
		}, 5*time.Second, 100*time.Millisecond)

		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("strategy did not stop")
		}
	})

	t.Run("Gestalt_Reload_Etcd", func(t *testing.T) {
		_, err := client.Put(ctx, "/app/gestalt.yaml", "db:\n  port: 3306")
		require.NoError(t, err)

		source := NewEtcdSource(client, "/app/gestalt.yaml")
		g, err := New(WithSource(source), WithReloadStrategy(NewEtcdReloadStrategy(source)))
		require.NoError(t, err)
		require.NoError(t, g.LoadConfigs(ctx))

		core := &coreListener{}
		g.RegisterCoreReloadListener(core)

		ctx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func() { done <- g.StartReloading(ctx) }()

		require.Eventually(t, func() bool {
			if _, err := client.Put(context.Background(), "/app/gestalt.yaml", "db:\n  port: 3307"); err != nil {
				return false
			}
			return GetConfigOrDefault(g, "db.port", 0) == 3307
		}, 5*time.Second, 100*time.Millisecond)
		assert.GreaterOrEqual(t, core.count.Load(), int32(1))

		cancel()
		assert.NoError(t, <-done)
	})
}
