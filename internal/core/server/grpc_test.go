package server

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/solatis/skiplogic/internal/core/api"
	"github.com/solatis/skiplogic/internal/core/auth"
	"github.com/solatis/skiplogic/internal/core/config"
	"github.com/solatis/skiplogic/internal/core/db"
	"github.com/solatis/skiplogic/internal/rulegroup"
	"github.com/solatis/skiplogic/internal/store"
	"github.com/solatis/skiplogic/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestNewGRPCServer_Validation(t *testing.T) {
	cfg := &config.Default().SyncAPI
	service, err := api.NewRuleSetService(func(string) (store.Store, error) { return store.NewMemory(), nil }, "", nil, nil)
	require.NoError(t, err)
	authenticator := auth.NewAuthenticator(nil, nil, nil)

	tests := []struct {
		name    string
		cfg     *config.SyncAPIConfig
		service api.RuleSetSyncServer
		auth    *auth.Authenticator
	}{
		{"nil config", nil, service, authenticator},
		{"nil service", cfg, nil, authenticator},
		{"nil authenticator", cfg, service, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewGRPCServer(tt.cfg, tt.service, tt.auth, nil); err == nil {
				t.Errorf("NewGRPCServer() error = nil, want error")
			}
		})
	}
}

func TestGRPCServer_EndToEnd(t *testing.T) {
	database, err := db.Open("sqlite://" + filepath.Join(t.TempDir(), "server.db"))
	require.NoError(t, err)
	defer database.Close()
	require.NoError(t, db.MigrateUp(database))
	queries, err := db.LoadQueries(database)
	require.NoError(t, err)

	secretID, envValue, err := auth.GenerateSecret()
	require.NoError(t, err)
	_, secret, err := config.ParseHMACSecretWithID(envValue)
	require.NoError(t, err)
	secrets := map[string][]byte{secretID: secret}

	ctx := context.Background()
	issued, err := auth.NewKeyStore(secrets, queries).Issue(ctx, "acme", "runtime")
	require.NoError(t, err)

	stores := func(workspace string) (store.Store, error) {
		return store.NewSQL(queries, workspace, time.Second), nil
	}
	acme, err := stores("acme")
	require.NoError(t, err)
	_, err = rulegroup.NewSavedList(acme, rulegroup.DefaultSavedKey, nil).Upsert(types.RuleSet{
		GroupName:  "Everyone",
		Conditions: []types.Condition{{Type: types.ConditionNotSelected, Question: "q1", Answer: "none"}},
		Actions:    []types.Action{{Type: types.ActionEnd}},
	})
	require.NoError(t, err)

	service, err := api.NewRuleSetService(stores, rulegroup.DefaultSavedKey, nil, nil)
	require.NoError(t, err)
	cfg := config.Default().SyncAPI
	srv, err := NewGRPCServer(&cfg, service, auth.NewAuthenticator(secrets, queries, nil), nil)
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	served := make(chan error, 1)
	go func() { served <- srv.Serve(lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)

	callCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	health, err := grpc_health_v1.NewHealthClient(conn).Check(callCtx, &grpc_health_v1.HealthCheckRequest{Service: api.ServiceName})
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, health.GetStatus())

	client := api.NewRuleSetSyncClient(conn)
	_, err = client.ListRuleSets(callCtx)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	authed := metadata.AppendToOutgoingContext(callCtx, "x-api-key", issued.Key)
	list, err := client.ListRuleSets(authed)
	require.NoError(t, err)
	require.Len(t, list.GetValues(), 1)
	assert.Equal(t, "Everyone", list.GetValues()[0].GetStructValue().GetFields()["name"].GetStringValue())

	rs, err := client.GetRuleSet(authed, "Everyone")
	require.NoError(t, err)
	assert.Equal(t, "Everyone", rs.GetFields()["groupName"].GetStringValue())

	require.NoError(t, conn.Close())

	shutdownCtx, stop := context.WithTimeout(ctx, 5*time.Second)
	defer stop()
	require.NoError(t, srv.Shutdown(shutdownCtx))
	assert.NoError(t, <-served)
}

func TestTimeoutInterceptor(t *testing.T) {
	info := &grpc.UnaryServerInfo{FullMethod: api.MethodListRuleSets}

	var hasDeadline bool
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		_, hasDeadline = ctx.Deadline()
		return nil, nil
	}

	_, _ = timeoutInterceptor(time.Second)(context.Background(), nil, info, handler)
	assert.True(t, hasDeadline)

	_, _ = timeoutInterceptor(0)(context.Background(), nil, info, handler)
	assert.False(t, hasDeadline)
}
