package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Payphone-Digital/accounts/config"
	"github.com/Payphone-Digital/accounts/internal/constants"
	"github.com/Payphone-Digital/accounts/internal/dto"
	"github.com/Payphone-Digital/accounts/internal/model"
	"github.com/Payphone-Digital/accounts/internal/repository"
	"github.com/Payphone-Digital/accounts/pkg/database"
	"github.com/Payphone-Digital/accounts/pkg/mailer"
	"github.com/Payphone-Digital/accounts/pkg/metrics"
	"github.com/Payphone-Digital/accounts/pkg/redis"
	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const strongPassword = "Zebra-Quartz-91"

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), database.GormConfig("production"))
	require.NoError(t, err, "open sqlite")
	require.NoError(t, database.AutoMigrate(db), "migrate")
	return db
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Now().UTC().Truncate(time.Second)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// outbox records every message instead of sending it.
type outbox struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (o *outbox) Send(_ context.Context, msg mailer.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return o.err
	}
	o.sent = append(o.sent, msg)
	return nil
}

func (o *outbox) Messages() []mailer.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]mailer.Message(nil), o.sent...)
}

type testEnv struct {
	db       *gorm.DB
	clock    *testClock
	outbox   *outbox
	redis    *miniredis.Miniredis
	metrics  *metrics.Metrics
	codes    *repository.VerificationCodeRepository
	users    *repository.UserRepository
	audit    *repository.AuditRepository
	registry *CodeRegistry
	accounts *AccountService
	resets   *PasswordResetService
	tokens   *TokenService
	settings AccountSettings
}

func newTestEnv(t *testing.T, tweak ...func(*AccountSettings)) *testEnv {
	t.Helper()

	db := newTestDB(t)
	clock := newTestClock()
	box := &outbox{}
	m := metrics.New()

	settings := DefaultAccountSettings()
	settings.FrontendURL = "http://localhost:3000"
	settings.SendEmailOnSignup = true
	for _, fn := range tweak {
		fn(&settings)
	}

	srv, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(srv.Close)
	rdb := redis.NewFromClient(goredis.NewClient(&goredis.Options{Addr: srv.Addr()}))
	t.Cleanup(func() { _ = rdb.Close() })

	renderer, err := mailer.NewRenderer()
	require.NoError(t, err)

	users := repository.NewUserRepository(db)
	profiles := repository.NewProfileRepository(db)
	codes := repository.NewVerificationCodeRepository(db)
	devices := repository.NewDeviceRepository(db)
	audit := repository.NewAuditRepository(db)

	registry := NewCodeRegistry(codes, settings.CodeExpiry, WithClock(clock.Now), WithRegistryMetrics(m))
	dispatcher := NewDispatcher(box, renderer, settings.FrontendURL, settings.CodeExpiry, m)
	policy := NewPasswordPolicy()

	resets := NewPasswordResetService(users, registry, dispatcher, policy, settings, m)
	pre, post := AuditHooks(audit)
	resets.OnPreReset(pre)
	resets.OnPostReset(post)

	tokens := NewTokenService(config.JWTConfig{
		Secret:          "test-secret",
		Issuer:          "accounts-test",
		AccessLifetime:  5 * time.Minute,
		RefreshLifetime: 24 * time.Hour,
	}, users, devices, audit, redis.NewTokenBlacklist(rdb, constants.CacheKeyBlacklist), m)

	return &testEnv{
		db:       db,
		clock:    clock,
		outbox:   box,
		redis:    srv,
		metrics:  m,
		codes:    codes,
		users:    users,
		audit:    audit,
		registry: registry,
		accounts: NewAccountService(repository.NewUnitOfWork(db), users, profiles, audit, registry, dispatcher, policy, settings, m),
		resets:   resets,
		tokens:   tokens,
		settings: settings,
	}
}

func (e *testEnv) register(t *testing.T, email string) *model.User {
	t.Helper()
	profile, err := e.accounts.Register(context.Background(), &dto.RegisterRequest{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     email,
		Password:  strongPassword,
	})
	require.NoError(t, err)

	user, err := e.users.GetByID(context.Background(), profile.ID)
	require.NoError(t, err)
	return user
}

func (e *testEnv) latestCode(t *testing.T, userID uint, purpose constants.CodeType) string {
	t.Helper()
	code, err := e.codes.GetLatest(context.Background(), userID, purpose)
	require.NoError(t, err)
	return code.Code
}
