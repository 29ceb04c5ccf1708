package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/zonewarden/server/internal/auth"
	"github.com/zonewarden/server/internal/clock"
	"github.com/zonewarden/server/internal/config"
	"github.com/zonewarden/server/internal/deletion"
	"github.com/zonewarden/server/internal/geometry"
	"github.com/zonewarden/server/internal/ledger"
	"github.com/zonewarden/server/internal/protection"
	"github.com/zonewarden/server/internal/store"
	"github.com/zonewarden/server/internal/team"
	"github.com/zonewarden/server/internal/zone"
)

// recordingChannel captures commands instead of sending them to a real
// executor.
type recordingChannel struct {
	mu       sync.Mutex
	commands []string
}

func (c *recordingChannel) Execute(_ context.Context, command string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.commands = append(c.commands, command)
	return nil
}

func (c *recordingChannel) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.commands)
}

// fakePublisher records map marker publications.
type fakePublisher struct {
	mu      sync.Mutex
	created []string
}

func (p *fakePublisher) ZoneCreated(_ context.Context, z zone.Zone) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, z.ID)
}

type apiFixture struct {
	router  http.Handler
	channel *recordingChannel
	markers *fakePublisher
	clock   *clock.Fake
	ledger  *ledger.Ledger
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	st := store.NewMemory()
	clk := clock.NewFake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	led := ledger.New(st)
	teams := team.NewService(st, clk)
	registry := zone.NewRegistry(st, led, teams, clk, zone.Settings{
		HalfExtent: 128, Buffer: 1, CreationCost: 1,
	})

	channel := &recordingChannel{}
	reconciler := protection.NewReconciler(channel, protection.NopPacer{}, protection.Layout{
		HalfExtent: 128, WorldBottom: 0, WorldTop: 320, SweepRadius: 24,
	})
	workflow := deletion.NewWorkflow(registry, led, reconciler, teams, nil, clk, 60*time.Second)
	t.Cleanup(workflow.Shutdown)

	cfg := &config.Config{Auth: config.AuthConfig{
		JWTSecret:     "api-test-secret",
		JWTExpiration: time.Hour,
		BCryptCost:    4,
	}}
	jwtService := auth.NewJWTService(cfg)
	players := auth.NewPlayerStore(st, clk)
	authHandlers := auth.NewHandlers(players, jwtService, auth.NewPasswordService(cfg.Auth.BCryptCost))

	markers := &fakePublisher{}
	router := NewRouter(Dependencies{
		Zones:   NewZoneHandlers(registry, reconciler, markers, workflow, players),
		Teams:   NewTeamHandlers(teams),
		Players: NewPlayerHandlers(players, led),
		Auth:    authHandlers,
		JWT:     jwtService,
	})

	return &apiFixture{router: router, channel: channel, markers: markers, clock: clk, ledger: led}
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

// signup registers and logs in a player, returning a bearer token.
func (f *apiFixture) signup(t *testing.T, username string) string {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/auth/register", "", auth.RegisterRequest{
		Username: username, Password: "sturdy-pass1",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s status = %d: %s", username, rec.Code, rec.Body.String())
	}
	rec = f.do(t, http.MethodPost, "/api/auth/login", "", auth.LoginRequest{
		Username: username, Password: "sturdy-pass1",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s status = %d: %s", username, rec.Code, rec.Body.String())
	}
	var resp auth.TokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	return resp.AccessToken
}

// founder signs up a player, creates a team they lead, and funds them.
func (f *apiFixture) founder(t *testing.T, username, teamID string, funds int64) string {
	t.Helper()
	token := f.signup(t, username)
	rec := f.do(t, http.MethodPost, "/api/teams", token, CreateTeamRequest{ID: teamID, Name: teamID})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create team %s status = %d: %s", teamID, rec.Code, rec.Body.String())
	}
	if funds > 0 {
		if err := f.ledger.Deposit(context.Background(), username, funds); err != nil {
			t.Fatalf("deposit failed: %v", err)
		}
	}
	return token
}

func TestAPI_RequiresAuthentication(t *testing.T) {
	f := newAPIFixture(t)

	for _, path := range []string{"/api/zones", "/api/teams", "/api/players/me"} {
		rec := f.do(t, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("GET %s without token status = %d, want 401", path, rec.Code)
		}
	}
}

func TestAPI_CreateZone(t *testing.T) {
	f := newAPIFixture(t)
	token := f.founder(t, "steve", "miners", 5)

	rec := f.do(t, http.MethodPost, "/api/zones", token, CreateZoneRequest{
		Name:   "North Base",
		TeamID: "miners",
		Center: geometry.Position{X: 100, Y: 64, Z: 100},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create zone status = %d: %s", rec.Code, rec.Body.String())
	}

	var z zone.Zone
	if err := json.Unmarshal(rec.Body.Bytes(), &z); err != nil {
		t.Fatalf("decode zone: %v", err)
	}
	if z.ID != "north_base" {
		t.Errorf("zone id = %s, want north_base", z.ID)
	}

	// The full protection sequence ran and the map was updated.
	if got := f.channel.count(); got != 21 {
		t.Errorf("protection commands issued = %d, want 21", got)
	}
	if len(f.markers.created) != 1 || f.markers.created[0] != "north_base" {
		t.Errorf("map markers created = %v, want [north_base]", f.markers.created)
	}

	// Creation cost was charged to the requester.
	balance, _, err := f.ledger.Balance(context.Background(), "steve")
	if err != nil {
		t.Fatalf("balance failed: %v", err)
	}
	if balance != 4 {
		t.Errorf("balance after create = %d, want 4", balance)
	}
}

func TestAPI_CreateZoneOverlapRejected(t *testing.T) {
	f := newAPIFixture(t)
	token := f.founder(t, "steve", "miners", 5)
	other := f.founder(t, "alex", "farmers", 5)

	rec := f.do(t, http.MethodPost, "/api/zones", token, CreateZoneRequest{
		Name: "First", TeamID: "miners", Center: geometry.Position{X: 100, Y: 64, Z: 100},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("first create status = %d: %s", rec.Code, rec.Body.String())
	}
	issued := f.channel.count()

	// A different team's overlapping zone is still rejected.
	rec = f.do(t, http.MethodPost, "/api/zones", other, CreateZoneRequest{
		Name: "Second", TeamID: "farmers", Center: geometry.Position{X: 150, Y: 64, Z: 100},
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("overlapping create status = %d, want 409: %s", rec.Code, rec.Body.String())
	}
	if f.channel.count() != issued {
		t.Error("rejected create must not issue protection commands")
	}

	balance, _, err := f.ledger.Balance(context.Background(), "alex")
	if err != nil {
		t.Fatalf("balance failed: %v", err)
	}
	if balance != 5 {
		t.Errorf("rejected payer balance = %d, want 5", balance)
	}
}

func TestAPI_CreateZoneInsufficientFunds(t *testing.T) {
	f := newAPIFixture(t)
	token := f.founder(t, "steve", "miners", 0)

	rec := f.do(t, http.MethodPost, "/api/zones", token, CreateZoneRequest{
		Name: "Broke Base", TeamID: "miners", Center: geometry.Position{X: 0, Y: 64, Z: 0},
	})
	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("status = %d, want 402: %s", rec.Code, rec.Body.String())
	}
}

func TestAPI_GetAndListZones(t *testing.T) {
	f := newAPIFixture(t)
	token := f.founder(t, "steve", "miners", 5)

	for i, center := range []geometry.Position{{X: 0, Y: 64, Z: 0}, {X: 1000, Y: 64, Z: 1000}} {
		rec := f.do(t, http.MethodPost, "/api/zones", token, CreateZoneRequest{
			Name: fmt.Sprintf("Base %d", i), TeamID: "miners", Center: center,
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("create %d status = %d: %s", i, rec.Code, rec.Body.String())
		}
	}

	rec := f.do(t, http.MethodGet, "/api/zones/base_0", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = f.do(t, http.MethodGet, "/api/zones", token, nil)
	var all []zone.Zone
	if err := json.Unmarshal(rec.Body.Bytes(), &all); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("list returned %d zones, want 2", len(all))
	}

	rec = f.do(t, http.MethodGet, "/api/zones/owner/miners", token, nil)
	var owned []zone.Zone
	if err := json.Unmarshal(rec.Body.Bytes(), &owned); err != nil {
		t.Fatalf("decode owner list: %v", err)
	}
	if len(owned) != 2 {
		t.Errorf("owner list returned %d zones, want 2", len(owned))
	}

	rec = f.do(t, http.MethodGet, "/api/zones/nowhere", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get unknown zone status = %d, want 404", rec.Code)
	}
}

func TestAPI_LocateZone(t *testing.T) {
	f := newAPIFixture(t)
	token := f.founder(t, "steve", "miners", 5)

	rec := f.do(t, http.MethodPost, "/api/zones", token, CreateZoneRequest{
		Name: "Home", TeamID: "miners", Center: geometry.Position{X: 100, Y: 64, Z: 100},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}

	// Explicit coordinates.
	rec = f.do(t, http.MethodGet, "/api/zones/locate?x=50&z=50", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("locate status = %d: %s", rec.Code, rec.Body.String())
	}
	var z zone.Zone
	if err := json.Unmarshal(rec.Body.Bytes(), &z); err != nil {
		t.Fatalf("decode locate: %v", err)
	}
	if z.ID != "home" {
		t.Errorf("located zone = %s, want home", z.ID)
	}

	// Outside every zone.
	rec = f.do(t, http.MethodGet, "/api/zones/locate?x=5000&z=5000", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("locate outside status = %d, want 404", rec.Code)
	}

	// Reported player position is used when coordinates are omitted.
	rec = f.do(t, http.MethodPut, "/api/players/me/position", token, PositionReport{
		Position: geometry.Position{X: 90, Y: 70, Z: 110},
	})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("report position status = %d: %s", rec.Code, rec.Body.String())
	}
	rec = f.do(t, http.MethodGet, "/api/zones/locate", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("locate from position status = %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAPI_UpdateZoneSettings(t *testing.T) {
	f := newAPIFixture(t)
	leader := f.founder(t, "steve", "miners", 5)
	outsider := f.signup(t, "alex")

	rec := f.do(t, http.MethodPost, "/api/zones", leader, CreateZoneRequest{
		Name: "Market", TeamID: "miners", Center: geometry.Position{X: 0, Y: 64, Z: 0},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = f.do(t, http.MethodPut, "/api/zones/market", leader, UpdateZoneRequest{Field: "price", Value: "40"})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", rec.Code, rec.Body.String())
	}
	var z zone.Zone
	if err := json.Unmarshal(rec.Body.Bytes(), &z); err != nil {
		t.Fatalf("decode update: %v", err)
	}
	if !z.ForSale || z.Price != 40 {
		t.Errorf("zone after pricing = forSale %v price %d, want true 40", z.ForSale, z.Price)
	}

	rec = f.do(t, http.MethodPut, "/api/zones/market", outsider, UpdateZoneRequest{Field: "price", Value: "1"})
	if rec.Code != http.StatusForbidden {
		t.Errorf("outsider update status = %d, want 403", rec.Code)
	}

	rec = f.do(t, http.MethodPut, "/api/zones/market", leader, UpdateZoneRequest{Field: "name", Value: "x"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("immutable field update status = %d, want 400", rec.Code)
	}
}

func TestAPI_DeletionFlow(t *testing.T) {
	f := newAPIFixture(t)
	token := f.founder(t, "steve", "miners", 5)

	rec := f.do(t, http.MethodPost, "/api/zones", token, CreateZoneRequest{
		Name: "Doomed", TeamID: "miners", Center: geometry.Position{X: 0, Y: 64, Z: 0},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	applied := f.channel.count()

	// Confirm with no pending request fails.
	rec = f.do(t, http.MethodPost, "/api/zones/doomed/confirm", token, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("confirm without request status = %d, want 409: %s", rec.Code, rec.Body.String())
	}

	rec = f.do(t, http.MethodPost, "/api/zones/doomed/delete", token, nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("request deletion status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = f.do(t, http.MethodPost, "/api/zones/doomed/confirm", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("confirm status = %d: %s", rec.Code, rec.Body.String())
	}

	// Teardown issued its full sequence and the zone is gone.
	if got := f.channel.count() - applied; got != 22 {
		t.Errorf("teardown commands issued = %d, want 22", got)
	}
	rec = f.do(t, http.MethodGet, "/api/zones/doomed", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get deleted zone status = %d, want 404", rec.Code)
	}
}

func TestAPI_DeletionExpires(t *testing.T) {
	f := newAPIFixture(t)
	token := f.founder(t, "steve", "miners", 5)

	rec := f.do(t, http.MethodPost, "/api/zones", token, CreateZoneRequest{
		Name: "Keeper", TeamID: "miners", Center: geometry.Position{X: 0, Y: 64, Z: 0},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = f.do(t, http.MethodPost, "/api/zones/keeper/delete", token, nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("request deletion status = %d: %s", rec.Code, rec.Body.String())
	}

	f.clock.Advance(61 * time.Second)

	rec = f.do(t, http.MethodPost, "/api/zones/keeper/confirm", token, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expired confirm status = %d, want 409: %s", rec.Code, rec.Body.String())
	}
	rec = f.do(t, http.MethodGet, "/api/zones/keeper", token, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("zone after expired confirm status = %d, want 200", rec.Code)
	}
}

func TestAPI_TeamRoster(t *testing.T) {
	f := newAPIFixture(t)
	leader := f.founder(t, "steve", "miners", 0)
	f.signup(t, "alex")

	rec := f.do(t, http.MethodPost, "/api/teams/miners/members", leader, MemberRequest{PlayerID: "alex"})
	if rec.Code != http.StatusOK {
		t.Fatalf("add member status = %d: %s", rec.Code, rec.Body.String())
	}
	var tm team.Team
	if err := json.Unmarshal(rec.Body.Bytes(), &tm); err != nil {
		t.Fatalf("decode team: %v", err)
	}
	if len(tm.Members) != 2 {
		t.Errorf("members = %v, want 2 entries", tm.Members)
	}

	rec = f.do(t, http.MethodDelete, "/api/teams/miners/members/alex", leader, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("remove member status = %d: %s", rec.Code, rec.Body.String())
	}

	// Only the leader can edit the roster.
	alex := f.signup(t, "alex2")
	rec = f.do(t, http.MethodPost, "/api/teams/miners/members", alex, MemberRequest{PlayerID: "alex2"})
	if rec.Code != http.StatusForbidden {
		t.Errorf("non-leader add status = %d, want 403", rec.Code)
	}
}

func TestAPI_BalanceAndDeposit(t *testing.T) {
	f := newAPIFixture(t)
	token := f.signup(t, "steve")

	rec := f.do(t, http.MethodGet, "/api/players/me/balance", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("balance status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp BalanceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode balance: %v", err)
	}
	if resp.Balance != 0 {
		t.Errorf("fresh balance = %d, want 0", resp.Balance)
	}

	rec = f.do(t, http.MethodPost, "/api/players/deposit", token, DepositRequest{PlayerID: "steve", Amount: 10})
	if rec.Code != http.StatusOK {
		t.Fatalf("deposit status = %d: %s", rec.Code, rec.Body.String())
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode deposit: %v", err)
	}
	if resp.Balance != 10 {
		t.Errorf("balance after deposit = %d, want 10", resp.Balance)
	}
}

func TestAPI_SecurityHeaders(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d", rec.Code)
	}
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want DENY", got)
	}
}

func TestAPI_AuthRateLimit(t *testing.T) {
	f := newAPIFixture(t)

	// The auth endpoints allow 5 requests per window per IP.
	var last int
	for i := 0; i < 6; i++ {
		rec := f.do(t, http.MethodPost, "/api/auth/login", "", auth.LoginRequest{
			Username: "ghost", Password: "whatever1",
		})
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("sixth auth attempt status = %d, want 429", last)
	}
	if !strings.Contains(f.do(t, http.MethodPost, "/api/auth/login", "", auth.LoginRequest{
		Username: "ghost", Password: "whatever1",
	}).Body.String(), "Rate limit exceeded") {
		t.Error("rate limited response missing error body")
	}
}
