package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironveil/labyrinth/internal/config"
	partydomain "github.com/ironveil/labyrinth/internal/domain/party"
	"github.com/ironveil/labyrinth/internal/handlers/api"
	"github.com/ironveil/labyrinth/internal/services"
	"github.com/ironveil/labyrinth/internal/ws"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	provider := services.NewProvider(&services.ProviderConfig{
		Config: &config.Config{
			Movement: config.MovementConfig{
				MaxPoints:        10,
				RegenRatePerHour: 2,
				StartPolicy:      "equal",
			},
			Visibility: config.VisibilityConfig{Range: 1},
			Combat:     config.CombatConfig{AutoTurnCap: 100},
		},
	})

	mux := http.NewServeMux()
	api.NewHandler(provider, ws.NewHub()).RegisterRoutes(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	return resp
}

func decodeParty(t *testing.T, resp *http.Response) *partydomain.Party {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	var p partydomain.Party
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&p))
	return &p
}

func TestPartyEndpoints(t *testing.T) {
	srv := newTestServer(t)

	// alice founds a party
	resp := postJSON(t, srv.URL+"/api/parties", `{"leader":"alice","floor":1}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeParty(t, resp)
	assert.Equal(t, "alice", created.LeaderID)
	assert.Equal(t, []string{"alice"}, created.MemberIDs)

	// bob joins it
	resp = postJSON(t, srv.URL+"/api/parties/"+created.ID+"/join", `{"participant":"bob"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	joined := decodeParty(t, resp)
	assert.Equal(t, []string{"alice", "bob"}, joined.MemberIDs)

	// lookup by ID and by member agree
	resp, err := http.Get(srv.URL + "/api/parties/" + created.ID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	byID := decodeParty(t, resp)

	resp, err = http.Get(srv.URL + "/api/parties?participant=bob")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	byMember := decodeParty(t, resp)
	assert.Equal(t, byID.ID, byMember.ID)

	// the leader leaving passes leadership on
	resp = postJSON(t, srv.URL+"/api/parties/"+created.ID+"/leave", `{"participant":"alice"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp, err = http.Get(srv.URL + "/api/parties/" + created.ID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	remaining := decodeParty(t, resp)
	assert.Equal(t, "bob", remaining.LeaderID)
	assert.Equal(t, []string{"bob"}, remaining.MemberIDs)
}

func TestPartyEndpoints_Rejections(t *testing.T) {
	srv := newTestServer(t)

	// a member of one party cannot found another
	resp := postJSON(t, srv.URL+"/api/parties", `{"leader":"alice","floor":1}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()
	resp = postJSON(t, srv.URL+"/api/parties", `{"leader":"alice","floor":1}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	_ = resp.Body.Close()

	// unknown party
	resp, err := http.Get(srv.URL + "/api/parties/nope")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()

	// a participant with no party
	resp, err = http.Get(srv.URL + "/api/parties?participant=ghost")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()

	// missing fields
	resp = postJSON(t, srv.URL+"/api/parties", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}
