package mockserver

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confscan/confscan/internal/client"
	"github.com/confscan/confscan/internal/conference"
	"github.com/confscan/confscan/internal/models"
	"github.com/confscan/confscan/internal/token"
)

const (
	adaID = "aaaa111122223333444455556666777788889999aaaabbbbccccddddeeee0000"
	adaAT = "bbbb111122223333444455556666777788889999aaaabbbbccccddddeeee0000"
)

func newFixture(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := New("PGConf Europe 2026", "pgconf2026", "cafe0123", nil)
	s.AddAttendee(models.Registration{ID: 1, Name: "Ada Lovelace", Type: "Speaker", Company: "Analytical Engines Ltd"}, adaID, adaAT)
	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)
	return s, ts
}

func checkinClient(ts *httptest.Server) *client.Client {
	host := strings.TrimPrefix(ts.URL, "http://")
	conf := conference.Conference{
		Slug:   "pgconf2026",
		Scheme: "http",
		Host:   host,
		Token:  "cafe0123",
		Mode:   token.ModeCheckin,
	}
	return client.New(conf.BaseURL())
}

func sponsorClient(ts *httptest.Server) *client.Client {
	host := strings.TrimPrefix(ts.URL, "http://")
	conf := conference.Conference{
		Slug:   "pgconf2026",
		Scheme: "http",
		Host:   host,
		Token:  "cafe0123",
		Mode:   token.ModeSponsor,
	}
	return client.New(conf.BaseURL())
}

func TestIntegration_Status(t *testing.T) {
	_, ts := newFixture(t)
	c := checkinClient(ts)

	status, err := c.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "OK", status.Status)
	assert.Equal(t, "PGConf Europe 2026", status.Conference)
	assert.True(t, status.Active)
}

func TestIntegration_WrongConferenceTokenIsForbidden(t *testing.T) {
	_, ts := newFixture(t)
	host := strings.TrimPrefix(ts.URL, "http://")
	c := client.New("http://" + host + "/events/pgconf2026/checkin/wrongtoken/")

	_, err := c.Status(context.Background())
	apiErr, ok := models.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, models.ErrorKindForbidden, apiErr.Kind)
}

func TestIntegration_LookupAndCheckin(t *testing.T) {
	_, ts := newFixture(t)
	c := checkinClient(ts)
	ctx := context.Background()
	raw := "ID$" + adaID + "$ID"

	tok, err := token.Parse(raw)
	require.NoError(t, err)
	require.NoError(t, token.ValidateForMode(tok, token.ModeCheckin))

	reg, err := c.Lookup(ctx, raw)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", reg.Name)
	assert.Empty(t, reg.CheckedIn)

	stored, err := c.Store(ctx, models.StoreRequest{Token: raw})
	require.NoError(t, err)
	assert.NotEmpty(t, stored.CheckedIn)

	// Second check-in is a terminal 412 with the backend's message.
	_, err = c.Store(ctx, models.StoreRequest{Token: raw})
	apiErr, ok := models.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, models.ErrorKindPreconditionFailed, apiErr.Kind)
	assert.Equal(t, "Already checked in.", apiErr.Message)
}

func TestIntegration_LookupUnknownTokenIsNotFound(t *testing.T) {
	_, ts := newFixture(t)
	c := checkinClient(ts)

	_, err := c.Lookup(context.Background(), "ID$"+strings.Repeat("9", 64)+"$ID")
	apiErr, ok := models.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, models.ErrorKindNotFound, apiErr.Kind)
}

func TestIntegration_BadgeTokenNotValidForCheckinLookup(t *testing.T) {
	_, ts := newFixture(t)
	c := checkinClient(ts)

	// The badge token resolves nothing on the checkin endpoint.
	_, err := c.Lookup(context.Background(), "AT$"+adaAT+"$AT")
	apiErr, ok := models.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, models.ErrorKindNotFound, apiErr.Kind)
}

func TestIntegration_Search(t *testing.T) {
	_, ts := newFixture(t)
	c := checkinClient(ts)

	regs, err := c.Search(context.Background(), "lovelace")
	require.NoError(t, err)
	require.Len(t, regs, 1)
	assert.Equal(t, "Ada Lovelace", regs[0].Name)

	regs, err = c.Search(context.Background(), "nobody-here")
	require.NoError(t, err)
	assert.Empty(t, regs)
}

func TestIntegration_SponsorScanWithNote(t *testing.T) {
	_, ts := newFixture(t)
	c := sponsorClient(ts)
	ctx := context.Background()
	raw := "AT$" + adaAT + "$AT"

	tok, err := token.Parse(raw)
	require.NoError(t, err)
	require.NoError(t, token.ValidateForMode(tok, token.ModeSponsor))

	reg, err := c.Store(ctx, models.StoreRequest{Token: raw, Note: "interested in replication talk"})
	require.NoError(t, err)
	assert.Equal(t, "interested in replication talk", reg.Note)

	_, err = c.Store(ctx, models.StoreRequest{Token: raw})
	apiErr, ok := models.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, models.ErrorKindPreconditionFailed, apiErr.Kind)
}

func TestIntegration_CheckinClosed(t *testing.T) {
	s, ts := newFixture(t)
	s.SetActive(false)
	c := checkinClient(ts)

	_, err := c.Store(context.Background(), models.StoreRequest{Token: "ID$" + adaID + "$ID"})
	apiErr, ok := models.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, models.ErrorKindPreconditionFailed, apiErr.Kind)
	assert.Equal(t, "Check-in is not open.", apiErr.Message)
}

func TestIntegration_Stats(t *testing.T) {
	_, ts := newFixture(t)
	c := checkinClient(ts)
	ctx := context.Background()

	_, err := c.Store(ctx, models.StoreRequest{Token: "ID$" + adaID + "$ID"})
	require.NoError(t, err)

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	assert.Equal(t, []string{"Type", "Registered", "Checked in"}, stats[0].Header)
	require.Len(t, stats[0].Rows, 1)
	assert.Equal(t, []string{"Speaker", "1", "1"}, stats[0].Rows[0])

	assert.Equal(t, []string{"Day", "Check-ins"}, stats[1].Header)
	require.Len(t, stats[1].Rows, 1)
	assert.Equal(t, "1", stats[1].Rows[0][1])
}
