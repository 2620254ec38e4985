// mockconfd runs an in-memory conference backend with fixture
// attendees, so a scanning client can be exercised without a real
// deployment.
package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/confscan/confscan/internal/mockserver"
	"github.com/confscan/confscan/internal/models"
)

var fixtures = []struct {
	reg models.Registration
	id  string
	at  string
}{
	{models.Registration{ID: 1, Name: "Ada Lovelace", Type: "Speaker", Company: "Analytical Engines Ltd"},
		strings.Repeat("a1", 32), strings.Repeat("a2", 32)},
	{models.Registration{ID: 2, Name: "Grace Hopper", Type: "Attendee", Company: "COBOL Heritage Society"},
		strings.Repeat("b1", 32), strings.Repeat("b2", 32)},
	{models.Registration{ID: 3, Name: "Edsger Dijkstra", Type: "Attendee"},
		strings.Repeat("c1", 32), strings.Repeat("c2", 32)},
}

func main() {
	port := pflag.IntP("port", "p", 8475, "Listen port")
	name := pflag.String("name", "Mock Conference", "Conference name reported by status")
	slug := pflag.String("event", "mockconf", "Event slug in the checkin URL")
	confToken := pflag.String("token", "mocktoken", "Conference access token in the URL")
	closed := pflag.Bool("closed", false, "Start with check-in closed (store returns 412)")
	pflag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	s := mockserver.New(*name, *slug, *confToken, logger)
	for _, f := range fixtures {
		s.AddAttendee(f.reg, f.id, f.at)
	}
	if *closed {
		s.SetActive(false)
	}

	logger.Info("mockconfd listening",
		zap.Int("port", *port),
		zap.String("checkin_url", fmt.Sprintf("http://localhost:%d/events/%s/checkin/%s/", *port, *slug, *confToken)),
		zap.String("sponsor_url", fmt.Sprintf("http://localhost:%d/events/sponsor/scanning/%s/", *port, *confToken)),
	)
	if err := http.ListenAndServe(fmt.Sprintf(":%d", *port), s.Router()); err != nil {
		logger.Fatal("Server stopped", zap.Error(err))
	}
}
