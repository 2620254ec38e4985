// Package mockserver implements the conference backend's wire
// contract against an in-memory attendee set. It backs mockconfd for
// development and the client's integration tests; it is not the real
// backend.
package mockserver

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/confscan/confscan/internal/models"
	"github.com/confscan/confscan/internal/token"
)

type attendee struct {
	reg       models.Registration
	idToken   string
	atToken   string
	checkedIn time.Time
	scanned   time.Time
}

// Server holds the in-memory conference state.
type Server struct {
	mu        sync.Mutex
	name      string
	slug      string
	confToken string
	active    bool
	attendees []*attendee
	logger    *zap.Logger
}

func New(name, slug, confToken string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		name:      name,
		slug:      slug,
		confToken: confToken,
		active:    true,
		logger:    logger,
	}
}

// AddAttendee registers an attendee with its ID (ticket) and AT
// (badge) token values, given as 40-64 char lowercase hex.
func (s *Server) AddAttendee(reg models.Registration, idToken, atToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attendees = append(s.attendees, &attendee{reg: reg, idToken: idToken, atToken: atToken})
}

// SetActive toggles whether check-in is open. When closed, store
// requests fail with 412, mirroring the backend's behavior outside
// conference hours.
func (s *Server) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

// Router builds the gin engine serving both URL shapes:
//
//	/events/{slug}/checkin/{token}/api/...
//	/events/sponsor/scanning/{token}/api/...
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())

	checkin := r.Group("/events/"+s.slug+"/checkin/:token/api", s.authorize)
	s.register(checkin, token.ModeCheckin)

	sponsor := r.Group("/events/sponsor/scanning/:token/api", s.authorize)
	s.register(sponsor, token.ModeSponsor)

	return r
}

func (s *Server) register(g *gin.RouterGroup, mode token.ScanMode) {
	g.GET("/status/", s.handleStatus)
	g.GET("/lookup/", s.modeHandler(mode, s.handleLookup))
	g.GET("/search/", s.handleSearch)
	g.POST("/store/", s.modeHandler(mode, s.handleStore))
	g.GET("/stats/", s.handleStats)
}

func (s *Server) authorize(c *gin.Context) {
	if c.Param("token") != s.confToken {
		c.String(http.StatusForbidden, "Invalid access token")
		c.Abort()
	}
}

type modeFunc func(c *gin.Context, mode token.ScanMode)

func (s *Server) modeHandler(mode token.ScanMode, fn modeFunc) gin.HandlerFunc {
	return func(c *gin.Context) { fn(c, mode) }
}

func (s *Server) handleStatus(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, models.StatusResponse{
		Status:     "OK",
		Conference: s.name,
		Active:     s.active,
	})
}

// findByScan resolves a raw scanned value to an attendee via the
// token type the mode expects.
func (s *Server) findByScan(raw string, mode token.ScanMode) *attendee {
	tok, err := token.Parse(raw)
	if err != nil || tok.Test {
		return nil
	}
	for _, a := range s.attendees {
		if mode == token.ModeCheckin && a.idToken == tok.Value {
			return a
		}
		if mode != token.ModeCheckin && a.atToken == tok.Value {
			return a
		}
	}
	return nil
}

func (s *Server) handleLookup(c *gin.Context, mode token.ScanMode) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.findByScan(c.Query("lookup"), mode)
	if a == nil {
		c.String(http.StatusNotFound, "No matching registration")
		return
	}
	c.JSON(http.StatusOK, models.LookupResponse{Reg: s.publicReg(a, mode)})
}

func (s *Server) handleSearch(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := strings.ToLower(strings.TrimSpace(c.Query("search")))
	regs := []models.Registration{}
	if query != "" {
		for _, a := range s.attendees {
			if strings.Contains(strings.ToLower(a.reg.Name), query) ||
				strings.Contains(strings.ToLower(a.reg.Company), query) {
				regs = append(regs, s.publicReg(a, token.ModeCheckin))
			}
		}
	}
	c.JSON(http.StatusOK, models.SearchResponse{Regs: regs})
}

func (s *Server) handleStore(c *gin.Context, mode token.ScanMode) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		c.String(http.StatusPreconditionFailed, "Check-in is not open.")
		return
	}

	raw := c.PostForm("token")
	a := s.findByScan(raw, mode)
	if a == nil {
		c.String(http.StatusNotFound, "No matching registration")
		return
	}

	now := time.Now().UTC()
	if mode == token.ModeCheckin {
		if !a.checkedIn.IsZero() {
			c.String(http.StatusPreconditionFailed, "Already checked in.")
			return
		}
		a.checkedIn = now
	} else {
		if !a.scanned.IsZero() {
			c.String(http.StatusPreconditionFailed, "Attendee already scanned.")
			return
		}
		a.scanned = now
		a.reg.Note = c.PostForm("note")
	}

	s.logger.Info("stored scan",
		zap.String("mode", string(mode)),
		zap.Int("registration", a.reg.ID),
	)
	c.JSON(http.StatusOK, models.StoreResponse{Reg: s.publicReg(a, mode)})
}

func (s *Server) handleStats(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byType := make(map[string][2]int)
	byDay := make(map[string]int)
	for _, a := range s.attendees {
		counts := byType[a.reg.Type]
		counts[0]++
		if !a.checkedIn.IsZero() {
			counts[1]++
			byDay[a.checkedIn.Format("2006-01-02")]++
		}
		byType[a.reg.Type] = counts
	}

	typeGroup := models.StatsGroup{Header: []string{"Type", "Registered", "Checked in"}}
	for _, typ := range sortedKeys(byType) {
		counts := byType[typ]
		typeGroup.Rows = append(typeGroup.Rows,
			[]string{typ, fmt.Sprint(counts[0]), fmt.Sprint(counts[1])})
	}

	dayGroup := models.StatsGroup{Header: []string{"Day", "Check-ins"}}
	for _, day := range sortedKeys(byDay) {
		dayGroup.Rows = append(dayGroup.Rows, []string{day, fmt.Sprint(byDay[day])})
	}

	c.JSON(http.StatusOK, models.StatsResponse{typeGroup, dayGroup})
}

// publicReg shapes the registration for the response: check-in state
// for checkin mode, token and note for sponsor mode.
func (s *Server) publicReg(a *attendee, mode token.ScanMode) models.Registration {
	reg := a.reg
	if mode == token.ModeCheckin {
		if !a.checkedIn.IsZero() {
			reg.CheckedIn = a.checkedIn.Format(time.RFC3339)
		}
	} else {
		reg.Token = a.atToken
	}
	return reg
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
