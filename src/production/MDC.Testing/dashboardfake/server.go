// Package dashboardfake serves a small in-memory imitation of the Meraki
// Dashboard API for tests. Responses are registered per path; every request
// must carry the configured API key.
package dashboardfake

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
)

// BasePath is the API prefix the fake serves under
const BasePath = "/api/v1"

type response struct {
	status int
	body   []byte
}

// Server is a running fake dashboard
type Server struct {
	*httptest.Server

	apiKey    string
	mu        sync.Mutex
	responses map[string]response
	requests  []string
}

// New starts a fake dashboard that accepts apiKey. Call Close when done.
func New(apiKey string) *Server {
	gin.SetMode(gin.TestMode)

	s := &Server{
		apiKey:    apiKey,
		responses: make(map[string]response),
	}

	router := gin.New()
	router.Use(gin.Recovery())

	api := router.Group(BasePath, s.authenticate)
	api.GET("/organizations", s.serve)
	api.GET("/organizations/:organizationId/networks", s.serve)
	api.GET("/organizations/:organizationId/devices/statuses", s.serve)
	api.GET("/networks/:networkId/devices", s.serve)
	api.GET("/networks/:networkId/devices/:serial/availabilities", s.serve)

	s.Server = httptest.NewServer(router)
	return s
}

// BaseURL is the API root to configure a client with
func (s *Server) BaseURL() string {
	return s.Server.URL + BasePath
}

// SetJSON registers v, encoded as JSON, as the 200 response for path.
func (s *Server) SetJSON(path string, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	s.SetRaw(path, http.StatusOK, string(body))
}

// SetRaw registers a literal response for path.
func (s *Server) SetRaw(path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[path] = response{status: status, body: []byte(body)}
}

// SetError registers a dashboard style error response for path.
func (s *Server) SetError(path string, status int, message string) {
	body, _ := json.Marshal(gin.H{"errors": []string{message}})
	s.SetRaw(path, status, string(body))
}

// Requests returns the paths requested so far, relative to BasePath.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.requests))
	copy(out, s.requests)
	return out
}

func (s *Server) authenticate(c *gin.Context) {
	s.mu.Lock()
	s.requests = append(s.requests, strings.TrimPrefix(c.Request.URL.Path, BasePath))
	s.mu.Unlock()

	if c.GetHeader("X-Cisco-Meraki-API-Key") != s.apiKey {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"errors": []string{"Invalid API key"}})
		return
	}
	c.Next()
}

func (s *Server) serve(c *gin.Context) {
	path := strings.TrimPrefix(c.Request.URL.Path, BasePath)

	s.mu.Lock()
	resp, ok := s.responses[path]
	s.mu.Unlock()

	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"errors": []string{"Not found"}})
		return
	}
	c.Data(resp.status, "application/json; charset=utf-8", resp.body)
}
