package api

import (
	"log"
	"net/http"
	"strings"

	"weather-dashboard/internal/store"

	"github.com/gin-gonic/gin"
)

// cookieStore keeps preferences in the request's browser cookies, one cookie per key.
type cookieStore struct {
	c *gin.Context
}

var _ store.KV = cookieStore{}

func (cs cookieStore) Get(key string) (string, bool) {
	value, err := cs.c.Cookie(key)
	if err != nil || value == "" {
		return "", false
	}
	return value, true
}

func (cs cookieStore) Set(key, value string, ttlDays int) error {
	if err := store.CheckEntry(key, ttlDays); err != nil {
		return err
	}
	cs.c.SetSameSite(http.SameSiteLaxMode)
	cs.c.SetCookie(key, value, ttlDays*86400, "/", "", false, false)
	return nil
}

// lookup reads key from the requesting browser's cookies only. The server-side store
// is shared by every browser and is never read back into a request.
func (s *Server) lookup(c *gin.Context, key string) (string, bool) {
	return (cookieStore{c}).Get(key)
}

// remember writes key to the browser cookie. The city is also copied to the server-side
// store, which the background collector refreshes.
func (s *Server) remember(c *gin.Context, key, value string, ttlDays int) {
	if err := (cookieStore{c}).Set(key, value, ttlDays); err != nil {
		log.Printf("Failed to set %s cookie: %v", key, err)
	}
	if key != store.KeyCity || s.prefs == nil {
		return
	}
	if err := s.prefs.Set(key, value, ttlDays); err != nil {
		log.Printf("Failed to store %s: %v", key, err)
	}
}

// requestCity resolves the city from ?city=, the city cookie, or the default.
// explicit is true only for the query parameter.
func (s *Server) requestCity(c *gin.Context) (string, bool) {
	if city := strings.TrimSpace(c.Query("city")); city != "" {
		return city, true
	}
	if city, ok := s.lookup(c, store.KeyCity); ok {
		return city, false
	}
	return s.defaultCity(), false
}

type LocationRequest struct {
	Lat *float64 `json:"lat" binding:"required,min=-90,max=90"`
	Lon *float64 `json:"lon" binding:"required,min=-180,max=180"`
}

type CityRequest struct {
	City string `json:"city" binding:"required"`
}

// locationHandler accepts the browser's coordinates, remembers the resolved city and the
// fact that location access was granted.
func (s *Server) locationHandler(c *gin.Context) {
	var req LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	loc, err := s.service.Locate(c.Request.Context(), *req.Lat, *req.Lon)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}

	s.remember(c, store.KeyCity, loc.Name, s.cityTTL())
	s.remember(c, store.KeyPermission, store.PermissionGranted, s.permissionTTL())

	c.JSON(http.StatusOK, gin.H{
		"city":     loc.Name,
		"location": loc,
	})
}

func (s *Server) permissionHandler(c *gin.Context) {
	value, _ := s.lookup(c, store.KeyPermission)
	c.JSON(http.StatusOK, gin.H{
		"granted": value == store.PermissionGranted,
	})
}

func (s *Server) citiesHandler(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter q is required"})
		return
	}

	cities, err := s.service.Search(c.Request.Context(), query)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cities": cities})
}

func (s *Server) getCityPreferenceHandler(c *gin.Context) {
	city, source := s.defaultCity(), "default"
	if value, ok := s.lookup(c, store.KeyCity); ok {
		city, source = value, "cookie"
	}
	c.JSON(http.StatusOK, gin.H{
		"city":   city,
		"source": source,
	})
}

func (s *Server) updateCityPreferenceHandler(c *gin.Context) {
	var req CityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	city := strings.TrimSpace(req.City)
	if city == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "city is empty"})
		return
	}

	s.remember(c, store.KeyCity, city, s.cityTTL())
	c.JSON(http.StatusOK, gin.H{"city": city})
}
