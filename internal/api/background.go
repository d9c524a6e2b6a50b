package api

import (
	"errors"
	"html/template"
	"log"
	"net/http"

	"weather-dashboard/internal/dayphase"
	"weather-dashboard/internal/store"

	"github.com/gin-gonic/gin"
)

const themeCookieDays = 365

// gradientEntry is one row of the gradient table as served to clients.
type gradientEntry struct {
	Phase    dayphase.Phase        `json:"phase"`
	Theme    dayphase.Theme        `json:"theme"`
	Gradient dayphase.GradientSpec `json:"gradient"`
	CSS      string                `json:"css"`
	Icon     string                `json:"icon"`
}

func (s *Server) dashboardHandler(c *gin.Context) {
	theme, err := s.requestTheme(c)
	if err != nil {
		theme = s.defaultTheme()
	}
	now := s.clock().Unix()
	city, _ := s.requestCity(c)

	data := gin.H{
		"title":      "Weather Dashboard",
		"city":       city,
		"theme":      theme.String(),
		"background": template.CSS(dayphase.Neutral().CSS()),
	}

	snap, err := s.service.Snapshot(c.Request.Context(), city, theme, now)
	if err != nil {
		log.Printf("Dashboard render for %s failed: %v", city, err)
		data["error"] = err.Error()
		c.HTML(errorStatus(err), "dashboard.html", data)
		return
	}

	data["snapshot"] = snap
	data["background"] = template.CSS(snap.Background.CSS)
	data["icon"] = snap.Background.Icon
	c.HTML(http.StatusOK, "dashboard.html", data)
}

// backgroundHandler resolves an explicit window without fetching anything.
func (s *Server) backgroundHandler(c *gin.Context) {
	sunrise, err := dayphase.ParseEpoch(c.Query("sunrise"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sunrise: " + err.Error()})
		return
	}
	sunset, err := dayphase.ParseEpoch(c.Query("sunset"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sunset: " + err.Error()})
		return
	}
	now, err := s.requestNow(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	theme, err := s.requestTheme(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	window := dayphase.DayWindow{Sunrise: sunrise, Sunset: sunset}
	bg := s.service.Background(now, window, theme)
	if !bg.Resolved {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": bg.Error, "background": bg})
		return
	}
	c.JSON(http.StatusOK, bg)
}

func (s *Server) gradientsHandler(c *gin.Context) {
	entries := make([]gradientEntry, 0, len(dayphase.Phases())*len(dayphase.Themes()))
	for _, phase := range dayphase.Phases() {
		for _, theme := range dayphase.Themes() {
			g, _ := dayphase.Gradient(phase, theme)
			entries = append(entries, gradientEntry{
				Phase:    phase,
				Theme:    theme,
				Gradient: g,
				CSS:      g.CSS(),
				Icon:     dayphase.IconFor(phase),
			})
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"gradients": entries,
		"neutral":   dayphase.Neutral(),
	})
}

// themeToggleHandler flips the theme cookie and re-resolves the current city's cached window.
func (s *Server) themeToggleHandler(c *gin.Context) {
	now, err := s.requestNow(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	current, err := s.cookieTheme(c)
	if err != nil {
		current = s.defaultTheme()
	}
	next := current.Toggle()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(store.KeyTheme, next.String(), themeCookieDays*86400, "/", "", false, false)

	response := gin.H{"theme": next}
	city, _ := s.requestCity(c)
	snap, err := s.service.Snapshot(c.Request.Context(), city, next, now)
	if err != nil {
		log.Printf("Theme toggle could not re-resolve %s: %v", city, err)
	} else {
		response["background"] = snap.Background
	}

	c.JSON(http.StatusOK, response)
}

// requestTheme reads ?theme=, then the theme cookie, then the configured default.
func (s *Server) requestTheme(c *gin.Context) (dayphase.Theme, error) {
	if value := c.Query("theme"); value != "" {
		return dayphase.ParseTheme(value)
	}
	if theme, err := s.cookieTheme(c); err == nil {
		return theme, nil
	}
	return s.defaultTheme(), nil
}

func (s *Server) cookieTheme(c *gin.Context) (dayphase.Theme, error) {
	value, err := c.Cookie(store.KeyTheme)
	if err != nil || value == "" {
		return dayphase.Dark, errors.New("no theme cookie")
	}
	return dayphase.ParseTheme(value)
}

// requestNow reads ?now= as epoch seconds, defaulting to the server clock.
func (s *Server) requestNow(c *gin.Context) (int64, error) {
	value, ok := c.GetQuery("now")
	if !ok {
		return s.clock().Unix(), nil
	}
	return dayphase.ParseEpoch(value)
}

const fallbackDashboard = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.title}}</title>
</head>
<body class="theme-{{.theme}}" style="background: {{.background}}; min-height: 100vh;">
{{with .icon}}<img src="{{.}}" alt="" width="48" height="48">{{end}}
{{if .error}}<p class="error">{{.error}}</p>{{end}}
{{with .snapshot}}
<h1>{{.City}}</h1>
<p>{{printf "%.1f" .Current.Temp}}° {{.Current.Description}}</p>
{{end}}
</body>
</html>
`
