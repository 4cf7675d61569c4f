package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/NaiYuk/Taskun/internal/services"
)

// GoogleHandler exposes the calendar integration: consent redirect, OAuth
// callback and event creation.
type GoogleHandler struct {
	oauth    services.GoogleOAuthService
	calendar services.CalendarService
	jwtKey   []byte
}

func NewGoogleHandler(oauth services.GoogleOAuthService, calendar services.CalendarService, jwtKey []byte) *GoogleHandler {
	return &GoogleHandler{oauth: oauth, calendar: calendar, jwtKey: jwtKey}
}

// stateClaims carries the authenticated user through the provider redirect.
// The callback arrives from Google without our bearer token, so the state
// parameter is a short-lived signed token instead.
type stateClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

const stateTTL = 10 * time.Minute

// @Summary      Start Google authorization
// @Description  Redirects to the Google consent screen
// @Tags         Google
// @Success      307
// @Failure      401  {object}  map[string]string
// @Router       /integrations/google/connect [get]
func (h *GoogleHandler) Connect(c *gin.Context) {
	userID, _ := getUserFromCtx(c)
	log.Printf("[google][connect] call by userID=%s", userID)

	claims := &stateClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(stateTTL)),
		},
	}
	state, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.jwtKey)
	if err != nil {
		log.Printf("[google][connect][err] sign state: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start authorization"})
		return
	}

	c.Redirect(http.StatusTemporaryRedirect, h.oauth.AuthURL(state))
}

// @Summary      Google OAuth callback
// @Description  Exchanges the authorization code and stores the token record
// @Tags         Google
// @Produce      json
// @Param        code   query  string  true  "authorization code"
// @Param        state  query  string  true  "signed state from /connect"
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  map[string]string
// @Router       /integrations/google/callback [get]
func (h *GoogleHandler) Callback(c *gin.Context) {
	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing code or state"})
		return
	}

	claims := &stateClaims{}
	token, err := jwt.ParseWithClaims(state, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return h.jwtKey, nil
	})
	if err != nil || !token.Valid || claims.UserID == "" {
		log.Printf("[google][callback][err] invalid state: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid state"})
		return
	}

	tokens, err := h.oauth.ExchangeCode(c.Request.Context(), code)
	if err != nil {
		log.Printf("[google][callback][err] exchange for userID=%s: %v", claims.UserID, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.oauth.SaveTokens(c.Request.Context(), claims.UserID, tokens); err != nil {
		log.Printf("[google][callback][err] save tokens for userID=%s: %v", claims.UserID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store tokens"})
		return
	}

	log.Printf("[google][callback][ok] userID=%s connected", claims.UserID)
	c.JSON(http.StatusOK, gin.H{"message": "Google account connected"})
}

// @Summary      Create a calendar event
// @Description  Publishes an event to the user's primary Google calendar
// @Tags         Google
// @Accept       json
// @Produce      json
// @Param        event  body      object  true  "Event fields"
// @Success      201    {object}  map[string]interface{}
// @Failure      400    {object}  map[string]string
// @Failure      401    {object}  map[string]string
// @Router       /integrations/google/events [post]
func (h *GoogleHandler) CreateEvent(c *gin.Context) {
	userID, _ := getUserFromCtx(c)
	log.Printf("[google][event] call by userID=%s", userID)

	var req struct {
		Summary     string `json:"summary" binding:"required"`
		Description string `json:"description"`
		Start       string `json:"start" binding:"required"` // RFC3339
		End         string `json:"end" binding:"required"`   // RFC3339
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[google][event][bind][err] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start, err := time.Parse(time.RFC3339, req.Start)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start (RFC3339)"})
		return
	}
	end, err := time.Parse(time.RFC3339, req.End)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end (RFC3339)"})
		return
	}
	if !end.After(start) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end must be after start"})
		return
	}

	created, err := h.calendar.CreateEvent(c.Request.Context(), userID, services.CalendarEventInput{
		Summary:     req.Summary,
		Description: req.Description,
		Start:       start,
		End:         end,
	})
	if err != nil {
		if errors.Is(err, services.ErrNoToken) || errors.Is(err, services.ErrNoRefreshToken) {
			log.Printf("[google][event][err] userID=%s not connected: %v", userID, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "google account not connected, restart authorization"})
			return
		}
		log.Printf("[google][event][err] userID=%s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, created)
}
