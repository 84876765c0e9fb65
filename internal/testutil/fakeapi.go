package testutil

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/prperemyshlev/pettracker-client/internal/domain"
	"github.com/prperemyshlev/pettracker-client/internal/dto"
)

// FakeSecret signs the tokens issued by FakeAPI
const FakeSecret = "fake-api-secret"

const userIDKey = "user_id"

var errRevoked = errors.New("token revoked")

// FakeAPI is an in-process pet tracker backend served over httptest.
// It issues real HS256 tokens, rotates refresh tokens and enforces
// Bearer authentication on every non-auth route.
type FakeAPI struct {
	server *httptest.Server
	jwt    *JWTIssuer

	mu            sync.Mutex
	nextID        int64
	users         map[string]*fakeUser
	pets          map[int64]*fakePet
	breeds        []dto.PetBreed
	devices       map[int64]*dto.DeviceInfoResponse
	revoked       map[string]bool
	issuedAccess  []string
	failRefresh   bool
	refreshDelay  time.Duration
	calls         map[string]int
	lastAuthz     string
	lastRequestID string
}

type fakeUser struct {
	id           int64
	login        string
	passwordHash []byte
	role         domain.Role
}

type fakePet struct {
	owner       string
	pet         dto.PetResponse
	photo       []byte
	contentType string
}

// FakeAPIOption configures a FakeAPI
type FakeAPIOption func(*fakeAPIConfig)

type fakeAPIConfig struct {
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// WithTokenTTL sets the lifetime of issued tokens
func WithTokenTTL(access, refresh time.Duration) FakeAPIOption {
	return func(c *fakeAPIConfig) {
		c.accessTTL = access
		c.refreshTTL = refresh
	}
}

// NewFakeAPI starts a fake API server. Close it when done.
func NewFakeAPI(opts ...FakeAPIOption) *FakeAPI {
	cfg := fakeAPIConfig{accessTTL: 15 * time.Minute, refreshTTL: 24 * time.Hour}
	for _, opt := range opts {
		opt(&cfg)
	}

	f := &FakeAPI{
		jwt:     NewJWTIssuer(FakeSecret, cfg.accessTTL, cfg.refreshTTL),
		nextID:  1,
		users:   make(map[string]*fakeUser),
		pets:    make(map[int64]*fakePet),
		devices: make(map[int64]*dto.DeviceInfoResponse),
		revoked: make(map[string]bool),
		calls:   make(map[string]int),
	}

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(f.countCalls())

	v1 := router.Group("/api/v1")
	auth := v1.Group("/auth")
	{
		auth.POST("/register", f.register)
		auth.POST("/login", f.login)
		auth.POST("/refresh", f.refresh)
	}

	protected := v1.Group("", f.authMiddleware())
	{
		protected.GET("/ping", f.ping)
		protected.GET("/forbidden", func(c *gin.Context) {
			c.JSON(http.StatusForbidden, dto.ErrorResponse{Error: "Forbidden", Message: "Access denied"})
		})

		protected.GET("/pets", f.listPets)
		protected.POST("/pets", f.createPet)
		protected.GET("/pets/:id", f.getPet)
		protected.PUT("/pets/:id", f.updatePet)
		protected.DELETE("/pets/:id", f.deletePet)
		protected.POST("/pets/:id/photo", f.uploadPhoto)
		protected.GET("/pets/:id/photo", f.downloadPhoto)

		protected.GET("/pet-breeds", f.listBreeds)
		protected.GET("/devices", f.listDevices)
		protected.GET("/devices/:id/info", f.deviceInfo)
	}

	f.server = httptest.NewServer(router)
	return f
}

// URL returns the base URL of the server
func (f *FakeAPI) URL() string {
	return f.server.URL
}

func (f *FakeAPI) Close() {
	f.server.Close()
}

// SeedUser registers an account directly and returns its id
func (f *FakeAPI) SeedUser(login, password string, role domain.Role) int64 {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.allocIDLocked()
	f.users[login] = &fakeUser{id: id, login: login, passwordHash: hash, role: role}
	return id
}

// SeedBreed adds a breed to the dictionary
func (f *FakeAPI) SeedBreed(breed dto.PetBreed) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.breeds = append(f.breeds, breed)
}

// SeedPet stores a pet owned by login and returns its id
func (f *FakeAPI) SeedPet(login string, pet dto.PetResponse) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	pet.ID = f.allocIDLocked()
	f.pets[pet.ID] = &fakePet{owner: login, pet: pet}
	return pet.ID
}

// SeedDevice stores device telemetry
func (f *FakeAPI) SeedDevice(info dto.DeviceInfoResponse) {
	f.mu.Lock()
	defer f.mu.Unlock()

	stored := info
	f.devices[info.ID] = &stored
}

// IssueTokens returns a fresh token pair for a seeded user
func (f *FakeAPI) IssueTokens(login string) dto.TokenPair {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.users[login]
	if !ok {
		panic("unknown fake user " + login)
	}
	pair, err := f.issueLocked(user)
	if err != nil {
		panic(err)
	}
	return pair
}

// SetFailRefresh makes the refresh endpoint answer 401
func (f *FakeAPI) SetFailRefresh(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failRefresh = fail
}

// SetRefreshDelay delays refresh responses
func (f *FakeAPI) SetRefreshDelay(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshDelay = d
}

// InvalidateAccessTokens revokes every access token issued so far
func (f *FakeAPI) InvalidateAccessTokens() {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, id := range f.issuedAccess {
		f.revoked[id] = true
	}
	f.issuedAccess = nil
}

// Calls returns how many requests hit route, e.g. "POST /api/v1/auth/refresh"
func (f *FakeAPI) Calls(route string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[route]
}

// LastAuthorization returns the Authorization header of the latest request
func (f *FakeAPI) LastAuthorization() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastAuthz
}

// LastRequestID returns the X-Request-Id header of the latest request
func (f *FakeAPI) LastRequestID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastRequestID
}

func (f *FakeAPI) allocIDLocked() int64 {
	id := f.nextID
	f.nextID++
	return id
}

func (f *FakeAPI) issueLocked(user *fakeUser) (dto.TokenPair, error) {
	userID := strconv.FormatInt(user.id, 10)
	access, err := f.jwt.GenerateAccessToken(userID)
	if err != nil {
		return dto.TokenPair{}, err
	}
	refresh, err := f.jwt.GenerateRefreshToken(userID)
	if err != nil {
		return dto.TokenPair{}, err
	}

	if claims, err := f.jwt.ValidateToken(access, TokenTypeAccess); err == nil {
		f.issuedAccess = append(f.issuedAccess, claims.ID)
	}
	return dto.TokenPair{AccessToken: access, RefreshToken: refresh, TokenType: domain.DefaultTokenType}, nil
}

func (f *FakeAPI) userByIDLocked(userID string) *fakeUser {
	for _, u := range f.users {
		if strconv.FormatInt(u.id, 10) == userID {
			return u
		}
	}
	return nil
}

func (f *FakeAPI) countCalls() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		f.mu.Lock()
		f.calls[c.Request.Method+" "+route]++
		f.lastAuthz = c.GetHeader("Authorization")
		f.lastRequestID = c.GetHeader("X-Request-Id")
		f.mu.Unlock()

		c.Next()
	}
}

func (f *FakeAPI) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
				Error:   "Unauthorized",
				Message: "Authorization header required",
			})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
				Error:   "Unauthorized",
				Message: "Invalid authorization header format",
			})
			c.Abort()
			return
		}

		claims, err := f.jwt.ValidateToken(parts[1], TokenTypeAccess)
		if err == nil {
			f.mu.Lock()
			if f.revoked[claims.ID] {
				err = errRevoked
			}
			f.mu.Unlock()
		}
		if err != nil {
			c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
				Error:   "Unauthorized",
				Message: "Invalid or expired token",
			})
			c.Abort()
			return
		}

		c.Set(userIDKey, claims.UserID)
		c.Next()
	}
}

func (f *FakeAPI) register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Login == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Validation failed",
			Message: "login and password are required",
		})
		return
	}

	f.mu.Lock()
	_, exists := f.users[req.Login]
	f.mu.Unlock()
	if exists {
		c.JSON(http.StatusConflict, dto.ErrorResponse{
			Error:   "Conflict",
			Message: "User with this login already exists",
		})
		return
	}

	id := f.SeedUser(req.Login, req.Password, domain.RoleUser)
	c.JSON(http.StatusCreated, gin.H{"id": id, "login": req.Login})
}

func (f *FakeAPI) login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Message: err.Error()})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.users[req.Login]
	if !ok || bcrypt.CompareHashAndPassword(user.passwordHash, []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Error:   "Unauthorized",
			Message: "Invalid login or password",
		})
		return
	}

	pair, err := f.issueLocked(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, dto.LoginResponse{
		ID:     user.id,
		Login:  user.login,
		Role:   string(user.role),
		Tokens: pair,
	})
}

func (f *FakeAPI) refresh(c *gin.Context) {
	var req dto.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Message: "refreshToken is required"})
		return
	}

	f.mu.Lock()
	delay, fail := f.refreshDelay, f.failRefresh
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-c.Request.Context().Done():
			return
		}
	}

	unauthorized := dto.ErrorResponse{Error: "Unauthorized", Message: "Invalid or expired refresh token"}
	if fail {
		c.JSON(http.StatusUnauthorized, unauthorized)
		return
	}

	claims, err := f.jwt.ValidateToken(req.RefreshToken, TokenTypeRefresh)
	if err != nil {
		c.JSON(http.StatusUnauthorized, unauthorized)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	user := f.userByIDLocked(claims.UserID)
	if f.revoked[claims.ID] || user == nil {
		c.JSON(http.StatusUnauthorized, unauthorized)
		return
	}
	// rotation: a refresh token is single use
	f.revoked[claims.ID] = true

	pair, err := f.issueLocked(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, dto.RefreshTokenResponse{Tokens: pair})
}

func (f *FakeAPI) ping(c *gin.Context) {
	c.JSON(http.StatusOK, dto.PingResponse{
		Service:   "pet-tracker",
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (f *FakeAPI) currentLogin(c *gin.Context) string {
	userID := c.GetString(userIDKey)

	f.mu.Lock()
	defer f.mu.Unlock()
	if u := f.userByIDLocked(userID); u != nil {
		return u.login
	}
	return ""
}

func (f *FakeAPI) ownedPet(c *gin.Context) (*fakePet, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Message: "invalid pet id"})
		return nil, false
	}

	login := f.currentLogin(c)

	f.mu.Lock()
	pet, ok := f.pets[id]
	f.mu.Unlock()
	if !ok || pet.owner != login {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "Not found", Message: "Pet not found"})
		return nil, false
	}
	return pet, true
}

func (f *FakeAPI) listPets(c *gin.Context) {
	login := f.currentLogin(c)

	f.mu.Lock()
	items := make([]dto.PetResponse, 0, len(f.pets))
	for _, p := range f.pets {
		if p.owner == login {
			items = append(items, p.pet)
		}
	}
	f.mu.Unlock()

	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	c.JSON(http.StatusOK, dto.PetsListResponse{Items: items})
}

func (f *FakeAPI) getPet(c *gin.Context) {
	pet, ok := f.ownedPet(c)
	if !ok {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	c.JSON(http.StatusOK, pet.pet)
}

func (f *FakeAPI) bindPet(c *gin.Context) (dto.SavePetRequest, bool) {
	var req dto.SavePetRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Validation failed",
			Message: "name is required",
			Details: map[string]string{"name": "must not be blank"},
		})
		return req, false
	}
	return req, true
}

func (f *FakeAPI) applyLocked(pet *dto.PetResponse, req dto.SavePetRequest) {
	pet.Name = req.Name
	pet.Gender = req.Gender
	pet.DateOfBirth = req.DateOfBirth
	pet.Breed = dto.PetBreed{ID: req.BreedID}
	for _, b := range f.breeds {
		if b.ID == req.BreedID {
			pet.Breed = b
		}
	}
	pet.AssignedDevice = nil
	if req.AssignedDeviceID != nil {
		if d, ok := f.devices[*req.AssignedDeviceID]; ok {
			pet.AssignedDevice = &dto.AssignedDevice{ID: d.ID, BusinessID: d.BusinessID, Name: d.DisplayName}
			d.AssignedPet = &dto.DeviceAssignedPet{ID: pet.ID, Name: pet.Name}
		}
	}
}

func (f *FakeAPI) createPet(c *gin.Context) {
	req, ok := f.bindPet(c)
	if !ok {
		return
	}
	login := f.currentLogin(c)

	f.mu.Lock()
	defer f.mu.Unlock()

	stored := &fakePet{owner: login}
	stored.pet.ID = f.allocIDLocked()
	f.applyLocked(&stored.pet, req)
	f.pets[stored.pet.ID] = stored

	c.JSON(http.StatusCreated, stored.pet)
}

func (f *FakeAPI) updatePet(c *gin.Context) {
	pet, ok := f.ownedPet(c)
	if !ok {
		return
	}
	req, ok := f.bindPet(c)
	if !ok {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.applyLocked(&pet.pet, req)
	c.JSON(http.StatusOK, pet.pet)
}

func (f *FakeAPI) deletePet(c *gin.Context) {
	pet, ok := f.ownedPet(c)
	if !ok {
		return
	}

	f.mu.Lock()
	delete(f.pets, pet.pet.ID)
	f.mu.Unlock()

	c.Status(http.StatusNoContent)
}

func (f *FakeAPI) uploadPhoto(c *gin.Context) {
	pet, ok := f.ownedPet(c)
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Message: "file is required"})
		return
	}
	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Message: err.Error()})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Message: err.Error()})
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	pet.photo = data
	pet.contentType = contentType
	photoURL := "/api/v1/pets/" + strconv.FormatInt(pet.pet.ID, 10) + "/photo"
	pet.pet.PhotoURL = &photoURL

	c.JSON(http.StatusOK, pet.pet)
}

func (f *FakeAPI) downloadPhoto(c *gin.Context) {
	pet, ok := f.ownedPet(c)
	if !ok {
		return
	}

	f.mu.Lock()
	data, contentType := pet.photo, pet.contentType
	f.mu.Unlock()

	if data == nil {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "Not found", Message: "Photo not found"})
		return
	}
	c.Data(http.StatusOK, contentType, data)
}

func (f *FakeAPI) listBreeds(c *gin.Context) {
	species := dto.PetSpecies(c.Query("species"))

	f.mu.Lock()
	items := make([]dto.PetBreed, 0, len(f.breeds))
	for _, b := range f.breeds {
		if species == "" || b.Species == species {
			items = append(items, b)
		}
	}
	f.mu.Unlock()

	c.JSON(http.StatusOK, dto.PetBreedListResponse{Items: items})
}

func (f *FakeAPI) listDevices(c *gin.Context) {
	var petID int64
	if raw := c.Query("petId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Message: "invalid petId"})
			return
		}
		petID = id
	}

	f.mu.Lock()
	items := make([]dto.DeviceListItem, 0, len(f.devices))
	for _, d := range f.devices {
		if petID != 0 && (d.AssignedPet == nil || d.AssignedPet.ID != petID) {
			continue
		}
		businessID, name := d.BusinessID, d.DisplayName
		items = append(items, dto.DeviceListItem{ID: d.ID, BusinessID: &businessID, Name: &name})
	}
	f.mu.Unlock()

	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	c.JSON(http.StatusOK, dto.DeviceListResponse{Items: items})
}

func (f *FakeAPI) deviceInfo(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Message: "invalid device id"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	info, ok := f.devices[id]
	if !ok {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "Not found", Message: "Device not found"})
		return
	}
	c.JSON(http.StatusOK, info)
}
