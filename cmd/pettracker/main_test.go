package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/prperemyshlev/pettracker-client/internal/domain"
	"github.com/prperemyshlev/pettracker-client/internal/dto"
	"github.com/prperemyshlev/pettracker-client/internal/testutil"
)

type CLISuite struct {
	suite.Suite
	fake *testutil.FakeAPI
	dir  string
}

func TestCLISuite(t *testing.T) {
	suite.Run(t, new(CLISuite))
}

func (s *CLISuite) SetupTest() {
	s.fake = testutil.NewFakeAPI()
	s.fake.SeedUser("alice", "Correct-horse1", domain.RoleUser)
	s.fake.SeedBreed(dto.PetBreed{ID: 7, Code: "beagle", Name: "Beagle", Species: dto.PetSpeciesDog})
	s.dir = s.T().TempDir()

	s.T().Setenv("API_BASE_URL", s.fake.URL())
	s.T().Setenv("STORE_BACKEND", "file")
	s.T().Setenv("STORE_FILE_PATH", filepath.Join(s.dir, "credentials.json"))
	s.T().Setenv("LOG_LEVEL", "error")
	s.T().Setenv(passwordEnv, "")
}

func (s *CLISuite) TearDownTest() {
	s.fake.Close()
}

type result struct {
	code   int
	stdout string
	stderr string
}

func (s *CLISuite) run(stdin string, args ...string) result {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func (s *CLISuite) login() {
	res := s.run("Correct-horse1\n", "login", "--login", "alice")
	s.Require().Equal(exitOK, res.code, res.stderr)
	s.Contains(res.stdout, "Logged in as alice (USER)")
}

func (s *CLISuite) status() dto.SessionStatusResponse {
	res := s.run("", "status")
	s.Require().Equal(exitOK, res.code, res.stderr)

	var status dto.SessionStatusResponse
	s.Require().NoError(json.Unmarshal([]byte(res.stdout), &status))
	return status
}

func (s *CLISuite) TestUsage() {
	s.Equal(exitUsage, s.run("").code)

	res := s.run("", "help")
	s.Equal(exitOK, res.code)
	s.Contains(res.stderr, "navigate")

	res = s.run("", "feed")
	s.Equal(exitUsage, res.code)
	s.Contains(res.stderr, `unknown command "feed"`)
}

func (s *CLISuite) TestLoginStatusLogout() {
	s.False(s.status().Active)

	s.login()

	status := s.status()
	s.True(status.Active)
	s.Equal("active_with_timer", status.State)
	s.Equal("alice", status.Login)

	res := s.run("", "login", "--login", "alice", "--password", "Correct-horse1")
	s.Equal(exitError, res.code)
	s.Contains(res.stderr, "Already logged in")

	res = s.run("", "logout")
	s.Equal(exitOK, res.code)
	s.Empty(res.stderr)
	s.Equal("no_session", s.status().State)
}

func (s *CLISuite) TestLogin_PasswordFromEnvironment() {
	s.T().Setenv(passwordEnv, "Correct-horse1")

	res := s.run("", "login", "-l", "alice")
	s.Equal(exitOK, res.code, res.stderr)
	s.True(s.status().Active)
}

func (s *CLISuite) TestLogin_InvalidCredentials() {
	res := s.run("wrong-password\n", "login", "--login", "alice")
	s.Equal(exitError, res.code)
	s.Contains(res.stderr, "Invalid login or password")
	s.False(s.status().Active)
}

func (s *CLISuite) TestRegister_ValidationErrorsAreListed() {
	res := s.run("", "register", "--name", "Bob", "--email", "not-an-email", "--login", "bob", "--password", "short")
	s.Equal(exitError, res.code)
	s.Contains(res.stderr, "Please fix the following:")
	s.Contains(res.stderr, "email: invalid email format")
	s.Contains(res.stderr, "password: must be at least 8 characters")
	s.Zero(s.fake.Calls("POST /api/v1/auth/register"))
}

func (s *CLISuite) TestCommandsRequireLogin() {
	res := s.run("", "pets", "list")
	s.Equal(exitError, res.code)
	s.Contains(res.stderr, "Not logged in")
	s.Zero(s.fake.Calls("GET /api/v1/pets"))
}

func (s *CLISuite) TestPets() {
	s.login()

	res := s.run("", "pets", "create", "--name", "Rex", "--breed", "7", "--gender", "male", "--dob", "2021-04-01")
	s.Require().Equal(exitOK, res.code, res.stderr)

	var pet dto.PetResponse
	s.Require().NoError(json.Unmarshal([]byte(res.stdout), &pet))
	s.Equal("Rex", pet.Name)
	s.Equal(dto.PetGenderMale, pet.Gender)
	s.Equal("Beagle", pet.Breed.Name)

	res = s.run("", "pets", "create", "--breed", "7")
	s.Equal(exitError, res.code)
	s.Contains(res.stderr, "name is required")

	photo := filepath.Join(s.dir, "rex.png")
	s.Require().NoError(os.WriteFile(photo, []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), 0o600))

	id := strconv.FormatInt(pet.ID, 10)
	res = s.run("", "pets", "upload-photo", id, photo)
	s.Require().Equal(exitOK, res.code, res.stderr)
	s.Contains(res.stdout, s.fake.URL())

	saved := filepath.Join(s.dir, "saved.png")
	res = s.run("", "pets", "download-photo", id, saved)
	s.Require().Equal(exitOK, res.code, res.stderr)
	s.Contains(res.stdout, "image/png")
	s.FileExists(saved)

	res = s.run("", "pets", "list")
	s.Require().Equal(exitOK, res.code, res.stderr)

	var list dto.PetsListResponse
	s.Require().NoError(json.Unmarshal([]byte(res.stdout), &list))
	s.Len(list.Items, 1)

	res = s.run("", "pets", "delete", id)
	s.Equal(exitOK, res.code, res.stderr)

	res = s.run("", "pets", "get", id)
	s.Equal(exitError, res.code)
	s.Contains(res.stderr, "Pet not found")

	s.Equal(exitUsage, s.run("", "pets", "walk").code)
}

func (s *CLISuite) TestNavigate() {
	lat, lng := 55.7558, 37.6173
	s.fake.SeedDevice(dto.DeviceInfoResponse{
		ID:           3,
		DisplayName:  "collar",
		LastPosition: &dto.DeviceLastPosition{Latitude: &lat, Longitude: &lng},
	})
	s.fake.SeedDevice(dto.DeviceInfoResponse{ID: 4, DisplayName: "spare"})
	s.login()

	res := s.run("", "navigate", "3", "--ios")
	s.Require().Equal(exitOK, res.code, res.stderr)
	s.Equal("maps://maps.apple.com/?daddr=55.7558,37.6173\n", res.stdout)

	res = s.run("", "navigate", "4")
	s.Equal(exitError, res.code)
	s.Contains(res.stderr, "no known position")

	s.Equal(exitUsage, s.run("", "navigate").code)
}

func (s *CLISuite) TestRejectedRefreshEndsSession() {
	s.login()
	s.fake.InvalidateAccessTokens()
	s.fake.SetFailRefresh(true)

	res := s.run("", "ping")
	s.Equal(exitError, res.code)
	s.Contains(res.stderr, "Your session has expired")
	s.Equal(1, strings.Count(res.stderr, "pettracker login"))

	s.False(s.status().Active)
}
