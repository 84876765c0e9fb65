package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/prperemyshlev/pettracker-client/internal/api"
	"github.com/prperemyshlev/pettracker-client/internal/app"
	"github.com/prperemyshlev/pettracker-client/internal/authevents"
	"github.com/prperemyshlev/pettracker-client/internal/dto"
	"github.com/prperemyshlev/pettracker-client/internal/tracker"
	"github.com/prperemyshlev/pettracker-client/internal/utils"
)

const passwordEnv = "PETTRACKER_PASSWORD"

var errUsage = errors.New("usage")

type cli struct {
	app    *app.App
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	reported bool
}

type command struct {
	name    string
	args    string
	summary string
	run     func(ctx context.Context, c *cli, args []string) error
}

var commands []command

func init() {
	commands = []command{
		{name: "login", args: "--login LOGIN [--password PASSWORD]", summary: "sign in and store the session", run: runLogin},
		{name: "register", args: "--name NAME --email EMAIL --login LOGIN [--password PASSWORD]", summary: "create an account and sign in", run: runRegister},
		{name: "logout", summary: "drop the stored session", run: runLogout},
		{name: "status", summary: "show the session state", run: runStatus},
		{name: "ping", summary: "check that the API accepts the session", run: runPing},
		{name: "pets", args: "list|get|create|update|delete|upload-photo|download-photo ...", summary: "manage pets", run: runPets},
		{name: "breeds", args: "[--species DOG|CAT|OTHER]", summary: "list pet breeds", run: runBreeds},
		{name: "devices", args: "[--pet ID]", summary: "list trackers", run: runDevices},
		{name: "device", args: "ID", summary: "show tracker telemetry", run: runDevice},
		{name: "navigate", args: "DEVICE_ID [--ios]", summary: "print a directions link to the device", run: runNavigate},
		{name: "watch", summary: "track positions and serve the status API", run: runWatch},
	}
}

func lookupCommand(name string) (command, bool) {
	for _, cmd := range commands {
		if cmd.name == name {
			return cmd, true
		}
	}
	return command{}, false
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: pettracker <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-9s %s\n", cmd.name, cmd.summary)
		if cmd.args != "" {
			fmt.Fprintf(w, "  %-9s   %s\n", "", cmd.args)
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Configuration is read from the environment (API_BASE_URL, STORE_BACKEND, ...).")
}

func (c *cli) flags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(c.errOut)
	return fs
}

func (c *cli) parse(fs *pflag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return errUsage
		}
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	return nil
}

func (c *cli) printJSON(v interface{}) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// reportAuthEvent prints and acknowledges an auth event raised by the command
func (c *cli) reportAuthEvent() {
	code, ok := c.app.Events.Last()
	if !ok {
		return
	}
	c.app.Events.Clear()
	c.reported = true

	switch code {
	case authevents.Forbidden:
		fmt.Fprintln(c.errOut, "Access denied. You have been signed out; run `pettracker login`.")
	default:
		fmt.Fprintln(c.errOut, "Your session has expired. Run `pettracker login` to sign in again.")
	}
}

func (c *cli) printError(err error) {
	var validation *utils.ValidationError
	switch {
	case errors.Is(err, app.ErrLoginRequired):
		fmt.Fprintln(c.errOut, "Not logged in. Run `pettracker login` first.")
	case errors.Is(err, app.ErrAlreadyLoggedIn):
		fmt.Fprintln(c.errOut, "Already logged in. Run `pettracker logout` first.")
	case api.IsSessionEnded(err), errors.Is(err, tracker.ErrSessionEnded):
		if !c.reported {
			fmt.Fprintln(c.errOut, "Your session has ended. Run `pettracker login` to sign in again.")
		}
	case errors.As(err, &validation):
		fields := make([]string, 0, len(validation.Fields))
		for field := range validation.Fields {
			fields = append(fields, field)
		}
		sort.Strings(fields)

		fmt.Fprintln(c.errOut, "Please fix the following:")
		for _, field := range fields {
			fmt.Fprintf(c.errOut, "  %s: %s\n", field, validation.Fields[field])
		}
	default:
		fmt.Fprintln(c.errOut, api.FeedbackMessage(err, api.FeedbackOptions{
			Fallback: err.Error(),
			StatusMessages: map[int]string{
				http.StatusUnauthorized: "Invalid login or password.",
				http.StatusNotFound:     "Not found.",
				http.StatusConflict:     "Already exists.",
			},
		}))
	}
}

func (c *cli) password(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if v := os.Getenv(passwordEnv); v != "" {
		return v, nil
	}

	fmt.Fprint(c.errOut, "Password: ")
	scanner := bufio.NewScanner(c.in)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return "", errors.New("no password given")
	}
	return strings.TrimRight(scanner.Text(), "\r\n"), nil
}

func parseID(raw, what string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", what, raw)
	}
	return id, nil
}

func runLogin(ctx context.Context, c *cli, args []string) error {
	fs := c.flags("login")
	login := fs.StringP("login", "l", "", "account login")
	password := fs.StringP("password", "p", "", "password (or "+passwordEnv+", or stdin)")
	if err := c.parse(fs, args); err != nil {
		return err
	}

	if err := c.app.RequireAnonymous(ctx); err != nil {
		return err
	}

	pw, err := c.password(*password)
	if err != nil {
		return err
	}

	identity, err := c.app.Auth.Login(ctx, dto.LoginRequest{Login: *login, Password: pw})
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "Logged in as %s (%s)\n", identity.Login, identity.Role)
	return nil
}

func runRegister(ctx context.Context, c *cli, args []string) error {
	fs := c.flags("register")
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "email address")
	login := fs.StringP("login", "l", "", "account login")
	password := fs.StringP("password", "p", "", "password (or "+passwordEnv+", or stdin)")
	confirm := fs.String("confirm-password", "", "password confirmation, defaults to the password")
	if err := c.parse(fs, args); err != nil {
		return err
	}

	if err := c.app.RequireAnonymous(ctx); err != nil {
		return err
	}

	pw, err := c.password(*password)
	if err != nil {
		return err
	}
	if *confirm == "" {
		*confirm = pw
	}

	identity, err := c.app.Auth.RegisterAndLogin(ctx, dto.RegisterRequest{
		Name:            *name,
		Email:           *email,
		Login:           *login,
		ConfirmLogin:    *login,
		Password:        pw,
		ConfirmPassword: *confirm,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "Registered and logged in as %s\n", identity.Login)
	return nil
}

func runLogout(ctx context.Context, c *cli, _ []string) error {
	c.app.Auth.Logout(ctx)
	fmt.Fprintln(c.out, "Logged out")
	return nil
}

func runStatus(ctx context.Context, c *cli, _ []string) error {
	state := c.app.Session.State(ctx)
	resp := dto.SessionStatusResponse{Active: state.Active(), State: state.String()}
	if state.Active() {
		identity := c.app.Session.Identity(ctx)
		resp.UserID = identity.UserID
		resp.Login = identity.Login
		resp.Role = string(identity.Role)
	}
	return c.printJSON(resp)
}

func runPing(ctx context.Context, c *cli, _ []string) error {
	if err := c.app.RequireSession(ctx); err != nil {
		return err
	}

	resp, err := c.app.Ping.Ping(ctx)
	if err != nil {
		return err
	}
	return c.printJSON(resp)
}

func runPets(ctx context.Context, c *cli, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(c.errOut, "Usage: pettracker pets list|get|create|update|delete|upload-photo|download-photo")
		return errUsage
	}
	if err := c.app.RequireSession(ctx); err != nil {
		return err
	}

	sub, args := args[0], args[1:]
	switch sub {
	case "list":
		list, err := c.app.Pets.List(ctx)
		if err != nil {
			return err
		}
		return c.printJSON(list)

	case "get":
		id, err := c.petID(args)
		if err != nil {
			return err
		}
		pet, err := c.app.Pets.Get(ctx, id)
		if err != nil {
			return err
		}
		return c.printJSON(pet)

	case "create":
		req, _, err := c.petForm("create", args)
		if err != nil {
			return err
		}
		pet, err := c.app.Pets.Create(ctx, req)
		if err != nil {
			return err
		}
		return c.printJSON(pet)

	case "update":
		req, rest, err := c.petForm("update", args)
		if err != nil {
			return err
		}
		id, err := c.petID(rest)
		if err != nil {
			return err
		}
		pet, err := c.app.Pets.Update(ctx, id, req)
		if err != nil {
			return err
		}
		return c.printJSON(pet)

	case "delete":
		id, err := c.petID(args)
		if err != nil {
			return err
		}
		if err := c.app.Pets.Delete(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Pet %d deleted\n", id)
		return nil

	case "upload-photo":
		if len(args) != 2 {
			fmt.Fprintln(c.errOut, "Usage: pettracker pets upload-photo PET_ID FILE")
			return errUsage
		}
		id, err := parseID(args[0], "pet")
		if err != nil {
			return err
		}
		f, err := os.Open(args[1])
		if err != nil {
			return fmt.Errorf("failed to open photo: %w", err)
		}
		defer f.Close()

		pet, err := c.app.Pets.UploadPhoto(ctx, id, filepath.Base(args[1]), f)
		if err != nil {
			return err
		}
		fmt.Fprintln(c.out, c.app.Pets.ResolvePhotoURL(pet.PhotoURL))
		return nil

	case "download-photo":
		if len(args) != 2 {
			fmt.Fprintln(c.errOut, "Usage: pettracker pets download-photo PET_ID FILE")
			return errUsage
		}
		id, err := parseID(args[0], "pet")
		if err != nil {
			return err
		}
		data, contentType, err := c.app.Pets.Photo(ctx, id)
		if err != nil {
			return err
		}
		if err := os.WriteFile(args[1], data, 0o644); err != nil {
			return fmt.Errorf("failed to save photo: %w", err)
		}
		fmt.Fprintf(c.out, "Saved %d bytes (%s) to %s\n", len(data), contentType, args[1])
		return nil

	default:
		fmt.Fprintf(c.errOut, "unknown pets command %q\n", sub)
		return errUsage
	}
}

func (c *cli) petID(args []string) (int64, error) {
	if len(args) != 1 {
		fmt.Fprintln(c.errOut, "expected exactly one PET_ID")
		return 0, errUsage
	}
	return parseID(args[0], "pet")
}

// petForm parses the create/update flags and returns the remaining arguments
func (c *cli) petForm(name string, args []string) (dto.SavePetRequest, []string, error) {
	fs := c.flags("pets " + name)
	petName := fs.String("name", "", "pet name")
	breed := fs.Int64("breed", 0, "breed id")
	gender := fs.String("gender", string(dto.PetGenderUnknown), "MALE, FEMALE or UNKNOWN")
	dob := fs.String("dob", "", "date of birth, YYYY-MM-DD")
	device := fs.Int64("device", 0, "assigned device id")
	if err := c.parse(fs, args); err != nil {
		return dto.SavePetRequest{}, nil, err
	}

	req := dto.SavePetRequest{
		Name:    *petName,
		BreedID: *breed,
		Gender:  dto.PetGender(strings.ToUpper(*gender)),
	}
	if *dob != "" {
		req.DateOfBirth = dob
	}
	if *device != 0 {
		req.AssignedDeviceID = device
	}
	return req, fs.Args(), nil
}

func runBreeds(ctx context.Context, c *cli, args []string) error {
	fs := c.flags("breeds")
	species := fs.String("species", "", "DOG, CAT or OTHER")
	if err := c.parse(fs, args); err != nil {
		return err
	}
	if err := c.app.RequireSession(ctx); err != nil {
		return err
	}

	list, err := c.app.Breeds.List(ctx, dto.PetSpecies(strings.ToUpper(*species)))
	if err != nil {
		return err
	}
	return c.printJSON(list)
}

func runDevices(ctx context.Context, c *cli, args []string) error {
	fs := c.flags("devices")
	pet := fs.Int64("pet", 0, "only devices of this pet")
	if err := c.parse(fs, args); err != nil {
		return err
	}
	if err := c.app.RequireSession(ctx); err != nil {
		return err
	}

	list, err := c.app.Devices.List(ctx, *pet)
	if err != nil {
		return err
	}
	return c.printJSON(list)
}

func runDevice(ctx context.Context, c *cli, args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(c.errOut, "Usage: pettracker device ID")
		return errUsage
	}
	id, err := parseID(args[0], "device")
	if err != nil {
		return err
	}
	if err := c.app.RequireSession(ctx); err != nil {
		return err
	}

	info, err := c.app.Devices.Info(ctx, id)
	if err != nil {
		return err
	}
	return c.printJSON(info)
}

func runNavigate(ctx context.Context, c *cli, args []string) error {
	fs := c.flags("navigate")
	ios := fs.Bool("ios", false, "Apple Maps link instead of Google Maps")
	if err := c.parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(c.errOut, "Usage: pettracker navigate DEVICE_ID [--ios]")
		return errUsage
	}
	id, err := parseID(fs.Arg(0), "device")
	if err != nil {
		return err
	}
	if err := c.app.RequireSession(ctx); err != nil {
		return err
	}

	info, err := c.app.Devices.Info(ctx, id)
	if err != nil {
		return err
	}
	if !info.LastPosition.HasFix() {
		return fmt.Errorf("device %d has no known position yet", id)
	}

	fmt.Fprintln(c.out, api.NavigationURL(*info.LastPosition.Latitude, *info.LastPosition.Longitude, *ios))
	return nil
}

func runWatch(ctx context.Context, c *cli, _ []string) error {
	err := c.app.Watch(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
