package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/prperemyshlev/pettracker-client/internal/dto"
)

// PetBreedsService reads the breed dictionary
type PetBreedsService struct {
	client *Client
}

func NewPetBreedsService(client *Client) *PetBreedsService {
	return &PetBreedsService{client: client}
}

// List returns the breeds, optionally restricted to one species
func (s *PetBreedsService) List(ctx context.Context, species dto.PetSpecies) (*dto.PetBreedListResponse, error) {
	var query url.Values
	if species != "" {
		query = url.Values{"species": {string(species)}}
	}

	var resp dto.PetBreedListResponse
	if err := s.client.do(ctx, http.MethodGet, "/api/v1/pet-breeds", query, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DevicesService reads trackers and their telemetry
type DevicesService struct {
	client *Client
}

func NewDevicesService(client *Client) *DevicesService {
	return &DevicesService{client: client}
}

// List returns the user's devices; a non-zero petID filters by pet
func (s *DevicesService) List(ctx context.Context, petID int64) (*dto.DeviceListResponse, error) {
	var query url.Values
	if petID != 0 {
		query = url.Values{"petId": {strconv.FormatInt(petID, 10)}}
	}

	var resp dto.DeviceListResponse
	if err := s.client.do(ctx, http.MethodGet, "/api/v1/devices", query, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Info returns the latest telemetry of a device
func (s *DevicesService) Info(ctx context.Context, deviceID int64) (*dto.DeviceInfoResponse, error) {
	var resp dto.DeviceInfoResponse
	path := fmt.Sprintf("/api/v1/devices/%d/info", deviceID)
	if err := s.client.do(ctx, http.MethodGet, path, nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PingService checks API liveness
type PingService struct {
	client *Client
}

func NewPingService(client *Client) *PingService {
	return &PingService{client: client}
}

func (s *PingService) Ping(ctx context.Context) (*dto.PingResponse, error) {
	var resp dto.PingResponse
	if err := s.client.do(ctx, http.MethodGet, "/api/v1/ping", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func decodeJSON(resp *http.Response, out interface{}) error {
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	return nil
}
