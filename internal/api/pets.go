package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/prperemyshlev/pettracker-client/internal/dto"
)

// PetsService manages the user's pet profiles
type PetsService struct {
	client *Client
}

// NewPetsService creates a new pets wrapper
func NewPetsService(client *Client) *PetsService {
	return &PetsService{client: client}
}

func petPath(petID int64) string {
	return fmt.Sprintf("/api/v1/pets/%d", petID)
}

func (s *PetsService) List(ctx context.Context) (*dto.PetsListResponse, error) {
	var resp dto.PetsListResponse
	if err := s.client.do(ctx, http.MethodGet, "/api/v1/pets", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *PetsService) Get(ctx context.Context, petID int64) (*dto.PetResponse, error) {
	var resp dto.PetResponse
	if err := s.client.do(ctx, http.MethodGet, petPath(petID), nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *PetsService) Create(ctx context.Context, req dto.SavePetRequest) (*dto.PetResponse, error) {
	var resp dto.PetResponse
	if err := s.client.do(ctx, http.MethodPost, "/api/v1/pets", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *PetsService) Update(ctx context.Context, petID int64, req dto.SavePetRequest) (*dto.PetResponse, error) {
	var resp dto.PetResponse
	if err := s.client.do(ctx, http.MethodPut, petPath(petID), nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *PetsService) Delete(ctx context.Context, petID int64) error {
	return s.client.do(ctx, http.MethodDelete, petPath(petID), nil, nil, nil)
}

// UploadPhoto sends the photo as the "file" part of a multipart form.
// The form is built in memory so the request can be replayed after a refresh.
func (s *PetsService) UploadPhoto(ctx context.Context, petID int64, filename string, photo io.Reader) (*dto.PetResponse, error) {
	var form bytes.Buffer
	writer := multipart.NewWriter(&form)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, photo); err != nil {
		return nil, fmt.Errorf("failed to read photo: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish form: %w", err)
	}

	path := petPath(petID) + "/photo"
	resp, err := s.client.doRaw(ctx, http.MethodPost, path, nil, writer.FormDataContentType(), bytes.NewReader(form.Bytes()))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var pet dto.PetResponse
	if err := decodeJSON(resp, &pet); err != nil {
		return nil, &Error{Kind: KindDecode, Method: http.MethodPost, Path: path, Status: resp.StatusCode, Err: err}
	}
	return &pet, nil
}

// Photo downloads the pet photo and returns it with its content type
func (s *PetsService) Photo(ctx context.Context, petID int64) ([]byte, string, error) {
	path := petPath(petID) + "/photo"
	resp, err := s.client.doRaw(ctx, http.MethodGet, path, nil, "", nil)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", &Error{Kind: KindNetwork, Method: http.MethodGet, Path: path, Status: resp.StatusCode, Err: err}
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// ResolvePhotoURL turns the photoUrl of a pet into an absolute URL.
// It returns "" when the pet has no photo.
func (s *PetsService) ResolvePhotoURL(photoURL *string) string {
	if photoURL == nil || *photoURL == "" {
		return ""
	}
	if strings.HasPrefix(*photoURL, "http://") || strings.HasPrefix(*photoURL, "https://") {
		return *photoURL
	}
	return s.client.BaseURL() + *photoURL
}
