package dto

// PetGender is the gender reported for a pet
type PetGender string

const (
	PetGenderMale    PetGender = "MALE"
	PetGenderFemale  PetGender = "FEMALE"
	PetGenderUnknown PetGender = "UNKNOWN"
)

// PetSpecies groups breeds
type PetSpecies string

const (
	PetSpeciesDog   PetSpecies = "DOG"
	PetSpeciesCat   PetSpecies = "CAT"
	PetSpeciesOther PetSpecies = "OTHER"
)

// PetBreed represents a breed dictionary entry
type PetBreed struct {
	ID      int64      `json:"id"`
	Code    string     `json:"code"`
	Name    string     `json:"name"`
	Species PetSpecies `json:"species"`
}

// PetBreedListResponse represents the breed dictionary
type PetBreedListResponse struct {
	Items []PetBreed `json:"items"`
}

// AssignedDevice is the tracker attached to a pet
type AssignedDevice struct {
	ID         int64  `json:"id"`
	BusinessID string `json:"businessId"`
	Name       string `json:"name"`
}

// PetResponse represents a pet profile
type PetResponse struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	Breed          PetBreed        `json:"breed"`
	Gender         PetGender       `json:"gender"`
	DateOfBirth    *string         `json:"dateOfBirth"`
	PhotoURL       *string         `json:"photoUrl"`
	AssignedDevice *AssignedDevice `json:"assignedDevice"`
}

// PetsListResponse represents the list of the user's pets
type PetsListResponse struct {
	Items []PetResponse `json:"items"`
}

// SavePetRequest is used for both create and update
type SavePetRequest struct {
	Name             string    `json:"name"`
	BreedID          int64     `json:"breedId"`
	Gender           PetGender `json:"gender"`
	DateOfBirth      *string   `json:"dateOfBirth,omitempty"`
	AssignedDeviceID *int64    `json:"assignedDeviceId,omitempty"`
}
