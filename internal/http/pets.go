package http

import (
	"fmt"
	"mime"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/carissacho3/pet-adoption-backend/internal/domain"
	"github.com/carissacho3/pet-adoption-backend/internal/service"
	"github.com/carissacho3/pet-adoption-backend/internal/storage"
)

const maxImageSize = 10 << 20

type petRequest struct {
	Name             *string  `json:"name"`
	Sex              *string  `json:"sex"`
	Breed            *string  `json:"breed"`
	Color            *string  `json:"color"`
	Weight           *float64 `json:"weight"`
	Age              *float64 `json:"age"`
	Summary          *string  `json:"summary"`
	Type             *string  `json:"typeofAnimal"`
	SpayedOrNeutered *bool    `json:"spayedOrNeutered"`
	Image            *string  `json:"image"`
	Location         *string  `json:"location"`
	PhoneNumber      *string  `json:"phoneNumber"`
}

func (r petRequest) input() domain.PetInput {
	return domain.PetInput{
		Name:             r.Name,
		Sex:              r.Sex,
		Breed:            r.Breed,
		Color:            r.Color,
		Weight:           r.Weight,
		Age:              r.Age,
		Summary:          r.Summary,
		Type:             r.Type,
		SpayedOrNeutered: r.SpayedOrNeutered,
		Image:            r.Image,
		Location:         r.Location,
		PhoneNumber:      r.PhoneNumber,
	}
}

type PetResponse struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Sex              string  `json:"sex"`
	Breed            string  `json:"breed"`
	Color            string  `json:"color"`
	Weight           float64 `json:"weight"`
	Age              float64 `json:"age"`
	Summary          string  `json:"summary"`
	Type             string  `json:"typeofAnimal"`
	SpayedOrNeutered bool    `json:"spayedOrNeutered"`
	Image            string  `json:"image,omitempty"`
	Location         string  `json:"location"`
	PhoneNumber      string  `json:"phoneNumber"`
	CreatedAt        string  `json:"createdAt,omitempty"`
	UpdatedAt        string  `json:"updatedAt,omitempty"`
}

type DeletePetResponse struct {
	Deleted  string   `json:"deleted"`
	Warnings []string `json:"warnings,omitempty"`
}

func (h *Handler) listPets(c *gin.Context) {
	pets, err := h.pets.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, petsToResponse(pets))
}

func (h *Handler) listPetsByType(c *gin.Context) {
	pets, err := h.pets.ListByType(c.Request.Context(), c.Param("type"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, petsToResponse(pets))
}

func (h *Handler) getPet(c *gin.Context) {
	pet, err := h.pets.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, petToResponse(*pet))
}

func (h *Handler) createPet(c *gin.Context) {
	var req petRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWith(c, service.KindBadRequest, "invalid request body")
		return
	}

	pet, err := h.pets.Create(c.Request.Context(), req.input())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, petToResponse(*pet))
}

func (h *Handler) updatePet(c *gin.Context) {
	var req petRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWith(c, service.KindBadRequest, "invalid request body")
		return
	}

	pet, err := h.pets.Update(c.Request.Context(), c.Param("id"), domain.PetPatch(req.input()))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, petToResponse(*pet))
}

func (h *Handler) deletePet(c *gin.Context) {
	result, err := h.pets.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := DeletePetResponse{Deleted: result.Pet.ID, Warnings: result.Warnings}
	if h.images != nil && h.images.Owns(result.Pet.Image) {
		if err := h.images.Delete(c.Request.Context(), result.Pet.Image); err != nil {
			resp.Warnings = append(resp.Warnings, fmt.Sprintf("remove image: %v", err))
		}
	}
	for _, w := range resp.Warnings {
		h.logger.WithFields(requestFields(c)).WithField("pet", result.Pet.ID).Warn(w)
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) uploadPetImage(c *gin.Context) {
	if h.images == nil {
		abortWith(c, service.KindInternal, "image storage not configured")
		return
	}

	pet, err := h.pets.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImageSize)
	header, err := c.FormFile("image")
	if err != nil {
		abortWith(c, service.KindBadRequest, "image file is required (max 10 MiB)")
		return
	}
	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		abortWith(c, service.KindBadRequest, "only image uploads are allowed")
		return
	}

	file, err := header.Open()
	if err != nil {
		h.fail(c, err)
		return
	}
	defer file.Close()

	ref, err := h.images.Put(c.Request.Context(), file, storage.PutOptions{
		Key:         h.imageKey(pet.ID, header.Filename, contentType),
		ContentType: contentType,
		Size:        header.Size,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	previous := pet.Image
	updated, err := h.pets.AttachImage(c.Request.Context(), pet.ID, ref)
	if err != nil {
		h.fail(c, err)
		return
	}
	if previous != "" && previous != ref && h.images.Owns(previous) {
		if err := h.images.Delete(c.Request.Context(), previous); err != nil {
			h.logger.WithError(err).WithField("pet", pet.ID).Warn("remove previous image")
		}
	}

	c.JSON(http.StatusOK, petToResponse(*updated))
}

func (h *Handler) getPetImage(c *gin.Context) {
	pet, err := h.pets.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if pet.Image == "" {
		abortWith(c, service.KindNotFound, "pet has no image")
		return
	}

	target := pet.Image
	if h.images != nil && h.images.Owns(pet.Image) {
		target, err = h.images.URL(c.Request.Context(), pet.Image, h.imageExpiry)
		if err != nil {
			h.fail(c, err)
			return
		}
	}
	c.Redirect(http.StatusFound, target)
}

func (h *Handler) imageKey(petID, filename, contentType string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
			ext = exts[0]
		}
	}
	return path.Join(h.imagePrefix, petID, uuid.NewString()+ext)
}

func petsToResponse(pets []domain.Pet) []PetResponse {
	resp := make([]PetResponse, len(pets))
	for i := range pets {
		resp[i] = petToResponse(pets[i])
	}
	return resp
}

func petToResponse(pet domain.Pet) PetResponse {
	return PetResponse{
		ID:               pet.ID,
		Name:             pet.Name,
		Sex:              string(pet.Sex),
		Breed:            pet.Breed,
		Color:            pet.Color,
		Weight:           pet.Weight,
		Age:              pet.Age,
		Summary:          pet.Summary,
		Type:             string(pet.Type),
		SpayedOrNeutered: pet.SpayedOrNeutered,
		Image:            pet.Image,
		Location:         pet.Location,
		PhoneNumber:      pet.PhoneNumber,
		CreatedAt:        formatTime(pet.CreatedAt),
		UpdatedAt:        formatTime(pet.UpdatedAt),
	}
}
