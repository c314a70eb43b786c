package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/carissacho3/pet-adoption-backend/internal/auth"
	"github.com/carissacho3/pet-adoption-backend/internal/domain"
	"github.com/carissacho3/pet-adoption-backend/internal/repository"
)

// UserService describes account and bookmark operations.
type UserService interface {
	Register(ctx context.Context, reg domain.Registration) (*domain.User, string, error)
	Authenticate(ctx context.Context, email, password string) (*domain.User, string, error)
	// Resolve maps a verified token subject to its user for the auth guard.
	Resolve(ctx context.Context, id string) (*domain.User, error)
	Profile(ctx context.Context, id string) (*domain.User, error)
	UpdateProfile(ctx context.Context, id string, patch domain.ProfilePatch) (*domain.User, string, error)
	Delete(ctx context.Context, id string) error
	AddBookmark(ctx context.Context, userID, petID string) ([]string, error)
	RemoveBookmark(ctx context.Context, userID, petID string) ([]string, error)
	Bookmarks(ctx context.Context, userID string) ([]domain.Pet, error)
	EnsureAdmin(ctx context.Context, reg domain.Registration) (*domain.User, error)
}

type userService struct {
	users          repository.UserRepository
	pets           repository.PetRepository
	tokens         *auth.TokenService
	hasher         *auth.PasswordHasher
	defaultPicture string
	validate       *validator.Validate

	dummyOnce sync.Once
	dummyHash string
}

func NewUserService(
	users repository.UserRepository,
	pets repository.PetRepository,
	tokens *auth.TokenService,
	hasher *auth.PasswordHasher,
	defaultPicture string,
) UserService {
	return &userService{
		users:          users,
		pets:           pets,
		tokens:         tokens,
		hasher:         hasher,
		defaultPicture: strings.TrimSpace(defaultPicture),
		validate:       newValidator(),
	}
}

func (s *userService) Register(ctx context.Context, reg domain.Registration) (*domain.User, string, error) {
	user, err := s.create(ctx, reg, domain.RoleUser)
	if err != nil {
		return nil, "", err
	}
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", internalError("issue token", err)
	}
	return sanitizeUser(user), token, nil
}

func (s *userService) create(ctx context.Context, reg domain.Registration, role domain.Role) (*domain.User, error) {
	reg = normalizeRegistration(reg)

	if missing := missingRegistrationFields(reg); len(missing) > 0 {
		return nil, newError(KindBadRequest, "missing required fields: "+strings.Join(missing, ", "))
	}
	if err := s.validate.Struct(registrationRules{
		Username:  reg.Username,
		Email:     reg.Email,
		Password:  reg.Password,
		FirstName: reg.FirstName,
		LastName:  reg.LastName,
	}); err != nil {
		return nil, validationError(err)
	}

	if err := s.ensureAvailable(ctx, "", reg.Username, reg.Email); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(reg.Password)
	if err != nil {
		return nil, internalError("hash password", err)
	}

	user := &domain.User{
		Username:       reg.Username,
		Email:          reg.Email,
		PasswordHash:   hash,
		FirstName:      reg.FirstName,
		LastName:       reg.LastName,
		ProfilePicture: s.defaultPicture,
		Role:           role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserAlreadyExists
		}
		return nil, internalError("create user", err)
	}
	return user, nil
}

// ensureAvailable fails with ErrUserAlreadyExists when username or email belongs
// to a user other than selfID. The unique indexes still guard concurrent writers.
func (s *userService) ensureAvailable(ctx context.Context, selfID, username, email string) error {
	lookups := []func(context.Context, string) (*domain.User, error){}
	values := []string{}
	if username != "" {
		lookups = append(lookups, s.users.GetByUsername)
		values = append(values, username)
	}
	if email != "" {
		lookups = append(lookups, s.users.GetByEmail)
		values = append(values, email)
	}

	for i, lookup := range lookups {
		existing, err := lookup(ctx, values[i])
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return internalError("check user uniqueness", err)
		}
		if existing.ID != selfID {
			return ErrUserAlreadyExists
		}
	}
	return nil
}

func (s *userService) Authenticate(ctx context.Context, email, password string) (*domain.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, "", ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// spend the same bcrypt work as a real comparison
			s.hasher.Matches(s.placeholderHash(), password)
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", internalError("load user", err)
	}

	if !s.hasher.Matches(user.PasswordHash, password) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", internalError("issue token", err)
	}
	return sanitizeUser(user), token, nil
}

func (s *userService) placeholderHash() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash("placeholder-password")
	})
	return s.dummyHash
}

func (s *userService) Resolve(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrInvalidID) {
			return nil, ErrUnknownUser
		}
		return nil, internalError("load user", err)
	}
	return sanitizeUser(user), nil
}

func (s *userService) Profile(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError("user", err)
	}
	return sanitizeUser(user), nil
}

func (s *userService) UpdateProfile(ctx context.Context, id string, patch domain.ProfilePatch) (*domain.User, string, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, "", lookupError("user", err)
	}

	rules := profileRules{}
	var username, email string
	if patch.Username != nil {
		username = strings.TrimSpace(*patch.Username)
		rules.Username = &username
	}
	if patch.Email != nil {
		email = strings.ToLower(strings.TrimSpace(*patch.Email))
		rules.Email = &email
	}
	if patch.Password != nil {
		rules.Password = patch.Password
	}
	if patch.FirstName != nil {
		v := strings.TrimSpace(*patch.FirstName)
		rules.FirstName = &v
	}
	if patch.LastName != nil {
		v := strings.TrimSpace(*patch.LastName)
		rules.LastName = &v
	}
	if patch.ProfilePicture != nil {
		v := strings.TrimSpace(*patch.ProfilePicture)
		rules.ProfilePicture = &v
	}
	if err := s.validate.Struct(rules); err != nil {
		return nil, "", validationError(err)
	}

	checkUsername, checkEmail := "", ""
	if rules.Username != nil && *rules.Username != user.Username {
		checkUsername = *rules.Username
	}
	if rules.Email != nil && *rules.Email != user.Email {
		checkEmail = *rules.Email
	}
	if err := s.ensureAvailable(ctx, user.ID, checkUsername, checkEmail); err != nil {
		return nil, "", err
	}

	if rules.Username != nil {
		user.Username = *rules.Username
	}
	if rules.Email != nil {
		user.Email = *rules.Email
	}
	if rules.FirstName != nil {
		user.FirstName = *rules.FirstName
	}
	if rules.LastName != nil {
		user.LastName = *rules.LastName
	}
	if rules.ProfilePicture != nil {
		user.ProfilePicture = *rules.ProfilePicture
	}
	if rules.Password != nil {
		hash, err := s.hasher.Hash(*rules.Password)
		if err != nil {
			return nil, "", internalError("hash password", err)
		}
		user.PasswordHash = hash
	}

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, "", ErrUserAlreadyExists
		}
		return nil, "", lookupError("user", err)
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", internalError("issue token", err)
	}
	return sanitizeUser(user), token, nil
}

func (s *userService) Delete(ctx context.Context, id string) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return lookupError("user", err)
	}
	return nil
}

func (s *userService) AddBookmark(ctx context.Context, userID, petID string) ([]string, error) {
	if _, err := s.pets.Get(ctx, petID); err != nil {
		return nil, lookupError("pet", err)
	}

	bookmarks, err := s.users.AddBookmark(ctx, userID, petID)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyBookmarked
		}
		return nil, lookupError("user", err)
	}
	return bookmarks, nil
}

func (s *userService) RemoveBookmark(ctx context.Context, userID, petID string) ([]string, error) {
	bookmarks, err := s.users.RemoveBookmark(ctx, userID, petID)
	if err != nil {
		return nil, lookupError("user", err)
	}
	return bookmarks, nil
}

// Bookmarks resolves the caller's list to pet records in bookmark order.
// Ids whose pet has since been deleted are left out.
func (s *userService) Bookmarks(ctx context.Context, userID string) ([]domain.Pet, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, lookupError("user", err)
	}

	found, err := s.pets.GetMany(ctx, user.Bookmarks)
	if err != nil {
		return nil, internalError("load bookmarked pets", err)
	}
	byID := make(map[string]domain.Pet, len(found))
	for _, pet := range found {
		byID[pet.ID] = pet
	}

	pets := make([]domain.Pet, 0, len(user.Bookmarks))
	for _, id := range user.Bookmarks {
		if pet, ok := byID[id]; ok {
			pets = append(pets, pet)
		}
	}
	return pets, nil
}

func (s *userService) EnsureAdmin(ctx context.Context, reg domain.Registration) (*domain.User, error) {
	reg = normalizeRegistration(reg)

	existing, err := s.users.GetByEmail(ctx, reg.Email)
	switch {
	case err == nil:
		if existing.Role != domain.RoleAdmin {
			existing.Role = domain.RoleAdmin
			if err := s.users.Update(ctx, existing); err != nil {
				return nil, internalError("promote admin", err)
			}
		}
		return sanitizeUser(existing), nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, internalError("load admin", err)
	}

	user, err := s.create(ctx, reg, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}
	return sanitizeUser(user), nil
}

func normalizeRegistration(reg domain.Registration) domain.Registration {
	return domain.Registration{
		Username:  strings.TrimSpace(reg.Username),
		Email:     strings.ToLower(strings.TrimSpace(reg.Email)),
		Password:  reg.Password,
		FirstName: strings.TrimSpace(reg.FirstName),
		LastName:  strings.TrimSpace(reg.LastName),
	}
}

func missingRegistrationFields(reg domain.Registration) []string {
	var missing []string
	if reg.Username == "" {
		missing = append(missing, "username")
	}
	if reg.Email == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(reg.Password) == "" {
		missing = append(missing, "password")
	}
	if reg.FirstName == "" {
		missing = append(missing, "firstName")
	}
	if reg.LastName == "" {
		missing = append(missing, "lastName")
	}
	return missing
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	clean := *user
	clean.PasswordHash = ""
	clean.Bookmarks = append([]string{}, user.Bookmarks...)
	return &clean
}
