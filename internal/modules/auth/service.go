package auth

import (
	"errors"
	"time"

	"github.com/nagisa-works/inkstone/internal/models"
	"github.com/nagisa-works/inkstone/internal/pkg/jwt"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TokenTTL is the session cookie lifetime.
const TokenTTL = 24 * time.Hour

var (
	// ErrBadCredentials covers both unknown user and wrong password, so
	// the response does not reveal which.
	ErrBadCredentials = errors.New("invalid username or password")
	// ErrOwnerExists rejects registration once the owner account is set.
	ErrOwnerExists = errors.New("owner account already registered")
)

type Service struct {
	db *gorm.DB
	// failDelay slows down credential guessing
	failDelay time.Duration
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db, failDelay: 3 * time.Second}
}

// SetFailDelay overrides the bad-credential delay; tests use zero.
func (s *Service) SetFailDelay(d time.Duration) { s.failDelay = d }

// Login verifies credentials and returns the user plus a signed token.
func (s *Service) Login(username, password, ip string) (*models.UserModel, string, error) {
	var u models.UserModel
	if err := s.db.Where("username = ?", username).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			time.Sleep(s.failDelay)
			return nil, "", ErrBadCredentials
		}
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		time.Sleep(s.failDelay)
		return nil, "", ErrBadCredentials
	}

	now := time.Now()
	u.LastLoginTime = &now
	u.LastLoginIP = ip
	if err := s.db.Model(&u).
		Select("last_login_time", "last_login_ip").
		Updates(&u).Error; err != nil {
		return nil, "", err
	}

	token, err := jwt.Sign(u.ID, TokenTTL)
	if err != nil {
		return nil, "", err
	}
	return &u, token, nil
}

// Register creates the owner account. Refused once one exists.
func (s *Service) Register(username, password, name string) (*models.UserModel, error) {
	var count int64
	if err := s.db.Model(&models.UserModel{}).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrOwnerExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	if name == "" {
		name = username
	}
	u := models.UserModel{Username: username, Password: string(hash), Name: name}
	return &u, s.db.Create(&u).Error
}

// Current returns the user for an authenticated session, or (nil, nil).
func (s *Service) Current(userID string) (*models.UserModel, error) {
	if userID == "" {
		return nil, nil
	}
	var u models.UserModel
	if err := s.db.First(&u, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}
