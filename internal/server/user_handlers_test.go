package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"postboard/internal/models"
	"postboard/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestGetUser(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	mockRepo := new(MockUserRepository)
	s := &Server{userService: service.NewUserService(mockRepo, new(MockHasher))}

	app.Get("/users/:id", s.GetUser)

	tests := []struct {
		name           string
		userIDParam    string
		mockSetup      func()
		expectedStatus int
	}{
		{
			name:        "Success",
			userIDParam: "1",
			mockSetup: func() {
				mockRepo.On("GetByID", mock.Anything, uint(1)).Return(&models.User{ID: 1, Email: "a@example.com"}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Invalid ID",
			userIDParam:    "abc",
			mockSetup:      func() {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "Not Found",
			userIDParam: "99",
			mockSetup: func() {
				mockRepo.On("GetByID", mock.Anything, uint(99)).Return(nil, models.NewNotFoundError("User", 99))
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			req := httptest.NewRequest(http.MethodGet, "/users/"+tt.userIDParam, nil)
			resp, err := app.Test(req)
			assert.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}
	mockRepo.AssertExpectations(t)
}

func TestCreateUser(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		mockSetup      func(*MockUserRepository, *MockHasher)
		expectedStatus int
	}{
		{
			name: "Success",
			body: `{"email":"New@Example.com","password":"secret"}`,
			mockSetup: func(repo *MockUserRepository, hasher *MockHasher) {
				hasher.On("Hash", mock.Anything, "secret").Return("hashed", nil)
				repo.On("Create", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
					return u.Email == "new@example.com" && u.Password == "hashed"
				})).Return(nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "Duplicate email",
			body: `{"email":"taken@example.com","password":"secret"}`,
			mockSetup: func(repo *MockUserRepository, hasher *MockHasher) {
				hasher.On("Hash", mock.Anything, "secret").Return("hashed", nil)
				repo.On("Create", mock.Anything, mock.Anything).
					Return(models.NewConflictError("User with email taken@example.com already exists"))
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "Invalid email",
			body:           `{"email":"nope","password":"secret"}`,
			mockSetup:      func(*MockUserRepository, *MockHasher) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Malformed body",
			body:           `{"email":`,
			mockSetup:      func(*MockUserRepository, *MockHasher) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			mockHasher := new(MockHasher)
			tt.mockSetup(mockRepo, mockHasher)

			app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
			s := &Server{userService: service.NewUserService(mockRepo, mockHasher)}
			app.Post("/users", s.CreateUser)

			req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req)
			assert.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			mockRepo.AssertExpectations(t)
			mockHasher.AssertExpectations(t)
		})
	}
}
