package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"quill/auth"
	"quill/database"
	"quill/models"
	"quill/storage"
)

// Avatar uploads above this size are rejected.
const maxAvatarSize = 500000

type RegisterRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type EditUserRequest struct {
	Name               string `json:"name"`
	Email              string `json:"email"`
	CurrentPassword    string `json:"currentPassword"`
	NewPassword        string `json:"newPassword"`
	NewConfirmPassword string `json:"newConfirmPassword"`
}

// Register creates a new account.
// POST /api/users/register
func Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || email == "" || req.Password == "" || req.Password2 == "" {
		abortError(c, http.StatusUnprocessableEntity, "All fields are required")
		return
	}
	if len(req.Password) < 6 {
		abortError(c, http.StatusUnprocessableEntity, "Password should be at least 6 characters")
		return
	}
	if req.Password != req.Password2 {
		abortError(c, http.StatusUnprocessableEntity, "Passwords do not match")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var existing models.User
	err := database.Users.FindOne(ctx, bson.M{"email": email}).Decode(&existing)
	if err == nil {
		abortError(c, http.StatusConflict, "Email already exists")
		return
	}
	if err != mongo.ErrNoDocuments {
		log.Printf("Register lookup error: %v", err)
		abortError(c, http.StatusInternalServerError, "User registration failed")
		return
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		abortError(c, http.StatusInternalServerError, "User registration failed")
		return
	}

	now := time.Now().Unix()
	user := models.User{
		ID:        primitive.NewObjectID(),
		Name:      req.Name,
		Email:     email,
		Password:  hashed,
		Posts:     0,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := database.Users.InsertOne(ctx, user); err != nil {
		// Unique email index catches concurrent registrations the
		// earlier lookup missed.
		if mongo.IsDuplicateKeyError(err) {
			abortError(c, http.StatusConflict, "Email already exists")
			return
		}
		log.Printf("Register insert error: %v", err)
		abortError(c, http.StatusInternalServerError, "User registration failed")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "New user " + user.Email + " registered",
		"id":      user.ID.Hex(),
	})
}

// Login verifies credentials and issues a session token. Unknown email and
// wrong password surface the same response.
// POST /api/users/login
func Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		abortError(c, http.StatusUnprocessableEntity, "All fields are required")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	err := database.Users.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		abortError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err != nil {
		log.Printf("Login lookup error: %v", err)
		abortError(c, http.StatusInternalServerError, "Login failed")
		return
	}

	if !auth.CheckPassword(user.Password, req.Password) {
		abortError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := tokens.Issue(auth.Identity{ID: user.ID, Name: user.Name})
	if err != nil {
		log.Printf("Login token error: %v", err)
		abortError(c, http.StatusInternalServerError, "Login failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"id":    user.ID.Hex(),
		"name":  user.Name,
	})
}

// GetUser returns one public profile.
// GET /api/users/:id
func GetUser(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortError(c, http.StatusNotFound, "User not found")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	err = database.Users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		abortError(c, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		log.Printf("GetUser error: %v", err)
		abortError(c, http.StatusInternalServerError, "Failed to fetch user")
		return
	}

	c.JSON(http.StatusOK, user)
}

// GetAuthors returns every public profile.
// GET /api/users/authors
func GetAuthors(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := database.Users.Find(ctx, bson.M{})
	if err != nil {
		log.Printf("GetAuthors error: %v", err)
		abortError(c, http.StatusInternalServerError, "Failed to fetch authors")
		return
	}
	defer cursor.Close(ctx)

	authors := []models.User{}
	if err := cursor.All(ctx, &authors); err != nil {
		log.Printf("GetAuthors decode error: %v", err)
		abortError(c, http.StatusInternalServerError, "Failed to fetch authors")
		return
	}

	c.JSON(http.StatusOK, authors)
}

// ChangeAvatar replaces the acting user's avatar. The previous blob is
// removed best-effort before the new one is stored.
// POST /api/users/change-avatar
func ChangeAvatar(c *gin.Context) {
	ident, ok := identity(c)
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("avatar")
	if err != nil {
		abortError(c, http.StatusUnprocessableEntity, "Please choose an image")
		return
	}
	defer file.Close()

	if header.Size > maxAvatarSize {
		abortError(c, http.StatusUnprocessableEntity, "Profile picture should not exceed 500kb")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var user models.User
	err = database.Users.FindOne(ctx, bson.M{"_id": ident.ID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		abortError(c, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		log.Printf("ChangeAvatar lookup error: %v", err)
		abortError(c, http.StatusInternalServerError, "Failed to change avatar")
		return
	}

	if user.Avatar != "" {
		if err := uploads.Remove(ctx, user.Avatar); err != nil {
			log.Printf("ChangeAvatar: could not remove old avatar %s: %v", user.Avatar, err)
		}
	}

	newName := storage.UploadName(header.Filename)
	if err := uploads.Save(ctx, newName, file, header.Size, header.Header.Get("Content-Type")); err != nil {
		log.Printf("ChangeAvatar save error: %v", err)
		abortError(c, http.StatusInternalServerError, "Failed to store avatar")
		return
	}

	var updated models.User
	err = database.Users.FindOneAndUpdate(ctx,
		bson.M{"_id": ident.ID},
		bson.M{"$set": bson.M{"avatar": newName, "updatedAt": time.Now().Unix()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		log.Printf("ChangeAvatar update error: %v", err)
		abortError(c, http.StatusInternalServerError, "Avatar couldn't be changed")
		return
	}

	c.JSON(http.StatusOK, updated)
}

// EditUser updates the acting user's name, email and password in one shot.
// PATCH /api/users/edit-user
func EditUser(c *gin.Context) {
	ident, ok := identity(c)
	if !ok {
		return
	}

	var req EditUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || email == "" || req.CurrentPassword == "" ||
		req.NewPassword == "" || req.NewConfirmPassword == "" {
		abortError(c, http.StatusUnprocessableEntity, "All fields are required")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	err := database.Users.FindOne(ctx, bson.M{"_id": ident.ID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		abortError(c, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		log.Printf("EditUser lookup error: %v", err)
		abortError(c, http.StatusInternalServerError, "Failed to edit user")
		return
	}

	var other models.User
	err = database.Users.FindOne(ctx, bson.M{"email": email}).Decode(&other)
	if err == nil && other.ID != ident.ID {
		abortError(c, http.StatusConflict, "Email already exists")
		return
	}
	if err != nil && err != mongo.ErrNoDocuments {
		log.Printf("EditUser email check error: %v", err)
		abortError(c, http.StatusInternalServerError, "Failed to edit user")
		return
	}

	if !auth.CheckPassword(user.Password, req.CurrentPassword) {
		abortError(c, http.StatusUnauthorized, "Invalid current password")
		return
	}

	if req.NewPassword != req.NewConfirmPassword {
		abortError(c, http.StatusUnprocessableEntity, "New passwords do not match")
		return
	}

	hashed, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		abortError(c, http.StatusInternalServerError, "Failed to edit user")
		return
	}

	var updated models.User
	err = database.Users.FindOneAndUpdate(ctx,
		bson.M{"_id": ident.ID},
		bson.M{"$set": bson.M{
			"name":      req.Name,
			"email":     email,
			"password":  hashed,
			"updatedAt": time.Now().Unix(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		log.Printf("EditUser update error: %v", err)
		abortError(c, http.StatusInternalServerError, "Failed to edit user")
		return
	}

	c.JSON(http.StatusOK, updated)
}
