package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"quill/database"
	"quill/models"
	"quill/storage"
)

// Thumbnail uploads above this size are rejected.
const maxThumbnailSize = 2000000

// Post descriptions must carry at least this many characters on edit.
const minDescriptionLen = 12

// CreatePost stores the thumbnail, inserts the post and bumps the creator's
// post count. The three steps run in order; an insert failure removes the
// blob again, a counter failure is logged and the request still succeeds.
// POST /api/posts
func CreatePost(c *gin.Context) {
	ident, ok := identity(c)
	if !ok {
		return
	}

	title := strings.TrimSpace(c.PostForm("title"))
	category := strings.TrimSpace(c.PostForm("category"))
	description := strings.TrimSpace(c.PostForm("description"))
	if title == "" || category == "" || description == "" {
		abortError(c, http.StatusUnprocessableEntity, "All fields are required with thumbnail")
		return
	}

	file, header, err := c.Request.FormFile("thumbnail")
	if err != nil {
		abortError(c, http.StatusUnprocessableEntity, "All fields are required with thumbnail")
		return
	}
	defer file.Close()

	if header.Size > maxThumbnailSize {
		abortError(c, http.StatusUnprocessableEntity, "Thumbnail too big. File should be less than 2mb")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	newName := storage.UploadName(header.Filename)
	if err := uploads.Save(ctx, newName, file, header.Size, header.Header.Get("Content-Type")); err != nil {
		log.Printf("CreatePost save error: %v", err)
		abortError(c, http.StatusInternalServerError, "Failed to store thumbnail")
		return
	}

	now := time.Now().Unix()
	post := models.Post{
		ID:          primitive.NewObjectID(),
		Title:       title,
		Category:    category,
		Description: description,
		Thumbnail:   newName,
		Creator:     ident.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := database.Posts.InsertOne(ctx, post); err != nil {
		log.Printf("CreatePost insert error: %v", err)
		if rmErr := uploads.Remove(ctx, newName); rmErr != nil {
			log.Printf("CreatePost: could not remove orphaned thumbnail %s: %v", newName, rmErr)
		}
		abortError(c, http.StatusInternalServerError, "Post couldn't be created")
		return
	}

	if _, err := database.Users.UpdateOne(ctx,
		bson.M{"_id": ident.ID},
		bson.M{"$inc": bson.M{"posts": 1}},
	); err != nil {
		log.Printf("CreatePost: could not increment post count for %s: %v", ident.ID.Hex(), err)
	}

	c.JSON(http.StatusCreated, post)
}

// GetPosts returns every post, most recently updated first.
// GET /api/posts
func GetPosts(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	findOpts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})
	cursor, err := database.Posts.Find(ctx, bson.M{}, findOpts)
	if err != nil {
		log.Printf("GetPosts error: %v", err)
		abortError(c, http.StatusInternalServerError, "Failed to fetch posts")
		return
	}
	defer cursor.Close(ctx)

	posts := []models.Post{}
	if err := cursor.All(ctx, &posts); err != nil {
		log.Printf("GetPosts decode error: %v", err)
		abortError(c, http.StatusInternalServerError, "Failed to fetch posts")
		return
	}

	c.JSON(http.StatusOK, posts)
}

// GetPost returns a single post.
// GET /api/posts/:id
func GetPost(c *gin.Context) {
	postID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortError(c, http.StatusNotFound, "Post not found")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var post models.Post
	err = database.Posts.FindOne(ctx, bson.M{"_id": postID}).Decode(&post)
	if err == mongo.ErrNoDocuments {
		abortError(c, http.StatusNotFound, "Post not found")
		return
	}
	if err != nil {
		log.Printf("GetPost error: %v", err)
		abortError(c, http.StatusInternalServerError, "Failed to fetch post")
		return
	}

	c.JSON(http.StatusOK, post)
}

// GetCatPosts returns posts in a category, most recently created first.
// GET /api/posts/categories/:category
func GetCatPosts(c *gin.Context) {
	category := c.Param("category")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	findOpts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := database.Posts.Find(ctx, bson.M{"category": category}, findOpts)
	if err != nil {
		log.Printf("GetCatPosts error: %v", err)
		abortError(c, http.StatusInternalServerError, "Failed to fetch posts")
		return
	}
	defer cursor.Close(ctx)

	posts := []models.Post{}
	if err := cursor.All(ctx, &posts); err != nil {
		log.Printf("GetCatPosts decode error: %v", err)
		abortError(c, http.StatusInternalServerError, "Failed to fetch posts")
		return
	}

	c.JSON(http.StatusOK, posts)
}

// GetUserPosts returns an author's posts, most recently created first.
// GET /api/posts/users/:id
func GetUserPosts(c *gin.Context) {
	authorID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortError(c, http.StatusNotFound, "User not found")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	findOpts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := database.Posts.Find(ctx, bson.M{"creator": authorID}, findOpts)
	if err != nil {
		log.Printf("GetUserPosts error: %v", err)
		abortError(c, http.StatusInternalServerError, "Failed to fetch posts")
		return
	}
	defer cursor.Close(ctx)

	posts := []models.Post{}
	if err := cursor.All(ctx, &posts); err != nil {
		log.Printf("GetUserPosts decode error: %v", err)
		abortError(c, http.StatusInternalServerError, "Failed to fetch posts")
		return
	}

	c.JSON(http.StatusOK, posts)
}

// EditPost updates a post's text fields and, when a new thumbnail is
// supplied, replaces the stored blob. Only the creator may edit.
// PATCH /api/posts/:id
func EditPost(c *gin.Context) {
	ident, ok := identity(c)
	if !ok {
		return
	}

	postID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortError(c, http.StatusNotFound, "Post not found")
		return
	}

	title := strings.TrimSpace(c.PostForm("title"))
	category := strings.TrimSpace(c.PostForm("category"))
	description := strings.TrimSpace(c.PostForm("description"))
	if title == "" || category == "" || utf8.RuneCountInString(description) < minDescriptionLen {
		abortError(c, http.StatusUnprocessableEntity, "All fields are required and description must be at least 12 characters")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var oldPost models.Post
	err = database.Posts.FindOne(ctx, bson.M{"_id": postID}).Decode(&oldPost)
	if err == mongo.ErrNoDocuments {
		abortError(c, http.StatusNotFound, "Post not found")
		return
	}
	if err != nil {
		log.Printf("EditPost lookup error: %v", err)
		abortError(c, http.StatusInternalServerError, "Failed to edit post")
		return
	}

	if oldPost.Creator != ident.ID {
		abortError(c, http.StatusForbidden, "Only the creator may edit this post")
		return
	}

	set := bson.M{
		"title":       title,
		"category":    category,
		"description": description,
		"updatedAt":   time.Now().Unix(),
	}

	file, header, err := c.Request.FormFile("thumbnail")
	if err == nil {
		defer file.Close()

		if header.Size > maxThumbnailSize {
			abortError(c, http.StatusUnprocessableEntity, "Thumbnail too big. File should be less than 2mb")
			return
		}

		if oldPost.Thumbnail != "" {
			if rmErr := uploads.Remove(ctx, oldPost.Thumbnail); rmErr != nil {
				log.Printf("EditPost: could not remove old thumbnail %s: %v", oldPost.Thumbnail, rmErr)
			}
		}

		newName := storage.UploadName(header.Filename)
		if err := uploads.Save(ctx, newName, file, header.Size, header.Header.Get("Content-Type")); err != nil {
			log.Printf("EditPost save error: %v", err)
			abortError(c, http.StatusInternalServerError, "Failed to store thumbnail")
			return
		}
		set["thumbnail"] = newName
	}

	var updated models.Post
	err = database.Posts.FindOneAndUpdate(ctx,
		bson.M{"_id": postID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err == mongo.ErrNoDocuments {
		abortError(c, http.StatusNotFound, "Couldn't update post")
		return
	}
	if err != nil {
		log.Printf("EditPost update error: %v", err)
		abortError(c, http.StatusInternalServerError, "Couldn't update post")
		return
	}

	c.JSON(http.StatusOK, updated)
}

// DeletePost removes a post, its thumbnail blob, and decrements the
// creator's post count. Only the creator may delete.
// DELETE /api/posts/:id
func DeletePost(c *gin.Context) {
	ident, ok := identity(c)
	if !ok {
		return
	}

	postID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortError(c, http.StatusNotFound, "Post unavailable")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var post models.Post
	err = database.Posts.FindOne(ctx, bson.M{"_id": postID}).Decode(&post)
	if err == mongo.ErrNoDocuments {
		abortError(c, http.StatusNotFound, "Post unavailable")
		return
	}
	if err != nil {
		log.Printf("DeletePost lookup error: %v", err)
		abortError(c, http.StatusInternalServerError, "Failed to delete post")
		return
	}

	if post.Creator != ident.ID {
		abortError(c, http.StatusForbidden, "Only the creator may delete this post")
		return
	}

	if post.Thumbnail != "" {
		if rmErr := uploads.Remove(ctx, post.Thumbnail); rmErr != nil {
			log.Printf("DeletePost: could not remove thumbnail %s: %v", post.Thumbnail, rmErr)
		}
	}

	if _, err := database.Posts.DeleteOne(ctx, bson.M{"_id": postID}); err != nil {
		log.Printf("DeletePost delete error: %v", err)
		abortError(c, http.StatusInternalServerError, "Failed to delete post")
		return
	}

	// The posts > 0 filter keeps the counter non-negative even if an
	// earlier increment was lost.
	if _, err := database.Users.UpdateOne(ctx,
		bson.M{"_id": post.Creator, "posts": bson.M{"$gt": 0}},
		bson.M{"$inc": bson.M{"posts": -1}},
	); err != nil {
		log.Printf("DeletePost: could not decrement post count for %s: %v", post.Creator.Hex(), err)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post " + postID.Hex() + " deleted"})
}
