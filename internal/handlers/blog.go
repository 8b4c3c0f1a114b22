package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/edvlasov/blog-backend/internal/apperror"
	"github.com/edvlasov/blog-backend/internal/logging"
	"github.com/edvlasov/blog-backend/internal/middleware/auth"
	"github.com/edvlasov/blog-backend/internal/models"
	"github.com/edvlasov/blog-backend/internal/mykafka"
	"github.com/edvlasov/blog-backend/internal/search"
)

type BlogHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
	ES       *elasticsearch.Client
}

type postRequest struct {
	Title   string `json:"title"   validate:"required"`
	Content string `json:"content" validate:"required"`
}

type postAuthor struct {
	Name string `json:"name"`
}

type postView struct {
	ID          uint       `json:"id"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	Thumbnail   *string    `json:"thumbnail"`
	IsPublished bool       `json:"isPublished"`
	CreatedAt   time.Time  `json:"createdAt"`
	Author      postAuthor `json:"author"`
}

func viewFromPost(p *models.Post) postView {
	return postView{
		ID:          p.ID,
		Title:       p.Title,
		Content:     p.Content,
		Thumbnail:   p.Thumbnail,
		IsPublished: p.IsPublished,
		CreatedAt:   p.CreatedAt,
		Author:      postAuthor{Name: p.Author.Name},
	}
}

func postID(c echo.Context) (uint, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, apperror.NewNotFound("blog post not found")
	}
	return uint(id), nil
}

func (h *BlogHandler) publish(c echo.Context, key string, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "post_events", key, event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish error", "error", err)
	}
}

// indexPost mirrors the post into elasticsearch, best effort.
func (h *BlogHandler) indexPost(c echo.Context, post *models.Post, authorName string) {
	if h.ES == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := search.IndexPost(ctx, h.ES, search.DocFromPost(post, authorName)); err != nil {
		logging.FromContext(c.Request().Context()).Error("es index error", "error", err)
	}
}

func (h *BlogHandler) dropFromIndex(c echo.Context, id uint) {
	if h.ES == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := search.DeletePost(ctx, h.ES, id); err != nil {
		logging.FromContext(c.Request().Context()).Error("es delete error", "error", err)
	}
}

func (h *BlogHandler) List(c echo.Context) error {
	var posts []models.Post
	if err := h.DB.Preload("Author").Order("created_at DESC").Find(&posts).Error; err != nil {
		return apperror.NewStoreError("could not load blog posts", err)
	}

	views := make([]postView, len(posts))
	for i := range posts {
		views[i] = viewFromPost(&posts[i])
	}

	return c.JSON(http.StatusOK, echo.Map{
		"blogPosts": views,
		"total":     len(views),
	})
}

func (h *BlogHandler) Get(c echo.Context) error {
	id, err := postID(c)
	if err != nil {
		return err
	}

	var post models.Post
	if err := h.DB.Preload("Author").First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NewNotFound("blog post not found")
		}
		return apperror.NewStoreError("could not load blog post", err)
	}

	return c.JSON(http.StatusOK, echo.Map{"blogPost": viewFromPost(&post)})
}

func (h *BlogHandler) Create(c echo.Context) error {
	userID, ok := auth.UserID(c)
	if !ok {
		return apperror.NewUnauthenticated("you are not logged in")
	}

	var req postRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewInvalidInput("inputs are incorrect", err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	var author models.User
	if err := h.DB.First(&author, userID).Error; err != nil {
		return apperror.NewStoreError("could not create blog post", err)
	}

	post := models.Post{
		Title:    req.Title,
		Content:  req.Content,
		AuthorID: userID,
	}
	if err := h.DB.Create(&post).Error; err != nil {
		return apperror.NewStoreError("could not create blog post", err)
	}

	h.publish(c, fmt.Sprint(post.ID), map[string]any{
		"type":     "post_created",
		"postID":   post.ID,
		"authorID": userID,
	})
	h.indexPost(c, &post, author.Name)

	return c.JSON(http.StatusOK, echo.Map{
		"message": "blog posted successfully",
		"id":      post.ID,
	})
}

// Update rewrites title and content of the caller's own post. A post owned by
// someone else reads as not found.
func (h *BlogHandler) Update(c echo.Context) error {
	userID, ok := auth.UserID(c)
	if !ok {
		return apperror.NewUnauthenticated("you are not logged in")
	}

	id, err := postID(c)
	if err != nil {
		return err
	}

	var req postRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewInvalidInput("inputs are incorrect", err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	var post models.Post
	if err := h.DB.Where("id = ? AND author_id = ?", id, userID).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NewNotFound(fmt.Sprintf("blog post with id %d not found", id))
		}
		return apperror.NewStoreError("could not update blog post", err)
	}

	post.Title = req.Title
	post.Content = req.Content
	updates := map[string]any{"title": req.Title, "content": req.Content}
	if err := h.DB.Model(&post).Updates(updates).Error; err != nil {
		return apperror.NewStoreError("could not update blog post", err)
	}

	var author models.User
	if err := h.DB.First(&author, userID).Error; err == nil {
		post.Author = author
	}

	h.publish(c, fmt.Sprint(post.ID), map[string]any{
		"type":     "post_updated",
		"postID":   post.ID,
		"authorID": userID,
	})
	h.indexPost(c, &post, post.Author.Name)

	return c.JSON(http.StatusOK, echo.Map{
		"message":  fmt.Sprintf("blog post with id %d updated successfully", id),
		"id":       post.ID,
		"blogPost": viewFromPost(&post),
	})
}

// Delete removes the caller's own post. Deleting a missing id answers 404
// instead of the silent no-op some clients may remember.
func (h *BlogHandler) Delete(c echo.Context) error {
	userID, ok := auth.UserID(c)
	if !ok {
		return apperror.NewUnauthenticated("you are not logged in")
	}

	id, err := postID(c)
	if err != nil {
		return err
	}

	var post models.Post
	if err := h.DB.Where("id = ? AND author_id = ?", id, userID).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NewNotFound(fmt.Sprintf("blog post with id %d not found", id))
		}
		return apperror.NewStoreError("could not delete blog post", err)
	}

	if err := h.DB.Delete(&post).Error; err != nil {
		return apperror.NewStoreError("could not delete blog post", err)
	}

	h.publish(c, fmt.Sprint(post.ID), map[string]any{
		"type":     "post_deleted",
		"postID":   post.ID,
		"authorID": userID,
	})
	h.dropFromIndex(c, post.ID)

	return c.JSON(http.StatusOK, echo.Map{
		"message": "blog post deleted successfully",
		"id":      post.ID,
	})
}
