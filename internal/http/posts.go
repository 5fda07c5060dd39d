package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"monochrome/internal/models"
	"monochrome/internal/policy"
)

type CreatePostInput struct {
	Title     string `json:"title" binding:"required,min=1,max=200"`
	Content   string `json:"content" binding:"required,min=1"`
	IsPrivate bool   `json:"isPrivate"`
}

// UpdatePostInput is the full allow-list of mutable fields. Pointer fields
// distinguish "absent" from zero values; anything else a client sends
// (author, role, id) is never read.
type UpdatePostInput struct {
	Title          *string `json:"title"`
	Content        *string `json:"content"`
	IsPrivate      *bool   `json:"isPrivate"`
	HiddenByAdmin  *bool   `json:"hiddenByAdmin"`
	TakedownReason string  `json:"takedownReason"`
}

type ReactInput struct {
	Emoji string `json:"emoji" binding:"required,max=16"`
}

type CommentInput struct {
	Text string `json:"text" binding:"required,min=1,max=1000"`
}

// GetFeed lists the posts the caller may see. Runs behind OptionalAuth, so
// an invalid token degrades to the anonymous feed instead of an error.
func (e *Env) GetFeed(c *gin.Context) {
	p := principalFrom(c)
	var posts []models.Post
	err := e.DB.
		Scopes(policy.FeedScope(p)).
		Preload("Author", selectUserColumns).
		Preload("Reactions").
		Order("created_at desc").
		Find(&posts).Error
	if err != nil {
		e.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewPosts(p, posts))
}

func (e *Env) GetMyPosts(c *gin.Context) {
	p := principalFrom(c)
	var posts []models.Post
	err := e.DB.
		Where("author_id = ?", p.ID).
		Preload("Author", selectUserColumns).
		Preload("Reactions").
		Order("created_at desc").
		Find(&posts).Error
	if err != nil {
		e.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewPosts(p, posts))
}

func (e *Env) GetPost(c *gin.Context) {
	p := principalFrom(c)
	var post models.Post
	err := e.DB.
		Preload("Author", selectUserColumns).
		Preload("Reactions").
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at asc") }).
		Preload("Comments.User", selectUserColumns).
		First(&post, "id = ?", c.Param("id")).Error
	if err != nil {
		e.renderError(c, err)
		return
	}
	if err := policy.CanReadPost(p, &post); err != nil {
		e.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewPost(p, &post))
}

func (e *Env) CreatePost(c *gin.Context) {
	p := principalFrom(c)
	if err := policy.CanCreatePost(p); err != nil {
		e.renderError(c, err)
		return
	}
	var input CreatePostInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}
	// The author is always the caller.
	post := models.Post{
		Title:     input.Title,
		Content:   input.Content,
		IsPrivate: input.IsPrivate,
		AuthorID:  p.ID,
	}
	if err := e.DB.Create(&post).Error; err != nil {
		e.renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, viewPost(p, &post))
}

// UpdatePost applies the per-role allow-list: owners may edit title,
// content and isPrivate; admins may edit title, content and the moderation
// pair. Each field present in the payload is checked against the policy
// engine before anything is written.
func (e *Env) UpdatePost(c *gin.Context) {
	p := principalFrom(c)
	var input UpdatePostInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}
	// A payload with no allow-listed field would skip every policy check
	// below and must not reach the post at all: the response would hand the
	// full record to any authenticated caller.
	if input.Title == nil && input.Content == nil && input.IsPrivate == nil && input.HiddenByAdmin == nil {
		e.renderError(c, fmt.Errorf("%w: no updatable fields in payload", policy.ErrValidation))
		return
	}

	var post models.Post
	if err := e.DB.First(&post, "id = ?", c.Param("id")).Error; err != nil {
		e.renderError(c, err)
		return
	}

	if input.Title != nil || input.Content != nil {
		if err := policy.CanEditContent(p, &post); err != nil {
			e.renderError(c, err)
			return
		}
		if input.Title != nil {
			post.Title = *input.Title
		}
		if input.Content != nil {
			post.Content = *input.Content
		}
	}

	if input.IsPrivate != nil {
		if err := policy.CanSetPrivacy(p, &post); err != nil {
			e.renderError(c, err)
			return
		}
		post.IsPrivate = *input.IsPrivate
	}

	if input.HiddenByAdmin != nil {
		if err := policy.CanModerate(p); err != nil {
			e.renderError(c, err)
			return
		}
		if *input.HiddenByAdmin {
			if err := policy.Takedown(&post, input.TakedownReason); err != nil {
				e.renderError(c, err)
				return
			}
		} else {
			policy.Restore(&post)
		}
	}

	if err := e.DB.Save(&post).Error; err != nil {
		e.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewPost(p, &post))
}

func (e *Env) DeletePost(c *gin.Context) {
	p := principalFrom(c)
	var post models.Post
	if err := e.DB.First(&post, "id = ?", c.Param("id")).Error; err != nil {
		e.renderError(c, err)
		return
	}
	if err := policy.CanDeletePost(p, &post); err != nil {
		e.renderError(c, err)
		return
	}

	err := e.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Reaction{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&post).Error
	})
	if err != nil {
		e.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

// ToggleReaction adds the reaction if absent and removes it if present.
// The conditional delete-then-insert runs in one transaction so that
// concurrent toggles of the same (user, emoji) on the same post can never
// leave more than one row behind.
func (e *Env) ToggleReaction(c *gin.Context) {
	p := principalFrom(c)
	var input ReactInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}

	var post models.Post
	err := e.DB.Transaction(func(tx *gorm.DB) error {
		q := tx
		// sqlite serializes writing transactions on its own; postgres
		// needs the row lock to do the same.
		if tx.Dialector.Name() == "postgres" {
			q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := q.First(&post, "id = ?", c.Param("id")).Error; err != nil {
			return err
		}
		if err := policy.CanReadPost(p, &post); err != nil {
			return err
		}
		res := tx.Where("post_id = ? AND user_id = ? AND emoji = ?", post.ID, p.ID, input.Emoji).
			Delete(&models.Reaction{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return tx.Create(&models.Reaction{PostID: post.ID, UserID: p.ID, Emoji: input.Emoji}).Error
		}
		return nil
	})
	if err != nil {
		e.renderError(c, err)
		return
	}

	var reactions []models.Reaction
	if err := e.DB.Where("post_id = ?", post.ID).Find(&reactions).Error; err != nil {
		e.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": post.ID, "reactions": reactions})
}

func (e *Env) AddComment(c *gin.Context) {
	p := principalFrom(c)
	var input CommentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "comment text is required"})
		return
	}

	var post models.Post
	if err := e.DB.First(&post, "id = ?", c.Param("id")).Error; err != nil {
		e.renderError(c, err)
		return
	}
	if err := policy.CanReadPost(p, &post); err != nil {
		e.renderError(c, err)
		return
	}

	comment := models.Comment{PostID: post.ID, UserID: p.ID, Text: input.Text}
	if err := e.DB.Create(&comment).Error; err != nil {
		e.renderError(c, err)
		return
	}
	if err := e.DB.Preload("User", selectUserColumns).First(&comment, "id = ?", comment.ID).Error; err != nil {
		e.renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (e *Env) DeleteComment(c *gin.Context) {
	p := principalFrom(c)
	var comment models.Comment
	err := e.DB.First(&comment, "id = ? AND post_id = ?", c.Param("commentId"), c.Param("id")).Error
	if err != nil {
		e.renderError(c, err)
		return
	}
	if err := policy.CanDeleteComment(p, &comment); err != nil {
		e.renderError(c, err)
		return
	}
	if err := e.DB.Delete(&comment).Error; err != nil {
		e.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "comment deleted"})
}
