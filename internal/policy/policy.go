// Package policy is the single source of truth for who may see or change a
// post. Every decision is a pure function of the principal and the post
// record; nothing here touches the database except by returning query
// scopes for it.
package policy

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"monochrome/internal/auth"
	"monochrome/internal/models"
)

var (
	ErrNotAuthenticated = errors.New("policy: authentication required")
	ErrNotAuthorized    = errors.New("policy: not authorized")
	// ErrComplianceRestricted: admins may not browse private posts that no
	// one has flagged for review. This is a privacy boundary, not an
	// oversight.
	ErrComplianceRestricted = errors.New("policy: admins cannot view private posts outside review")
	ErrContentRemoved       = errors.New("policy: content removed by a moderator")
	ErrPrivateContent       = errors.New("policy: private content")
	ErrValidation           = errors.New("policy: validation failed")
)

// FeedScope restricts a posts query to what p may list.
//
// Admins see all public posts plus everything under review plus their own;
// they do NOT get blanket access to other users' private, unflagged posts.
// Users see public, visible posts plus their own. Anonymous readers see
// public, visible posts.
func FeedScope(p auth.Principal) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch {
		case p.IsAdmin():
			return db.Where("is_private = ? OR hidden_by_admin = ? OR author_id = ?", false, true, p.ID)
		case !p.IsAnonymous():
			return db.Where("(is_private = ? AND hidden_by_admin = ?) OR author_id = ?", false, false, p.ID)
		default:
			return db.Where("is_private = ? AND hidden_by_admin = ?", false, false)
		}
	}
}

// CanReadPost decides whether p may open a post's detail view. Rules are
// checked in order and the first match wins:
//
//  1. admin: denied only for private posts not under review
//  2. owner: always allowed
//  3. taken down: denied
//  4. private: denied
//  5. public and visible: allowed
func CanReadPost(p auth.Principal, post *models.Post) error {
	if p.IsAdmin() {
		if post.IsPrivate && !post.HiddenByAdmin {
			return ErrComplianceRestricted
		}
		return nil
	}
	if !p.IsAnonymous() && p.ID == post.AuthorID {
		return nil
	}
	if post.HiddenByAdmin {
		return ErrContentRemoved
	}
	if post.IsPrivate {
		return ErrPrivateContent
	}
	return nil
}

// CanCreatePost: any authenticated user. The caller must force the author
// to the principal's id; a client-supplied author is never trusted.
func CanCreatePost(p auth.Principal) error {
	if p.IsAnonymous() {
		return ErrNotAuthenticated
	}
	return nil
}

// CanEditContent covers title and content: owner, or admin for moderation
// edits.
func CanEditContent(p auth.Principal, post *models.Post) error {
	if p.IsAnonymous() {
		return ErrNotAuthenticated
	}
	if p.IsAdmin() || p.ID == post.AuthorID {
		return nil
	}
	return ErrNotAuthorized
}

// CanSetPrivacy covers isPrivate: owner only. Admins must not flip it, not
// even as part of a takedown.
func CanSetPrivacy(p auth.Principal, post *models.Post) error {
	if p.IsAnonymous() {
		return ErrNotAuthenticated
	}
	if p.ID == post.AuthorID {
		return nil
	}
	return ErrNotAuthorized
}

// CanModerate covers the hiddenByAdmin/takedownReason pair.
func CanModerate(p auth.Principal) error {
	if p.IsAnonymous() {
		return ErrNotAuthenticated
	}
	if !p.IsAdmin() {
		return ErrNotAuthorized
	}
	return nil
}

func CanDeletePost(p auth.Principal, post *models.Post) error {
	if p.IsAnonymous() {
		return ErrNotAuthenticated
	}
	if p.IsAdmin() || p.ID == post.AuthorID {
		return nil
	}
	return ErrNotAuthorized
}

func CanDeleteComment(p auth.Principal, comment *models.Comment) error {
	if p.IsAnonymous() {
		return ErrNotAuthenticated
	}
	if p.IsAdmin() || p.ID == comment.UserID {
		return nil
	}
	return ErrNotAuthorized
}

// Takedown moves a post into the taken-down state. The reason is
// mandatory; a blank reason leaves the post untouched. IsPrivate is not
// altered: moderation and privacy are independent axes.
func Takedown(post *models.Post, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return fmt.Errorf("%w: takedown reason is required", ErrValidation)
	}
	post.HiddenByAdmin = true
	post.TakedownReason = &reason
	return nil
}

// Restore clears the moderation flag and its reason. IsPrivate keeps
// whatever value it had before the takedown.
func Restore(post *models.Post) {
	post.HiddenByAdmin = false
	post.TakedownReason = nil
}

// TakedownReasonFor returns the takedown reason when p is entitled to see
// it: the owner of a taken-down post, no one else.
func TakedownReasonFor(p auth.Principal, post *models.Post) *string {
	if post.HiddenByAdmin && !p.IsAnonymous() && p.ID == post.AuthorID {
		return post.TakedownReason
	}
	return nil
}
