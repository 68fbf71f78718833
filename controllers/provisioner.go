package controllers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tradenote/tradenote/models"
)

// ProfileProvisioner lazily creates the community profile backing a user's
// first community write. Every endpoint that persists a post, comment or
// follow for a user goes through Ensure first, so a profile row always exists
// before rows referencing it.
type ProfileProvisioner struct {
	db *gorm.DB
}

// NewProfileProvisioner creates a new ProfileProvisioner instance.
func NewProfileProvisioner(db *gorm.DB) *ProfileProvisioner {
	return &ProfileProvisioner{db: db}
}

// Ensure returns the user's profile, creating one when absent. The candidate
// username comes from the email local-part; on a username collision it retries
// exactly once with a unix-timestamp suffix. Any other store error is returned
// to the caller, which is expected to fail its own operation.
// Idempotent: repeated calls after the first success are plain reads.
func (p *ProfileProvisioner) Ensure(userID uint, email string) (*models.Profile, error) {
	var existing models.Profile
	err := p.db.First(&existing, userID).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	username := usernameFromEmail(email)
	if username == "" {
		username = fmt.Sprintf("trader_%d", userID)
	}

	profile := models.Profile{ID: userID, Username: username, Role: "user"}
	err = p.db.Create(&profile).Error
	if err == nil {
		return &profile, nil
	}
	if !isUniqueViolation(err) {
		return nil, err
	}

	// A concurrent Ensure for the same user may have won the race on the
	// primary key; re-reading settles that before treating the conflict as a
	// username collision.
	var raced models.Profile
	if readErr := p.db.First(&raced, userID).Error; readErr == nil {
		return &raced, nil
	}

	profile.Username = fmt.Sprintf("%s_%d", username, time.Now().Unix())
	if err := p.db.Create(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// usernameFromEmail derives a lowercase candidate username from the email
// local-part, keeping [a-z0-9] and folding separators to underscores.
func usernameFromEmail(email string) string {
	local, _, found := strings.Cut(email, "@")
	if !found {
		local = email
	}
	local = strings.ToLower(strings.TrimSpace(local))

	var builder strings.Builder
	for _, r := range local {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			builder.WriteRune(r)
		case r == '_' || r == '-' || r == '.' || r == '+':
			builder.WriteRune('_')
		}
	}
	return strings.Trim(builder.String(), "_")
}

// isUniqueViolation reports whether err comes from a unique index conflict.
// GORM translates driver errors when TranslateError is on; the message checks
// cover drivers that don't.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate entry") || strings.Contains(msg, "unique constraint")
}
